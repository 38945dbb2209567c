package main

import "github.com/J-Rosales/st-scene-state/cmd"

func main() {
	cmd.Execute()
}
