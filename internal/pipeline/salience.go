package pipeline

import (
	"strings"

	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// Weights of the salience components.
const (
	recencyWeight     = 0.4
	interactionWeight = 0.2
	confidenceWeight  = 0.3
	explicitWeight    = 0.1
)

// ScoreSalience computes a bounded relevance score for every agent and object
// from the message window. Any generator-supplied salience is discarded.
func ScoreSalience(s *scene.Snapshot, window []scene.Message) {
	contents := make([]string, len(window))
	for i, msg := range window {
		contents[i] = strings.ToLower(msg.Content)
	}
	for _, a := range s.Agents {
		a.Salience = agentSalience(a, contents)
	}
	for _, o := range s.Objects {
		o.Salience = objectSalience(o, s.Agents, contents)
	}
}

func agentSalience(a *scene.Agent, contents []string) float64 {
	interactions := 0
	mass := a.Confidence
	if a.Posture != nil {
		mass += a.Posture.Confidence
	}
	for _, anchor := range a.Anchors {
		interactions += len(anchor.Contacts) + len(anchor.Supports)
		for _, c := range anchor.Contacts {
			mass += c.Confidence
		}
		for _, sup := range anchor.Supports {
			mass += sup.Confidence
		}
	}
	return combine(NormalizeName(a.Name), contents, interactions, mass)
}

// objectSalience counts interactions as the contact/support records of other
// agents whose target matches the object's normalized name, and folds those
// record confidences into the object's confidence mass.
func objectSalience(o *scene.Object, agents []*scene.Agent, contents []string) float64 {
	norm := NormalizeName(o.Name)
	interactions := 0
	mass := o.Confidence
	for _, a := range agents {
		for _, anchor := range a.Anchors {
			for _, c := range anchor.Contacts {
				if NormalizeName(c.Target) == norm && norm != "" {
					interactions++
					mass += c.Confidence
				}
			}
			for _, sup := range anchor.Supports {
				if NormalizeName(sup.Target) == norm && norm != "" {
					interactions++
					mass += sup.Confidence
				}
			}
		}
	}
	return combine(norm, contents, interactions, mass)
}

func combine(norm string, contents []string, interactions int, mass float64) float64 {
	mentions := 0
	inLast := 0.0
	if norm != "" {
		for _, c := range contents {
			if strings.Contains(c, norm) {
				mentions++
			}
		}
		if len(contents) > 0 && strings.Contains(contents[len(contents)-1], norm) {
			inLast = 1
		}
	}

	mentionRate := 0.0
	if len(contents) > 0 {
		mentionRate = float64(mentions) / float64(len(contents))
	}
	recency := min1(0.7*mentionRate + 0.3*inLast)
	interaction := min1(float64(interactions) / 6)
	confidenceMass := min1(mass / 3)
	explicit := 0.0
	if mentions > 0 {
		explicit = 1
	}

	score := recencyWeight*recency +
		interactionWeight*interaction +
		confidenceWeight*confidenceMass +
		explicitWeight*explicit
	return scene.Clamp01(scene.Round3(score))
}

func min1(f float64) float64 {
	if f > 1 {
		return 1
	}
	return f
}
