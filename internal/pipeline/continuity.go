// Package pipeline implements the synchronous reconciliation stages applied
// to a normalized snapshot: continuity resolution, salience scoring, lock
// enforcement, conflict detection, and capacity pruning.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/J-Rosales/st-scene-state/internal/scene"
)

// pronouns is the closed set of tokens that trigger the most-salient
// previous-entity fallback when no name match exists.
var pronouns = map[string]bool{
	"he": true, "him": true, "his": true,
	"she": true, "her": true, "hers": true,
	"they": true, "them": true, "their": true, "theirs": true,
	"it": true, "its": true,
}

// NormalizeName trims, lowercases, and collapses internal whitespace.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Slugify lowercases a name and collapses runs of non-alphanumerics into
// single hyphens. The result may be empty.
func Slugify(name string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(name) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// entityRef is the slice of an agent or object the resolver operates on.
type entityRef struct {
	id       *string
	name     string
	salience float64
}

// ResolveContinuity assigns stable ids to the current snapshot's agents and
// objects by matching them to the previous snapshot. The two collections are
// resolved independently. Every entity ends up with a non-empty id, unique
// within its collection.
func ResolveContinuity(cur, prev *scene.Snapshot) {
	var prevAgents, prevObjects []entityRef
	if prev != nil {
		prevAgents = agentRefs(prev.Agents)
		prevObjects = objectRefs(prev.Objects)
	}
	resolveIDs("agent", agentRefs(cur.Agents), prevAgents)
	resolveIDs("object", objectRefs(cur.Objects), prevObjects)
}

func agentRefs(agents []*scene.Agent) []entityRef {
	refs := make([]entityRef, len(agents))
	for i, a := range agents {
		refs[i] = entityRef{id: &a.ID, name: a.Name, salience: a.Salience}
	}
	return refs
}

func objectRefs(objects []*scene.Object) []entityRef {
	refs := make([]entityRef, len(objects))
	for i, o := range objects {
		refs[i] = entityRef{id: &o.ID, name: o.Name, salience: o.Salience}
	}
	return refs
}

func resolveIDs(kind string, current, previous []entityRef) {
	byName := make(map[string][]entityRef)
	for _, p := range previous {
		key := NormalizeName(p.name)
		if key == "" {
			continue
		}
		byName[key] = append(byName[key], p)
	}

	used := make(map[string]bool)
	for i, c := range current {
		id := resolveOne(kind, c, i, byName, previous, used)
		used[id] = true
		*current[i].id = id
	}
}

func resolveOne(kind string, c entityRef, pos int, byName map[string][]entityRef, previous []entityRef, used map[string]bool) string {
	norm := NormalizeName(c.name)
	if matches := byName[norm]; len(matches) > 0 {
		if id := pickMatch(matches, used); id != "" {
			return id
		}
		// All matching ids were already claimed this turn; the entity is a
		// distinct same-name participant and gets a fresh id.
		return freshID(kind, norm, pos, used)
	}
	if pronouns[strings.ToLower(strings.TrimSpace(c.name))] {
		if id := mostSalient(previous, used); id != "" {
			return id
		}
	}
	return freshID(kind, norm, pos, used)
}

// pickMatch chooses among same-name previous entities: highest salience, then
// normalized name, then id, lexicographically.
func pickMatch(matches []entityRef, used map[string]bool) string {
	sorted := append([]entityRef(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].salience != sorted[j].salience {
			return sorted[i].salience > sorted[j].salience
		}
		ni, nj := NormalizeName(sorted[i].name), NormalizeName(sorted[j].name)
		if ni != nj {
			return ni < nj
		}
		return *sorted[i].id < *sorted[j].id
	})
	for _, m := range sorted {
		if !used[*m.id] {
			return *m.id
		}
	}
	return ""
}

// mostSalient returns the unclaimed previous entity with the highest salience.
func mostSalient(previous []entityRef, used map[string]bool) string {
	best := ""
	bestScore := -1.0
	for _, p := range previous {
		if *p.id == "" || used[*p.id] {
			continue
		}
		if p.salience > bestScore {
			bestScore = p.salience
			best = *p.id
		}
	}
	return best
}

func freshID(kind, norm string, pos int, used map[string]bool) string {
	slug := Slugify(norm)
	var id string
	if slug == "" {
		id = fmt.Sprintf("%s-unknown-%d", kind, pos)
	} else {
		id = kind + "-" + slug
	}
	candidate := id
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", id, n)
	}
	return candidate
}
