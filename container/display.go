package container

import "fmt"

// visitedSet tracks container identities seen during one display pass
// so cyclic structures (a Struct pointing at its own parent, a List
// holding itself) render a cycle marker instead of recursing forever
// (§3.3, §4.B "Display of containers must be cycle-safe").
type visitedSet map[Identity]bool

func (v visitedSet) enter(id Identity) (visitedSet, bool) {
	if v[id] {
		return v, false
	}
	next := make(visitedSet, len(v)+1)
	for k := range v {
		next[k] = true
	}
	next[id] = true
	return next, true
}

const cycleMarker = "..."

func displayIdentity(kind string, id Identity) string {
	return fmt.Sprintf("<%s %s>", kind, cycleMarker)
}
