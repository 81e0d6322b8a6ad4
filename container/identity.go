// Package container implements the runtime's shared-ownership,
// mutable structured containers: List, Dict, Struct, and the immutable
// Table/Row pair (§3.2, §4.B). Each shared container carries a stable
// identity used for cycle-safe display and as a serialization key.
package container

import "sync/atomic"

var nextIdentity uint64

// Identity is a stable id derived from a container's allocation: two
// handles sharing the same Identity are the same underlying container
// (§3.2, glossary "Identity").
type Identity uint64

// newIdentity allocates the next identity. Collisions across process
// restarts are fine: identity is only meaningful within one run.
func newIdentity() Identity {
	return Identity(atomic.AddUint64(&nextIdentity, 1))
}
