package value

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// hashBytes folds a canonical byte encoding of a scalar down to a
// uint64 using blake2b, which gives a fast, well-distributed,
// non-cryptographic-strength-required hash for Dict keys (§3.4) without
// hand-rolling FNV/murmur mixing.
func hashBytes(b []byte) uint64 {
	sum := blake2b.Sum256(b)
	return binary.LittleEndian.Uint64(sum[:8])
}

// Hash computes a value's hash, returning an error if its type is not
// hashable (§3.4). This is the entry point Dict uses to key entries.
func Hash(v Value) (uint64, error) {
	if !v.Type().Hashable() {
		return 0, errNotHashable(v.Type())
	}
	h, ok := v.(Hashable)
	if !ok {
		return 0, errNotHashable(v.Type())
	}
	return h.Hash()
}
