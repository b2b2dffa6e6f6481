package storage

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// HashLabel hashes a region label once at insertion; all later identity
// comparisons use the 64-bit hash.
func HashLabel(name string) uint64 {
	return xxhash.Sum64String(name)
}

// mixPath folds a child label into its parent's path signature. The
// signature identifies the ancestor path of a node and is part of the merge
// identity key, so two nodes combine only when their full ancestor label
// sequences match.
func mixPath(parentSig, label uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], parentSig)
	binary.LittleEndian.PutUint64(buf[8:], label)
	return xxhash.Sum64(buf[:])
}
