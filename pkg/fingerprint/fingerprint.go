// Package fingerprint derives short, content-addressed identifiers.
//
// The hash is FNV-1a 32-bit and stable across runs and platforms.
// Re-submitting a byte-identical document yields the same job and audit ids.
// It is not collision-resistant and must not be used where an adversary
// controls both sides of a comparison.
package fingerprint

import (
	"fmt"
	"hash/fnv"
)

// Sum32Hex returns the FNV-1a 32-bit hash of seed as a fixed-width,
// zero-padded, lowercase hex string (8 characters).
func Sum32Hex(seed string) string {
	h := fnv.New32a()
	// fnv.Write never returns an error.
	_, _ = h.Write([]byte(seed))
	return fmt.Sprintf("%08x", h.Sum32())
}
