// Sequence digests.
//
// A digest is 16 hex characters naming a logical sequence, so that two
// records carrying the same bases compare equal however their FASTA lines
// were wrapped. The CLI uses digests to count duplicate sequences.
package fastx

import (
	"bytes"
	"fmt"
	"hash"
	"hash/fnv"
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// Hash algorithm constants.
const (
	AlgXXHash3 = 1 // Default, fastest
	AlgFNV1a   = 2
	AlgBlake2b = 3
)

var algNames = map[string]int{
	"xxh3":    AlgXXHash3,
	"fnv1a":   AlgFNV1a,
	"blake2b": AlgBlake2b,
}

// ParseAlgorithm maps "xxh3", "fnv1a" or "blake2b" (any case) to its
// constant.
func ParseAlgorithm(name string) (int, error) {
	alg, ok := algNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown hash algorithm %q", name)
	}
	return alg, nil
}

// newHash returns a 64-bit streaming hash for alg, or nil.
func newHash(alg int) hash.Hash {
	switch alg {
	case AlgXXHash3:
		return xxh3.New()
	case AlgFNV1a:
		return fnv.New64a()
	case AlgBlake2b:
		h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
		return h
	}
	return nil
}

// Digest returns a 16 hex character hash of seq using alg. It returns ""
// for an unknown algorithm.
func Digest(seq []byte, alg int) string {
	return digestLines(seq, alg, false)
}

// digestLines hashes seq, skipping every '\r' and '\n' when wrapped is set.
// The pieces between terminators are written separately so wrapped
// sequences are never copied.
func digestLines(seq []byte, alg int, wrapped bool) string {
	h := newHash(alg)
	if h == nil {
		return ""
	}
	if !wrapped {
		h.Write(seq)
	} else {
		for len(seq) > 0 {
			i := bytes.IndexAny(seq, "\r\n")
			if i < 0 {
				h.Write(seq)
				break
			}
			h.Write(seq[:i])
			seq = seq[i+1:]
		}
	}
	if h64, ok := h.(hash.Hash64); ok {
		return fmt.Sprintf("%016x", h64.Sum64())
	}
	return fmt.Sprintf("%016x", h.Sum(nil))
}
