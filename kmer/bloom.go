// Bloom filter for packed k-mers.
//
// Used to estimate the number of distinct k-mers in a stream without
// keeping them all in memory. Bit positions come from double hashing the
// two halves of a 128-bit xxh3 hash of the k-mer.
package kmer

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"
)

// BloomK is the number of hash functions, optimal for the 1% default rate.
const BloomK = 7

// Bloom is a fixed-size bloom filter over BitKmer values.
type Bloom struct {
	bits  []byte
	nbits uint64
}

// NewBloom returns a zeroed filter sized for n k-mers at false positive
// rate fp. Non-positive arguments fall back to 10k entries at 1%.
func NewBloom(n int, fp float64) *Bloom {
	if n <= 0 {
		n = 10_000
	}
	if fp <= 0 || fp >= 1 {
		fp = 0.01
	}
	m := math.Ceil(-float64(n) * math.Log(fp) / (math.Ln2 * math.Ln2))
	size := (uint64(m) + 7) / 8
	return &Bloom{bits: make([]byte, size), nbits: size * 8}
}

// Add inserts km and reports whether it was definitely absent before.
func (b *Bloom) Add(km BitKmer) bool {
	added := false
	b.each(km, func(pos uint64) {
		mask := byte(1) << (pos % 8)
		if b.bits[pos/8]&mask == 0 {
			added = true
			b.bits[pos/8] |= mask
		}
	})
	return added
}

// Contains returns true if km might be present, false if definitely absent.
func (b *Bloom) Contains(km BitKmer) bool {
	found := true
	b.each(km, func(pos uint64) {
		if b.bits[pos/8]&(1<<(pos%8)) == 0 {
			found = false
		}
	})
	return found
}

// Reset clears all bits.
func (b *Bloom) Reset() {
	clear(b.bits)
}

// each calls fn with the filter's bit positions for km.
func (b *Bloom) each(km BitKmer, fn func(uint64)) {
	var key [9]byte
	binary.LittleEndian.PutUint64(key[:8], km.Seq)
	key[8] = km.K
	h := xxh3.Hash128(key[:])
	for i := range uint64(BloomK) {
		fn((h.Lo + i*h.Hi) % b.nbits)
	}
}
