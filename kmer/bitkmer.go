// Package kmer encodes fixed-length windows of nucleic acid sequences.
//
// A BitKmer packs up to 32 bases into a uint64 at two bits per base
// (A=00, C=01, G=10, T=11), with the first base in the most significant
// used bits and all unused high bits zero. BitIter slides such a window
// along a sequence. Kmers and CanonicalKmers do the same over plain byte
// slices.
//
// Windows containing a byte other than A, C, G or T (either case) are never
// encoded. Iterators skip them by moving the window start forward one byte
// at a time and rescanning, which is the historical behaviour of these
// iterators and is kept for compatibility.
package kmer

import (
	"errors"
	"fmt"
	"iter"
)

// MaxK is the widest k-mer that fits in a BitKmer.
const MaxK = 32

// Sentinel errors. Callers can use errors.Is to tell a bad window width
// from a sequence that cannot be encoded.
var (
	ErrInvalidK    = errors.New("k-mer width out of range")
	ErrInvalidBase = errors.New("base cannot be encoded")
)

// BitKmer is a packed k-mer.
type BitKmer struct {
	Seq uint64
	K   uint8
}

var codes = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = 0xFF
	}
	for i, c := range "ACGT" {
		t[c] = uint8(i)
		t[c+'a'-'A'] = uint8(i)
	}
	return t
}()

// mask covers the 2*k low bits used by km.
func (km BitKmer) mask() uint64 {
	if km.K >= MaxK {
		return ^uint64(0)
	}
	return 1<<(2*uint(km.K)) - 1
}

// Extend shifts base into the low end of km, dropping the oldest base once
// km holds K bases. It returns false and leaves km unchanged when base is
// not A, C, G or T.
func Extend(km *BitKmer, base byte) bool {
	c := codes[base]
	if c == 0xFF {
		return false
	}
	km.Seq = (km.Seq<<2 | uint64(c)) & km.mask()
	return true
}

// ReverseComplement returns the reverse complement of km in constant time.
// The 2-bit groups are reversed with swap-and-mask steps over the whole
// word, complemented, and shifted down past the unused bases.
func ReverseComplement(km BitKmer) BitKmer {
	x := km.Seq
	x = (x>>2)&0x3333_3333_3333_3333 | (x&0x3333_3333_3333_3333)<<2
	x = (x>>4)&0x0F0F_0F0F_0F0F_0F0F | (x&0x0F0F_0F0F_0F0F_0F0F)<<4
	x = (x>>8)&0x00FF_00FF_00FF_00FF | (x&0x00FF_00FF_00FF_00FF)<<8
	x = (x>>16)&0x0000_FFFF_0000_FFFF | (x&0x0000_FFFF_0000_FFFF)<<16
	x = x>>32 | x<<32
	x = ^x
	x >>= 2 * (MaxK - uint(km.K))
	return BitKmer{Seq: x, K: km.K}
}

// Canonical returns the smaller of km and its reverse complement, and true
// when the reverse complement was chosen. Palindromes return km and false.
func Canonical(km BitKmer) (BitKmer, bool) {
	rc := ReverseComplement(km)
	if km.Seq > rc.Seq {
		return rc, true
	}
	return km, false
}

// Minimizer returns the smallest m-base window of km or of its reverse
// complement. Windows are taken by masking and shifting the packed value.
// An m of zero returns the zero BitKmer and an m of K or more returns the
// canonical form of km.
func Minimizer(km BitKmer, m uint8) BitKmer {
	switch {
	case m == 0:
		return BitKmer{}
	case m >= km.K:
		c, _ := Canonical(km)
		return c
	}
	mask := BitKmer{K: m}.mask()
	lowest := ^uint64(0)
	x := km.Seq
	for range km.K - m + 1 {
		w := BitKmer{Seq: x & mask, K: m}
		lowest = min(lowest, w.Seq, ReverseComplement(w).Seq)
		x >>= 2
	}
	return BitKmer{Seq: lowest, K: m}
}

// FromBytes packs seq into a BitKmer.
func FromBytes(seq []byte) (BitKmer, error) {
	if len(seq) == 0 || len(seq) > MaxK {
		return BitKmer{}, fmt.Errorf("%w: %d", ErrInvalidK, len(seq))
	}
	km := BitKmer{K: uint8(len(seq))}
	for i, b := range seq {
		if !Extend(&km, b) {
			return BitKmer{}, fmt.Errorf("%w: %q at %d", ErrInvalidBase, b, i)
		}
	}
	return km, nil
}

// Bytes unpacks km into upper-case bases.
func (km BitKmer) Bytes() []byte {
	out := make([]byte, km.K)
	x := km.Seq
	for i := int(km.K) - 1; i >= 0; i-- {
		out[i] = "ACGT"[x&3]
		x >>= 2
	}
	return out
}

func (km BitKmer) String() string {
	return string(km.Bytes())
}

// BitIter yields the packed k-mers of a sequence in order. Once Next has
// reported false the iterator stays exhausted.
type BitIter struct {
	seq       []byte
	pos       int
	km        BitKmer
	canonical bool
}

// NewBitIter returns an iterator over the k-mers of seq. When canonical is
// true each k-mer is replaced by its canonical form.
func NewBitIter(seq []byte, k uint8, canonical bool) (*BitIter, error) {
	if k == 0 || k > MaxK {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	it := &BitIter{seq: seq, km: BitKmer{K: k}, canonical: canonical}
	it.advance(true)
	return it, nil
}

// advance extends the window until it holds a full k-mer ending at
// pos+k-1. The first call loads only k-1 bases. On an invalid base the
// window is cleared and its start moves forward by one.
func (it *BitIter) advance(initial bool) bool {
	k := int(it.km.K)
	if it.pos+k > len(it.seq) {
		return false
	}
	n, stop := k-1, k
	if initial {
		n, stop = 0, k-1
	}
	for n < stop {
		if Extend(&it.km, it.seq[it.pos+n]) {
			n++
			continue
		}
		n = 0
		it.km.Seq = 0
		it.pos++
		if it.pos+k > len(it.seq) {
			return false
		}
	}
	return true
}

// Next returns the start offset of the next valid window, its k-mer and
// whether the reverse complement was chosen. ok is false once the sequence
// is exhausted.
func (it *BitIter) Next() (pos int, km BitKmer, rc bool, ok bool) {
	if !it.advance(false) {
		return 0, BitKmer{}, false, false
	}
	pos = it.pos
	it.pos++
	if it.canonical {
		km, rc = Canonical(it.km)
		return pos, km, rc, true
	}
	return pos, it.km, false, true
}

// All yields the remaining windows as offset and k-mer pairs.
func (it *BitIter) All() iter.Seq2[int, BitKmer] {
	return func(yield func(int, BitKmer) bool) {
		for {
			pos, km, _, ok := it.Next()
			if !ok || !yield(pos, km) {
				return
			}
		}
	}
}
