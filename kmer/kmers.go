// Byte-slice k-mer iterators.
package kmer

import (
	"bytes"
	"fmt"
	"iter"
)

func goodBase(b byte) bool {
	return codes[b] != 0xFF
}

// Kmers yields every length-k window of a sequence, valid bases or not.
type Kmers struct {
	seq []byte
	k   int
	pos int
}

// NewKmers returns an iterator over the windows of seq.
func NewKmers(seq []byte, k int) (*Kmers, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	return &Kmers{seq: seq, k: k}, nil
}

// Next returns the next window, which aliases the sequence.
func (it *Kmers) Next() ([]byte, bool) {
	if it.pos+it.k > len(it.seq) {
		return nil, false
	}
	w := it.seq[it.pos : it.pos+it.k]
	it.pos++
	return w, true
}

// All yields the remaining windows with their start offsets.
func (it *Kmers) All() iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		for {
			pos := it.pos
			w, ok := it.Next()
			if !ok || !yield(pos, w) {
				return
			}
		}
	}
}

// CanonicalKmers walks a sequence and its reverse complement together and
// yields, for every window made only of A, C, G and T, the smaller of the
// forward and reverse complement slices.
type CanonicalKmers struct {
	seq []byte
	rc  []byte
	k   int
	pos int
}

// NewCanonicalKmers returns an iterator over seq. rc must be the reverse
// complement of seq, as built by sequence.ReverseComplement.
func NewCanonicalKmers(seq, rc []byte, k int) (*CanonicalKmers, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if len(rc) != len(seq) {
		return nil, fmt.Errorf("reverse complement length %d, sequence length %d", len(rc), len(seq))
	}
	it := &CanonicalKmers{seq: seq, rc: rc, k: k}
	it.advance(true)
	return it, nil
}

// advance mirrors BitIter.advance without the packing.
func (it *CanonicalKmers) advance(initial bool) bool {
	if it.pos+it.k > len(it.seq) {
		return false
	}
	n, stop := it.k-1, it.k
	if initial {
		n, stop = 0, it.k-1
	}
	for n < stop {
		if goodBase(it.seq[it.pos+n]) {
			n++
			continue
		}
		n = 0
		it.pos++
		if it.pos+it.k > len(it.seq) {
			return false
		}
	}
	return true
}

// Next returns the start offset of the next valid window, the smaller of
// the forward and reverse complement slices, and true when the reverse
// complement slice was chosen. Equal slices report the reverse complement.
func (it *CanonicalKmers) Next() (pos int, kmer []byte, rc bool, ok bool) {
	if !it.advance(false) {
		return 0, nil, false, false
	}
	pos = it.pos
	it.pos++

	fwd := it.seq[pos : pos+it.k]
	end := len(it.rc) - pos
	rev := it.rc[end-it.k : end]
	if bytes.Compare(fwd, rev) < 0 {
		return pos, fwd, false, true
	}
	return pos, rev, true, true
}
