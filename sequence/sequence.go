// Package sequence holds byte-level helpers for nucleic acid sequences:
// normalisation, complements, canonical forms, minimizers, quality masking
// and Phred decoding. None of them modify their input.
package sequence

import "bytes"

// Normalize maps seq to upper-case DNA: lower case is upper-cased, U
// becomes T, '.' and '~' become the gap '-', whitespace and line endings
// are removed and anything else becomes N. IUPAC ambiguity codes are kept
// when iupac is true and become N otherwise. It returns nil when seq is
// already normalised.
func Normalize(seq []byte, iupac bool) []byte {
	out := make([]byte, 0, len(seq))
	changed := false
	for _, c := range seq {
		n, same := normalizeBase(c, iupac)
		changed = changed || !same
		if n != 0 {
			out = append(out, n)
		}
	}
	if !changed {
		return nil
	}
	return out
}

// normalizeBase returns the normalised byte for c, or 0 when c is dropped,
// and whether c was already normal.
func normalizeBase(c byte, iupac bool) (byte, bool) {
	switch c {
	case 'A', 'C', 'G', 'T', 'N', '-':
		return c, true
	case 'a', 'c', 'g':
		return c - 'a' + 'A', false
	case 't', 'u', 'U':
		return 'T', false
	case '.', '~':
		return '-', false
	case ' ', '\t', '\r', '\n':
		return 0, false
	case 'B', 'D', 'H', 'V', 'R', 'Y', 'S', 'W', 'K', 'M':
		if iupac {
			return c, true
		}
	case 'b', 'd', 'h', 'v', 'r', 'y', 's', 'w', 'k', 'm':
		if iupac {
			return c - 'a' + 'A', false
		}
	}
	return 'N', false
}

var complements = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	pairs := []string{"AT", "CG", "RY", "KM", "BV", "DH"}
	for _, p := range pairs {
		a, b := p[0], p[1]
		t[a], t[b] = b, a
		t[a+'a'-'A'], t[b+'a'-'A'] = b+'a'-'A', a+'a'-'A'
	}
	return t
}()

// Complement returns the complementary base of an IUPAC code, preserving
// case. S, W, N and bytes that are not bases map to themselves.
func Complement(b byte) byte {
	return complements[b]
}

// ReverseComplement returns a new slice holding the reverse complement of
// seq.
func ReverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, c := range seq {
		out[len(seq)-1-i] = complements[c]
	}
	return out
}

// StripReturns removes every '\r' and '\n' from seq. It returns seq itself
// when there is nothing to remove.
func StripReturns(seq []byte) []byte {
	i := bytes.IndexAny(seq, "\r\n")
	if i < 0 {
		return seq
	}
	out := make([]byte, i, len(seq)-1)
	copy(out, seq[:i])
	for _, c := range seq[i+1:] {
		if c != '\r' && c != '\n' {
			out = append(out, c)
		}
	}
	return out
}

// Canonical returns the lexicographically smaller of seq and its reverse
// complement, and true when the reverse complement was chosen. seq itself
// is returned for palindromes.
func Canonical(seq []byte) ([]byte, bool) {
	if compareReverseComplement(seq) <= 0 {
		return seq, false
	}
	return ReverseComplement(seq), true
}

// compareReverseComplement compares seq with its reverse complement
// without building it: -1 if seq sorts first, 1 if the reverse complement
// does, 0 if they are equal.
func compareReverseComplement(seq []byte) int {
	n := len(seq)
	for i := range n {
		fwd, rc := seq[i], complements[seq[n-1-i]]
		switch {
		case fwd < rc:
			return -1
		case fwd > rc:
			return 1
		}
	}
	return 0
}

// Minimizer returns the smallest length-m window of seq or of its reverse
// complement. It returns nil when m is zero or longer than seq.
func Minimizer(seq []byte, m int) []byte {
	if m <= 0 || m > len(seq) {
		return nil
	}
	rc := ReverseComplement(seq)
	best := seq[:m]
	for i := 0; i+m <= len(seq); i++ {
		if w := seq[i : i+m]; bytes.Compare(w, best) < 0 {
			best = w
		}
		if w := rc[i : i+m]; bytes.Compare(w, best) < 0 {
			best = w
		}
	}
	return bytes.Clone(best)
}
