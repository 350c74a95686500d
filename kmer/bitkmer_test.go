package kmer

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"
)

func TestFromBytes(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
	}{
		{"A", 0},
		{"T", 3},
		{"TTA", 0b111100},
		{"acgt", 0b00011011},
		{"ACGT", 0b00011011},
		{strings.Repeat("T", 32), ^uint64(0)},
	}
	for _, tt := range tests {
		km, err := FromBytes([]byte(tt.in))
		if err != nil {
			t.Fatalf("FromBytes(%q): %v", tt.in, err)
		}
		if km.Seq != tt.want || int(km.K) != len(tt.in) {
			t.Errorf("FromBytes(%q) = %+v, want Seq %b K %d", tt.in, km, tt.want, len(tt.in))
		}
	}
}

func TestFromBytesErrors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrInvalidK},
		{strings.Repeat("A", 33), ErrInvalidK},
		{"ANA", ErrInvalidBase},
		{"AC-", ErrInvalidBase},
	}
	for _, tt := range tests {
		if _, err := FromBytes([]byte(tt.in)); !errors.Is(err, tt.want) {
			t.Errorf("FromBytes(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

// TestBitKmerString verifies unpacking, including the unused high bits.
func TestBitKmerString(t *testing.T) {
	for _, s := range []string{"A", "ACGT", "TTGCA", strings.Repeat("GATTACA", 4)} {
		km, err := FromBytes([]byte(s))
		if err != nil {
			t.Fatal(err)
		}
		if km.String() != s {
			t.Errorf("String = %q, want %q", km.String(), s)
		}
	}
}

func TestExtend(t *testing.T) {
	km := BitKmer{K: 2}
	for _, b := range []byte("ACG") {
		if !Extend(&km, b) {
			t.Fatalf("Extend(%q) failed", b)
		}
	}
	if km.String() != "CG" {
		t.Errorf("after ACG, km = %s, want CG", km)
	}
	before := km
	if Extend(&km, 'N') {
		t.Error("Extend accepted N")
	}
	if km != before {
		t.Errorf("Extend(N) modified km to %s", km)
	}
}

func TestReverseComplement(t *testing.T) {
	tests := []struct{ in, want string }{
		{"AAA", "TTT"},
		{"ACGT", "ACGT"},
		{"AAC", "GTT"},
		{"GATTACA", "TGTAATC"},
		{strings.Repeat("A", 32), strings.Repeat("T", 32)},
		{strings.Repeat("AC", 16), strings.Repeat("GT", 16)},
	}
	for _, tt := range tests {
		km, _ := FromBytes([]byte(tt.in))
		if got := ReverseComplement(km).String(); got != tt.want {
			t.Errorf("ReverseComplement(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}

	// TTT packs to 63
	if got := ReverseComplement(BitKmer{Seq: 0, K: 3}); got.Seq != 63 {
		t.Errorf("ReverseComplement(AAA).Seq = %d, want 63", got.Seq)
	}
}

// TestReverseComplementProperties checks, for random k-mers of every
// width, that reverse complementing twice is the identity and that a k-mer
// and its reverse complement share one canonical form.
func TestReverseComplementProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for k := uint8(1); k <= MaxK; k++ {
		mask := BitKmer{K: k}.mask()
		for range 500 {
			km := BitKmer{Seq: rng.Uint64() & mask, K: k}
			rc := ReverseComplement(km)
			if rc.Seq&^mask != 0 {
				t.Fatalf("k=%d: rc(%s) set unused bits: %x", k, km, rc.Seq)
			}
			if back := ReverseComplement(rc); back != km {
				t.Fatalf("k=%d: rc(rc(%s)) = %s", k, km, back)
			}
			c1, _ := Canonical(km)
			c2, _ := Canonical(rc)
			if c1 != c2 {
				t.Fatalf("k=%d: Canonical(%s) = %s, Canonical(rc) = %s", k, km, c1, c2)
			}
			if want := reverseComplementString(km.String()); rc.String() != want {
				t.Fatalf("k=%d: rc(%s) = %s, want %s", k, km, rc, want)
			}
		}
	}
}

// reverseComplementString is a direct rendition used as a reference.
func reverseComplementString(s string) string {
	out := make([]byte, len(s))
	for i := range len(s) {
		out[len(s)-1-i] = map[byte]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A'}[s[i]]
	}
	return string(out)
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		wasRC bool
	}{
		{"AAA", "AAA", false},
		{"TTT", "AAA", true},
		{"ACGT", "ACGT", false},
		{"CGT", "ACG", true},
		{"AGT", "ACT", true},
	}
	for _, tt := range tests {
		km, _ := FromBytes([]byte(tt.in))
		got, rc := Canonical(km)
		if got.String() != tt.want || rc != tt.wasRC {
			t.Errorf("Canonical(%s) = %s, %v; want %s, %v", tt.in, got, rc, tt.want, tt.wasRC)
		}
	}
}

// TestMinimizer checks windows of both strands taken at width m.
func TestMinimizer(t *testing.T) {
	tests := []struct {
		in   string
		m    uint8
		want string
	}{
		{"AGT", 2, "AC"},
		{"GGGG", 2, "CC"},
		{"ATTTCG", 3, "AAA"},
		{"TTGCA", 1, "A"},
		{"AGT", 3, "ACT"},
		{"AGT", 5, "ACT"},
	}
	for _, tt := range tests {
		km, _ := FromBytes([]byte(tt.in))
		if got := Minimizer(km, tt.m); got.String() != tt.want || got.K != min(tt.m, km.K) {
			t.Errorf("Minimizer(%s, %d) = %s (K %d), want %s", tt.in, tt.m, got, got.K, tt.want)
		}
	}
	if got := Minimizer(BitKmer{Seq: 11, K: 3}, 0); got != (BitKmer{}) {
		t.Errorf("Minimizer(_, 0) = %+v, want zero", got)
	}
}

// drain collects every window of it as "pos:kmer".
func drain(it *BitIter) []string {
	var out []string
	for pos, km := range it.All() {
		out = append(out, strconv.Itoa(pos)+":"+km.String())
	}
	return out
}

func TestBitIter(t *testing.T) {
	it, err := NewBitIter([]byte("ACGTA"), 3, false)
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		pos int
		seq uint64
	}{{0, 6}, {1, 27}, {2, 44}}
	for _, w := range want {
		pos, km, rc, ok := it.Next()
		if !ok || pos != w.pos || km.Seq != w.seq || km.K != 3 || rc {
			t.Errorf("Next = %d, %+v, %v, %v; want %d, %d", pos, km, rc, ok, w.pos, w.seq)
		}
	}
	for range 2 {
		if _, _, _, ok := it.Next(); ok {
			t.Error("Next after the last window returned ok")
		}
	}
}

// TestBitIterCanonical verifies canonical windows and the strand flag.
func TestBitIterCanonical(t *testing.T) {
	it, _ := NewBitIter([]byte("ACGTA"), 3, true)
	want := []struct {
		kmer string
		rc   bool
	}{{"ACG", false}, {"ACG", true}, {"GTA", false}}
	for i, w := range want {
		_, km, rc, ok := it.Next()
		if !ok || km.String() != w.kmer || rc != w.rc {
			t.Errorf("window %d = %s, %v; want %s, %v", i, km, rc, w.kmer, w.rc)
		}
	}
}

// TestBitIterSkipsInvalid verifies that windows containing a byte other
// than ACGT are never yielded and the positions after them are exact.
func TestBitIterSkipsInvalid(t *testing.T) {
	tests := []struct {
		seq  string
		k    uint8
		want []string
	}{
		{"ACNGT", 2, []string{"0:AC", "3:GT"}},
		{"ACNG", 2, []string{"0:AC"}},
		{"NNNN", 2, nil},
		{"AC", 3, nil},
		{"", 1, nil},
		{"acgN", 3, []string{"0:ACG"}},
		{"AAAANTTTTNACGT", 3, []string{"0:AAA", "1:AAA", "5:TTT", "6:TTT", "10:ACG", "11:CGT"}},
	}
	for _, tt := range tests {
		it, err := NewBitIter([]byte(tt.seq), tt.k, false)
		if err != nil {
			t.Fatal(err)
		}
		got := drain(it)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("BitIter(%q, %d) = %v, want %v", tt.seq, tt.k, got, tt.want)
		}
	}
}

func TestNewBitIterInvalidK(t *testing.T) {
	for _, k := range []uint8{0, 33} {
		if _, err := NewBitIter([]byte("ACGT"), k, false); !errors.Is(err, ErrInvalidK) {
			t.Errorf("k=%d: error = %v, want ErrInvalidK", k, err)
		}
	}
}

// TestBitIterMatchesFromBytes verifies every window against an
// independent encoding of the same slice.
func TestBitIterMatchesFromBytes(t *testing.T) {
	seq := []byte("GATTACAGATTACANCCGGTTAACCGGTTAACCGGTTAAGG")
	for _, k := range []uint8{1, 5, 17, 32} {
		it, _ := NewBitIter(seq, k, false)
		for {
			pos, km, _, ok := it.Next()
			if !ok {
				break
			}
			want, err := FromBytes(seq[pos : pos+int(k)])
			if err != nil {
				t.Fatalf("k=%d pos %d: window should not have been yielded: %v", k, pos, err)
			}
			if km != want {
				t.Errorf("k=%d pos %d: %s, want %s", k, pos, km, want)
			}
		}
	}
}
