// Summary statistics over the records of a stream.
package fastx

import (
	"slices"

	json "github.com/goccy/go-json"
)

// Stats accumulates sequence counts and lengths. The zero value is ready
// to use.
type Stats struct {
	Records int
	Bases   int64
	GC      int64 // G, C and S bases, either case
	N       int64 // N bases, either case
	MinLen  int
	MaxLen  int
	lengths []int
}

// Add counts one sequence.
func (s *Stats) Add(seq []byte) {
	n := len(seq)
	if s.Records == 0 || n < s.MinLen {
		s.MinLen = n
	}
	s.MaxLen = max(s.MaxLen, n)
	s.Records++
	s.Bases += int64(n)
	s.lengths = append(s.lengths, n)
	for _, c := range seq {
		switch c {
		case 'G', 'C', 'S', 'g', 'c', 's':
			s.GC++
		case 'N', 'n':
			s.N++
		}
	}
}

// GCContent returns the fraction of G and C among all bases.
func (s *Stats) GCContent() float64 {
	if s.Bases == 0 {
		return 0
	}
	return float64(s.GC) / float64(s.Bases)
}

// N50 returns the length L such that sequences of length L or more hold at
// least half of all bases.
func (s *Stats) N50() int {
	if s.Bases == 0 {
		return 0
	}
	sorted := slices.Clone(s.lengths)
	slices.Sort(sorted)
	var sum int64
	for i := len(sorted) - 1; i >= 0; i-- {
		sum += int64(sorted[i])
		if sum*2 >= s.Bases {
			return sorted[i]
		}
	}
	return 0
}

// MarshalJSON includes the derived GC content and N50.
func (s *Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Records   int     `json:"records"`
		Bases     int64   `json:"bases"`
		GC        int64   `json:"gc"`
		N         int64   `json:"n"`
		MinLen    int     `json:"min_len"`
		MaxLen    int     `json:"max_len"`
		GCContent float64 `json:"gc_content"`
		N50       int     `json:"n50"`
	}{s.Records, s.Bases, s.GC, s.N, s.MinLen, s.MaxLen, s.GCContent(), s.N50()})
}
