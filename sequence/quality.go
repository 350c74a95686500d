// Quality score helpers.
package sequence

import (
	"errors"
	"fmt"
)

// ErrQualityOffset is returned when a quality character sorts below the
// offset of its encoding.
var ErrQualityOffset = errors.New("quality character below encoding offset")

// PhredEncoding is the ASCII offset scheme of a quality line.
type PhredEncoding int

// Supported Phred encodings.
const (
	Phred33 PhredEncoding = iota // Sanger and Illumina 1.8+, offset '!'
	Phred64                      // Illumina 1.3 to 1.7, offset '@'
)

// Offset returns the ASCII character encoding quality zero.
func (e PhredEncoding) Offset() byte {
	if e == Phred64 {
		return '@'
	}
	return '!'
}

// DecodePhred converts a quality line to numeric scores.
func DecodePhred(qual []byte, enc PhredEncoding) ([]byte, error) {
	offset := enc.Offset()
	scores := make([]byte, len(qual))
	for i, q := range qual {
		if q < offset {
			return nil, fmt.Errorf("%w: %q at %d, offset %q", ErrQualityOffset, q, i, offset)
		}
		scores[i] = q - offset
	}
	return scores, nil
}

// QualityMask returns a copy of seq where every base whose quality
// character is below score is replaced by N. Bases beyond the end of qual
// are kept.
func QualityMask(seq, qual []byte, score byte) []byte {
	out := make([]byte, len(seq))
	for i, b := range seq {
		if i < len(qual) && qual[i] < score {
			b = 'N'
		}
		out[i] = b
	}
	return out
}
