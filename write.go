// Write primitives for re-emitting records.
//
// Records are written one field per line with the requested terminator.
// A FASTQ record without quality scores gets a synthetic quality line of
// 'I' (Phred 40) so records read from FASTA can be written as FASTQ.
package fastx

import (
	"bytes"
	"io"
)

// MaxQuality is the quality character used when none is available.
const MaxQuality = 'I'

// WriteFasta writes one FASTA record.
func WriteFasta(w io.Writer, id, seq []byte, le LineEnding) error {
	eol := le.Bytes()
	var buf bytes.Buffer
	buf.Grow(len(id) + len(seq) + 2*len(eol) + 1)
	buf.WriteByte('>')
	buf.Write(id)
	buf.Write(eol)
	buf.Write(seq)
	buf.Write(eol)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFastq writes one FASTQ record. A nil qual is replaced by MaxQuality
// repeated len(seq) times.
func WriteFastq(w io.Writer, id, seq, qual []byte, le LineEnding) error {
	if qual == nil {
		qual = bytes.Repeat([]byte{MaxQuality}, len(seq))
	}
	eol := le.Bytes()
	var buf bytes.Buffer
	buf.Grow(len(id) + len(seq) + len(qual) + 4*len(eol) + 2)
	buf.WriteByte('@')
	buf.Write(id)
	buf.Write(eol)
	buf.Write(seq)
	buf.Write(eol)
	buf.WriteByte('+')
	buf.Write(eol)
	buf.Write(qual)
	buf.Write(eol)
	_, err := w.Write(buf.Bytes())
	return err
}
