// Record views over the reader buffer.
//
// A Record never owns its bytes: every accessor slices the reader's buffer
// using the offsets found by the scanner. The buffer is rewritten by the
// next call to Next, so each Record carries the reader generation it was
// created in and panics if used after that generation has passed. Copy
// returns an OwnedRecord for callers that need to keep the data.
package fastx

import (
	"bytes"
	"io"

	"github.com/jpl-au/fastx/sequence"
)

// Record is a read-only view of one parsed record.
type Record struct {
	data       []byte
	format     Format
	start      int
	lines      []int    // FASTA newline offsets
	fq         fastqPos // FASTQ line offsets
	position   Position
	lineEnding LineEnding
	alg        int
	gen        uint64
	live       *uint64
}

// Valid reports whether the record can still be read, that is whether the
// reader has not moved on to another record or been closed.
func (r *Record) Valid() bool {
	return r.gen == *r.live
}

func (r *Record) check() {
	if !r.Valid() {
		panic("fastx: record used after Next or Close")
	}
}

// Format returns the format of the stream the record came from.
func (r *Record) Format() Format {
	return r.format
}

// Position returns the line and byte offset of the record's first byte.
func (r *Record) Position() Position {
	return r.position
}

// StartLine returns the 1-based line number of the record's header.
func (r *Record) StartLine() uint64 {
	return r.position.Line
}

// LineEnding returns the line ending of the stream, or LineEndingUnknown if
// none has been seen yet.
func (r *Record) LineEnding() LineEnding {
	return r.lineEnding
}

// ID returns the header line without its marker byte.
func (r *Record) ID() []byte {
	r.check()
	if r.format == FormatFastq {
		return trimCR(r.data[r.start+1 : r.fq.seq-1])
	}
	return trimCR(r.data[r.start+1 : r.lines[0]])
}

// RawSeq returns the sequence bytes exactly as stored. A wrapped FASTA
// sequence still contains its inner line terminators.
func (r *Record) RawSeq() []byte {
	r.check()
	if r.format == FormatFastq {
		return trimCR(r.data[r.fq.seq : r.fq.sep-1])
	}
	if len(r.lines) < 2 {
		return r.data[r.lines[0]:r.lines[0]]
	}
	return bytes.TrimRight(r.data[r.lines[0]+1:r.lines[len(r.lines)-1]], "\r\n")
}

// Seq returns the sequence with all line terminators removed. The result
// aliases the buffer unless terminators had to be stripped.
func (r *Record) Seq() []byte {
	return sequence.StripReturns(r.RawSeq())
}

// Qual returns the quality line of a FASTQ record, or nil for FASTA.
func (r *Record) Qual() []byte {
	r.check()
	if r.format != FormatFastq {
		return nil
	}
	return trimCR(r.data[r.fq.qual:r.fq.end])
}

// NumBases returns the length of Seq without building it.
func (r *Record) NumBases() int {
	raw := r.RawSeq()
	if r.format == FormatFastq {
		return len(raw)
	}
	return len(raw) - bytes.Count(raw, []byte{'\n'}) - bytes.Count(raw, []byte{'\r'})
}

// All returns the complete record as stored, markers included, without the
// final line terminator.
func (r *Record) All() []byte {
	r.check()
	return r.all()
}

func (r *Record) all() []byte {
	if r.format == FormatFastq {
		return r.data[r.start:r.fq.end]
	}
	return r.data[r.start:r.lines[len(r.lines)-1]]
}

// Digest returns a 16 hex character hash of Seq using the reader's
// configured algorithm. Seq is not materialised.
func (r *Record) Digest() string {
	return digestLines(r.RawSeq(), r.alg, true)
}

// Write writes the record using the stream's line ending.
func (r *Record) Write(w io.Writer) error {
	return r.WriteEnding(w, r.lineEnding)
}

// WriteEnding writes the record using the given line ending. FASTA
// sequences keep their original wrapping; when le differs from the
// stream's ending the sequence lines are rejoined with le.
func (r *Record) WriteEnding(w io.Writer, le LineEnding) error {
	if r.format == FormatFastq {
		return WriteFastq(w, r.ID(), r.Seq(), r.Qual(), le)
	}
	raw := r.RawSeq()
	if !bytes.Equal(le.Bytes(), r.lineEnding.Bytes()) && bytes.IndexByte(raw, '\n') >= 0 {
		raw = rewrap(raw, le)
	}
	return WriteFasta(w, r.ID(), raw, le)
}

// rewrap joins the lines of raw with the terminator of le.
func rewrap(raw []byte, le LineEnding) []byte {
	lines := bytes.Split(raw, []byte{'\n'})
	for i, line := range lines {
		lines[i] = trimCR(line)
	}
	return bytes.Join(lines, le.Bytes())
}

// Copy returns an owned copy of the record that stays valid after Next.
func (r *Record) Copy() *OwnedRecord {
	o := &OwnedRecord{
		ID:         bytes.Clone(r.ID()),
		Seq:        bytes.Clone(r.Seq()),
		Format:     r.format,
		Position:   r.position,
		LineEnding: r.lineEnding,
	}
	if q := r.Qual(); q != nil {
		o.Qual = bytes.Clone(q)
	}
	return o
}

// OwnedRecord is a record detached from the reader buffer.
type OwnedRecord struct {
	ID         []byte
	Seq        []byte
	Qual       []byte // nil for FASTA
	Format     Format
	Position   Position
	LineEnding LineEnding
}

// Write writes the record in its own format using le, or the record's
// line ending when le is LineEndingUnknown.
func (o *OwnedRecord) Write(w io.Writer, le LineEnding) error {
	if le == LineEndingUnknown {
		le = o.LineEnding
	}
	if o.Format == FormatFastq {
		return WriteFastq(w, o.ID, o.Seq, o.Qual, le)
	}
	return WriteFasta(w, o.ID, o.Seq, le)
}
