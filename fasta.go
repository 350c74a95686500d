// FASTA scanner.
//
// A FASTA record is a '>' header line followed by any number of sequence
// lines and ends where the next line starts with '>' or at end of input.
// The scanner records the offset of every newline it passes in lines, so a
// wrapped record is described without copying: the id sits between start and
// lines[0], and the sequence between lines[0] and the last entry. When a
// record is split by a refill, search remembers the next byte to inspect and
// the newlines already collected stay valid after the buffer is rebased.
package fastx

import (
	"bytes"
	"io"
)

// fastaPos marks one record inside the buffer.
type fastaPos struct {
	start int   // offset of the '>' marker
	lines []int // newline offsets; the last entry is the end of the record
}

func (p *fastaPos) reset(start int) {
	p.start = start
	p.lines = p.lines[:0]
}

// FastaReader parses FASTA records from a stream.
type FastaReader struct {
	core
	pos     fastaPos
	search  int // next buffer offset to search for a newline
	started bool
}

// NewFastaReader returns a reader that parses r as FASTA. The caller keeps
// ownership of r.
func NewFastaReader(r io.Reader, config Config) *FastaReader {
	return &FastaReader{core: newCore(r, config)}
}

// Format returns FormatFasta.
func (f *FastaReader) Format() Format {
	return FormatFasta
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (f *FastaReader) Next() (*Record, error) {
	f.gen++
	if f.finished {
		return nil, io.EOF
	}

	if !f.started {
		n, err := f.buf.fill()
		if err != nil {
			return f.fail(ioError(err, FormatFasta))
		}
		if n == 0 {
			f.finished = true
			return nil, io.EOF
		}
		if c := f.buf.data[0]; c != '>' {
			return f.fail(invalidStart(c, ErrorPosition{Line: f.position.Line}, FormatFasta))
		}
		f.started = true
		f.search = 1
	} else if len(f.pos.lines) > 0 {
		f.advance()
	}

	if !f.find() {
		if err := f.more(); err != nil {
			return f.fail(ioError(err, FormatFasta))
		}
	}

	// Only reachable at EOF: a header line that never ended.
	if len(f.pos.lines) == 0 {
		return f.fail(unexpectedEnd(ErrorPosition{Line: f.position.Line}, FormatFasta))
	}

	rec := &Record{
		data:     f.buf.data,
		format:   FormatFasta,
		start:    f.pos.start,
		lines:    f.pos.lines,
		position: f.position,
		alg:      f.config.HashAlgorithm,
		gen:      f.gen,
		live:     &f.gen,
	}
	f.detectLineEnding(rec.all())
	rec.lineEnding = f.lineEnding
	return rec, nil
}

// advance moves the cursor past the record returned by the previous call.
func (f *FastaReader) advance() {
	f.position.Line += uint64(len(f.pos.lines))
	f.position.Byte += uint64(f.search - f.pos.start)
	f.pos.reset(f.search)
}

// find reports whether the current record is fully delimited. At end of
// input the record is closed by the last offset searched.
func (f *FastaReader) find() bool {
	if f.scan() {
		return true
	}
	if !f.buf.full() {
		f.finished = true
		if len(f.pos.lines) > 0 {
			f.pos.lines = append(f.pos.lines, f.search)
		}
		return true
	}
	return false
}

// scan collects newline offsets from search onwards until a line starting
// with '>' is found. A newline that is the last byte of the buffer is left
// for the next pass, since the byte after it is not known yet.
func (f *FastaReader) scan() bool {
	data := f.buf.data
	for f.search < len(data) {
		i := bytes.IndexByte(data[f.search:], '\n')
		if i < 0 {
			break
		}
		nl := f.search + i
		if nl+1 == len(data) {
			f.search = nl
			return false
		}
		f.pos.lines = append(f.pos.lines, nl)
		f.search = nl + 1
		if data[nl+1] == '>' {
			return true
		}
	}
	f.search = len(data)
	return false
}

// more grows or compacts the buffer and refills it until the current
// record is delimited or the input ends.
func (f *FastaReader) more() error {
	for {
		if f.pos.start == 0 {
			f.buf.grow()
		} else {
			f.makeRoom()
		}
		if _, err := f.buf.fill(); err != nil {
			return err
		}
		if f.find() {
			return nil
		}
	}
}

// makeRoom discards the records before the current one and rebases every
// stored offset.
func (f *FastaReader) makeRoom() {
	n := f.pos.start
	f.buf.compact(n)
	f.pos.start = 0
	f.search -= n
	for i := range f.pos.lines {
		f.pos.lines[i] -= n
	}
}
