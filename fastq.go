// FASTQ scanner.
//
// A FASTQ record is exactly four lines: '@' id, sequence, '+' separator and
// quality. Each record is located by four newline searches. The state field
// records how many of those already succeeded, so a record split by a
// refill resumes at the first line not yet found. Records are validated as
// soon as they are delimited and any violation ends the stream: the reader
// never tries to resynchronise after a corrupt record.
package fastx

import (
	"bytes"
	"io"
	"strings"
)

// searchState is the last line of the current record that has been
// located. Its ordinal is also the line offset reported for truncation.
type searchState int

const (
	stateID        searchState = iota // nothing past the id line start
	stateSequence                     // sequence line start known
	stateSeparator                    // separator line start known
	stateQuality                      // quality line start known
)

// fastqPos marks the four lines of one record inside the buffer. end is
// the offset of the newline closing the quality line, or the buffer length
// for a final record without one.
type fastqPos struct {
	start, seq, sep, qual, end int
}

// FastqReader parses FASTQ records from a stream.
type FastqReader struct {
	core
	pos   fastqPos
	state searchState
}

// NewFastqReader returns a reader that parses r as FASTQ. The caller keeps
// ownership of r.
func NewFastqReader(r io.Reader, config Config) *FastqReader {
	return &FastqReader{core: newCore(r, config)}
}

// Format returns FormatFastq.
func (q *FastqReader) Format() Format {
	return FormatFastq
}

// Next returns the next record, or io.EOF when the input is exhausted.
func (q *FastqReader) Next() (*Record, error) {
	q.gen++
	if q.finished {
		return nil, io.EOF
	}

	if len(q.buf.data) == 0 {
		n, err := q.buf.fill()
		if err != nil {
			return q.fail(ioError(err, FormatFastq))
		}
		if n == 0 {
			q.finished = true
			return nil, io.EOF
		}
	}

	// end is zero until the first record has been delimited.
	if q.pos.end != 0 {
		q.position.Byte += uint64(q.pos.end + 1 - q.pos.start)
		q.position.Line += 4
		q.pos.start = q.pos.end + 1
	}

	found, err := q.find()
	if err != nil {
		return nil, err
	}
	if !found && !q.finished {
		found, err = q.more()
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, io.EOF
		}
	}

	rec := &Record{
		data:     q.buf.data,
		format:   FormatFastq,
		start:    q.pos.start,
		fq:       q.pos,
		position: q.position,
		alg:      q.config.HashAlgorithm,
		gen:      q.gen,
		live:     &q.gen,
	}
	q.detectLineEnding(rec.all())
	rec.lineEnding = q.lineEnding
	return rec, nil
}

// find resumes the line search from the current state. It reports true
// once the record is delimited and valid. A record opening with an empty
// line is handed to blankTail, which finishes the stream.
func (q *FastqReader) find() (bool, error) {
	data := q.buf.data
	p := &q.pos

	switch q.state {
	case stateID:
		if p.start < len(data) && (data[p.start] == '\n' || data[p.start] == '\r') {
			return q.blankTail()
		}
		i := nextLine(data, p.start)
		if i < 0 {
			return false, nil
		}
		p.seq = i
		q.state = stateSequence
		fallthrough
	case stateSequence:
		i := nextLine(data, p.seq)
		if i < 0 {
			return false, nil
		}
		p.sep = i
		q.state = stateSeparator
		fallthrough
	case stateSeparator:
		i := nextLine(data, p.sep)
		if i < 0 {
			return false, nil
		}
		p.qual = i
		q.state = stateQuality
		fallthrough
	case stateQuality:
		i := nextLine(data, p.qual)
		if i < 0 {
			return false, nil
		}
		p.end = i - 1
	}

	q.state = stateID
	if err := q.validate(); err != nil {
		return false, err
	}
	return true, nil
}

// more grows or compacts the buffer and refills it until the current record
// is delimited. At end of input it defers to finish.
func (q *FastqReader) more() (bool, error) {
	for {
		if !q.buf.full() {
			return q.finish()
		}
		if q.pos.start == 0 {
			q.buf.grow()
		} else {
			q.makeRoom()
		}
		if _, err := q.buf.fill(); err != nil {
			q.finished = true
			return false, ioError(err, FormatFastq)
		}
		found, err := q.find()
		if err != nil || found || q.finished {
			return found, err
		}
	}
}

// finish handles end of input in the middle of a record. Trailing blank
// lines end the stream cleanly. Otherwise a record whose
// quality line is the last line of the input is complete and anything else
// is a truncation.
func (q *FastqReader) finish() (bool, error) {
	q.finished = true
	if blank(q.buf.data[q.pos.start:]) {
		return false, nil
	}
	if q.state == stateQuality {
		q.pos.end = len(q.buf.data)
		q.state = stateID
		if err := q.validate(); err != nil {
			return false, err
		}
		return true, nil
	}

	pos := ErrorPosition{Line: q.position.Line + uint64(q.state)}
	if q.state > stateID {
		pos.ID = q.errorID()
	}
	return false, unexpectedEnd(pos, FormatFastq)
}

// blankTail reads the rest of the input once a record opens with an empty
// line. Nothing but blank lines up to EOF ends the stream cleanly; any
// other byte makes the empty line an invalid start.
func (q *FastqReader) blankTail() (bool, error) {
	q.finished = true
	found := q.buf.data[q.pos.start]
	pos := ErrorPosition{Line: q.position.Line}
	for {
		if !blank(q.buf.data[q.pos.start:]) {
			return false, invalidStart(found, pos, FormatFastq)
		}
		if !q.buf.full() {
			return false, nil
		}
		q.buf.compact(len(q.buf.data))
		q.pos = fastqPos{}
		if _, err := q.buf.fill(); err != nil {
			return false, ioError(err, FormatFastq)
		}
	}
}

// validate checks both markers and the sequence and quality lengths of a
// delimited record.
func (q *FastqReader) validate() error {
	data := q.buf.data
	p := q.pos

	if c := data[p.start]; c != '@' {
		q.finished = true
		return invalidStart(c, ErrorPosition{Line: q.position.Line}, FormatFastq)
	}
	if c := data[p.sep]; c != '+' {
		q.finished = true
		return invalidSeparator(c, ErrorPosition{Line: q.position.Line + 2, ID: q.errorID()})
	}

	seqLen := len(trimCR(data[p.seq : p.sep-1]))
	qualLen := len(trimCR(data[p.qual:p.end]))
	if seqLen != qualLen {
		q.finished = true
		return unequalLengths(seqLen, qualLen, ErrorPosition{Line: q.position.Line, ID: q.errorID()})
	}
	return nil
}

// errorID returns the id of the current record up to the first space, for
// use in error messages. It is empty when the id line was not found.
func (q *FastqReader) errorID() string {
	p := q.pos
	if p.seq-p.start <= 1 {
		return ""
	}
	id := trimCR(q.buf.data[p.start+1 : p.seq-1])
	if i := bytes.IndexByte(id, ' '); i >= 0 {
		id = id[:i]
	}
	return strings.ToValidUTF8(string(id), "\uFFFD")
}

// makeRoom discards the records before the current one and rebases the
// offsets already found.
func (q *FastqReader) makeRoom() {
	n := q.pos.start
	q.buf.compact(n)
	q.pos.start = 0
	if q.state >= stateSequence {
		q.pos.seq -= n
	}
	if q.state >= stateSeparator {
		q.pos.sep -= n
	}
	if q.state >= stateQuality {
		q.pos.qual -= n
	}
}

// nextLine returns the offset just past the next newline at or after from,
// or -1 if there is none.
func nextLine(data []byte, from int) int {
	if from >= len(data) {
		return -1
	}
	i := bytes.IndexByte(data[from:], '\n')
	if i < 0 {
		return -1
	}
	return from + i + 1
}

// blank reports whether b holds nothing but line terminators. Checking
// bytes rather than lines gives the same answer however b is split.
func blank(b []byte) bool {
	return len(bytes.Trim(b, "\r\n")) == 0
}
