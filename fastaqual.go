// Paired FASTA and QUAL reading.
//
// Older sequencing pipelines ship base calls and quality scores as two
// FASTA-shaped files: the .fasta file holds the bases and the .qual file
// holds one whitespace-separated integer score per base under the same
// header. FastaQualReader advances both in lockstep and pairs records by
// id. The scores are only decoded when Qual is called.
package fastx

import (
	"bytes"
	"errors"
	"io"
	"strconv"
)

// FastaQualReader reads a sequence stream and its quality stream together.
type FastaQualReader struct {
	seq, qual Reader
	finished  bool
}

// NewFastaQualReader pairs the records of seq and qual. Both must be FASTA
// streams; the check happens on the first call to Next.
func NewFastaQualReader(seq, qual Reader) *FastaQualReader {
	return &FastaQualReader{seq: seq, qual: qual}
}

// OpenFastaQual opens a sequence file and its quality file with Open, so
// either may be compressed.
func OpenFastaQual(seqPath, qualPath string, config Config) (*FastaQualReader, error) {
	seq, err := Open(seqPath, config)
	if err != nil {
		return nil, err
	}
	qual, err := Open(qualPath, config)
	if err != nil {
		seq.Close()
		return nil, err
	}
	return NewFastaQualReader(seq, qual), nil
}

// Format returns FormatFastaQual.
func (r *FastaQualReader) Format() Format {
	return FormatFastaQual
}

// Next returns the next pair, or io.EOF once both streams are exhausted.
// One stream ending before the other, or a pair whose ids differ, is
// ErrRecordMismatch. Any error ends the stream.
func (r *FastaQualReader) Next() (*FastaQualRecord, error) {
	if r.finished {
		return nil, io.EOF
	}
	rec, err := r.next()
	if err != nil {
		r.finished = true
	}
	return rec, err
}

func (r *FastaQualReader) next() (*FastaQualRecord, error) {
	seq, seqErr := r.seq.Next()
	qual, qualErr := r.qual.Next()

	switch {
	case seqErr == io.EOF && qualErr == io.EOF:
		return nil, io.EOF
	case seqErr != nil && seqErr != io.EOF:
		return nil, seqErr
	case qualErr != nil && qualErr != io.EOF:
		return nil, qualErr
	case seqErr == io.EOF:
		return nil, recordMismatch("quality file has more records than sequence file",
			ErrorPosition{Line: qual.StartLine(), ID: string(qual.ID())})
	case qualErr == io.EOF:
		return nil, recordMismatch("sequence file has more records than quality file",
			ErrorPosition{Line: seq.StartLine(), ID: string(seq.ID())})
	}

	if seq.Format() != FormatFasta || qual.Format() != FormatFasta {
		return nil, formatMismatch(seq.Format(), qual.Format())
	}
	if !bytes.Equal(seq.ID(), qual.ID()) {
		return nil, recordMismatch("quality record id "+strconv.QuoteToASCII(string(qual.ID()))+" does not match",
			ErrorPosition{Line: seq.StartLine(), ID: string(seq.ID())})
	}
	return &FastaQualRecord{seq: seq, qual: qual}, nil
}

// Close closes both streams and joins their errors.
func (r *FastaQualReader) Close() error {
	return errors.Join(r.seq.Close(), r.qual.Close())
}

// FastaQualRecord is a sequence record paired with its quality record.
// Like Record it is a view and is invalidated by the next call to Next.
type FastaQualRecord struct {
	seq, qual *Record
}

// ID returns the shared id line.
func (p *FastaQualRecord) ID() []byte { return p.seq.ID() }

// RawSeq returns the sequence lines as stored.
func (p *FastaQualRecord) RawSeq() []byte { return p.seq.RawSeq() }

// Seq returns the sequence with line terminators removed.
func (p *FastaQualRecord) Seq() []byte { return p.seq.Seq() }

// NumBases returns the number of bases.
func (p *FastaQualRecord) NumBases() int { return p.seq.NumBases() }

// All returns the sequence record as stored.
func (p *FastaQualRecord) All() []byte { return p.seq.All() }

// StartLine returns the header line of the sequence record.
func (p *FastaQualRecord) StartLine() uint64 { return p.seq.StartLine() }

// LineEnding returns the line ending of the sequence stream.
func (p *FastaQualRecord) LineEnding() LineEnding { return p.seq.LineEnding() }

// Format returns FormatFastaQual.
func (p *FastaQualRecord) Format() Format { return FormatFastaQual }

// Qual decodes the quality record into one score per base. Scores are
// decimal integers from 0 to 255 separated by any ASCII whitespace,
// including line breaks. A count that differs from NumBases is
// ErrRecordMismatch.
func (p *FastaQualRecord) Qual() ([]byte, error) {
	n := p.NumBases()
	pos := ErrorPosition{Line: p.qual.StartLine(), ID: string(p.ID())}
	scores := make([]byte, 0, n)
	for _, field := range bytes.Fields(p.qual.RawSeq()) {
		v, err := strconv.ParseUint(string(field), 10, 8)
		if err != nil {
			return nil, invalidQualScore(field, pos)
		}
		scores = append(scores, byte(v))
	}
	if len(scores) != n {
		return nil, recordMismatch("record has "+strconv.Itoa(n)+" bases but "+strconv.Itoa(len(scores))+" quality scores", pos)
	}
	return scores, nil
}

// Fastq returns an owned FASTQ record holding the sequence and the scores
// encoded as Phred+33 characters. Scores above 93 are capped at '~'.
func (p *FastaQualRecord) Fastq() (*OwnedRecord, error) {
	scores, err := p.Qual()
	if err != nil {
		return nil, err
	}
	for i, s := range scores {
		scores[i] = '!' + min(s, '~'-'!')
	}
	o := p.seq.Copy()
	o.Qual = scores
	o.Format = FormatFastq
	return o, nil
}
