// Package fastx provides a streaming parser for FASTA and FASTQ sequence
// files. Records are located inside a single growable buffer owned by the
// reader and handed out as views over that buffer, so parsing a file never
// copies sequence data unless the caller asks for it.
//
// A reader yields one record per call to Next. The buffer grows when a
// record does not fit and is compacted when earlier records have already
// been consumed, so memory use is bounded by the largest record rather than
// by the size of the input. Records that straddle a refill are resumed from
// the last matched line instead of being scanned again.
package fastx

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for programmatic handling. Callers can use errors.Is to
// distinguish the kind of a *ParseError (ErrUnequalLengths, ErrUnexpectedEnd)
// from index lookups that failed (ErrUnknownSequence, ErrInvalidRegion).
var (
	ErrIO               = errors.New("i/o error")
	ErrUnknownFormat    = errors.New("unknown sequence format")
	ErrInvalidStart     = errors.New("invalid record start")
	ErrInvalidSeparator = errors.New("invalid fastq separator")
	ErrUnequalLengths   = errors.New("sequence and quality lengths differ")
	ErrUnexpectedEnd    = errors.New("unexpected end of input")
	ErrEmptyFile        = errors.New("empty file")
	ErrRecordMismatch   = errors.New("sequence and quality records do not match")
	ErrFormatMismatch   = errors.New("sequence and quality files are not both fasta")
	ErrInvalidQualScore = errors.New("invalid quality score")
	ErrDecompress       = errors.New("decompression failed")
	ErrIndexFormat      = errors.New("malformed fasta index")
	ErrUnknownSequence  = errors.New("sequence not in index")
	ErrInvalidRegion    = errors.New("invalid region")
)

// ErrorKind classifies a ParseError.
type ErrorKind int

// Parse error kinds.
const (
	KindIO ErrorKind = iota + 1
	KindUnknownFormat
	KindInvalidStart
	KindInvalidSeparator
	KindUnequalLengths
	KindUnexpectedEnd
	KindEmptyFile
	KindRecordMismatch
	KindFormatMismatch
	KindInvalidQualScore
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindIO:
		return ErrIO
	case KindUnknownFormat:
		return ErrUnknownFormat
	case KindInvalidStart:
		return ErrInvalidStart
	case KindInvalidSeparator:
		return ErrInvalidSeparator
	case KindUnequalLengths:
		return ErrUnequalLengths
	case KindUnexpectedEnd:
		return ErrUnexpectedEnd
	case KindEmptyFile:
		return ErrEmptyFile
	case KindRecordMismatch:
		return ErrRecordMismatch
	case KindFormatMismatch:
		return ErrFormatMismatch
	case KindInvalidQualScore:
		return ErrInvalidQualScore
	}
	return nil
}

func (k ErrorKind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ErrorPosition is where in the input an error was found. Line starts at 1
// and ID holds the id of the offending record when it was already parsed.
type ErrorPosition struct {
	Line uint64
	ID   string
}

func (p ErrorPosition) String() string {
	if p.ID != "" {
		return fmt.Sprintf("record '%s' at line %d", p.ID, p.Line)
	}
	return fmt.Sprintf("line %d", p.Line)
}

// ParseError is returned for every failure while reading records. It is
// never modified once returned.
type ParseError struct {
	Msg      string
	Kind     ErrorKind
	Position ErrorPosition
	Format   Format // FormatUnknown when the format was not yet known
	Err      error  // underlying transport error for KindIO
}

func (e *ParseError) Error() string {
	switch {
	case e.Kind == KindIO:
		return "i/o error: " + e.Msg
	case e.Kind == KindUnexpectedEnd:
		return fmt.Sprintf("unexpected end of input (%s)", e.Position)
	case e.Position.Line == 0:
		return e.Msg
	}
	return fmt.Sprintf("%s (%s)", e.Msg, e.Position)
}

// Unwrap returns the underlying I/O error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *ParseError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func ioError(err error, format Format) *ParseError {
	return &ParseError{Msg: err.Error(), Kind: KindIO, Format: format, Err: err}
}

func invalidStart(found byte, pos ErrorPosition, format Format) *ParseError {
	return &ParseError{
		Msg:      fmt.Sprintf("expected '%c' but found %s", format.marker(), quoteByte(found)),
		Kind:     KindInvalidStart,
		Position: pos,
		Format:   format,
	}
}

func invalidSeparator(found byte, pos ErrorPosition) *ParseError {
	return &ParseError{
		Msg:      "expected '+' separator but found " + quoteByte(found),
		Kind:     KindInvalidSeparator,
		Position: pos,
		Format:   FormatFastq,
	}
}

func unknownFormat(found byte) *ParseError {
	return &ParseError{
		Msg:  "expected '@' or '>' at the start of the file but found " + quoteByte(found),
		Kind: KindUnknownFormat,
	}
}

func unequalLengths(seqLen, qualLen int, pos ErrorPosition) *ParseError {
	return &ParseError{
		Msg:      fmt.Sprintf("sequence length is %d but quality length is %d", seqLen, qualLen),
		Kind:     KindUnequalLengths,
		Position: pos,
		Format:   FormatFastq,
	}
}

func unexpectedEnd(pos ErrorPosition, format Format) *ParseError {
	return &ParseError{Kind: KindUnexpectedEnd, Position: pos, Format: format}
}

func emptyFile() *ParseError {
	return &ParseError{
		Msg:  "failed to read the first byte, is the file empty?",
		Kind: KindEmptyFile,
	}
}

func recordMismatch(msg string, pos ErrorPosition) *ParseError {
	return &ParseError{Msg: msg, Kind: KindRecordMismatch, Position: pos, Format: FormatFastaQual}
}

func formatMismatch(seq, qual Format) *ParseError {
	return &ParseError{
		Msg:    fmt.Sprintf("sequence file is %s and quality file is %s, both must be fasta", seq, qual),
		Kind:   KindFormatMismatch,
		Format: FormatFastaQual,
	}
}

func invalidQualScore(score []byte, pos ErrorPosition) *ParseError {
	return &ParseError{
		Msg:      "quality score " + strconv.QuoteToASCII(string(score)) + " is not an integer from 0 to 255",
		Kind:     KindInvalidQualScore,
		Position: pos,
		Format:   FormatFastaQual,
	}
}

// quoteByte renders a single input byte for an error message, escaping
// control and non-ASCII bytes.
func quoteByte(b byte) string {
	return strconv.QuoteRuneToASCII(rune(b))
}
