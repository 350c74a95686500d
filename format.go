// Format, line ending and stream position types shared by both scanners.
package fastx

import "bytes"

// Format identifies the grammar of a sequence stream.
type Format int

// Supported formats. The zero value means the format is not known yet.
const (
	FormatUnknown Format = iota
	FormatFasta
	FormatFastq
	FormatFastaQual // a FASTA file read together with its .qual file
)

func (f Format) String() string {
	switch f {
	case FormatFasta:
		return "fasta"
	case FormatFastq:
		return "fastq"
	case FormatFastaQual:
		return "fastaqual"
	}
	return "unknown"
}

// marker is the byte every record of the format starts with.
func (f Format) marker() byte {
	switch f {
	case FormatFasta, FormatFastaQual:
		return '>'
	case FormatFastq:
		return '@'
	}
	return 0
}

// LineEnding is the line terminator convention of a stream.
type LineEnding int

// Line ending conventions. The zero value means "not detected" and is
// written out as Unix.
const (
	LineEndingUnknown LineEnding = iota
	LineEndingUnix
	LineEndingWindows
)

func (le LineEnding) String() string {
	switch le {
	case LineEndingUnix:
		return "unix"
	case LineEndingWindows:
		return "windows"
	}
	return "unknown"
}

// Bytes returns the terminator written for le.
func (le LineEnding) Bytes() []byte {
	if le == LineEndingWindows {
		return []byte{'\r', '\n'}
	}
	return []byte{'\n'}
}

// detectLineEnding inspects the first terminator in data. It reports
// LineEndingUnknown when data holds no newline at all.
func detectLineEnding(data []byte) LineEnding {
	i := bytes.IndexByte(data, '\n')
	switch {
	case i < 0:
		return LineEndingUnknown
	case i > 0 && data[i-1] == '\r':
		return LineEndingWindows
	}
	return LineEndingUnix
}

// Position is the location of a record in the input stream. Line starts at 1
// and Byte at 0; both only move forward.
type Position struct {
	Line uint64
	Byte uint64
}

// trimCR drops a single trailing carriage return.
func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}
