// Reader configuration and the state shared by the FASTA and FASTQ readers.
package fastx

import (
	"io"

	"github.com/charmbracelet/log"
)

// Config holds reader configuration options. The zero value is usable.
type Config struct {
	BufferSize    int         // Initial buffer capacity (default 64KB, minimum 3)
	HashAlgorithm int         // Record.Digest algorithm (default AlgXXHash3)
	Logger        *log.Logger // Debug output for buffer and sniffing decisions (default discards)
}

func (c Config) withDefaults() Config {
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.BufferSize < MinBufferSize {
		c.BufferSize = MinBufferSize
	}
	if c.HashAlgorithm == 0 {
		c.HashAlgorithm = AlgXXHash3
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard)
	}
	return c
}

// Reader yields the records of one sequence stream. Next returns io.EOF
// once the stream is exhausted and keeps returning it afterwards. The
// *Record returned by Next is only valid until the following call to Next
// or Close.
//
// A Reader may be handed to another goroutine before iteration starts, but
// its methods must not be called concurrently.
type Reader interface {
	Next() (*Record, error)
	Format() Format
	Position() Position
	LineEnding() LineEnding
	Close() error
}

// core is the bookkeeping common to both scanners: the buffer, the stream
// position of the current record and the memoised line ending.
type core struct {
	buf        *buffer
	config     Config
	position   Position
	lineEnding LineEnding
	finished   bool
	gen        uint64    // bumped whenever the current Record becomes stale
	closer     io.Closer // resources opened on the caller's behalf, may be nil
}

func newCore(r io.Reader, config Config) core {
	config = config.withDefaults()
	return core{
		buf:      newBuffer(r, config.BufferSize, config.Logger),
		config:   config,
		position: Position{Line: 1},
	}
}

// Position returns the position of the most recently returned record.
func (c *core) Position() Position {
	return c.position
}

// LineEnding returns the line ending detected from the first record that
// contained a terminator, or LineEndingUnknown before that.
func (c *core) LineEnding() LineEnding {
	return c.lineEnding
}

// Close invalidates the current record and releases any source opened by
// Open or NewReader. Readers built directly over a caller's io.Reader leave
// that reader open.
func (c *core) Close() error {
	c.finished = true
	c.gen++
	if c.closer == nil {
		return nil
	}
	err := c.closer.Close()
	c.closer = nil
	return err
}

func (c *core) detectLineEnding(all []byte) {
	if c.lineEnding == LineEndingUnknown {
		c.lineEnding = detectLineEnding(all)
	}
}

// fail marks the reader finished and returns err, so no record is parsed
// from a stream already judged corrupt.
func (c *core) fail(err *ParseError) (*Record, error) {
	c.finished = true
	return nil, err
}
