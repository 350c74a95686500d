// Low-level read primitives for the record buffer.
//
// Both scanners sit on top of a single growable byte slice. The slice length
// is the number of live bytes and its capacity is the buffer size. fill tops
// the buffer up from the source, grow enlarges it when one record does not
// fit, and compact discards bytes that belong to records already handed out.
// A fill that leaves the buffer short of capacity means the source is
// exhausted; the scanners rely on that to detect the end of input.
package fastx

import (
	"io"

	"github.com/charmbracelet/log"
)

// Buffer sizing constants.
const (
	DefaultBufferSize = 64 * 1024 // initial capacity when Config.BufferSize is zero
	MinBufferSize     = 3         // smallest capacity that can hold a marker and a line
	growthStep        = 1 << 23   // 8 MiB: doubling stops here, linear growth after
)

// maxEmptyReads bounds how many (0, nil) reads fill tolerates in a row
// before giving up with io.ErrNoProgress.
const maxEmptyReads = 100

type buffer struct {
	src  io.Reader
	data []byte
	log  *log.Logger
}

func newBuffer(src io.Reader, size int, logger *log.Logger) *buffer {
	return &buffer{src: src, data: make([]byte, 0, size), log: logger}
}

// full reports whether every byte of capacity holds data. After a fill, a
// buffer that is not full means the source reached EOF.
func (b *buffer) full() bool {
	return len(b.data) == cap(b.data)
}

// fill reads from the source until the buffer is full or the source is
// exhausted. It returns the number of bytes added.
func (b *buffer) fill() (int, error) {
	total, empty := 0, 0
	for len(b.data) < cap(b.data) {
		n, err := b.src.Read(b.data[len(b.data):cap(b.data)])
		b.data = b.data[:len(b.data)+n]
		total += n
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
		if n > 0 {
			empty = 0
			continue
		}
		if empty++; empty >= maxEmptyReads {
			return total, io.ErrNoProgress
		}
	}
	return total, nil
}

// grow enlarges the buffer, keeping every live byte at the same offset.
func (b *buffer) grow() {
	old := cap(b.data)
	next := nextCapacity(old)
	data := make([]byte, len(b.data), next)
	copy(data, b.data)
	b.data = data
	b.log.Debug("buffer grown", "from", old, "to", next)
}

// compact drops the first n bytes and shifts the rest to offset 0. Callers
// must rebase any offsets they hold by n.
func (b *buffer) compact(n int) {
	kept := copy(b.data, b.data[n:])
	b.data = b.data[:kept]
	b.log.Debug("buffer compacted", "dropped", n, "kept", kept)
}

// nextCapacity doubles small buffers and adds a fixed step to large ones,
// so a single huge record costs a bounded number of extra copies.
func nextCapacity(c int) int {
	if c < growthStep {
		return c * 2
	}
	return c + growthStep
}
