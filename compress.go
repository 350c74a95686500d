// Compression and format sniffing for sequence files.
//
// Sequence files are routinely shipped gzip, bzip2, xz or zstd compressed.
// The scanners only ever see plain bytes: Decompress inspects the leading
// magic bytes and wraps the source in the matching decoder, and NewReader
// then peeks at the first decompressed byte to choose between the FASTA
// and FASTQ scanner. Create does the reverse for output files, choosing the
// encoder from the file extension.
package fastx

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies the container format of an input stream.
type Compression int

// Supported compression formats.
const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionXz
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXz:
		return "xz"
	case CompressionZstd:
		return "zstd"
	}
	return "none"
}

// Magic byte prefixes, checked in order.
var magics = []struct {
	c     Compression
	magic []byte
}{
	{CompressionGzip, []byte{0x1F, 0x8B}},
	{CompressionBzip2, []byte{0x42, 0x5A}},
	{CompressionXz, []byte{0xFD, 0x37}},
	{CompressionZstd, []byte{0x28, 0xB5, 0x2F, 0xFD}},
}

// sniff reports the compression whose magic bytes prefix head.
func sniff(head []byte) Compression {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.c
		}
	}
	return CompressionNone
}

// Decompress returns a reader over the decompressed content of r. Plain
// input is passed through unchanged. Closing the result releases the
// decoder but not r.
func Decompress(r io.Reader) (io.ReadCloser, Compression, error) {
	br, closer, c, err := decompress(r)
	if err != nil {
		return nil, c, err
	}
	return struct {
		io.Reader
		io.Closer
	}{br, closer}, c, nil
}

// decompress returns a buffered reader positioned at the first
// decompressed byte, plus the closer for the decoder.
func decompress(r io.Reader) (*bufio.Reader, io.Closer, Compression, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, nil, CompressionNone, err
	}

	c := sniff(head)
	var dec io.Reader
	var closer io.Closer = io.NopCloser(nil)
	switch c {
	case CompressionNone:
		return br, closer, c, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, c, fmt.Errorf("%w: gzip: %w", ErrDecompress, err)
		}
		dec, closer = zr, zr
	case CompressionBzip2:
		dec = bzip2.NewReader(br)
	case CompressionXz:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, nil, c, fmt.Errorf("%w: xz: %w", ErrDecompress, err)
		}
		dec = xr
	case CompressionZstd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, c, fmt.Errorf("%w: zstd: %w", ErrDecompress, err)
		}
		rc := zr.IOReadCloser()
		dec, closer = rc, rc
	}
	return bufio.NewReader(&decodeReader{r: dec, c: c}), closer, c, nil
}

// decodeReader tags decoder failures with ErrDecompress so corrupt archives
// can be told apart from transport errors.
type decodeReader struct {
	r io.Reader
	c Compression
}

func (d *decodeReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %s: %w", ErrDecompress, d.c, err)
	}
	return n, err
}

// NewReader decompresses r if needed and returns a FASTA or FASTQ reader
// depending on the first byte of content. Closing the reader releases the
// decoder but not r.
func NewReader(r io.Reader, config Config) (Reader, error) {
	config = config.withDefaults()

	br, closer, c, err := decompress(r)
	if err != nil {
		return nil, ioError(err, FormatUnknown)
	}

	first, err := br.Peek(1)
	if err == io.EOF {
		closer.Close()
		return nil, emptyFile()
	}
	if err != nil {
		closer.Close()
		return nil, ioError(err, FormatUnknown)
	}

	var rd Reader
	switch first[0] {
	case '>':
		fr := NewFastaReader(br, config)
		fr.closer = closer
		rd = fr
	case '@':
		fq := NewFastqReader(br, config)
		fq.closer = closer
		rd = fq
	default:
		closer.Close()
		return nil, unknownFormat(first[0])
	}

	config.Logger.Debug("input sniffed", "compression", c, "format", rd.Format())
	return rd, nil
}

// Open opens the sequence file at path. Closing the reader closes the file.
func Open(path string, config Config) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError(err, FormatUnknown)
	}
	rd, err := NewReader(f, config)
	if err != nil {
		f.Close()
		return nil, err
	}

	switch r := rd.(type) {
	case *FastaReader:
		r.closer = closers{r.closer, f}
	case *FastqReader:
		r.closer = closers{r.closer, f}
	}
	return rd, nil
}

// closers closes each element in order and returns the first error.
type closers []io.Closer

func (cs closers) Close() error {
	var first error
	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Create creates the file at path for writing records. Paths ending in .gz
// are gzip compressed and paths ending in .zst or .zstd are zstd
// compressed. Close flushes the encoder and closes the file.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	var enc io.WriteCloser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		enc = gzip.NewWriter(f)
	case ".zst", ".zstd":
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			f.Close()
			return nil, err
		}
		enc = zw
	}

	w := &fileWriter{f: f, enc: enc}
	if enc != nil {
		w.buf = bufio.NewWriter(enc)
	} else {
		w.buf = bufio.NewWriter(f)
	}
	return w, nil
}

type fileWriter struct {
	f   *os.File
	enc io.WriteCloser // nil for plain output
	buf *bufio.Writer
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *fileWriter) Close() error {
	err := w.buf.Flush()
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	return err
}
