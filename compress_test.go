// Compression and sniffing tests.
//
// Inputs are compressed in memory with the same libraries the package
// decodes with, then read back through Decompress, NewReader and Open.
// Corrupt archives must surface as ErrDecompress rather than as a parse
// error, so a truncated download is not mistaken for a malformed file.
package fastx

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

const sampleFastq = "@r1\nACGT\n+\nIIII\n@r2\nGG\n+\n##\n"

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zstdBytes(t *testing.T, s string) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll([]byte(s), nil)
}

func xzBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// TestSniff verifies detection of each magic prefix.
func TestSniff(t *testing.T) {
	tests := []struct {
		head []byte
		want Compression
	}{
		{[]byte{0x1F, 0x8B, 0x08, 0x00}, CompressionGzip},
		{[]byte("BZh9"), CompressionBzip2},
		{[]byte{0xFD, 0x37, 0x7A, 0x58}, CompressionXz},
		{[]byte{0x28, 0xB5, 0x2F, 0xFD}, CompressionZstd},
		{[]byte(">chr"), CompressionNone},
		{[]byte("@r"), CompressionNone},
		{[]byte{0x28, 0xB5}, CompressionNone},
		{nil, CompressionNone},
	}
	for _, tt := range tests {
		if got := sniff(tt.head); got != tt.want {
			t.Errorf("sniff(%x) = %v, want %v", tt.head, got, tt.want)
		}
	}
}

// TestDecompressRoundTrip verifies each supported container decodes to the
// original bytes and is reported correctly.
func TestDecompressRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Compression
	}{
		{"plain", []byte(sampleFastq), CompressionNone},
		{"gzip", gzipBytes(t, sampleFastq), CompressionGzip},
		{"zstd", zstdBytes(t, sampleFastq), CompressionZstd},
		{"xz", xzBytes(t, sampleFastq), CompressionXz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc, c, err := Decompress(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatal(err)
			}
			defer rc.Close()
			if c != tt.want {
				t.Errorf("compression = %v, want %v", c, tt.want)
			}
			got, err := io.ReadAll(rc)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != sampleFastq {
				t.Errorf("content = %q", got)
			}
		})
	}
}

// TestNewReaderSniffsFormat verifies that NewReader picks the scanner from
// the first decompressed byte.
func TestNewReaderSniffsFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"fasta", []byte(">a\nAC\n"), FormatFasta},
		{"fastq", []byte(sampleFastq), FormatFastq},
		{"gzip fastq", gzipBytes(t, sampleFastq), FormatFastq},
		{"zstd fasta", zstdBytes(t, ">a\nAC\n"), FormatFasta},
		{"xz fasta", xzBytes(t, ">a\nAC\n"), FormatFasta},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(tt.data), Config{})
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			if r.Format() != tt.want {
				t.Errorf("Format = %v, want %v", r.Format(), tt.want)
			}
			if _, err := collect(t, r); err != nil {
				t.Errorf("reading: %v", err)
			}
		})
	}
}

// TestNewReaderGzipRecords verifies record content through a decoder at a
// small buffer size.
func TestNewReaderGzipRecords(t *testing.T) {
	r, err := NewReader(bytes.NewReader(gzipBytes(t, sampleFastq)), Config{BufferSize: 5})
	if err != nil {
		t.Fatal(err)
	}
	got, err := collect(t, r)
	if err != nil {
		t.Fatal(err)
	}
	want := []parsed{{"r1", "ACGT", "IIII", 1}, {"r2", "GG", "##", 5}}
	if !equalParsed(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

// TestNewReaderErrors verifies the errors reported before any record is
// parsed.
func TestNewReaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmptyFile},
		{"empty gzip", gzipBytes(t, ""), ErrEmptyFile},
		{"unknown", []byte("hello\n"), ErrUnknownFormat},
		{"unknown after gzip", gzipBytes(t, "#comment\n"), ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(tt.data), Config{})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

// readError returns the first error from opening or reading data.
func readError(t *testing.T, data []byte) error {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data), Config{})
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = collect(t, r)
	return err
}

// TestCorruptArchive verifies that truncated and damaged archives are
// reported as ErrDecompress.
func TestCorruptArchive(t *testing.T) {
	long := strings.Repeat(sampleFastq, 200)
	gz := gzipBytes(t, long)
	zs := zstdBytes(t, long)

	tests := []struct {
		name string
		data []byte
	}{
		{"truncated gzip", gz[:len(gz)/2]},
		{"truncated zstd", zs[:len(zs)/2]},
		{"bad bzip2", []byte("BZh9not really bzip2 data")},
		{"bad gzip header", []byte{0x1F, 0x8B, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := readError(t, tt.data)
			if !errors.Is(err, ErrDecompress) {
				t.Errorf("error = %v, want ErrDecompress", err)
			}
		})
	}
}

// TestCreateOpenRoundTrip verifies that Create compresses by extension and
// Open reads the file back.
func TestCreateOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"out.fq", "out.fq.gz", "out.fq.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			w, err := Create(path)
			if err != nil {
				t.Fatal(err)
			}
			WriteFastq(w, []byte("r1"), []byte("ACGT"), []byte("IIII"), LineEndingUnix)
			WriteFastq(w, []byte("r2"), []byte("GG"), []byte("##"), LineEndingUnix)
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			compressed := sniff(raw) != CompressionNone
			if compressed != (filepath.Ext(name) != ".fq") {
				t.Errorf("compressed = %v for %s", compressed, name)
			}

			r, err := Open(path, Config{})
			if err != nil {
				t.Fatal(err)
			}
			got, err := collect(t, r)
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Close(); err != nil {
				t.Errorf("Close: %v", err)
			}
			want := []parsed{{"r1", "ACGT", "IIII", 1}, {"r2", "GG", "##", 5}}
			if !equalParsed(got, want) {
				t.Errorf("got %+v, want %+v", got, want)
			}
		})
	}
}

// TestOpenMissing verifies that a missing file is an I/O error.
func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.fa"), Config{})
	if !errors.Is(err, ErrIO) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want ErrIO wrapping os.ErrNotExist", err)
	}
}

func TestCompressionString(t *testing.T) {
	names := map[Compression]string{
		CompressionNone:  "none",
		CompressionGzip:  "gzip",
		CompressionBzip2: "bzip2",
		CompressionXz:    "xz",
		CompressionZstd:  "zstd",
	}
	for c, want := range names {
		if c.String() != want {
			t.Errorf("%d.String() = %q, want %q", c, c.String(), want)
		}
	}
}
