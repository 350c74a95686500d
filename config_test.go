// Configuration option tests.
//
// Config controls the initial buffer size, the digest algorithm and the
// debug logger. The zero value must work: these tests verify that
// defaults are applied, that custom values override them, and that the
// readers stay correct at the smallest permitted buffer.
package fastx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

// TestConfigDefaults verifies that Config{} gets a 64 KiB buffer, the
// xxh3 digest and a logger that discards.
func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.BufferSize != DefaultBufferSize {
		t.Errorf("BufferSize = %d, want %d", c.BufferSize, DefaultBufferSize)
	}
	if c.HashAlgorithm != AlgXXHash3 {
		t.Errorf("HashAlgorithm = %d, want %d", c.HashAlgorithm, AlgXXHash3)
	}
	if c.Logger == nil {
		t.Error("Logger is nil")
	}
}

// TestConfigMinBuffer verifies that buffers below the minimum are raised
// to it, since a smaller buffer cannot hold a marker and a newline.
func TestConfigMinBuffer(t *testing.T) {
	for _, size := range []int{1, 2, -5} {
		if got := (Config{BufferSize: size}).withDefaults().BufferSize; got != MinBufferSize {
			t.Errorf("BufferSize %d became %d, want %d", size, got, MinBufferSize)
		}
	}
	if got := (Config{BufferSize: 100}).withDefaults().BufferSize; got != 100 {
		t.Errorf("BufferSize 100 became %d", got)
	}
}

// TestConfigHashAlgorithm verifies that the configured algorithm reaches
// Record.Digest.
func TestConfigHashAlgorithm(t *testing.T) {
	for _, alg := range []int{AlgXXHash3, AlgFNV1a, AlgBlake2b} {
		r := NewFastaReader(strings.NewReader(">a\nACGT\n"), Config{HashAlgorithm: alg})
		rec, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got, want := rec.Digest(), Digest([]byte("ACGT"), alg); got != want {
			t.Errorf("alg %d: Digest = %s, want %s", alg, got, want)
		}
	}
}

// TestConfigLogger verifies that buffer growth is reported through the
// configured logger at debug level.
func TestConfigLogger(t *testing.T) {
	var out bytes.Buffer
	logger := log.New(&out)
	logger.SetLevel(log.DebugLevel)

	r := NewFastaReader(strings.NewReader(">a\n"+strings.Repeat("A", 64)+"\n"), Config{BufferSize: 8, Logger: logger})
	if _, err := r.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !strings.Contains(out.String(), "buffer grown") {
		t.Errorf("log output %q does not mention buffer growth", out.String())
	}
}

// TestConfigLoggerCompaction verifies that discarding consumed records is
// reported too.
func TestConfigLoggerCompaction(t *testing.T) {
	var out bytes.Buffer
	logger := log.New(&out)
	logger.SetLevel(log.DebugLevel)

	input := strings.Repeat("@r\nACGT\n+\nIIII\n", 8)
	r := NewFastqReader(strings.NewReader(input), Config{BufferSize: 32, Logger: logger})
	for _, err := range Records(r) {
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if !strings.Contains(out.String(), "buffer compacted") {
		t.Errorf("log output %q does not mention compaction", out.String())
	}
}
