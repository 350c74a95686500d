// Command fastx summarises FASTA and FASTQ files.
//
// Each input is read with automatic decompression and format detection and
// reported as one JSON object on stdout: record and base counts, GC
// content, N50 and, on request, an estimate of distinct canonical k-mers
// and a count of duplicate sequences. Inputs are processed concurrently
// unless records are being re-emitted with -o.
//
//	fastx [-k 21] [-dedup] [-index] [-o out.fa.gz [-normalize]] files...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/jpl-au/fastx"
	"github.com/jpl-au/fastx/kmer"
	"github.com/jpl-au/fastx/sequence"
)

// config mirrors the command-line flags so a run can be described in a
// JSON file. Flags given on the command line win.
type config struct {
	BufferSize int    `json:"buffer_size"`
	Hash       string `json:"hash"` // xxh3, fnv1a or blake2b
	LogLevel   string `json:"log_level"`
	K          int    `json:"k"`
	Jobs       int    `json:"jobs"`
	Dedup      bool   `json:"dedup"`
	Index      bool   `json:"index"`
	Output     string `json:"output"`
	Normalize  bool   `json:"normalize"`
	IUPAC      bool   `json:"iupac"`
}

// defaultConfig is what a run uses before the config file and flags.
func defaultConfig() config {
	return config{Hash: "xxh3", Jobs: runtime.NumCPU()}
}

// loadConfig decodes the JSON file at path over cfg, so fields the file
// leaves out keep their current values.
func loadConfig(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// parseArgs layers the defaults, the -config file and the flags given on
// the command line, in that order. It returns the merged config, whether
// -v was set and the input files.
func parseArgs(args []string, stderr io.Writer) (config, bool, []string, error) {
	fs := flag.NewFlagSet("fastx", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: fastx [flags] files...")
		fs.PrintDefaults()
	}

	def := defaultConfig()
	configPath := fs.String("config", "", "JSON config file")
	bufferSize := fs.Int("buffer", def.BufferSize, "initial read buffer size in bytes")
	hash := fs.String("hash", def.Hash, "digest algorithm for -dedup: xxh3, fnv1a or blake2b")
	k := fs.Int("k", def.K, "estimate distinct canonical k-mers of this width (1-32)")
	jobs := fs.Int("j", def.Jobs, "files processed concurrently")
	dedup := fs.Bool("dedup", false, "count duplicate sequences")
	index := fs.Bool("index", false, "write a .fai index next to each uncompressed FASTA input")
	output := fs.String("o", "", "re-emit all records to this file (.gz and .zst are compressed)")
	normalize := fs.Bool("normalize", false, "normalise sequences written with -o")
	iupac := fs.Bool("iupac", false, "keep IUPAC codes when normalising")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return def, false, nil, err
	}

	cfg := def
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			return cfg, false, nil, err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "buffer":
			cfg.BufferSize = *bufferSize
		case "hash":
			cfg.Hash = *hash
		case "k":
			cfg.K = *k
		case "j":
			cfg.Jobs = *jobs
		case "dedup":
			cfg.Dedup = *dedup
		case "index":
			cfg.Index = *index
		case "o":
			cfg.Output = *output
		case "normalize":
			cfg.Normalize = *normalize
		case "iupac":
			cfg.IUPAC = *iupac
		}
	})
	if fs.NArg() == 0 {
		fs.Usage()
		return cfg, false, nil, errNoInput
	}
	return cfg, *verbose, fs.Args(), nil
}

var errNoInput = errors.New("no input files")

// check validates cfg and returns its digest algorithm.
func (c config) check() (int, error) {
	if c.K < 0 || c.K > kmer.MaxK {
		return 0, fmt.Errorf("k %d out of range 0-%d", c.K, kmer.MaxK)
	}
	if c.Jobs < 1 {
		return 0, fmt.Errorf("jobs %d must be at least 1", c.Jobs)
	}
	return fastx.ParseAlgorithm(c.Hash)
}

// report is the JSON summary of one input.
type report struct {
	Path          string       `json:"path"`
	Format        string       `json:"format,omitempty"`
	LineEnding    string       `json:"line_ending,omitempty"`
	Stats         *fastx.Stats `json:"stats,omitempty"`
	DistinctKmers int          `json:"distinct_kmers,omitempty"`
	Duplicates    int          `json:"duplicates,omitempty"`
	Index         string       `json:"index,omitempty"`
	Error         string       `json:"error,omitempty"`
}

func main() {
	cfg, verbose, files, err := parseArgs(os.Args[1:], os.Stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		os.Exit(0)
	case err != nil:
		if !errors.Is(err, errNoInput) {
			fmt.Fprintln(os.Stderr, "fastx:", err)
		}
		os.Exit(2)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "fastx"})
	switch {
	case verbose:
		logger.SetLevel(log.DebugLevel)
	case cfg.LogLevel != "":
		level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
		if err != nil {
			logger.Warn("unknown log_level in config, defaulting to info", "provided", cfg.LogLevel)
			level = log.InfoLevel
		}
		logger.SetLevel(level)
	}

	alg, err := cfg.check()
	if err != nil {
		logger.Fatal("bad config", "err", err)
	}

	opts := fastx.Config{BufferSize: cfg.BufferSize, HashAlgorithm: alg, Logger: logger}
	r := &runner{cfg: cfg, opts: opts, log: logger}

	if cfg.Output != "" {
		w, err := fastx.Create(cfg.Output)
		if err != nil {
			logger.Fatal("creating output", "path", cfg.Output, "err", err)
		}
		r.out = w
		cfg.Jobs = 1
	}

	logger.Info("starting", "files", len(files), "jobs", cfg.Jobs, "k", cfg.K, "output", cfg.Output)
	reports := r.runAll(context.Background(), files, cfg.Jobs)

	if r.out != nil {
		if err := r.out.Close(); err != nil {
			logger.Error("closing output", "path", cfg.Output, "err", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		logger.Fatal("writing report", "err", err)
	}

	for _, rep := range reports {
		if rep.Error != "" {
			os.Exit(1)
		}
	}
}

type runner struct {
	cfg  config
	opts fastx.Config
	log  *log.Logger
	out  io.WriteCloser
	mu   sync.Mutex
}

// runAll processes every path with at most jobs files in flight. A failing
// file is recorded in its report and does not stop the others.
func (r *runner) runAll(ctx context.Context, paths []string, jobs int) []report {
	reports := make([]report, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			reports[i] = r.run(path)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func (r *runner) run(path string) report {
	rep := report{Path: path}
	rd, err := fastx.Open(path, r.opts)
	if err != nil {
		r.log.Error("opening input", "path", path, "err", err)
		rep.Error = err.Error()
		return rep
	}
	defer rd.Close()
	rep.Format = rd.Format().String()

	var bloom *kmer.Bloom
	if r.cfg.K > 0 {
		bloom = kmer.NewBloom(1<<22, 0.01)
	}
	seen := make(map[string]struct{})
	stats := &fastx.Stats{}

	for rec, err := range fastx.Records(rd) {
		if err != nil {
			r.log.Error("parsing", "path", path, "err", err)
			rep.Error = err.Error()
			break
		}
		seq := rec.Seq()
		stats.Add(seq)

		if bloom != nil {
			it, err := kmer.NewBitIter(seq, uint8(r.cfg.K), true)
			if err != nil {
				rep.Error = err.Error()
				break
			}
			for _, km := range it.All() {
				if bloom.Add(km) {
					rep.DistinctKmers++
				}
			}
		}
		if r.cfg.Dedup {
			d := rec.Digest()
			if _, ok := seen[d]; ok {
				rep.Duplicates++
			} else {
				seen[d] = struct{}{}
			}
		}
		if r.out != nil {
			if err := r.emit(rec); err != nil {
				r.log.Error("writing record", "path", path, "err", err)
				rep.Error = err.Error()
				break
			}
		}
	}

	rep.Stats = stats
	rep.LineEnding = rd.LineEnding().String()
	r.log.Debug("done", "path", path, "records", stats.Records, "bases", stats.Bases)

	if r.cfg.Index && rep.Error == "" && rd.Format() == fastx.FormatFasta {
		rep.Index = r.writeIndex(path)
	}
	return rep
}

// emit writes rec to the shared output, normalised on request.
func (r *runner) emit(rec *fastx.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.cfg.Normalize {
		return rec.Write(r.out)
	}
	o := rec.Copy()
	if norm := sequence.Normalize(o.Seq, r.cfg.IUPAC); norm != nil {
		o.Seq = norm
		o.Qual = nil
		if rec.Format() == fastx.FormatFastq && len(norm) == len(rec.Qual()) {
			o.Qual = rec.Qual()
		}
	}
	return o.Write(r.out, fastx.LineEndingUnknown)
}

// writeIndex builds path.fai for an uncompressed FASTA file and returns
// the index path, or "" when the file cannot be indexed.
func (r *runner) writeIndex(path string) string {
	f, err := os.Open(path)
	if err != nil {
		r.log.Error("indexing", "path", path, "err", err)
		return ""
	}
	defer f.Close()

	dec, c, err := fastx.Decompress(f)
	if err != nil {
		r.log.Error("indexing", "path", path, "err", err)
		return ""
	}
	defer dec.Close()
	if c != fastx.CompressionNone {
		r.log.Warn("skipping index of compressed input", "path", path, "compression", c)
		return ""
	}

	fr := fastx.NewFastaReader(dec, r.opts)
	ix, err := fastx.BuildIndex(fr)
	if err != nil {
		r.log.Error("indexing", "path", path, "err", err)
		return ""
	}

	out, err := os.Create(path + ".fai")
	if err != nil {
		r.log.Error("indexing", "path", path, "err", err)
		return ""
	}
	if _, err := ix.WriteTo(out); err != nil {
		out.Close()
		r.log.Error("writing index", "path", path, "err", err)
		return ""
	}
	if err := out.Close(); err != nil {
		r.log.Error("writing index", "path", path, "err", err)
		return ""
	}
	r.log.Info("index written", "path", path+".fai", "sequences", ix.Len())
	return path + ".fai"
}
