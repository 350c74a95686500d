// FASTA index (.fai) support for random access.
//
// An index line is NAME, LENGTH, OFFSET, LINEBASES and LINEWIDTH separated
// by tabs: the sequence length in bases, the byte offset of its first base,
// the bases per full line and the bytes per full line including the
// terminator. With those a base position maps straight to a byte offset:
//
//	offset + (pos / linebases) * linewidth + pos % linebases
//
// so a region is read with a single ReadAt and no scan of the file.
// IndexedReader serves such reads from a memory-mapped FASTA file.
package fastx

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"golang.org/x/exp/mmap"
)

// IndexEntry is one line of a .fai file.
type IndexEntry struct {
	Name      string `json:"name"`
	Length    uint64 `json:"length"`    // bases
	Offset    uint64 `json:"offset"`    // byte offset of the first base
	LineBases uint64 `json:"linebases"` // bases per full line
	LineWidth uint64 `json:"linewidth"` // bytes per full line, terminator included
}

// parseIndexLine parses one tab-separated index line. Fields after the
// fifth are ignored.
func parseIndexLine(line string) (IndexEntry, error) {
	f := strings.Split(line, "\t")
	if len(f) < 5 {
		return IndexEntry{}, fmt.Errorf("%w: %d fields in %q", ErrIndexFormat, len(f), line)
	}
	var n [4]uint64
	for i := range n {
		v, err := strconv.ParseUint(f[i+1], 10, 64)
		if err != nil {
			return IndexEntry{}, fmt.Errorf("%w: %q: %w", ErrIndexFormat, line, err)
		}
		n[i] = v
	}
	return IndexEntry{Name: f[0], Length: n[0], Offset: n[1], LineBases: n[2], LineWidth: n[3]}, nil
}

func (e IndexEntry) String() string {
	return fmt.Sprintf("%s\t%d\t%d\t%d\t%d", e.Name, e.Length, e.Offset, e.LineBases, e.LineWidth)
}

// byteOffset maps a base position to its byte offset in the file.
func (e IndexEntry) byteOffset(pos uint64) uint64 {
	return e.Offset + pos/e.LineBases*e.LineWidth + pos%e.LineBases
}

// Region returns the byte range holding bases [start, end). It fails with
// ErrInvalidRegion when start >= Length, end > Length or start >= end.
func (e IndexEntry) Region(start, end uint64) (FetchRegion, error) {
	if start >= e.Length || end > e.Length || start >= end {
		return FetchRegion{}, fmt.Errorf("%w: %s:%d-%d (length %d)", ErrInvalidRegion, e.Name, start, end, e.Length)
	}
	if e.LineBases == 0 {
		return FetchRegion{}, fmt.Errorf("%w: %s has zero bases per line", ErrIndexFormat, e.Name)
	}
	from := e.byteOffset(start)
	to := e.byteOffset(end-1) + 1
	return FetchRegion{
		StartOffset:  from,
		BytesToRead:  int(to - from),
		BasesToFetch: int(end - start),
		LineBases:    e.LineBases,
		LineWidth:    e.LineWidth,
	}, nil
}

// FetchRegion is the byte range of a sequence region in a FASTA file.
type FetchRegion struct {
	StartOffset  uint64
	BytesToRead  int
	BasesToFetch int
	LineBases    uint64
	LineWidth    uint64
}

// StripNewlines returns the bases in buf, dropping line terminators.
func (FetchRegion) StripNewlines(buf []byte) []byte {
	out := make([]byte, 0, len(buf))
	for _, c := range buf {
		if c != '\n' && c != '\r' {
			out = append(out, c)
		}
	}
	return out
}

// Index is a parsed .fai file. Names keep their file order.
type Index struct {
	entries map[string]IndexEntry
	names   []string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]IndexEntry)}
}

// ReadIndex parses .fai content. Blank lines are skipped.
func ReadIndex(r io.Reader) (*Index, error) {
	ix := NewIndex()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		e, err := parseIndexLine(line)
		if err != nil {
			return nil, err
		}
		ix.Add(e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ix, nil
}

// ReadIndexFile parses the .fai file at path.
func ReadIndexFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadIndex(f)
}

// Add appends e, replacing any entry with the same name in place.
func (ix *Index) Add(e IndexEntry) {
	if _, ok := ix.entries[e.Name]; !ok {
		ix.names = append(ix.names, e.Name)
	}
	ix.entries[e.Name] = e
}

// Get returns the entry for name.
func (ix *Index) Get(name string) (IndexEntry, bool) {
	e, ok := ix.entries[name]
	return e, ok
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.names)
}

// Names returns the sequence names in file order.
func (ix *Index) Names() []string {
	return ix.names
}

// Entries returns the entries in file order.
func (ix *Index) Entries() []IndexEntry {
	out := make([]IndexEntry, len(ix.names))
	for i, n := range ix.names {
		out[i] = ix.entries[n]
	}
	return out
}

// FetchRegion looks up name and returns the byte range of [start, end).
func (ix *Index) FetchRegion(name string, start, end uint64) (FetchRegion, error) {
	e, ok := ix.entries[name]
	if !ok {
		return FetchRegion{}, fmt.Errorf("%w: %q", ErrUnknownSequence, name)
	}
	return e.Region(start, end)
}

// WriteTo writes the index in .fai format.
func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, e := range ix.Entries() {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}
	return buf.WriteTo(w)
}

// MarshalJSON encodes the entries as a JSON array in file order.
func (ix *Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(ix.Entries())
}

// BuildIndex reads every record of a FASTA stream and returns its index.
// Names are ids cut at the first whitespace. Every sequence line except
// the last must hold the same number of bases, as required for offset
// arithmetic.
func BuildIndex(r *FastaReader) (*Index, error) {
	ix := NewIndex()
	for rec, err := range Records(r) {
		if err != nil {
			return nil, err
		}
		e, err := indexEntry(rec)
		if err != nil {
			return nil, err
		}
		ix.Add(e)
	}
	return ix, nil
}

// indexEntry derives the index line of a FASTA record from its newline
// offsets and stream position.
func indexEntry(rec *Record) (IndexEntry, error) {
	id := rec.ID()
	name := string(id)
	if i := bytes.IndexAny(id, " \t"); i >= 0 {
		name = string(id[:i])
	}

	lines := rec.lines
	e := IndexEntry{
		Name:   name,
		Length: uint64(rec.NumBases()),
		Offset: rec.position.Byte + uint64(lines[0]-rec.start+1),
	}
	if len(lines) < 2 {
		return e, nil
	}

	// Bases on each sequence line, without trailing blank lines.
	var bases []int
	for i := 1; i < len(lines); i++ {
		bases = append(bases, len(trimCR(rec.data[lines[i-1]+1:lines[i]])))
	}
	for len(bases) > 0 && bases[len(bases)-1] == 0 {
		bases = bases[:len(bases)-1]
	}
	if len(bases) == 0 {
		return e, nil
	}

	e.LineBases = uint64(bases[0])
	e.LineWidth = uint64(lines[1] - lines[0])
	for i, n := range bases[1:] {
		last := i == len(bases)-2
		if n > bases[0] || (!last && n != bases[0]) {
			return IndexEntry{}, fmt.Errorf("%w: %s has uneven line lengths at line %d",
				ErrIndexFormat, name, rec.position.Line+uint64(i)+2)
		}
	}
	return e, nil
}

// IndexedReader reads regions of an indexed FASTA file.
type IndexedReader struct {
	r     io.ReaderAt
	index *Index
	close func() error
}

// NewIndexedReader returns a reader over r described by index.
func NewIndexedReader(r io.ReaderAt, index *Index) *IndexedReader {
	return &IndexedReader{r: r, index: index, close: func() error { return nil }}
}

// OpenIndexed memory-maps the FASTA file at path and loads path.fai.
func OpenIndexed(path string) (*IndexedReader, error) {
	ix, err := ReadIndexFile(path + ".fai")
	if err != nil {
		return nil, fmt.Errorf("fai: %w", err)
	}
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	ir := NewIndexedReader(m, ix)
	ir.close = m.Close
	return ir, nil
}

// Index returns the index in use.
func (ir *IndexedReader) Index() *Index {
	return ir.index
}

// Close unmaps the file. SubSequences already returned remain valid.
func (ir *IndexedReader) Close() error {
	return ir.close()
}

// SubSequence is a region read through an IndexedReader.
type SubSequence struct {
	Name  string
	Start uint64
	End   uint64
	Seq   []byte
}

func (s *SubSequence) String() string {
	return fmt.Sprintf(">%s:%d-%d\n%s", s.Name, s.Start, s.End, s.Seq)
}

// Subseq returns bases [start, end) of the named sequence. A negative start
// means 0 and a negative end means the end of the sequence. An empty region
// is allowed.
func (ir *IndexedReader) Subseq(name string, start, end int64) (*SubSequence, error) {
	e, ok := ir.index.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSequence, name)
	}

	from, to := uint64(0), e.Length
	if start >= 0 {
		from = uint64(start)
	}
	if end >= 0 {
		to = uint64(end)
	}
	if from > to || to > e.Length {
		return nil, fmt.Errorf("%w: %s:%d-%d (length %d)", ErrInvalidRegion, name, from, to, e.Length)
	}

	sub := &SubSequence{Name: name, Start: from, End: to, Seq: []byte{}}
	if from == to {
		return sub, nil
	}

	region, err := e.Region(from, to)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, region.BytesToRead)
	n, err := ir.r.ReadAt(buf, int64(region.StartOffset))
	if err == io.EOF && n < len(buf) {
		return nil, fmt.Errorf("%w: %s:%d-%d lies past the end of the file", ErrIndexFormat, name, from, to)
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	sub.Seq = region.StripNewlines(buf)
	if len(sub.Seq) != region.BasesToFetch {
		return nil, fmt.Errorf("%w: %s:%d-%d read %d bases, want %d",
			ErrIndexFormat, name, from, to, len(sub.Seq), region.BasesToFetch)
	}
	return sub, nil
}
