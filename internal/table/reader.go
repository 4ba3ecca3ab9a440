// Package table reads delimited text tables: plain or gzip-compressed,
// in any charset, with the delimiter sniffed from the first bytes.
package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned for an input without a header line
var ErrNoHeader = errors.New("input has no header line")

// Options controls how the input is decoded
type Options struct {
	Delimiter rune   // 0 sniffs the delimiter
	Encoding  string // WHATWG encoding label; empty means UTF-8
}

// Reader yields the rows of a table after its header
type Reader struct {
	Delimiter rune

	csv     *csv.Reader
	header  []string
	keys    []string
	line    int
	counter *countingReader
	size    int64
	closers []io.Closer
}

// Open opens path, or standard input for "" and "-". Files ending in .gz
// are decompressed.
func Open(path string, opts Options) (*Reader, error) {
	if path == "" || path == "-" {
		return NewReader(os.Stdin, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	counter := &countingReader{r: f}
	closers := []io.Closer{f}
	var src io.Reader = counter

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(counter)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		closers = append([]io.Closer{gz}, closers...)
		src = gz
	}

	r, err := NewReader(src, opts)
	if err != nil {
		for _, c := range closers {
			c.Close()
		}
		return nil, err
	}
	r.counter = counter
	r.size = size
	r.closers = closers
	return r, nil
}

// NewReader reads a table from src and consumes its header line
func NewReader(src io.Reader, opts Options) (*Reader, error) {
	dec, err := decoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(transform.NewReader(src, dec), 64*1024)

	delim := opts.Delimiter
	if delim == 0 {
		sample, err := br.Peek(SniffSize)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		delim = Sniff(sample)
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	return &Reader{
		Delimiter: delim,
		csv:       cr,
		header:    header,
		keys:      uniqueKeys(header),
	}, nil
}

// Header returns the column names as they appear in the input
func (r *Reader) Header() []string {
	return r.header
}

// Next returns the next row, or io.EOF after the last one. Blank lines
// are skipped.
func (r *Reader) Next() (*Row, error) {
	record, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read row %d: %w", r.line+1, err)
	}
	r.line++
	return newRow(r.line, r.header, r.keys, record), nil
}

// BytesRead returns how many raw input bytes have been consumed, 0 for stdin
func (r *Reader) BytesRead() int64 {
	if r.counter == nil {
		return 0
	}
	return r.counter.n.Load()
}

// Size returns the raw input size in bytes, 0 when unknown
func (r *Reader) Size() int64 {
	return r.size
}

// Close releases the input file
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// decoder returns a transformer to UTF-8 for the named charset. A byte
// order mark overrides the charset.
func decoder(name string) (transform.Transformer, error) {
	if name == "" {
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return unicode.BOMOverride(enc.NewDecoder()), nil
}

func uniqueKeys(header []string) []string {
	seen := make(map[string]bool, len(header))
	keys := make([]string, 0, len(header))
	for _, h := range header {
		if seen[h] {
			continue
		}
		seen[h] = true
		keys = append(keys, h)
	}
	return keys
}

// countingReader counts bytes for progress reporting
type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
