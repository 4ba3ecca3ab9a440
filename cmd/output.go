package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// output is the destination of the document: stdout, a file, or a
// gzip stream over a file
type output struct {
	io.Writer
	closers []io.Closer
}

// openOutput opens path for writing, or stdout for "" and "-". Files
// ending in .gz are compressed.
func openOutput(path string) (*output, error) {
	if path == "" || path == "-" {
		return &output{Writer: os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output: %w", err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return &output{Writer: f, closers: []io.Closer{f}}, nil
	}

	gz := gzip.NewWriter(f)
	return &output{Writer: gz, closers: []io.Closer{gz, f}}, nil
}

// Close closes the gzip stream before the file. The first error wins.
func (o *output) Close() error {
	var first error
	for _, c := range o.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	o.closers = nil
	return first
}
