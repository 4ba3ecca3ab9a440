package table

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   rune
	}{
		{name: "comma", sample: "lon,lat,name\n1,2,a\n3,4,b\n", want: ','},
		{name: "semicolon with comma decimals", sample: "lon;lat;name\n-46,6;-23,5;a\n-46,7;-23,6;b\n", want: ';'},
		{name: "tab", sample: "lon\tlat\n1\t2\n", want: '\t'},
		{name: "pipe", sample: "lon|lat|name\n1|2|x\n", want: '|'},
		{name: "quoted commas ignored", sample: "lon;lat;name\n1;2;\"a, b, c\"\n", want: ';'},
		{name: "single column", sample: "name\nfoo\n", want: ','},
		{name: "empty", sample: "", want: ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sniff([]byte(tt.sample)); got != tt.want {
				t.Errorf("Sniff = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReaderRows(t *testing.T) {
	input := "lon;lat;name;name;ref\n-46,6;-23,5;first;second;1\n\n-46,7;-23,6\n"
	r, err := NewReader(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Delimiter != ';' {
		t.Errorf("Delimiter = %q, want ';'", r.Delimiter)
	}
	if got := strings.Join(r.Header(), ","); got != "lon,lat,name,name,ref" {
		t.Errorf("Header = %q", got)
	}

	row, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Line != 1 {
		t.Errorf("Line = %d, want 1", row.Line)
	}
	if v, _ := row.Get("name"); v != "second" {
		t.Errorf("duplicate header value = %q, want last value %q", v, "second")
	}

	var keys []string
	row.Each(func(k, v string) { keys = append(keys, k) })
	if got := strings.Join(keys, ","); got != "lon,lat,name,ref" {
		t.Errorf("keys = %q, want header order without duplicates", got)
	}

	if v, ok := row.Pop("lon"); !ok || v != "-46,6" {
		t.Errorf("Pop(lon) = %q, %v", v, ok)
	}
	if _, ok := row.Get("lon"); ok {
		t.Error("lon should be gone after Pop")
	}
	if row.Len() != 3 {
		t.Errorf("Len = %d, want 3", row.Len())
	}

	// Blank line skipped, short row keeps only present fields
	row, err = r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Line != 2 {
		t.Errorf("Line = %d, want 2", row.Line)
	}
	if _, ok := row.Get("name"); ok {
		t.Error("missing field should be absent, not empty")
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestReaderExplicitDelimiter(t *testing.T) {
	r, err := NewReader(strings.NewReader("a,b;c\n1,2;3\n"), Options{Delimiter: ';'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(r.Header(), "|"); got != "a,b|c" {
		t.Errorf("Header = %q, want %q", got, "a,b|c")
	}
}

func TestReaderEncoding(t *testing.T) {
	// "Região" in windows-1252
	input := []byte("lon,lat,name\n1,2,Regi\xe3o\n")
	r, err := NewReader(bytes.NewReader(input), Options{Encoding: "windows-1252"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row, err := r.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := row.Get("name"); v != "Região" {
		t.Errorf("name = %q, want %q", v, "Região")
	}

	if _, err := NewReader(bytes.NewReader(input), Options{Encoding: "klingon"}); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestReaderStripsBOM(t *testing.T) {
	r, err := NewReader(strings.NewReader("\ufeffLONGITUDE,LATITUDE\n1,2\n"), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Header()[0] != "LONGITUDE" {
		t.Errorf("first header = %q, want %q", r.Header()[0], "LONGITUDE")
	}
}

func TestReaderNoHeader(t *testing.T) {
	if _, err := NewReader(strings.NewReader(""), Options{}); err != ErrNoHeader {
		t.Errorf("expected ErrNoHeader, got %v", err)
	}
}

func TestOpenGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.csv.gz")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte("x,y\n1,2\n3,4\n")); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	r, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer r.Close()

	if r.Size() != int64(buf.Len()) {
		t.Errorf("Size = %d, want %d", r.Size(), buf.Len())
	}

	rows := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rows++
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
	if r.BytesRead() == 0 {
		t.Error("BytesRead should count compressed input")
	}
}
