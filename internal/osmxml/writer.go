// Package osmxml streams OSM XML 0.6 documents made of nodes and a
// single optional way.
package osmxml

import (
	"bufio"
	"encoding/xml"
	"errors"
	"io"
	"iter"
	"strconv"

	"github.com/paulmach/osm"
)

const (
	// Version is the OSM API version written in the root element
	Version = "0.6"
	// DefaultGenerator names this program in the root element
	DefaultGenerator = "csv2osm"
)

// ErrClosed is returned when writing after Close
var ErrClosed = errors.New("osmxml: writer closed")

// Node is a point with its tags
type Node struct {
	ID   osm.NodeID
	Lat  float64
	Lon  float64
	Tags osm.Tags
}

// Way references nodes by id. Refs is consumed once while writing.
type Way struct {
	ID   osm.WayID
	Refs iter.Seq[osm.NodeID]
}

// Writer emits an OSM document element by element. The first write error
// sticks and is returned by every later call.
type Writer struct {
	w         *bufio.Writer
	generator string
	started   bool
	closed    bool
	err       error
}

// NewWriter creates a writer for the given generator name
func NewWriter(w io.Writer, generator string) *Writer {
	if generator == "" {
		generator = DefaultGenerator
	}
	return &Writer{w: bufio.NewWriter(w), generator: generator}
}

// WriteHeader writes the XML declaration and the opening osm element
func (w *Writer) WriteHeader() error {
	if w.started {
		return w.err
	}
	w.started = true
	w.str(xml.Header)
	w.str(`<osm version="` + Version + `" generator="`)
	w.attr(w.generator)
	w.str("\">\n")
	return w.err
}

// WriteNode writes one node with its tags
func (w *Writer) WriteNode(n *Node) error {
	if err := w.ready(); err != nil {
		return err
	}

	w.str(`<node id="`)
	w.str(strconv.FormatInt(int64(n.ID), 10))
	w.str(`" lat="`)
	w.str(formatCoord(n.Lat))
	w.str(`" lon="`)
	w.str(formatCoord(n.Lon))
	w.str("\">\n")
	for _, tag := range n.Tags {
		w.str(`<tag k="`)
		w.attr(tag.Key)
		w.str(`" v="`)
		w.attr(tag.Value)
		w.str("\"/>\n")
	}
	w.str("</node>\n")
	return w.err
}

// WriteWay writes a way and its node references
func (w *Writer) WriteWay(way *Way) error {
	if err := w.ready(); err != nil {
		return err
	}

	w.str(`<way id="`)
	w.str(strconv.FormatInt(int64(way.ID), 10))
	w.str("\" changeset=\"false\">\n")
	if way.Refs != nil {
		for ref := range way.Refs {
			w.str(`<nd ref="`)
			w.str(strconv.FormatInt(int64(ref), 10))
			w.str("\"/>\n")
			if w.err != nil {
				break
			}
		}
	}
	w.str("</way>\n")
	return w.err
}

// Close writes the closing osm element and flushes. The underlying
// writer is not closed.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	if err := w.ready(); err != nil {
		return err
	}
	w.closed = true
	w.str("</osm>\n")
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}

// Flush pushes buffered output to the underlying writer
func (w *Writer) Flush() error {
	if w.err == nil {
		w.err = w.w.Flush()
	}
	return w.err
}

func (w *Writer) ready() error {
	if w.closed {
		return ErrClosed
	}
	if !w.started {
		return w.WriteHeader()
	}
	return w.err
}

func (w *Writer) str(s string) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.WriteString(s)
}

// attr writes s escaped for use inside a double-quoted attribute
func (w *Writer) attr(s string) {
	if w.err != nil {
		return
	}
	w.err = xml.EscapeText(w.w, []byte(s))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
