// Package pipeline drives a conversion: rows in, OSM nodes and an
// optional way out.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/paulmach/osm"
	"go.uber.org/zap"

	"github.com/wegman-software/csv2osm-go/internal/coord"
	"github.com/wegman-software/csv2osm-go/internal/locale"
	"github.com/wegman-software/csv2osm-go/internal/logger"
	"github.com/wegman-software/csv2osm-go/internal/osmxml"
	"github.com/wegman-software/csv2osm-go/internal/table"
)

// Options controls a conversion
type Options struct {
	Columns    Columns
	Separators locale.Separators
	Filters    []TagFilter

	// Way appends a way referencing the assigned node ids
	Way bool
	// WayEmittedOnly leaves skipped ids out of the way
	WayEmittedOnly bool

	// ProgressEvery logs progress at debug level every n rows, 0 disables
	ProgressEvery int64
}

// Converter turns rows into nodes. Node ids count down from -1, one per
// row, whether or not the row is emitted.
type Converter struct {
	src  RowSource
	proj Projector
	out  *osmxml.Writer
	opts Options
	log  *zap.Logger

	lastID  osm.NodeID
	skipped []osm.NodeID

	rows  atomic.Int64
	nodes atomic.Int64
	skips atomic.Int64
}

// NewConverter creates a converter. A nil log uses the global logger.
func NewConverter(src RowSource, proj Projector, out *osmxml.Writer, opts Options, log *zap.Logger) *Converter {
	if log == nil {
		log = logger.Get()
	}
	return &Converter{
		src:  src,
		proj: proj,
		out:  out,
		opts: opts,
		log:  log,
	}
}

// Run converts every row and closes the document. Cancelling ctx stops
// between rows; what was already converted is flushed.
func (c *Converter) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()
	tracker := NewProgressTracker(c.src.Size())

	if err := c.out.WriteHeader(); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			c.out.Flush()
			return c.stats(start, false), err
		}

		row, err := c.src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.out.Flush()
			return c.stats(start, false), err
		}

		if err := c.convertRow(row); err != nil {
			c.out.Flush()
			return c.stats(start, false), err
		}

		rows := c.rows.Add(1)
		if c.opts.ProgressEvery > 0 && rows%c.opts.ProgressEvery == 0 {
			c.log.Debug("Conversion progress", tracker.Calculate(rows, c.src.BytesRead()).Fields()...)
		}
	}

	if c.opts.Way {
		way := &osmxml.Way{
			ID:   osm.WayID(c.lastID - 1),
			Refs: osmxml.WayRefs(c.lastID, c.skipped, c.opts.WayEmittedOnly),
		}
		if err := c.out.WriteWay(way); err != nil {
			return c.stats(start, false), fmt.Errorf("failed to write way: %w", err)
		}
	}

	if err := c.out.Close(); err != nil {
		return c.stats(start, false), fmt.Errorf("failed to finish document: %w", err)
	}

	stats := c.stats(start, c.opts.Way)
	c.log.Info("Conversion complete",
		zap.Int64("rows", stats.Rows),
		zap.Int64("nodes", stats.Nodes),
		zap.Int64("skipped", stats.Skipped),
		zap.Duration("duration", stats.Duration.Round(time.Millisecond)),
		zap.String("rate", FormatThroughput(stats.RowsPerSecond())),
	)
	return stats, nil
}

// Progress returns live counters as log fields. Safe to call while Run
// is in progress.
func (c *Converter) Progress() []zap.Field {
	return []zap.Field{
		zap.Int64("rows", c.rows.Load()),
		zap.Int64("nodes", c.nodes.Load()),
		zap.Int64("skipped", c.skips.Load()),
		zap.String("read", FormatBytes(c.src.BytesRead())),
	}
}

func (c *Converter) convertRow(row *table.Row) error {
	c.lastID--
	id := c.lastID

	lon, lat, err := c.coordinates(row)
	if err != nil {
		c.skip(&RowError{ID: id, Line: row.Line, Err: err})
		return nil
	}

	tags := make(osm.Tags, 0, row.Len())
	row.Each(func(k, v string) {
		if k == "" || v == "" {
			return
		}
		tags = append(tags, osm.Tag{Key: k, Value: v})
	})

	node := &osm.Node{ID: id, Lat: lat, Lon: lon, Tags: tags}
	for _, f := range c.opts.Filters {
		node.Tags, err = f.FilterTags(node)
		if err != nil {
			return fmt.Errorf("tag filter failed on node %d (row %d): %w", id, row.Line, err)
		}
	}

	if err := c.out.WriteNode(&osmxml.Node{ID: id, Lat: lat, Lon: lon, Tags: node.Tags}); err != nil {
		return fmt.Errorf("failed to write node %d: %w", id, err)
	}
	c.nodes.Add(1)
	return nil
}

// coordinates takes the coordinate columns out of the row and converts
// them to WGS84
func (c *Converter) coordinates(row *table.Row) (lon, lat float64, err error) {
	rawX, okX := row.Get(c.opts.Columns.Lon)
	rawY, okY := row.Get(c.opts.Columns.Lat)
	row.Pop(c.opts.Columns.Lon)
	row.Pop(c.opts.Columns.Lat)
	if !okX || !okY {
		return 0, 0, ErrMissingCoordinate
	}

	x, err := coord.ParseValue(rawX, c.opts.Separators)
	if err != nil {
		return 0, 0, err
	}
	y, err := coord.ParseValue(rawY, c.opts.Separators)
	if err != nil {
		return 0, 0, err
	}
	return c.proj.Transform(x, y)
}

func (c *Converter) skip(rowErr *RowError) {
	c.skips.Add(1)
	if c.opts.Way && c.opts.WayEmittedOnly {
		c.skipped = append(c.skipped, rowErr.ID)
	}

	fields := []zap.Field{
		zap.Int64("id", int64(rowErr.ID)),
		zap.Int("row", rowErr.Line),
		zap.Error(rowErr.Err),
	}
	var parseErr *coord.ParseError
	if errors.As(rowErr.Err, &parseErr) {
		fields = append(fields, zap.String("value", parseErr.Raw))
	}
	c.log.Warn(fmt.Sprintf("Skipping node %d: couldn't parse coordinates", rowErr.ID), fields...)
}

func (c *Converter) stats(start time.Time, way bool) *Stats {
	s := &Stats{
		Rows:      c.rows.Load(),
		Nodes:     c.nodes.Load(),
		Skipped:   c.skips.Load(),
		LastID:    c.lastID,
		BytesRead: c.src.BytesRead(),
		Duration:  time.Since(start),
	}
	if way {
		s.Way = true
		s.WayID = osm.WayID(c.lastID - 1)
		s.WayRefs = int64(-c.lastID)
		if c.opts.WayEmittedOnly {
			s.WayRefs -= int64(len(c.skipped))
		}
	}
	return s
}
