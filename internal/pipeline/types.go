package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/osm"

	"github.com/wegman-software/csv2osm-go/internal/table"
)

// ErrMissingCoordinate is returned for a row without a coordinate field
var ErrMissingCoordinate = errors.New("coordinate field missing")

// RowError is a non-fatal coordinate failure for one row. Err wraps a
// *coord.ParseError, a *proj.ProjectionError or ErrMissingCoordinate.
type RowError struct {
	ID   osm.NodeID
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("node %d (row %d): %v", e.ID, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// RowSource yields input rows until io.EOF
type RowSource interface {
	Next() (*table.Row, error)
	BytesRead() int64
	Size() int64
}

// Projector converts source coordinates into WGS84 lon/lat
type Projector interface {
	Transform(x, y float64) (lon, lat float64, err error)
}

// TagFilter rewrites the tags of a node before it is written. The node
// carries its id, WGS84 coordinates and current tags. Returning an error
// aborts the conversion.
type TagFilter interface {
	FilterTags(node *osm.Node) (osm.Tags, error)
}

// TagFilterFunc adapts a function to TagFilter
type TagFilterFunc func(node *osm.Node) (osm.Tags, error)

// FilterTags calls f
func (f TagFilterFunc) FilterTags(node *osm.Node) (osm.Tags, error) {
	return f(node)
}

// Stats holds conversion statistics
type Stats struct {
	Rows      int64
	Nodes     int64
	Skipped   int64
	LastID    osm.NodeID // 0 when the input had no rows
	Way       bool
	WayID     osm.WayID
	WayRefs   int64
	BytesRead int64
	Duration  time.Duration
}

// RowsPerSecond returns the average row throughput
func (s *Stats) RowsPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Rows) / s.Duration.Seconds()
}
