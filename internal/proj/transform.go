package proj

import (
	"errors"
	"fmt"
	"math"
	"strings"

	goproj "github.com/twpayne/go-proj/v10"
)

// ErrNotFinite is returned for NaN or infinite coordinates
var ErrNotFinite = errors.New("coordinate is not finite")

// ConfigError reports an unusable source CRS. It is raised before any row
// is converted.
type ConfigError struct {
	Definition string
	Err        error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid source projection %q: %v", e.Definition, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ProjectionError reports a coordinate pair the transformation rejected
type ProjectionError struct {
	X, Y float64
	Err  error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("cannot project (%v, %v): %v", e.X, e.Y, e.Err)
}

func (e *ProjectionError) Unwrap() error {
	return e.Err
}

// Transformer converts source CRS coordinates to WGS84 lon/lat
type Transformer struct {
	Source Source
	pj     *goproj.PJ
}

// NewTransformer creates a transformer from src to WGS84. Invalid PROJ
// descriptors fail here.
func NewTransformer(src Source) (*Transformer, error) {
	t := &Transformer{Source: src}
	if src.IsIdentity() {
		return t, nil
	}

	pj, err := goproj.NewCRSToCRS(crsDefinition(src.Definition), crsDefinition(WGS84Definition), nil)
	if err != nil {
		return nil, &ConfigError{Definition: src.Definition, Err: err}
	}
	defer pj.Destroy()

	// Always (east, north) / (lon, lat), whatever the authority axis order
	normalized, err := pj.NormalizeForVisualization()
	if err != nil {
		return nil, &ConfigError{Definition: src.Definition, Err: err}
	}
	t.pj = normalized
	return t, nil
}

// Transform converts x/easting and y/northing into lon, lat
func (t *Transformer) Transform(x, y float64) (lon, lat float64, err error) {
	if !finite(x) || !finite(y) {
		return 0, 0, &ProjectionError{X: x, Y: y, Err: ErrNotFinite}
	}
	if t.pj == nil {
		return x, y, nil
	}

	c, err := t.pj.Forward(goproj.NewCoord(x, y, 0, 0))
	if err != nil {
		return 0, 0, &ProjectionError{X: x, Y: y, Err: err}
	}
	lon, lat = c.X(), c.Y()
	if !finite(lon) || !finite(lat) {
		return 0, 0, &ProjectionError{X: x, Y: y, Err: ErrNotFinite}
	}
	return lon, lat, nil
}

// NeedsTransform returns true if coordinates go through PROJ
func (t *Transformer) NeedsTransform() bool {
	return t.pj != nil
}

// Close releases the PROJ object
func (t *Transformer) Close() {
	if t.pj != nil {
		t.pj.Destroy()
		t.pj = nil
	}
}

// crsDefinition marks bare PROJ strings as CRS definitions so PROJ builds
// a CRS rather than a coordinate operation. Authority codes pass through.
func crsDefinition(def string) string {
	def = strings.TrimSpace(def)
	if strings.HasPrefix(def, "+") && !strings.Contains(def, "+type=crs") {
		return def + " +type=crs"
	}
	return def
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
