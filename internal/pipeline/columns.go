package pipeline

import (
	"fmt"
	"slices"
	"strings"
)

var (
	// LonCandidates are tried in order when no longitude column is given
	LonCandidates = []string{"LONGITUDE", "Longitude", "longitude", "lon", "x", "e"}
	// LatCandidates are tried in order when no latitude column is given
	LatCandidates = []string{"LATITUDE", "Latitude", "latitude", "lat", "y", "n"}
)

// Columns names the coordinate columns of the input
type Columns struct {
	Lon string
	Lat string
}

// ColumnError reports a coordinate column that could not be resolved
type ColumnError struct {
	Axis      string // "longitude" or "latitude"
	Requested string // explicit name, empty when candidates were tried
	Header    []string
}

func (e *ColumnError) Error() string {
	if e.Requested != "" {
		return fmt.Sprintf("%s column %q not found in header [%s]",
			e.Axis, e.Requested, strings.Join(e.Header, ", "))
	}
	return fmt.Sprintf("no %s column found in header [%s]; use --%s to name it",
		e.Axis, strings.Join(e.Header, ", "), flagFor(e.Axis))
}

// ResolveColumns picks the coordinate columns from the header. Explicit
// names must be present; empty names fall back to the candidate lists.
func ResolveColumns(header []string, lon, lat string) (Columns, error) {
	lonCol, err := resolve(header, lon, LonCandidates, "longitude")
	if err != nil {
		return Columns{}, err
	}
	latCol, err := resolve(header, lat, LatCandidates, "latitude")
	if err != nil {
		return Columns{}, err
	}
	return Columns{Lon: lonCol, Lat: latCol}, nil
}

func resolve(header []string, explicit string, candidates []string, axis string) (string, error) {
	if explicit != "" {
		if slices.Contains(header, explicit) {
			return explicit, nil
		}
		return "", &ColumnError{Axis: axis, Requested: explicit, Header: header}
	}
	for _, c := range candidates {
		if slices.Contains(header, c) {
			return c, nil
		}
	}
	return "", &ColumnError{Axis: axis, Header: header}
}

func flagFor(axis string) string {
	if axis == "longitude" {
		return "lon"
	}
	return "lat"
}
