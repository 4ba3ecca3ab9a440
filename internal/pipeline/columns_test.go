package pipeline

import (
	"errors"
	"strings"
	"testing"
)

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		lon     string
		lat     string
		want    Columns
		wantErr string
	}{
		{
			name:   "capitalized fallback",
			header: []string{"id", "Longitude", "Latitude"},
			want:   Columns{Lon: "Longitude", Lat: "Latitude"},
		},
		{
			name:   "priority order",
			header: []string{"x", "lon", "y", "LATITUDE"},
			want:   Columns{Lon: "lon", Lat: "LATITUDE"},
		},
		{
			name:   "utm style",
			header: []string{"e", "n", "name"},
			want:   Columns{Lon: "e", Lat: "n"},
		},
		{
			name:   "explicit",
			header: []string{"easting", "northing"},
			lon:    "easting",
			lat:    "northing",
			want:   Columns{Lon: "easting", Lat: "northing"},
		},
		{
			name:    "case sensitive",
			header:  []string{"LON", "LAT"},
			wantErr: "no longitude column",
		},
		{
			name:    "explicit missing",
			header:  []string{"lon", "lat"},
			lat:     "northing",
			wantErr: `latitude column "northing" not found`,
		},
		{
			name:    "no latitude",
			header:  []string{"lon", "name"},
			wantErr: "no latitude column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveColumns(tt.header, tt.lon, tt.lat)
			if tt.wantErr != "" {
				var colErr *ColumnError
				if !errors.As(err, &colErr) {
					t.Fatalf("expected *ColumnError, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveColumns = %+v, want %+v", got, tt.want)
			}
		})
	}
}
