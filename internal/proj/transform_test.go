package proj

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestSourceFromFlags(t *testing.T) {
	tests := []struct {
		name       string
		proj4      string
		sirgas     string
		sad69      string
		wantKind   SourceKind
		wantZone   string
		wantDefSub string
		wantErr    bool
	}{
		{name: "default is WGS84", wantKind: SourceWGS84, wantDefSub: "+datum=WGS84"},
		{name: "explicit proj4", proj4: " +proj=utm +zone=22 +south ", wantKind: SourceProj4, wantDefSub: "+zone=22"},
		{name: "proj4 wins", proj4: "EPSG:31983", sirgas: "23", wantKind: SourceProj4, wantDefSub: "EPSG:31983"},
		{name: "sirgas2000", sirgas: "23", wantKind: SourceSIRGAS2000, wantZone: "23", wantDefSub: "+zone=23 +south +ellps=GRS80"},
		{name: "sirgas2000 wins over sad69", sirgas: "24", sad69: "23", wantKind: SourceSIRGAS2000, wantZone: "24"},
		{name: "sad69", sad69: "22", wantKind: SourceSAD69, wantZone: "22", wantDefSub: "+ellps=aust_SA"},
		{name: "sad69 geographic", sad69: "ll", wantKind: SourceSAD69, wantZone: "ll", wantDefSub: "+proj=longlat +ellps=aust_SA"},
		{name: "zone not a number", sirgas: "23S", wantErr: true},
		{name: "zone out of range", sad69: "61", wantErr: true},
		{name: "zone zero", sirgas: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := SourceFromFlags(tt.proj4, tt.sirgas, tt.sad69)
			if tt.wantErr {
				var ce *ConfigError
				if !errors.As(err, &ce) {
					t.Errorf("expected *ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", src.Kind, tt.wantKind)
			}
			if src.Zone != tt.wantZone {
				t.Errorf("Zone = %q, want %q", src.Zone, tt.wantZone)
			}
			if !strings.Contains(src.Definition, tt.wantDefSub) {
				t.Errorf("Definition = %q, want it to contain %q", src.Definition, tt.wantDefSub)
			}
		})
	}
}

func TestCRSDefinition(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+proj=longlat +datum=WGS84", "+proj=longlat +datum=WGS84 +type=crs"},
		{"+proj=utm +zone=23 +type=crs", "+proj=utm +zone=23 +type=crs"},
		{"EPSG:31983", "EPSG:31983"},
	}

	for _, tt := range tests {
		if got := crsDefinition(tt.input); got != tt.want {
			t.Errorf("crsDefinition(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIdentityTransform(t *testing.T) {
	tr, err := NewTransformer(WGS84())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tr.Close()

	if tr.NeedsTransform() {
		t.Error("WGS84 source should not need a transform")
	}

	lon, lat, err := tr.Transform(-46.63, -23.55)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lon != -46.63 || lat != -23.55 {
		t.Errorf("Transform = (%v, %v), want (-46.63, -23.55)", lon, lat)
	}

	_, _, err = tr.Transform(math.NaN(), 0)
	var pe *ProjectionError
	if !errors.As(err, &pe) || !errors.Is(err, ErrNotFinite) {
		t.Errorf("Transform(NaN) error = %v, want ProjectionError wrapping ErrNotFinite", err)
	}
}

func TestSIRGAS2000Transform(t *testing.T) {
	src, err := SIRGAS2000("23")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr, err := NewTransformer(src)
	if err != nil {
		t.Fatalf("failed to create transformer: %v", err)
	}
	defer tr.Close()

	// São Paulo, central region
	lon, lat, err := tr.Transform(333624.1812, 7394647.5221)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(lon-(-46.63)) > 1e-6 || math.Abs(lat-(-23.55)) > 1e-6 {
		t.Errorf("Transform = (%.8f, %.8f), want (-46.63, -23.55)", lon, lat)
	}
}

func TestSAD69Transform(t *testing.T) {
	src, err := SAD69("23")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr, err := NewTransformer(src)
	if err != nil {
		t.Fatalf("failed to create transformer: %v", err)
	}
	defer tr.Close()

	lon, lat, err := tr.Transform(333624.1812, 7394647.5221)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The datum shift moves the point by tens of metres, not more
	if math.Abs(lon-(-46.63)) > 0.01 || math.Abs(lat-(-23.55)) > 0.01 {
		t.Errorf("Transform = (%.8f, %.8f), want near (-46.63, -23.55)", lon, lat)
	}
}

func TestInvalidDefinition(t *testing.T) {
	_, err := NewTransformer(Source{Kind: SourceProj4, Definition: "+proj=not_a_projection"})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("expected *ConfigError, got %v", err)
	}
}
