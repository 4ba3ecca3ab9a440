package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/wegman-software/csv2osm-go/internal/locale"
	"github.com/wegman-software/csv2osm-go/internal/proj"
	"github.com/wegman-software/csv2osm-go/internal/style"
)

// ParseDelimiter parses a delimiter option. Empty means sniff; "\t" and
// "tab" are accepted for a tab.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}

// Config holds the configuration for one conversion. Every field with a
// yaml tag can be set by a profile file.
type Config struct {
	// Input and output ("" or "-" = stdin/stdout)
	Input  string `yaml:"input,omitempty"`
	Output string `yaml:"output,omitempty"`

	// Coordinate columns (empty = candidate lists)
	Lon string `yaml:"lon,omitempty"`
	Lat string `yaml:"lat,omitempty"`

	// Numeric locale of the input, e.g. pt_BR.UTF-8
	Locale string `yaml:"locale,omitempty"`

	// Source CRS; precedence is Proj4 > SIRGAS2000 > SAD69 > WGS84
	Proj4      string `yaml:"proj4,omitempty"`
	SIRGAS2000 string `yaml:"sirgas2000,omitempty"`
	SAD69      string `yaml:"sad69,omitempty"`

	// Way output
	Way            bool `yaml:"way,omitempty"`
	WayEmittedOnly bool `yaml:"way_emitted_only,omitempty"`

	// Input dialect
	Delimiter string `yaml:"delimiter,omitempty"` // empty = sniff
	Encoding  string `yaml:"encoding,omitempty"`  // empty = UTF-8

	// Tag translation
	StyleFile  string       `yaml:"style,omitempty"`  // YAML tag rules file
	ScriptFile string       `yaml:"script,omitempty"` // Lua script
	Tags       *style.Rules `yaml:"tags,omitempty"`   // Inline tag rules

	Generator string `yaml:"generator,omitempty"`

	// Logging and metrics
	Verbose         bool          `yaml:"-"`
	LogFile         string        `yaml:"-"`                          // Path to log file (empty = no file logging)
	MetricsInterval time.Duration `yaml:"metrics_interval,omitempty"` // 0 disables metrics logging
	ProgressEvery   int64         `yaml:"progress_every,omitempty"`   // Rows between debug progress lines
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Generator:       "csv2osm",
		MetricsInterval: 0,
		ProgressEvery:   100000,
	}
}

// LoadProfile reads a YAML profile into c. Keys absent from the file keep
// their current value.
func (c *Config) LoadProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse profile YAML: %w", err)
	}
	return nil
}

// DelimiterRune returns the parsed delimiter, 0 to sniff
func (c *Config) DelimiterRune() (rune, error) {
	return ParseDelimiter(c.Delimiter)
}

// Separators returns the numeric separators of the configured locale
func (c *Config) Separators() (locale.Separators, error) {
	return locale.Parse(c.Locale)
}

// Source returns the configured source CRS
func (c *Config) Source() (proj.Source, error) {
	return proj.SourceFromFlags(c.Proj4, c.SIRGAS2000, c.SAD69)
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.WayEmittedOnly && !c.Way {
		return fmt.Errorf("way_emitted_only requires way output")
	}
	if isFile(c.Input) && c.Input == c.Output {
		return fmt.Errorf("input and output are the same file: %s", c.Input)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if _, err := c.Separators(); err != nil {
		return err
	}
	if _, err := c.Source(); err != nil {
		return err
	}
	if c.MetricsInterval < 0 {
		return fmt.Errorf("metrics interval must not be negative")
	}
	if c.ProgressEvery < 0 {
		return fmt.Errorf("progress interval must not be negative")
	}
	return nil
}

func isFile(path string) bool {
	return path != "" && path != "-"
}
