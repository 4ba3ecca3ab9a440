package style

import (
	"fmt"
	"os"
	"path"
	"slices"

	"github.com/paulmach/osm"
	"gopkg.in/yaml.v3"
)

// Config represents a style file
type Config struct {
	// Tags holds the rules applied to every node's tags
	Tags *Rules `yaml:"tags,omitempty"`
}

// Rules rewrite the tags built from a row. Patterns use path.Match
// syntax, e.g. "addr:*".
type Rules struct {
	// Include keeps only keys matching one of the patterns
	// If empty, all keys are kept
	Include []string `yaml:"include,omitempty"`
	// Exclude drops keys matching one of the patterns
	// Applied after include rules
	Exclude []string `yaml:"exclude,omitempty"`
	// Rename maps a column name to the tag key written. Matching uses
	// the original column name.
	Rename map[string]string `yaml:"rename,omitempty"`
	// Static tags are added to every node unless the row already sets them
	Static map[string]string `yaml:"static,omitempty"`
}

// LoadConfig loads a style configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse style YAML: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration that keeps every tag
func DefaultConfig() *Config {
	return &Config{}
}

// Merge combines two rule sets; rules in other are appended and its
// renames and static tags win
func (r *Rules) Merge(other *Rules) *Rules {
	if r == nil {
		return other
	}
	if other == nil {
		return r
	}

	merged := &Rules{
		Include: append(slices.Clone(r.Include), other.Include...),
		Exclude: append(slices.Clone(r.Exclude), other.Exclude...),
		Rename:  make(map[string]string, len(r.Rename)+len(other.Rename)),
		Static:  make(map[string]string, len(r.Static)+len(other.Static)),
	}
	for k, v := range r.Rename {
		merged.Rename[k] = v
	}
	for k, v := range other.Rename {
		merged.Rename[k] = v
	}
	for k, v := range r.Static {
		merged.Static[k] = v
	}
	for k, v := range other.Static {
		merged.Static[k] = v
	}
	return merged
}

// Filter applies Rules to node tags
type Filter struct {
	rules  *Rules
	static osm.Tags
}

// NewFilter creates a filter from rules, checking every pattern
func NewFilter(rules *Rules) (*Filter, error) {
	if rules == nil {
		return &Filter{rules: &Rules{}}, nil
	}

	for _, patterns := range [][]string{rules.Include, rules.Exclude} {
		for _, p := range patterns {
			if _, err := path.Match(p, ""); err != nil {
				return nil, fmt.Errorf("invalid tag pattern %q: %w", p, err)
			}
		}
	}

	f := &Filter{rules: rules}
	for k, v := range rules.Static {
		if k != "" && v != "" {
			f.static = append(f.static, osm.Tag{Key: k, Value: v})
		}
	}
	slices.SortFunc(f.static, func(a, b osm.Tag) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})
	return f, nil
}

// Apply returns the tags left after the rules. Order is preserved and
// static tags come last.
func (f *Filter) Apply(tags osm.Tags) osm.Tags {
	if !f.HasFilter() {
		return tags
	}

	out := make(osm.Tags, 0, len(tags)+len(f.static))
	for _, tag := range tags {
		if len(f.rules.Include) > 0 && !matchAny(f.rules.Include, tag.Key) {
			continue
		}
		if matchAny(f.rules.Exclude, tag.Key) {
			continue
		}
		if to, ok := f.rules.Rename[tag.Key]; ok && to != "" {
			tag.Key = to
		}
		out = append(out, tag)
	}

	for _, tag := range f.static {
		if out.Find(tag.Key) == "" {
			out = append(out, tag)
		}
	}
	return out
}

// FilterTags applies the rules as a conversion tag filter
func (f *Filter) FilterTags(node *osm.Node) (osm.Tags, error) {
	return f.Apply(node.Tags), nil
}

// HasFilter returns true if any rule is set
func (f *Filter) HasFilter() bool {
	if f.rules == nil {
		return false
	}
	return len(f.rules.Include) > 0 || len(f.rules.Exclude) > 0 ||
		len(f.rules.Rename) > 0 || len(f.static) > 0
}

func matchAny(patterns []string, key string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, key); ok {
			return true
		}
	}
	return false
}
