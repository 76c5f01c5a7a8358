package cadence

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PackEntry is one (language, name, description) triple in a cadence
// pack file.
type PackEntry struct {
	Language    string `yaml:"language"`
	Name        string `yaml:"name"`
	Alias       string `yaml:"alias"`
	Description string `yaml:"description"`
}

// Pack is a flat YAML list of cadence entries, replacing (not
// mutating) same-named registry entries on load.
type Pack struct {
	Cadences []PackEntry `yaml:"cadences"`
}

// LoadPack reads a cadence pack from path and registers every entry
// against r. A malformed individual entry (bad segment grammar) is
// logged and skipped; it does not abort the rest of the pack. A
// malformed YAML document itself is a fatal error, since the file
// cannot be parsed into entries at all.
func LoadPack(r *Registry, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cadence: reading pack %s: %w", path, err)
	}
	var pack Pack
	if err := yaml.Unmarshal(raw, &pack); err != nil {
		return fmt.Errorf("cadence: parsing pack %s: %w", path, err)
	}

	for _, e := range pack.Cadences {
		if e.Name == "" {
			r.logger.Warn("cadence pack entry missing name, skipping", "path", path)
			continue
		}
		descs := splitDescription(e.Description)
		c, err := buildCadence(r.cache, descs...)
		if err != nil {
			r.logger.Warn("cadence pack entry invalid, skipping",
				"path", path, "language", e.Language, "name", e.Name, "error", err)
			continue
		}
		r.Register(e.Name, e.Language, e.Alias, c)
	}
	return nil
}

// splitDescription splits a comma-separated cadence description into
// its segment descriptors, trimming surrounding whitespace.
func splitDescription(desc string) []string {
	var out []string
	for _, seg := range strings.Split(desc, ",") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
