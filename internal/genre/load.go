package genre

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk shape of a genre map file:
//
//	categories:
//	  Pop: [pop, dance pop]
//	  Hip-Hop: [rap, trap music]
type fileFormat struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadTable reads a genre map file and returns the flattened raw -> parent
// table. A raw tag listed under two different categories is an error.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading genre map: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes YAML genre map data.
func ParseTable(data []byte) (Table, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing genre map: %w", err)
	}

	table := make(Table)
	for parent, raws := range f.Categories {
		parent = strings.TrimSpace(parent)
		if parent == "" {
			return nil, fmt.Errorf("genre map: empty category name")
		}
		for _, raw := range raws {
			key := strings.ToLower(strings.TrimSpace(raw))
			if key == "" {
				continue
			}
			if existing, ok := table[key]; ok && existing != parent {
				return nil, fmt.Errorf("genre map: %q mapped to both %q and %q", key, existing, parent)
			}
			table[key] = parent
		}
	}
	return table, nil
}
