// Package genre maps raw Spotify genre tags to coarse parent categories.
package genre

import (
	"maps"
	"slices"
	"strings"
)

// Table maps a lower-cased raw genre tag to its parent category.
type Table map[string]string

// defaultTable is the built-in mapping used when no genre map file is configured.
var defaultTable = Table{
	"pop":        "Pop",
	"dance pop":  "Pop",
	"pop rap":    "Pop",
	"electropop": "Pop",

	"rock":             "Rock",
	"alternative rock": "Rock",
	"modern rock":      "Rock",
	"hard rock":        "Rock",

	"indie rock": "Indie",
	"indie pop":  "Indie",
	"folk-pop":   "Indie",
	"folk rock":  "Indie",

	"edm":               "Electronic",
	"electro house":     "Electronic",
	"progressive house": "Electronic",
	"house":             "Electronic",
	"techno":            "Electronic",
	"trance":            "Electronic",

	"hiphop":           "Hip-Hop",
	"hip hop":          "Hip-Hop",
	"rap":              "Hip-Hop",
	"trap music":       "Hip-Hop",
	"southern hip hop": "Hip-Hop",

	"rnb":      "R&B",
	"r&b":      "R&B",
	"neo soul": "R&B",
	"soul":     "R&B",

	"jazz":       "Jazz",
	"vocal jazz": "Jazz",

	"classical": "Classical",
	"baroque":   "Classical",

	"country":             "Country",
	"modern country rock": "Country",
	"canadian country":    "Country",

	"k-pop": "K-Pop",
	"j-pop": "J-Pop",
}

// DefaultTable returns a copy of the built-in genre table.
func DefaultTable() Table {
	return maps.Clone(defaultTable)
}

// Categories returns the distinct parent categories in the table, sorted.
func (t Table) Categories() []string {
	seen := make(map[string]struct{}, len(t))
	var out []string
	for _, parent := range t {
		if _, ok := seen[parent]; ok {
			continue
		}
		seen[parent] = struct{}{}
		out = append(out, parent)
	}
	slices.Sort(out)
	return out
}

// Normalizer resolves raw genre tags against a fixed Table. It is safe for
// concurrent use because the table is never mutated after construction.
type Normalizer struct {
	table Table
}

// NewNormalizer creates a Normalizer over a private copy of t. Keys are
// lower-cased so lookups are case-insensitive.
func NewNormalizer(t Table) *Normalizer {
	table := make(Table, len(t))
	for raw, parent := range t {
		table[strings.ToLower(raw)] = parent
	}
	return &Normalizer{table: table}
}

// Normalize returns the parent category for raw. Unknown tags come back
// lower-cased and act as their own category. A nil Normalizer behaves as an
// empty table.
func (n *Normalizer) Normalize(raw string) string {
	key := strings.ToLower(raw)
	if n == nil {
		return key
	}
	if parent, ok := n.table[key]; ok {
		return parent
	}
	return key
}

// Len returns the number of raw tags the normalizer knows about.
func (n *Normalizer) Len() int {
	if n == nil {
		return 0
	}
	return len(n.table)
}
