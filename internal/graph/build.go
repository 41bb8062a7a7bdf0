package graph

import (
	"slices"
	"strings"
)

// DefaultMaxLinksPerNode is the number of links kept per source artist.
const DefaultMaxLinksPerNode = 10

// Normalizer maps a raw genre tag to its canonical category.
type Normalizer interface {
	Normalize(raw string) string
}

// Options controls graph construction.
type Options struct {
	MaxLinksPerNode int
	Policy          FrequencyPolicy
}

// DefaultOptions returns the standard construction options.
func DefaultOptions() Options {
	return Options{
		MaxLinksPerNode: DefaultMaxLinksPerNode,
		Policy:          PolicyCanonical,
	}
}

// Build runs the full pipeline: count genre frequencies, link artists that
// share genres, cap each source's links by weight, and emit a node for
// every artist that kept at least one link. All intermediate state is
// local to the call.
func Build(artists []Artist, n Normalizer, opts Options) Graph {
	freq := CountFrequencies(artists, n, opts.Policy)
	links := CapLinks(BuildLinks(artists), opts.MaxLinksPerNode)
	nodes := SelectNodes(artists, links, freq, n, opts.Policy)
	return Graph{Nodes: nodes, Links: links}
}

// genreKey maps a raw genre to the key space selected by policy.
func genreKey(raw string, n Normalizer, policy FrequencyPolicy) string {
	if policy == PolicyRaw {
		return raw
	}
	if n == nil {
		return strings.ToLower(raw)
	}
	return n.Normalize(raw)
}

// CountFrequencies tallies genre occurrences across artists. Every genre
// entry of every artist adds one to its key, so an artist listing two tags
// of the same category contributes two. Artists without genres contribute
// nothing.
func CountFrequencies(artists []Artist, n Normalizer, policy FrequencyPolicy) Frequency {
	freq := make(Frequency)
	for _, a := range artists {
		for _, g := range a.Genres {
			freq[genreKey(g, n, policy)]++
		}
	}
	return freq
}

// BuildLinks compares every pair of artists (i < j in input order) and
// emits a link weighted by the number of distinct raw genre strings they
// share. Comparison is exact and case-sensitive. Pairs sharing nothing
// produce no link.
func BuildLinks(artists []Artist) []Link {
	sets := make([]map[string]struct{}, len(artists))
	for i, a := range artists {
		set := make(map[string]struct{}, len(a.Genres))
		for _, g := range a.Genres {
			set[g] = struct{}{}
		}
		sets[i] = set
	}

	var links []Link
	for i := 0; i < len(artists); i++ {
		if len(sets[i]) == 0 {
			continue
		}
		for j := i + 1; j < len(artists); j++ {
			shared := intersectionSize(sets[i], sets[j])
			if shared > 0 {
				links = append(links, Link{
					Source: artists[i].ID,
					Target: artists[j].ID,
					Weight: shared,
				})
			}
		}
	}
	return links
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for g := range a {
		if _, ok := b[g]; ok {
			n++
		}
	}
	return n
}

// CapLinks keeps at most maxPerNode links per source, preferring heavier
// links. Ties keep their original order. Groups are emitted in the order
// their source first appears. A maxPerNode of zero or less keeps nothing.
func CapLinks(links []Link, maxPerNode int) []Link {
	out := make([]Link, 0, len(links))
	if maxPerNode <= 0 {
		return out
	}

	var order []string
	groups := make(map[string][]Link)
	for _, l := range links {
		if _, ok := groups[l.Source]; !ok {
			order = append(order, l.Source)
		}
		groups[l.Source] = append(groups[l.Source], l)
	}

	for _, src := range order {
		group := groups[src]
		slices.SortStableFunc(group, func(a, b Link) int {
			return b.Weight - a.Weight
		})
		if len(group) > maxPerNode {
			group = group[:maxPerNode]
		}
		out = append(out, group...)
	}
	return out
}

// ConnectedIDs returns every artist ID that is an endpoint of a link.
func ConnectedIDs(links []Link) map[string]struct{} {
	ids := make(map[string]struct{}, len(links)*2)
	for _, l := range links {
		ids[l.Source] = struct{}{}
		ids[l.Target] = struct{}{}
	}
	return ids
}

// DominantGenre picks the artist genre with the highest frequency. The
// first genre in the artist's own order wins ties. The returned label is
// in the policy's key space: the canonical category under PolicyCanonical,
// the raw tag under PolicyRaw. Artists without genres get OtherGenre.
func DominantGenre(a Artist, freq Frequency, n Normalizer, policy FrequencyPolicy) string {
	best := OtherGenre
	bestCount := -1
	for _, g := range a.Genres {
		key := genreKey(g, n, policy)
		if c := freq[key]; c > bestCount {
			best, bestCount = key, c
		}
	}
	return best
}

// SelectNodes emits a Node for each connected artist in input order.
func SelectNodes(artists []Artist, links []Link, freq Frequency, n Normalizer, policy FrequencyPolicy) []Node {
	connected := ConnectedIDs(links)
	nodes := make([]Node, 0, len(connected))
	for _, a := range artists {
		if _, ok := connected[a.ID]; !ok {
			continue
		}
		genres := slices.Clone(a.Genres)
		if genres == nil {
			genres = []string{}
		}
		nodes = append(nodes, Node{
			ID:     a.ID,
			Name:   a.Name,
			Val:    a.Popularity,
			Img:    firstImage(a.Images),
			Genre:  DominantGenre(a, freq, n, policy),
			Genres: genres,
		})
	}
	return nodes
}

func firstImage(images []Image) *string {
	for _, img := range images {
		if img.URL != "" {
			u := img.URL
			return &u
		}
	}
	return nil
}
