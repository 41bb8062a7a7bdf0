package graph

import (
	"cmp"
	"slices"
)

// GenreCount is one bar of the genre chart.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// GenreCounts tallies every genre listed on the given nodes, most common
// first with ties broken by name. A node with no genres counts once
// toward OtherGenre.
func GenreCounts(nodes []Node) []GenreCount {
	counts := make(map[string]int)
	for _, n := range nodes {
		if len(n.Genres) == 0 {
			counts[OtherGenre]++
			continue
		}
		for _, g := range n.Genres {
			counts[g]++
		}
	}

	out := make([]GenreCount, 0, len(counts))
	for g, c := range counts {
		out = append(out, GenreCount{Genre: g, Count: c})
	}
	slices.SortFunc(out, func(a, b GenreCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Genre, b.Genre)
	})
	return out
}
