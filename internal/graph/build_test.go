package graph

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"github.com/sydlexius/tastegraph/internal/genre"
)

func defaultNormalizer() *genre.Normalizer {
	return genre.NewNormalizer(genre.DefaultTable())
}

func artist(id string, genres ...string) Artist {
	return Artist{ID: id, Name: strings.ToUpper(id), Popularity: 50, Genres: genres}
}

func nodeIDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestBuild_SharedGenreScenario(t *testing.T) {
	artists := []Artist{
		artist("a", "rock", "pop"),
		artist("b", "pop", "jazz"),
		artist("c", "classical"),
	}

	g := Build(artists, defaultNormalizer(), DefaultOptions())

	wantLinks := []Link{{Source: "a", Target: "b", Weight: 1}}
	if !reflect.DeepEqual(g.Links, wantLinks) {
		t.Errorf("links = %+v, want %+v", g.Links, wantLinks)
	}
	if got := nodeIDs(g.Nodes); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("nodes = %v, want [a b]", got)
	}
}

func TestBuild_EmptyGenresNeverAppear(t *testing.T) {
	artists := []Artist{
		artist("a", "pop"),
		artist("empty"),
		artist("b", "pop"),
		{ID: "nil", Name: "Nil"},
	}

	g := Build(artists, defaultNormalizer(), DefaultOptions())

	for _, l := range g.Links {
		if l.Source == "empty" || l.Target == "empty" || l.Source == "nil" || l.Target == "nil" {
			t.Errorf("link %+v involves an artist without genres", l)
		}
	}
	if got := nodeIDs(g.Nodes); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("nodes = %v, want [a b]", got)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	g := Build(nil, defaultNormalizer(), DefaultOptions())
	if g.Nodes == nil || g.Links == nil {
		t.Fatal("expected non-nil slices for JSON encoding")
	}
	if len(g.Nodes) != 0 || len(g.Links) != 0 {
		t.Errorf("expected empty graph, got %+v", g)
	}
}

func TestBuildLinks_SetSemantics(t *testing.T) {
	artists := []Artist{
		artist("a", "pop", "pop", "rock", "Jazz"),
		artist("b", "rock", "pop", "pop", "jazz"),
	}

	links := BuildLinks(artists)
	want := []Link{{Source: "a", Target: "b", Weight: 2}}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("links = %+v, want %+v", links, want)
	}
}

func TestBuildLinks_NoNormalization(t *testing.T) {
	// "dance pop" and "pop" share a category but not a raw tag.
	links := BuildLinks([]Artist{artist("a", "dance pop"), artist("b", "pop")})
	if len(links) != 0 {
		t.Errorf("expected no links, got %+v", links)
	}
}

func TestBuildLinks_PairOrder(t *testing.T) {
	artists := []Artist{
		artist("a", "x"),
		artist("b", "x"),
		artist("c", "x"),
	}
	want := []Link{
		{Source: "a", Target: "b", Weight: 1},
		{Source: "a", Target: "c", Weight: 1},
		{Source: "b", Target: "c", Weight: 1},
	}
	if got := BuildLinks(artists); !reflect.DeepEqual(got, want) {
		t.Errorf("links = %+v, want %+v", got, want)
	}
}

func TestCapLinks_KeepsHeaviest(t *testing.T) {
	// X shares 3 genres with Y and 5 with Z.
	artists := []Artist{
		artist("x", "g1", "g2", "g3", "g4", "g5"),
		artist("y", "g1", "g2", "g3"),
		artist("z", "g1", "g2", "g3", "g4", "g5"),
	}

	links := CapLinks(BuildLinks(artists), 1)
	want := []Link{
		{Source: "x", Target: "z", Weight: 5},
		{Source: "y", Target: "z", Weight: 3},
	}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("links = %+v, want %+v", links, want)
	}

	// Y survives through its own link to Z even though X dropped it.
	g := Build(artists, defaultNormalizer(), Options{MaxLinksPerNode: 1, Policy: PolicyCanonical})
	if got := nodeIDs(g.Nodes); !reflect.DeepEqual(got, []string{"x", "y", "z"}) {
		t.Errorf("nodes = %v, want [x y z]", got)
	}
}

func TestCapLinks_StableTies(t *testing.T) {
	links := []Link{
		{Source: "a", Target: "b", Weight: 1},
		{Source: "a", Target: "c", Weight: 2},
		{Source: "a", Target: "d", Weight: 1},
		{Source: "a", Target: "e", Weight: 2},
		{Source: "b", Target: "c", Weight: 1},
	}
	got := CapLinks(links, 3)
	want := []Link{
		{Source: "a", Target: "c", Weight: 2},
		{Source: "a", Target: "e", Weight: 2},
		{Source: "a", Target: "b", Weight: 1},
		{Source: "b", Target: "c", Weight: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CapLinks = %+v, want %+v", got, want)
	}
}

func TestCapLinks_DoesNotMutateInput(t *testing.T) {
	links := []Link{
		{Source: "a", Target: "b", Weight: 1},
		{Source: "a", Target: "c", Weight: 2},
	}
	orig := append([]Link(nil), links...)
	CapLinks(links, 1)
	if !reflect.DeepEqual(links, orig) {
		t.Errorf("input mutated: %+v", links)
	}
}

func TestCapLinks_ZeroKeepsNothing(t *testing.T) {
	links := []Link{{Source: "a", Target: "b", Weight: 1}}
	for _, k := range []int{0, -1} {
		got := CapLinks(links, k)
		if got == nil || len(got) != 0 {
			t.Errorf("CapLinks(k=%d) = %+v, want empty non-nil", k, got)
		}
	}
}

func TestCountFrequencies_Policies(t *testing.T) {
	artists := []Artist{
		artist("a", "dance pop", "pop"),
		artist("b", "Pop", "shoegaze"),
		artist("c"),
	}
	n := defaultNormalizer()

	canonical := CountFrequencies(artists, n, PolicyCanonical)
	wantCanonical := Frequency{"Pop": 3, "shoegaze": 1}
	if !reflect.DeepEqual(canonical, wantCanonical) {
		t.Errorf("canonical = %v, want %v", canonical, wantCanonical)
	}

	raw := CountFrequencies(artists, n, PolicyRaw)
	wantRaw := Frequency{"dance pop": 1, "pop": 1, "Pop": 1, "shoegaze": 1}
	if !reflect.DeepEqual(raw, wantRaw) {
		t.Errorf("raw = %v, want %v", raw, wantRaw)
	}
}

func TestCountFrequencies_NilNormalizer(t *testing.T) {
	freq := CountFrequencies([]Artist{artist("a", "Dance Pop")}, nil, PolicyCanonical)
	if freq["dance pop"] != 1 {
		t.Errorf("freq = %v, want lower-cased passthrough", freq)
	}
}

func TestDominantGenre(t *testing.T) {
	n := defaultNormalizer()
	freq := Frequency{"Pop": 3, "Rock": 3, "Jazz": 1}

	tests := []struct {
		name   string
		genres []string
		want   string
	}{
		{"highest wins", []string{"vocal jazz", "dance pop"}, "Pop"},
		{"first wins ties", []string{"hard rock", "pop"}, "Rock"},
		{"tie other order", []string{"pop", "hard rock"}, "Pop"},
		{"unknown counts zero", []string{"shoegaze"}, "shoegaze"},
		{"empty", nil, OtherGenre},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DominantGenre(Artist{ID: "x", Genres: tt.genres}, freq, n, PolicyCanonical)
			if got != tt.want {
				t.Errorf("DominantGenre = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDominantGenre_RawPolicy(t *testing.T) {
	artists := []Artist{
		artist("a", "indie folk", "folk rock"),
		artist("b", "folk rock"),
	}
	freq := CountFrequencies(artists, nil, PolicyRaw)
	if got := DominantGenre(artists[0], freq, nil, PolicyRaw); got != "folk rock" {
		t.Errorf("got %q, want folk rock", got)
	}
}

func TestSelectNodes_Fields(t *testing.T) {
	artists := []Artist{
		{
			ID: "a", Name: "Alpha", Popularity: 77,
			Genres: []string{"pop"},
			Images: []Image{{URL: ""}, {URL: "https://img/a.jpg", Height: 640, Width: 640}},
		},
		{ID: "b", Name: "Beta", Popularity: 12, Genres: []string{"pop"}},
	}
	links := BuildLinks(artists)
	nodes := SelectNodes(artists, links, CountFrequencies(artists, defaultNormalizer(), PolicyCanonical), defaultNormalizer(), PolicyCanonical)

	if len(nodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(nodes))
	}
	a := nodes[0]
	if a.Name != "Alpha" || a.Val != 77 || a.Genre != "Pop" {
		t.Errorf("node a = %+v", a)
	}
	if a.Img == nil || *a.Img != "https://img/a.jpg" {
		t.Errorf("node a img = %v, want first non-empty URL", a.Img)
	}
	if nodes[1].Img != nil {
		t.Errorf("node b img = %v, want nil", *nodes[1].Img)
	}

	// Node genres are a copy of the input list.
	nodes[0].Genres[0] = "changed"
	if artists[0].Genres[0] != "pop" {
		t.Error("node genres alias the artist's slice")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]Artist{artist("a"), artist("b")}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	var invalid *InvalidArtistError
	err := Validate([]Artist{artist("a"), {Name: "no id"}})
	if !errors.As(err, &invalid) || invalid.Index != 1 {
		t.Errorf("missing id: got %v", err)
	}

	err = Validate([]Artist{artist("a"), artist("b"), artist("a")})
	if !errors.As(err, &invalid) || invalid.Index != 2 || invalid.ID != "a" {
		t.Errorf("duplicate id: got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]FrequencyPolicy{"": PolicyCanonical, "canonical": PolicyCanonical, "raw": PolicyRaw} {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("loud"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

var genrePool = []string{
	"pop", "dance pop", "rock", "indie rock", "folk rock", "jazz",
	"hip hop", "rap", "house", "techno", "classical", "shoegaze",
}

func randomArtists(r *rand.Rand, n int) []Artist {
	artists := make([]Artist, n)
	for i := range artists {
		k := r.IntN(5)
		genres := make([]string, 0, k)
		for range k {
			genres = append(genres, genrePool[r.IntN(len(genrePool))])
		}
		artists[i] = Artist{ID: fmt.Sprintf("artist-%02d", i), Name: fmt.Sprintf("Artist %d", i), Genres: genres}
	}
	return artists
}

func distinct(genres []string) int {
	set := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		set[g] = struct{}{}
	}
	return len(set)
}

func TestBuild_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	n := defaultNormalizer()

	for iter := range 200 {
		artists := randomArtists(r, 1+r.IntN(50))
		k := r.IntN(6)
		byID := make(map[string]Artist, len(artists))
		for _, a := range artists {
			byID[a.ID] = a
		}

		g := Build(artists, n, Options{MaxLinksPerNode: k, Policy: PolicyCanonical})

		pairs := make(map[[2]string]bool)
		perSource := make(map[string]int)
		for _, l := range g.Links {
			src, dst := byID[l.Source], byID[l.Target]
			limit := min(distinct(src.Genres), distinct(dst.Genres))
			if l.Weight < 1 || l.Weight > limit {
				t.Fatalf("iter %d: link %+v weight outside [1,%d]", iter, l, limit)
			}
			key := [2]string{min(l.Source, l.Target), max(l.Source, l.Target)}
			if pairs[key] {
				t.Fatalf("iter %d: duplicate pair %v", iter, key)
			}
			pairs[key] = true
			perSource[l.Source]++
		}
		for src, c := range perSource {
			if c > k {
				t.Fatalf("iter %d: source %s has %d links, cap %d", iter, src, c, k)
			}
		}

		connected := ConnectedIDs(g.Links)
		for _, node := range g.Nodes {
			if _, ok := connected[node.ID]; !ok {
				t.Fatalf("iter %d: isolated node %s", iter, node.ID)
			}
			if len(byID[node.ID].Genres) == 0 {
				t.Fatalf("iter %d: node %s has no genres", iter, node.ID)
			}
		}
		if len(g.Nodes) != len(connected) {
			t.Fatalf("iter %d: %d nodes for %d connected ids", iter, len(g.Nodes), len(connected))
		}

		// Rebuilding from the same input is structurally identical.
		if again := Build(artists, n, Options{MaxLinksPerNode: k, Policy: PolicyCanonical}); !reflect.DeepEqual(g, again) {
			t.Fatalf("iter %d: rebuild differs", iter)
		}
	}
}
