// Package graph turns a flat list of artists into a bounded, weighted
// similarity graph. Artists are nodes; two artists are linked when they
// share at least one raw genre tag, weighted by how many they share.
package graph

import "fmt"

// OtherGenre labels a node whose artist has no genres at all.
const OtherGenre = "Other"

// Image is an artist picture as reported upstream.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

// Artist is one input record. It is treated as immutable.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres"`
	Images     []Image  `json:"images,omitempty"`
}

// Link connects two artists that share genres. Source is always the artist
// that appeared earlier in the input.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

// Node is a connected artist ready for display.
type Node struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Val    int      `json:"val"`
	Img    *string  `json:"img"`
	Genre  string   `json:"genre"`
	Genres []string `json:"genres"`
}

// Graph is the pipeline output. Both slices are non-nil so they encode as
// JSON arrays.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Frequency counts genre occurrences across a set of artists.
type Frequency map[string]int

// FrequencyPolicy selects the key space shared by frequency counting and
// dominant-genre selection.
type FrequencyPolicy string

const (
	// PolicyCanonical counts and labels by normalized parent category.
	PolicyCanonical FrequencyPolicy = "canonical"
	// PolicyRaw counts and labels by the raw tag as received.
	PolicyRaw FrequencyPolicy = "raw"
)

// ParsePolicy converts a config string to a FrequencyPolicy. The empty
// string selects PolicyCanonical.
func ParsePolicy(s string) (FrequencyPolicy, error) {
	switch FrequencyPolicy(s) {
	case "", PolicyCanonical:
		return PolicyCanonical, nil
	case PolicyRaw:
		return PolicyRaw, nil
	}
	return "", fmt.Errorf("unknown frequency policy %q", s)
}

// InvalidArtistError reports an input record that violates the pipeline's
// preconditions.
type InvalidArtistError struct {
	Index  int
	ID     string
	Reason string
}

func (e *InvalidArtistError) Error() string {
	return fmt.Sprintf("invalid artist at index %d (id %q): %s", e.Index, e.ID, e.Reason)
}

// Validate checks that every artist has a non-empty, unique ID. Callers
// run it at the boundary before Build; Build itself assumes valid input.
func Validate(artists []Artist) error {
	seen := make(map[string]int, len(artists))
	for i, a := range artists {
		if a.ID == "" {
			return &InvalidArtistError{Index: i, Reason: "missing id"}
		}
		if first, ok := seen[a.ID]; ok {
			return &InvalidArtistError{Index: i, ID: a.ID, Reason: fmt.Sprintf("duplicate of index %d", first)}
		}
		seen[a.ID] = i
	}
	return nil
}
