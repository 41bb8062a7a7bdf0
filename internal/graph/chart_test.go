package graph

import (
	"reflect"
	"testing"
)

func TestGenreCounts(t *testing.T) {
	nodes := []Node{
		{ID: "a", Genres: []string{"pop", "rock"}},
		{ID: "b", Genres: []string{"rock", "jazz"}},
		{ID: "c", Genres: []string{}},
		{ID: "d", Genres: []string{"rock", "pop"}},
	}

	got := GenreCounts(nodes)
	want := []GenreCount{
		{Genre: "rock", Count: 3},
		{Genre: "pop", Count: 2},
		{Genre: OtherGenre, Count: 1},
		{Genre: "jazz", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenreCounts = %+v, want %+v", got, want)
	}
}

func TestGenreCounts_Empty(t *testing.T) {
	got := GenreCounts(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("GenreCounts(nil) = %v, want empty non-nil", got)
	}
}
