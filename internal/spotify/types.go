package spotify

import "github.com/sydlexius/tastegraph/internal/graph"

// topArtistsResponse is the JSON response from GET /me/top/artists.
type topArtistsResponse struct {
	Items  []artistObject `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// artistObject is a single Spotify artist.
type artistObject struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Popularity int           `json:"popularity"`
	Genres     []string      `json:"genres"`
	Images     []imageObject `json:"images"`
	URI        string        `json:"uri"`
}

type imageObject struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// errorResponse is Spotify's regular error object.
type errorResponse struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a artistObject) toArtist() graph.Artist {
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	images := make([]graph.Image, 0, len(a.Images))
	for _, img := range a.Images {
		images = append(images, graph.Image{URL: img.URL, Height: img.Height, Width: img.Width})
	}
	return graph.Artist{
		ID:         a.ID,
		Name:       a.Name,
		Popularity: a.Popularity,
		Genres:     genres,
		Images:     images,
	}
}
