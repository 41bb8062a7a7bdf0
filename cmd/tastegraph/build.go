package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sydlexius/tastegraph/internal/filesystem"
	"github.com/sydlexius/tastegraph/internal/genre"
	"github.com/sydlexius/tastegraph/internal/graph"
)

type buildOptions struct {
	maxLinks int
	policy   string
	genreMap string
	chart    bool
	pretty   bool
	output   string
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build [artists.json]",
		Short: "Build a graph from a JSON artist list",
		Long: `Build a graph offline. Input is either a JSON array of artists
({id, name, popularity, genres, images}) or a Spotify top-artists response
({"items": [...]}), read from the named file or from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening input: %w", err)
				}
				defer f.Close() //nolint:errcheck
				in = f
			}
			return runBuild(in, cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.maxLinks, "max-links", graph.DefaultMaxLinksPerNode, "maximum links kept per source artist")
	cmd.Flags().StringVar(&opts.policy, "policy", string(graph.PolicyCanonical), "frequency policy: canonical or raw")
	cmd.Flags().StringVar(&opts.genreMap, "genre-map", "", "YAML genre map (default: built-in table)")
	cmd.Flags().BoolVar(&opts.chart, "chart", false, "emit genre counts instead of the graph")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to this file atomically instead of stdout")
	return cmd
}

func runBuild(in io.Reader, out io.Writer, opts buildOptions) error {
	if opts.maxLinks < 0 {
		return fmt.Errorf("--max-links must not be negative, got %d", opts.maxLinks)
	}
	policy, err := graph.ParsePolicy(opts.policy)
	if err != nil {
		return err
	}

	table := genre.DefaultTable()
	if opts.genreMap != "" {
		if table, err = genre.LoadTable(opts.genreMap); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	artists, err := decodeArtists(data)
	if err != nil {
		return err
	}
	if err := graph.Validate(artists); err != nil {
		return err
	}

	g := graph.Build(artists, genre.NewNormalizer(table), graph.Options{MaxLinksPerNode: opts.maxLinks, Policy: policy})
	slog.Debug("graph built", "artists", len(artists), "nodes", len(g.Nodes), "links", len(g.Links))

	var result any = g
	if opts.chart {
		result = map[string]any{"genres": graph.GenreCounts(g.Nodes)}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}

	if opts.output != "" {
		return filesystem.WriteFileAtomic(opts.output, buf.Bytes(), 0o644)
	}
	_, err = out.Write(buf.Bytes())
	return err
}

// decodeArtists accepts a bare artist array or an object with an "items" array.
func decodeArtists(data []byte) ([]graph.Artist, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("input is empty")
	}

	var artists []graph.Artist
	if trimmed[0] == '{' {
		var page struct {
			Items []graph.Artist `json:"items"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, fmt.Errorf("parsing artists: %w", err)
		}
		artists = page.Items
	} else if err := json.Unmarshal(trimmed, &artists); err != nil {
		return nil, fmt.Errorf("parsing artists: %w", err)
	}

	for i := range artists {
		if artists[i].Genres == nil {
			artists[i].Genres = []string{}
		}
	}
	return artists, nil
}
