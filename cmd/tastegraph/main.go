// Package main provides the tastegraph server and CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sydlexius/tastegraph/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tastegraph",
		Short: "Build a music-taste graph from Spotify top artists",
		Long: `tastegraph turns a listener's top Spotify artists into a graph of
artists linked by shared genres.

  serve  runs the HTTP API with the Spotify OAuth flow
  build  builds a graph offline from a JSON artist list`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd(), newBuildCmd())
	return root
}
