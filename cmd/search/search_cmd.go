package search

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/codeviz/cmd/internal/cliutil"
	graphsearch "github.com/LegacyCodeHQ/codeviz/search"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	source cliutil.SourceOptions
	limit  int
}

// NewCommand returns a new search command instance.
func NewCommand() *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find files in the dependency graph by name or path",
		Long: `Search the current dependency graph for files whose name or path contains
the query, ignoring case.

Examples:
  codeviz search auth
  codeviz search src/api --file graph.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, strings.Join(args, " "))
		},
	}

	opts.source.AddFlags(cmd)
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default: from config)")
	return cmd
}

func runSearch(cmd *cobra.Command, opts *searchOptions, query string) error {
	cfg, err := opts.source.Resolve(cmd)
	if err != nil {
		return err
	}

	logger, err := cliutil.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	src, err := cliutil.NewSource(cfg, logger)
	if err != nil {
		return err
	}

	snap, err := src.Backend.FetchGraph(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}

	limit := cfg.Search.Limit
	if opts.limit > 0 {
		limit = opts.limit
	}

	results := graphsearch.SearchN(snap.Nodes, query, limit)
	if len(results) == 0 {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "No files match %q\n", query)
		return err
	}

	path := color.New(color.FgHiBlack)
	for _, n := range results {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", n.Label, path.Sprint(n.Path)); err != nil {
			return err
		}
	}
	return nil
}
