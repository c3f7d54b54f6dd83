package layout

import (
	"fmt"
	"io"
	"os"

	"github.com/LegacyCodeHQ/codeviz/backend"
	"github.com/LegacyCodeHQ/codeviz/internal/config"
	"github.com/LegacyCodeHQ/codeviz/internal/logging"
	graphlayout "github.com/LegacyCodeHQ/codeviz/layout"
	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"github.com/LegacyCodeHQ/codeviz/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type layoutOptions struct {
	configPath string
	graphFile  string
	output     string
	recompute  bool
	iterations int
}

// NewCommand returns a new layout command instance.
func NewCommand() *cobra.Command {
	opts := &layoutOptions{}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute node positions for a saved graph",
		Long: `Read a graph.json, assign a force-directed position to every node, and
write the graph back out. Positions already present are kept unless
--recompute is given.

Examples:
  codeviz layout --file graph.json
  codeviz layout --file graph.json -o placed.json --recompute`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLayout(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().StringVarP(&opts.graphFile, "file", "f", "", "Graph file to read")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the result here instead of stdout")
	cmd.Flags().BoolVar(&opts.recompute, "recompute", false, "Ignore positions already in the graph")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "Simulation ticks (default: from config)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runLayout(cmd *cobra.Command, opts *layoutOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	snap, err := backend.NewFileSource(opts.graphFile, logger).FetchGraph(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read graph: %w", err)
	}
	if err := store.Validate(snap); err != nil {
		return err
	}

	layoutCfg := cfg.LayoutConfig()
	if opts.iterations > 0 {
		layoutCfg.Iterations = opts.iterations
	}

	var provider graphlayout.PositionProvider = graphlayout.Default(layoutCfg)
	if opts.recompute {
		provider = graphlayout.ForceDirected{Config: layoutCfg}
	}

	positions, err := provider.Positions(cmd.Context(), snap)
	if err != nil {
		return fmt.Errorf("failed to compute layout: %w", err)
	}
	placed := graphlayout.Apply(snap, positions)
	logger.Debug("layout computed", zap.Int("nodes", len(placed.Nodes)))

	return writeGraph(cmd.OutOrStdout(), opts.output, placed)
}

func writeGraph(stdout io.Writer, path string, snap *snapshot.Snapshot) error {
	if path == "" {
		return snapshot.Encode(stdout, snap)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := snapshot.Encode(f, snap); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
