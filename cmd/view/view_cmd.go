package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/LegacyCodeHQ/codeviz/backend"
	"github.com/LegacyCodeHQ/codeviz/cmd/internal/cliutil"
	"github.com/LegacyCodeHQ/codeviz/layout"
	"github.com/LegacyCodeHQ/codeviz/orchestrator"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type viewOptions struct {
	source cliutil.SourceOptions
}

// NewCommand returns a new view command instance.
func NewCommand() *cobra.Command {
	opts := &viewOptions{}

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Explore a project's dependency graph interactively",
		Long: `Connect to a codeviz server (or read a saved graph.json), load the
dependency graph, and explore it from the terminal: search files, select
a file to see what it imports and what imports it, and trigger reindexing.

Examples:
  codeviz view
  codeviz view --server http://localhost:5000
  codeviz view --file .codeviz/graph.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, opts)
		},
	}

	opts.source.AddFlags(cmd)
	return cmd
}

func runView(cmd *cobra.Command, opts *viewOptions) error {
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

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := &lockedWriter{w: cmd.OutOrStdout()}
	o := orchestrator.New(orchestrator.Options{
		Backend:     src.Backend,
		Transport:   src.Transport,
		Layout:      layout.Default(cfg.LayoutConfig()),
		SearchLimit: cfg.Search.Limit,
		Logger:      logger,
	})

	if err := o.Start(ctx); err != nil {
		logger.Warn("failed to start session", zap.Error(err))
	}
	renderView(out, o.View())
	fmt.Fprintln(out, subtle.Sprint("Type 'help' for commands."))

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		printProgress(out, o)
	}()
	defer func() {
		o.Close()
		<-progressDone
	}()

	if src.File != nil {
		go watchGraphFile(ctx, src.File, o, out, logger)
	}

	s := &session{
		o:      o,
		out:    out,
		prompt: promptFor(cmd.InOrStdin()),
		copy:   clipboard.WriteAll,
	}
	return s.run(ctx, cmd.InOrStdin())
}

func watchGraphFile(ctx context.Context, file *backend.FileSource, o *orchestrator.Orchestrator, out io.Writer, logger *zap.Logger) {
	err := file.Watch(ctx, func() {
		if err := o.Refresh(ctx); err != nil {
			logger.Warn("failed to reload graph", zap.Error(err))
			return
		}
		fmt.Fprintln(out, subtle.Sprint("Graph file changed, reloaded."))
	})
	if err != nil {
		logger.Warn("stopped watching graph file", zap.Error(err))
	}
}

// promptFor shows a prompt only when reading from a terminal.
func promptFor(in io.Reader) string {
	f, ok := in.(*os.File)
	if !ok {
		return ""
	}
	info, err := f.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return ""
	}
	return "> "
}
