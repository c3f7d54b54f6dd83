package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/LegacyCodeHQ/codeviz/backend"
	"github.com/LegacyCodeHQ/codeviz/internal/config"
	"github.com/LegacyCodeHQ/codeviz/internal/logging"
	"github.com/LegacyCodeHQ/codeviz/progress"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type serveOptions struct {
	configPath string
	graphFile  string
	port       int
}

// NewCommand returns a new serve command instance.
func NewCommand() *cobra.Command {
	opts := &serveOptions{
		port: 5000,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a saved graph file over HTTP",
		Long: `Serve a saved graph.json on the routes 'codeviz view --server' reads,
with a live progress feed. The file is watched and every change is
announced to connected viewers.

Examples:
  codeviz serve --file graph.json
  codeviz serve --file graph.json --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().StringVarP(&opts.graphFile, "file", "f", "", "Graph file to serve")
	cmd.Flags().IntVarP(&opts.port, "port", "P", opts.port, "HTTP server port")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", opts.port, err)
	}

	source := backend.NewFileSource(opts.graphFile, logger)
	s := newServer(source, logger)
	srv := &http.Server{Handler: s.handler()}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s\n", source.Path())
	fmt.Fprintf(cmd.OutOrStdout(), "Listening at http://localhost:%d\n", opts.port)
	fmt.Fprintf(cmd.OutOrStdout(), "Press Ctrl+C to stop\n")

	return serve(ctx, srv, ln, s, logger)
}

func serve(ctx context.Context, srv *http.Server, ln net.Listener, s *server, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	go func() {
		err := s.source.Watch(ctx, func() {
			s.publish(progress.State{Status: progress.StatusComplete, Message: "Graph file changed", Percentage: 100})
		})
		if err != nil {
			logger.Warn("stopped watching graph file", zap.Error(err))
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		s.close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	// Streaming handlers return once the broker closes.
	s.close()
	if err := srv.Close(); err != nil {
		return err
	}
	<-serveErr
	return nil
}
