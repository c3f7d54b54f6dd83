// Package cliutil holds the flag handling shared by the codeviz commands.
package cliutil

import (
	"fmt"

	"github.com/LegacyCodeHQ/codeviz/backend"
	"github.com/LegacyCodeHQ/codeviz/internal/config"
	"github.com/LegacyCodeHQ/codeviz/internal/logging"
	"github.com/LegacyCodeHQ/codeviz/progress"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// SourceOptions selects where the graph comes from.
type SourceOptions struct {
	ConfigPath string
	Server     string
	GraphFile  string
	Transport  string
	LogLevel   string
}

// AddFlags registers the graph source flags on cmd.
func (o *SourceOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.ConfigPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().StringVarP(&o.Server, "server", "s", "", "Graph server URL (default: http://localhost:5000)")
	cmd.Flags().StringVarP(&o.GraphFile, "file", "f", "", "Read graph.json from disk instead of a server")
	cmd.Flags().StringVar(&o.Transport, "transport", "", "Progress feed transport: sse or websocket")
	cmd.Flags().StringVar(&o.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// Resolve loads the config file and applies flags the user set on top.
func (o *SourceOptions) Resolve(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server = o.Server
	}
	if flags.Changed("file") {
		cfg.GraphFile = o.GraphFile
	}
	if flags.Changed("transport") {
		cfg.Progress.Transport = o.Transport
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the logger described by cfg.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(cfg.Log.Level, cfg.Log.Development)
}

// Source is a resolved graph backend and its progress feed. File is set when
// the graph is read from disk.
type Source struct {
	Backend   backend.Backend
	Transport progress.Transport
	File      *backend.FileSource
}

// NewSource connects cfg to a backend. A graph file takes precedence over the
// server.
func NewSource(cfg config.Config, logger *zap.Logger) (Source, error) {
	if cfg.GraphFile != "" {
		file := backend.NewFileSource(cfg.GraphFile, logger)
		return Source{Backend: file, Transport: progress.NopTransport{}, File: file}, nil
	}

	client, err := backend.New(cfg.Server, backend.WithLogger(logger))
	if err != nil {
		return Source{}, err
	}

	var transport progress.Transport = progress.SSETransport{URL: client.ProgressURL()}
	if cfg.Progress.Transport == config.TransportWebSocket {
		transport = progress.WebSocketTransport{URL: client.ProgressSocketURL()}
	}
	return Source{Backend: client, Transport: transport}, nil
}
