// Package config loads the viewer's settings from an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/LegacyCodeHQ/codeviz/layout"
	"github.com/LegacyCodeHQ/codeviz/search"
	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

type Config struct {
	Server    string   `yaml:"server" validate:"omitempty,url"`
	GraphFile string   `yaml:"graph_file"`
	Progress  Progress `yaml:"progress"`
	Layout    Layout   `yaml:"layout"`
	Search    Search   `yaml:"search"`
	Log       Log      `yaml:"log"`
}

type Progress struct {
	Transport string `yaml:"transport" validate:"oneof=sse websocket"`
}

type Layout struct {
	Charge       float64 `yaml:"charge"`
	LinkDistance float64 `yaml:"link_distance" validate:"gt=0"`
	Center       Point   `yaml:"center"`
	Iterations   int     `yaml:"iterations" validate:"min=1"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Search struct {
	Limit int `yaml:"limit" validate:"min=1"`
}

type Log struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	lc := layout.DefaultConfig()
	return Config{
		Server:   "http://localhost:5000",
		Progress: Progress{Transport: TransportSSE},
		Layout: Layout{
			Charge:       lc.Charge,
			LinkDistance: lc.LinkDistance,
			Center:       Point{X: lc.Center.X, Y: lc.Center.Y},
			Iterations:   lc.Iterations,
		},
		Search: Search{Limit: search.DefaultLimit},
		Log:    Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	return v
}

// Validate checks field constraints and reports every violation.
func (c Config) Validate() error {
	var msgs []string
	if c.Server == "" && c.GraphFile == "" {
		msgs = append(msgs, "server is required when no graph file is set")
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			msgs = append(msgs, formatFieldError(fe))
		}
	}

	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// LayoutConfig converts the layout section for the layout package.
func (c Config) LayoutConfig() layout.Config {
	return layout.Config{
		Charge:       c.Layout.Charge,
		LinkDistance: c.Layout.LinkDistance,
		Center:       snapshot.Position{X: c.Layout.Center.X, Y: c.Layout.Center.Y},
		Iterations:   c.Layout.Iterations,
	}
}
