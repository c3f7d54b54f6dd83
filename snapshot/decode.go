package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// wireGraph is the JSON shape served at /graph.json.
type wireGraph struct {
	Nodes    []wireNode `json:"nodes" validate:"dive"`
	Edges    []wireEdge `json:"edges" validate:"dive"`
	Metadata *Metadata  `json:"metadata,omitempty"`
}

type wireNode struct {
	ID       string    `json:"id" validate:"required"`
	Label    string    `json:"label"`
	Type     string    `json:"type"`
	Path     string    `json:"path"`
	Position *Position `json:"position,omitempty"`
}

type wireEdge struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads a graph payload. Edge IDs are derived from their position in the
// payload ("e0", "e1", ...). Payloads that are not valid JSON, or whose nodes and
// edges lack required fields, produce an *IngestionError.
func Decode(r io.Reader) (*Snapshot, error) {
	var wire wireGraph
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, &IngestionError{Reason: "decode graph payload", Err: err}
	}

	if err := validate.Struct(wire); err != nil {
		return nil, formatValidationError(err)
	}

	snap := &Snapshot{
		Nodes:    make([]Node, 0, len(wire.Nodes)),
		Edges:    make([]Edge, 0, len(wire.Edges)),
		Metadata: wire.Metadata,
	}
	for _, n := range wire.Nodes {
		snap.Nodes = append(snap.Nodes, Node{
			ID:       n.ID,
			Label:    n.Label,
			Path:     n.Path,
			Type:     n.Type,
			Position: n.Position,
		})
	}
	for i, e := range wire.Edges {
		snap.Edges = append(snap.Edges, Edge{
			ID:     EdgeID(i),
			Source: e.From,
			Target: e.To,
		})
	}

	return snap, nil
}

// DecodeBytes is Decode over an in-memory payload.
func DecodeBytes(data []byte) (*Snapshot, error) {
	return Decode(bytes.NewReader(data))
}

// EdgeID returns the positional identifier for the i-th edge of a payload.
func EdgeID(i int) string {
	return fmt.Sprintf("e%d", i)
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &IngestionError{Reason: "validate graph payload", Err: err}
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Namespace()
		// Drop the root struct name so messages read "nodes[1].id".
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return ingestionErrorf("%s", strings.Join(msgs, "; "))
}
