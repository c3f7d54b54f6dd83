package orchestrator

import "errors"

var (
	// ErrActionInProgress rejects a reindex, analyze, or retry while another
	// one is still outstanding.
	ErrActionInProgress = errors.New("another action is already in progress")

	// ErrNotConnected rejects actions before the progress channel is up.
	ErrNotConnected = errors.New("progress channel not connected")

	// ErrInvalidPhase rejects an action the current phase does not allow.
	ErrInvalidPhase = errors.New("action not allowed in current phase")

	// ErrEmptyPath rejects an analyze request without a project path.
	ErrEmptyPath = errors.New("project path is required")

	// ErrNoSelection is returned by OpenSelected when no node is selected.
	ErrNoSelection = errors.New("no node selected")

	// ErrClosed is returned once the orchestrator has been closed.
	ErrClosed = errors.New("orchestrator closed")

	errEmptyGraph = errors.New("graph has no nodes")
	errStaleFetch = errors.New("graph fetch overtaken by a newer load")
)
