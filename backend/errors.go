package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNoGraph means the server has not built a graph yet, so the user has to
	// pick a project to analyze.
	ErrNoGraph = errors.New("no graph available")

	// ErrAnalysisFailed is returned when the server rejects an analyze request.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrUnsupported is returned by backends that cannot perform an operation.
	ErrUnsupported = errors.New("operation not supported by this backend")
)

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a response with an unexpected HTTP status.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: server returned status %d", e.Op, e.StatusCode)
}

// EditorError is the server's report that it could not open a file.
type EditorError struct {
	File    string
	Message string
}

func (e *EditorError) Error() string {
	return fmt.Sprintf("failed to open %s: %s", e.File, e.Message)
}
