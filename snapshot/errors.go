package snapshot

import "fmt"

// IngestionError reports a graph payload that cannot be accepted: it failed to
// decode, or it violates the node/edge integrity rules.
type IngestionError struct {
	Reason string
	Err    error
}

func (e *IngestionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid graph: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid graph: %s", e.Reason)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

func ingestionErrorf(format string, args ...any) *IngestionError {
	return &IngestionError{Reason: fmt.Sprintf(format, args...)}
}
