package orchestrator

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// acquire claims the single action slot and moves to next. Only one of
// reindex, analyze, and retry may be outstanding at a time; later requests
// are rejected, not queued.
func (o *Orchestrator) acquire(next Phase, allowed ...Phase) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.closed:
		return ErrClosed
	case o.busy:
		return ErrActionInProgress
	case !slices.Contains(allowed, o.phase):
		return ErrInvalidPhase
	}

	o.busy = true
	o.phase = next
	o.errMsg = ""
	return nil
}

// Analyze asks the backend to scan a new project and loads the result.
func (o *Orchestrator) Analyze(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrEmptyPath
	}
	if err := o.requireConnected(); err != nil {
		return err
	}
	if err := o.acquire(PhaseLoading, PhasePathSelection, PhaseError, PhaseReady); err != nil {
		return err
	}
	o.logger.Info("analyzing project", zap.String("path", path))
	o.publish()

	if err := o.backend.Analyze(ctx, path); err != nil {
		o.logger.Error("analyze failed", zap.Error(err))
		o.finish(PhaseError, err.Error())
		return nil
	}

	o.finish(o.load(ctx, PhaseError))
	return nil
}

// Reindex asks the backend to rebuild the current project's graph and reloads
// it.
func (o *Orchestrator) Reindex(ctx context.Context) error {
	if err := o.requireConnected(); err != nil {
		return err
	}
	if err := o.acquire(PhaseReindexing, PhaseReady, PhaseError); err != nil {
		return err
	}
	o.logger.Info("reindexing")
	o.publish()

	if err := o.backend.Reindex(ctx); err != nil {
		o.logger.Error("reindex failed", zap.Error(err))
		o.finish(PhaseError, err.Error())
		return nil
	}

	o.finish(o.load(ctx, PhaseError))
	return nil
}

// Retry re-runs the initial load after a failure. If the progress channel never
// connected, it is connected first.
func (o *Orchestrator) Retry(ctx context.Context) error {
	if err := o.acquire(PhaseLoading, PhaseError); err != nil {
		return err
	}
	o.publish()

	o.mu.Lock()
	connected := o.connected
	o.mu.Unlock()

	if !connected {
		if err := o.connect(ctx); err != nil {
			o.finish(PhaseError, err.Error())
			return nil
		}
	}

	o.finish(o.load(ctx, PhasePathSelection))
	return nil
}

// Refresh reloads the graph without an explicit user action, e.g. when the
// graph file changed on disk. Concurrent refreshes share one fetch, but an
// action never joins it. While an action is outstanding the action decides
// the resulting phase.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	if err := o.requireConnected(); err != nil {
		return err
	}

	phase, msg, ok := o.refresh(ctx)
	if !ok {
		return nil
	}

	o.mu.Lock()
	if o.closed || o.busy {
		o.mu.Unlock()
		return nil
	}
	changed := o.phase != phase || o.errMsg != msg
	o.phase, o.errMsg = phase, msg
	o.mu.Unlock()

	if changed {
		o.logger.Info("phase", zap.String("phase", string(phase)), zap.String("error", msg))
	}
	o.publish()
	return nil
}

func (o *Orchestrator) requireConnected() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if !o.connected {
		return ErrNotConnected
	}
	return nil
}
