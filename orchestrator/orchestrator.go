// Package orchestrator sequences a viewing session: it waits for the progress
// channel, loads the graph, and routes user events to selection and search.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LegacyCodeHQ/codeviz/backend"
	"github.com/LegacyCodeHQ/codeviz/internal/broker"
	"github.com/LegacyCodeHQ/codeviz/layout"
	"github.com/LegacyCodeHQ/codeviz/progress"
	"github.com/LegacyCodeHQ/codeviz/search"
	"github.com/LegacyCodeHQ/codeviz/selection"
	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"github.com/LegacyCodeHQ/codeviz/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Phase is the session's position in its lifecycle.
type Phase string

const (
	PhaseAwaitingChannel Phase = "awaiting_channel"
	PhaseLoading         Phase = "loading"
	PhaseReady           Phase = "ready"
	PhasePathSelection   Phase = "path_selection"
	PhaseError           Phase = "error"
	PhaseReindexing      Phase = "reindexing"
)

// Options wires an Orchestrator. Backend is required; Transport defaults to
// progress.NopTransport and Layout to layout.Default(layout.DefaultConfig()).
type Options struct {
	Backend     backend.Backend
	Transport   progress.Transport
	Layout      layout.PositionProvider
	SearchLimit int
	Logger      *zap.Logger
}

// Header is what the top bar shows: the project and the latest progress.
type Header struct {
	ProjectName     string
	GeneratedAt     time.Time
	FileCount       int
	ConnectionCount int
	Progress        progress.State
}

// View is a point-in-time copy of everything a renderer needs.
type View struct {
	Phase          Phase
	Error          string
	Selection      selection.State
	Query          string
	Results        []snapshot.Node
	ResultsVisible bool
	Header         Header
}

// Orchestrator owns one viewing session. Create it with New, call Start, and
// Close it when the view goes away.
type Orchestrator struct {
	id      string
	backend backend.Backend
	layout  layout.PositionProvider
	logger  *zap.Logger

	store     *store.Store
	selection *selection.Engine
	search    *search.Box
	channel   *progress.Channel
	fetches   singleflight.Group
	views     *broker.Broker[View]

	// generation counts action loads; installMu orders graph installs.
	generation atomic.Uint64
	installMu  sync.Mutex

	mu        sync.Mutex
	phase     Phase
	errMsg    string
	connected bool
	busy      bool
	closed    bool

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New returns an orchestrator in PhaseAwaitingChannel.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := opts.Transport
	if transport == nil {
		transport = progress.NopTransport{}
	}
	provider := opts.Layout
	if provider == nil {
		provider = layout.Default(layout.DefaultConfig())
	}

	id := uuid.NewString()
	logger = logger.With(zap.String("view_id", id))

	o := &Orchestrator{
		id:        id,
		backend:   opts.Backend,
		layout:    provider,
		logger:    logger.Named("orchestrator"),
		store:     store.New(logger),
		selection: selection.New(),
		search:    search.NewBox(opts.SearchLimit),
		channel:   progress.NewChannel(transport, logger),
		views:     broker.New[View](),
		phase:     PhaseAwaitingChannel,
	}
	o.publish()
	return o
}

// ID identifies the session in logs.
func (o *Orchestrator) ID() string {
	return o.id
}

// Start connects the progress channel and, only once it is connected, fetches
// the graph. The channel stays open until ctx is done or Close is called.
// Start returns an error only if the channel could not be connected; fetch
// failures are reported through the view.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	switch {
	case o.closed:
		o.mu.Unlock()
		return ErrClosed
	case o.phase != PhaseAwaitingChannel || o.busy:
		o.mu.Unlock()
		return ErrInvalidPhase
	}
	o.busy = true
	o.mu.Unlock()

	if err := o.connect(ctx); err != nil {
		o.finish(PhaseError, err.Error())
		return err
	}

	o.transition(PhaseLoading)
	phase, msg := o.load(ctx, PhasePathSelection)
	o.finish(phase, msg)
	return nil
}

func (o *Orchestrator) connect(ctx context.Context) error {
	if err := o.channel.Open(ctx); err != nil {
		return fmt.Errorf("progress channel: %w", err)
	}

	select {
	case <-o.channel.Connected():
	case <-ctx.Done():
		return ctx.Err()
	}

	updates, unsubscribe := o.channel.Subscribe()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer unsubscribe()
		for range updates {
			o.publish()
		}
	}()

	o.mu.Lock()
	o.connected = true
	o.mu.Unlock()
	o.logger.Info("progress channel connected")
	return nil
}

// load fetches the graph for an action and installs it. Every call fetches
// afresh so that a rebuild the action just triggered is always seen. A missing
// or empty graph leads to noGraph; any other failure leads to PhaseError.
func (o *Orchestrator) load(ctx context.Context, noGraph Phase) (Phase, string) {
	gen := o.generation.Add(1)
	return o.outcome(o.fetchAndLoad(ctx, gen), noGraph)
}

// refresh is load for background reloads. Concurrent refreshes share one
// fetch, and a fetch overtaken by an action's load is dropped.
func (o *Orchestrator) refresh(ctx context.Context) (Phase, string, bool) {
	gen := o.generation.Load()
	_, err, shared := o.fetches.Do("graph", func() (any, error) {
		return nil, o.fetchAndLoad(ctx, gen)
	})
	if shared {
		o.logger.Debug("joined in-flight graph fetch")
	}
	if errors.Is(err, errStaleFetch) || o.generation.Load() != gen {
		o.logger.Debug("dropped stale graph fetch")
		return "", "", false
	}
	if ctx.Err() != nil {
		return "", "", false
	}

	phase, msg := o.outcome(err, PhasePathSelection)
	return phase, msg, true
}

func (o *Orchestrator) outcome(err error, noGraph Phase) (Phase, string) {
	switch {
	case err == nil:
		return PhaseReady, ""
	case errors.Is(err, backend.ErrNoGraph), errors.Is(err, errEmptyGraph):
		o.logger.Info("no graph available", zap.Error(err))
		if noGraph == PhaseError {
			return PhaseError, err.Error()
		}
		return noGraph, ""
	default:
		o.logger.Error("failed to load graph", zap.Error(err))
		return PhaseError, err.Error()
	}
}

// fetchAndLoad installs the fetched graph only if no newer load started
// since gen was taken.
func (o *Orchestrator) fetchAndLoad(ctx context.Context, gen uint64) error {
	snap, err := o.backend.FetchGraph(ctx)
	if err != nil {
		return err
	}
	if len(snap.Nodes) == 0 {
		return errEmptyGraph
	}
	if err := store.Validate(snap); err != nil {
		return err
	}

	positions, err := o.layout.Positions(ctx, snap)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	o.installMu.Lock()
	defer o.installMu.Unlock()

	if o.generation.Load() != gen {
		return errStaleFetch
	}
	if err := o.store.Load(layout.Apply(snap, positions)); err != nil {
		return err
	}

	nodes, edges := o.store.Graph()
	o.selection.Reconcile(o.store.Has, edges)
	o.search.Refresh(nodes)
	o.logger.Info("graph loaded", zap.Int("nodes", len(nodes)), zap.Int("edges", len(edges)))
	return nil
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// View returns the current view.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	phase, msg := o.phase, o.errMsg
	o.mu.Unlock()

	return View{
		Phase:          phase,
		Error:          msg,
		Selection:      o.selection.Current(),
		Query:          o.search.Query(),
		Results:        o.search.Results(),
		ResultsVisible: o.search.Visible(),
		Header:         o.Header(),
	}
}

// Subscribe delivers the current view and every later one. Intermediate views
// may be skipped by a slow reader.
func (o *Orchestrator) Subscribe() (<-chan View, func()) {
	return o.views.Subscribe()
}

// SubscribeProgress delivers every progress state in arrival order until the
// orchestrator closes.
func (o *Orchestrator) SubscribeProgress() (<-chan progress.State, func()) {
	return o.channel.Subscribe()
}

// Close releases the progress channel and ends all subscriptions. In-flight
// fetches are not cancelled, but their results no longer change the phase.
func (o *Orchestrator) Close() error {
	var err error
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		o.mu.Unlock()

		err = o.channel.Close()
		o.wg.Wait()
		o.views.Close()
		o.store.Close()
		o.logger.Debug("closed")
	})
	return err
}

func (o *Orchestrator) transition(phase Phase) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.phase = phase
	o.errMsg = ""
	o.mu.Unlock()

	o.logger.Debug("phase", zap.String("phase", string(phase)))
	o.publish()
}

// finish ends the outstanding action and moves to phase.
func (o *Orchestrator) finish(phase Phase, msg string) {
	o.mu.Lock()
	o.busy = false
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.phase = phase
	o.errMsg = msg
	o.mu.Unlock()

	o.logger.Info("phase", zap.String("phase", string(phase)), zap.String("error", msg))
	o.publish()
}

func (o *Orchestrator) publish() {
	o.views.Publish(o.View())
}
