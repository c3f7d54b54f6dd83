package progress

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/LegacyCodeHQ/codeviz/internal/broker"
	"go.uber.org/zap"
)

// ErrClosed is returned by Open after Close.
var ErrClosed = errors.New("progress channel closed")

// Channel holds the latest progress state pushed by the backend. Messages are
// applied wholesale in arrival order.
type Channel struct {
	transport Transport
	logger    *zap.Logger
	updates   *broker.Broker[State]

	mu         sync.Mutex
	current    State
	lastErr    error
	stream     Stream
	cancel     context.CancelFunc
	done       chan struct{}
	connected  chan struct{}
	connecting chan struct{} // closed when the Open in progress ends
	opened     bool
	closed     bool

	closeOnce sync.Once
}

// NewChannel returns an idle channel that will read from transport once opened.
func NewChannel(transport Transport, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Channel{
		transport: transport,
		logger:    logger.Named("progress"),
		updates:   broker.New[State](),
		current:   Idle(),
		connected: make(chan struct{}),
	}
	c.updates.Publish(c.current)
	return c
}

// Open connects the transport and starts applying messages. It returns once the
// stream is connected. The stream lives until ctx is done or Close is called.
// Opening an already connected channel is a no-op; a concurrent Open waits for
// the attempt in progress. A failed Open may be retried.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	for c.connecting != nil && !c.closed && !c.opened {
		attempt := c.connecting
		c.mu.Unlock()
		select {
		case <-attempt:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.opened {
		c.mu.Unlock()
		return nil
	}
	attempt := make(chan struct{})
	c.connecting = attempt
	streamCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.connecting = nil
		c.mu.Unlock()
		close(attempt)
	}()

	c.logger.Debug("connecting")
	stream, err := c.transport.Connect(streamCtx)
	if err != nil {
		cancel()
		c.setErr(err)
		c.logger.Warn("failed to connect", zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		cancel()
		_ = stream.Close()
		return ErrClosed
	}
	c.stream = stream
	c.opened = true
	c.done = make(chan struct{})
	close(c.connected)

	go c.read(streamCtx, stream, c.done)

	c.logger.Debug("connected")
	return nil
}

func (c *Channel) read(ctx context.Context, stream Stream, done chan struct{}) {
	defer close(done)

	for {
		data, err := stream.Next()
		if err != nil {
			if ctx.Err() != nil || c.isClosed() {
				return
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info("stream ended")
			} else {
				c.logger.Warn("stream failed", zap.Error(err))
			}
			c.setErr(err)
			return
		}

		state, err := DecodeState(data)
		if err != nil {
			c.logger.Warn("ignoring malformed message", zap.Error(err))
			c.setErr(err)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.current = state
		c.mu.Unlock()

		c.logger.Debug("progress",
			zap.String("status", string(state.Status)),
			zap.Int("percentage", state.Percentage),
		)
		c.updates.Publish(state)
	}
}

// Connected is closed once the stream is established.
func (c *Channel) Connected() <-chan struct{} {
	return c.connected
}

// Current returns the latest applied state.
func (c *Channel) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Err returns the most recent transport or decode error, if any.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Subscribe delivers the current state and then every applied state in
// arrival order, none skipped.
func (c *Channel) Subscribe() (<-chan State, func()) {
	return c.updates.SubscribeOrdered()
}

// Close releases the stream and ends all subscriptions. Safe to call more than
// once.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		cancel, stream, done := c.cancel, c.stream, c.done
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if stream != nil {
			err = stream.Close()
		}
		if done != nil {
			<-done
		}
		c.updates.Close()
		c.logger.Debug("closed")
	})
	return err
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) setErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}
