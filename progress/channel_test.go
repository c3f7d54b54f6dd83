package progress

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	msgs   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{msgs: make(chan []byte, 16), closed: make(chan struct{})}
}

func (s *fakeStream) Next() ([]byte, error) {
	select {
	case m, ok := <-s.msgs:
		if !ok {
			return nil, io.EOF
		}
		return m, nil
	case <-s.closed:
		return nil, io.EOF
	}
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type fakeTransport struct {
	stream *fakeStream
	err    error
}

func (t *fakeTransport) Connect(context.Context) (Stream, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.stream, nil
}

func TestChannel_StartsIdle(t *testing.T) {
	c := NewChannel(&fakeTransport{stream: newFakeStream()}, nil)
	defer c.Close()

	assert.Equal(t, Idle(), c.Current())

	select {
	case <-c.Connected():
		t.Fatal("connected before Open")
	default:
	}
}

func TestChannel_LastMessageWins(t *testing.T) {
	stream := newFakeStream()
	c := NewChannel(&fakeTransport{stream: stream}, nil)
	defer c.Close()

	require.NoError(t, c.Open(context.Background()))
	<-c.Connected()

	stream.msgs <- []byte(`{"status":"scanning","message":"Scanning files","percentage":40}`)
	stream.msgs <- []byte(`{"status":"complete","message":"Done","percentage":100}`)

	want := State{Status: StatusComplete, Message: "Done", Percentage: 100}
	require.Eventually(t, func() bool { return c.Current() == want }, time.Second, 5*time.Millisecond)
}

func TestChannel_MalformedMessageIsNotFatal(t *testing.T) {
	stream := newFakeStream()
	c := NewChannel(&fakeTransport{stream: stream}, nil)
	defer c.Close()

	require.NoError(t, c.Open(context.Background()))

	stream.msgs <- []byte(`{"status":"scanning","percentage":20}`)
	stream.msgs <- []byte(`not json`)
	stream.msgs <- []byte(`{"status":"parsing","percentage":60}`)

	want := State{Status: "parsing", Percentage: 60}
	require.Eventually(t, func() bool { return c.Current() == want }, time.Second, 5*time.Millisecond)
	assert.Error(t, c.Err())
}

func TestChannel_SubscribeReceivesUpdates(t *testing.T) {
	stream := newFakeStream()
	c := NewChannel(&fakeTransport{stream: stream}, nil)
	defer c.Close()

	ch, unsubscribe := c.Subscribe()
	defer unsubscribe()

	assert.Equal(t, Idle(), <-ch)

	require.NoError(t, c.Open(context.Background()))
	stream.msgs <- []byte(`{"status":"scanning","percentage":40}`)

	select {
	case got := <-ch:
		assert.Equal(t, State{Status: "scanning", Percentage: 40}, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for progress")
	}
}

func TestChannel_ConnectFailure(t *testing.T) {
	boom := errors.New("refused")
	c := NewChannel(&fakeTransport{err: boom}, nil)
	defer c.Close()

	err := c.Open(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, c.Err(), boom)

	select {
	case <-c.Connected():
		t.Fatal("connected after failure")
	default:
	}
}

func TestChannel_StreamEndKeepsLastState(t *testing.T) {
	stream := newFakeStream()
	c := NewChannel(&fakeTransport{stream: stream}, nil)
	defer c.Close()

	require.NoError(t, c.Open(context.Background()))
	stream.msgs <- []byte(`{"status":"complete","percentage":100}`)
	close(stream.msgs)

	require.Eventually(t, func() bool { return errors.Is(c.Err(), io.EOF) }, time.Second, 5*time.Millisecond)
	assert.Equal(t, State{Status: StatusComplete, Percentage: 100}, c.Current())
}

func TestChannel_CloseIsIdempotent(t *testing.T) {
	stream := newFakeStream()
	c := NewChannel(&fakeTransport{stream: stream}, nil)

	ch, _ := c.Subscribe()
	require.NoError(t, c.Open(context.Background()))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	for range ch {
	}
	assert.ErrorIs(t, c.Open(context.Background()), ErrClosed)
}

func TestChannel_OpenTwice(t *testing.T) {
	c := NewChannel(NopTransport{}, nil)
	defer c.Close()

	require.NoError(t, c.Open(context.Background()))
	require.NoError(t, c.Open(context.Background()))
	<-c.Connected()
}

type slowTransport struct {
	delay time.Duration

	mu       sync.Mutex
	connects int
}

func (t *slowTransport) Connect(ctx context.Context) (Stream, error) {
	t.mu.Lock()
	t.connects++
	t.mu.Unlock()

	select {
	case <-time.After(t.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return newFakeStream(), nil
}

func TestChannel_ConcurrentOpenConnectsOnce(t *testing.T) {
	transport := &slowTransport{delay: 20 * time.Millisecond}
	c := NewChannel(transport, nil)
	defer c.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Open(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	<-c.Connected()
	transport.mu.Lock()
	assert.Equal(t, 1, transport.connects)
	transport.mu.Unlock()
}

func TestChannel_SlowSubscriberSeesEveryState(t *testing.T) {
	stream := newFakeStream()
	c := NewChannel(&fakeTransport{stream: stream}, nil)
	defer c.Close()

	ch, unsubscribe := c.Subscribe()
	defer unsubscribe()
	require.NoError(t, c.Open(context.Background()))

	stream.msgs <- []byte(`{"status":"scanning","percentage":10}`)
	stream.msgs <- []byte(`{"status":"parsing","percentage":50}`)
	stream.msgs <- []byte(`{"status":"complete","percentage":100}`)
	require.Eventually(t, func() bool { return c.Current().Complete() }, time.Second, 5*time.Millisecond)

	var got []Status
	for len(got) < 4 {
		select {
		case s := <-ch:
			got = append(got, s.Status)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %v", got)
		}
	}
	assert.Equal(t, []Status{StatusIdle, "scanning", "parsing", StatusComplete}, got)
}
