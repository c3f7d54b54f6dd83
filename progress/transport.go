package progress

import (
	"context"
	"io"
	"sync"
)

// Transport opens the server push connection.
type Transport interface {
	Connect(ctx context.Context) (Stream, error)
}

// Stream delivers raw event payloads in the order the server emitted them.
// Next blocks until the next event arrives; it returns io.EOF when the server
// ends the stream.
type Stream interface {
	Next() ([]byte, error)
	Close() error
}

// NopTransport connects immediately and never delivers an event. It stands in
// for the push feed when the graph is read from disk.
type NopTransport struct{}

func (NopTransport) Connect(context.Context) (Stream, error) {
	return &nopStream{done: make(chan struct{})}, nil
}

type nopStream struct {
	once sync.Once
	done chan struct{}
}

func (s *nopStream) Next() ([]byte, error) {
	<-s.done
	return nil, io.EOF
}

func (s *nopStream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
