package progress

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketTransport reads the progress feed from a WebSocket endpoint. Each
// text frame carries one event.
type WebSocketTransport struct {
	URL    string
	Dialer *websocket.Dialer
	Header http.Header
}

func (t WebSocketTransport) Connect(ctx context.Context) (Stream, error) {
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, t.URL, t.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open progress socket (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to open progress socket: %w", err)
	}

	return &wsStream{conn: conn}, nil
}

type wsStream struct {
	conn *websocket.Conn
}

func (s *wsStream) Next() ([]byte, error) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, err
		}
		if messageType == websocket.TextMessage {
			return data, nil
		}
	}
}

func (s *wsStream) Close() error {
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
