package progress

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const sseContentType = "text/event-stream"

// SSETransport reads the progress feed as a server-sent event stream, with the
// same framing rules a browser EventSource applies.
type SSETransport struct {
	URL    string
	Client *http.Client
}

func (t SSETransport) Connect(ctx context.Context) (Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress request: %w", err)
	}
	req.Header.Set("Accept", sseContentType)
	req.Header.Set("Cache-Control", "no-cache")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open progress stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("progress stream returned status %d", resp.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != sseContentType {
		resp.Body.Close()
		return nil, fmt.Errorf("progress stream has content type %q, want %q", mediaType, sseContentType)
	}

	return &sseStream{body: resp.Body, reader: bufio.NewReader(resp.Body)}, nil
}

type sseStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
}

// Next returns the data of the next "message" event. Events with another event
// name, comments, and id/retry fields are skipped. Multi-line data is joined
// with newlines.
func (s *sseStream) Next() ([]byte, error) {
	var (
		data      strings.Builder
		hasData   bool
		eventType string
	)

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			// An event without its terminating blank line is discarded.
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData && (eventType == "" || eventType == "message") {
				return []byte(strings.TrimSuffix(data.String(), "\n")), nil
			}
			data.Reset()
			hasData = false
			eventType = ""
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "data":
			data.WriteString(value)
			data.WriteString("\n")
			hasData = true
		case "event":
			eventType = value
		}
	}
}

func (s *sseStream) Close() error {
	return s.body.Close()
}
