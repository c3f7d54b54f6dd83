package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"go.uber.org/zap"
)

// Client is the HTTP implementation of Backend.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the client's logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	c := &Client{baseURL: u, http: http.DefaultClient, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	c.logger = c.logger.Named("backend")
	return c, nil
}

// ProgressURL is the server-sent event endpoint.
func (c *Client) ProgressURL() string {
	return c.endpoint(RouteProgress, nil).String()
}

// ProgressSocketURL is the same endpoint with a ws:// or wss:// scheme.
func (c *Client) ProgressSocketURL() string {
	u := c.endpoint(RouteProgress, nil)
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

// FetchGraph downloads the current graph. A non-2xx response means no graph
// has been built yet and yields ErrNoGraph.
func (c *Client) FetchGraph(ctx context.Context) (*snapshot.Snapshot, error) {
	resp, err := c.get(ctx, "fetch graph", c.endpoint(RouteGraph, nil))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		drain(resp)
		c.logger.Debug("no graph on server", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w (status %d)", ErrNoGraph, resp.StatusCode)
	}

	return snapshot.Decode(resp.Body)
}

// Reindex asks the server to rebuild the graph of the current project.
func (c *Client) Reindex(ctx context.Context) error {
	resp, err := c.get(ctx, "reindex", c.endpoint(RouteReindex, nil))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	drain(resp)

	if !ok(resp) {
		return &StatusError{Op: "reindex", StatusCode: resp.StatusCode}
	}
	return nil
}

// Analyze asks the server to build a graph for the project at path.
func (c *Client) Analyze(ctx context.Context, path string) error {
	resp, err := c.get(ctx, "analyze", c.endpoint(RouteAnalyze, url.Values{"path": {path}}))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	drain(resp)

	if !ok(resp) {
		return fmt.Errorf("%w (status %d)", ErrAnalysisFailed, resp.StatusCode)
	}
	return nil
}

// OpenInEditor asks the server to open path in the user's editor.
func (c *Client) OpenInEditor(ctx context.Context, path string) (OpenResult, error) {
	u := c.endpoint(RouteOpenInEditor+url.PathEscape(path), nil)
	// Keep the escaped slashes intact on the wire.
	u.RawPath = u.Path
	u.Path, _ = url.PathUnescape(u.Path)

	resp, err := c.get(ctx, "open in editor", u)
	if err != nil {
		return OpenResult{}, err
	}
	defer resp.Body.Close()

	var result OpenResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if !ok(resp) {
			return OpenResult{}, &StatusError{Op: "open in editor", StatusCode: resp.StatusCode}
		}
		return OpenResult{}, fmt.Errorf("failed to decode open-in-editor response: %w", err)
	}

	switch {
	case result.Status == openStatusOpened:
		return result, nil
	case result.Status == openStatusError:
		return result, &EditorError{File: path, Message: result.Error}
	case !ok(resp):
		return result, &StatusError{Op: "open in editor", StatusCode: resp.StatusCode}
	default:
		return result, fmt.Errorf("unexpected open-in-editor status %q", result.Status)
	}
}

func (c *Client) endpoint(route string, query url.Values) *url.URL {
	u := *c.baseURL
	u.Path = c.baseURL.Path + route
	u.RawPath = ""
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return &u
}

func (c *Client) get(ctx context.Context, op string, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", op, err)
	}

	c.logger.Debug("request", zap.String("op", op), zap.String("url", u.String()))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, URL: u.String(), Err: err}
	}
	return resp, nil
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
}
