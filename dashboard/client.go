package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fwojciec/interpret"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Interface compliance check.
var _ interpret.Client = (*Client)(nil)

// Client implements [interpret.Client] over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. The client must not set a
// response timeout: interpretation streams have no deadline.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for skipped frames and request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a [Client] for the dashboard at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream posts req and returns a stream of the events in the response. Any
// failure before the first frame, including a non-2xx status, wraps
// [interpret.ErrTransport].
func (c *Client) Stream(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w: %w", interpret.ErrTransport, err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set(requestIDHeader, requestID)
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := c.logger.With("path", req.Path, "request_id", requestID)
	logger.Debug("opening interpretation stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w: %w", interpret.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("dashboard: HTTP %d: missing response body: %w", resp.StatusCode, interpret.ErrTransport)
	}

	return newStream(resp.Body, logger), nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("dashboard: HTTP %d (failed to read body: %w): %w", resp.StatusCode, err, interpret.ErrTransport)
	}
	msg := strings.TrimSpace(string(body))
	if gjson.ValidBytes(body) {
		for _, key := range []string{"message", "error.message", "error"} {
			if v := gjson.GetBytes(body, key); v.Type == gjson.String && v.Str != "" {
				msg = v.Str
				break
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("dashboard: HTTP %d: %s: %w", resp.StatusCode, msg, interpret.ErrTransport)
}
