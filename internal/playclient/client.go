package playclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/park285/cheese-checkers/pkg/checkersdto"
	"github.com/valyala/fasthttp"
)

// APIError is a non-2xx reply from the play server.
type APIError struct {
	Status int
	checkersdto.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("checkers api error: status=%d code=%s: %s", e.Status, e.Code, e.ErrorResponse.Error())
}

// IsCode reports whether err is an APIError with the given code.
func IsCode(err error, code string) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Code == code
}

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

// WithRetry sets how many attempts idempotent requests get.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 30 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WatchURL is the websocket URL for a session's event stream.
func (c *Client) WatchURL(sessionID string) string {
	u := c.baseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws/sessions/" + url.PathEscape(sessionID)
}

func sessionPath(id, suffix string) string {
	return "/api/sessions/" + url.PathEscape(id) + suffix
}

func (c *Client) Ping(ctx context.Context) (*checkersdto.Pong, error) {
	var out checkersdto.Pong
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/ping", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSession(ctx context.Context, req checkersdto.CreateSessionRequest) (*checkersdto.SessionState, error) {
	var out checkersdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/api/sessions", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]string, error) {
	var out checkersdto.SessionList
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/api/sessions", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*checkersdto.SessionState, error) {
	var out checkersdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodGet, sessionPath(id, ""), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, fasthttp.MethodDelete, sessionPath(id, ""), nil, nil, false)
}

func (c *Client) Select(ctx context.Context, id string, req checkersdto.SelectRequest) (*checkersdto.MovesResponse, error) {
	var out checkersdto.MovesResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(id, "/select"), req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LegalMoves(ctx context.Context, id string) (*checkersdto.MovesResponse, error) {
	var out checkersdto.MovesResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, sessionPath(id, "/moves"), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MakeMove(ctx context.Context, id string, mv checkersdto.Move) (*checkersdto.SessionState, error) {
	var out checkersdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(id, "/moves"), mv, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// AIMove asks the server to play the automated side; depth <= 0 keeps
// the session's preset depth.
func (c *Client) AIMove(ctx context.Context, id string, depth int) (*checkersdto.AIResponse, error) {
	var out checkersdto.AIResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(id, "/ai"), checkersdto.AIRequest{Depth: depth}, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Reset(ctx context.Context, id string) (*checkersdto.SessionState, error) {
	var out checkersdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(id, "/reset"), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Undo(ctx context.Context, id string) (*checkersdto.SessionState, error) {
	var out checkersdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodPost, sessionPath(id, "/undo"), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Hint(ctx context.Context, id string) (*checkersdto.HintResponse, error) {
	var out checkersdto.HintResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, sessionPath(id, "/hint"), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// BoardPNG downloads the rendered board.
func (c *Client) BoardPNG(ctx context.Context, id string, flip bool) ([]byte, error) {
	path := sessionPath(id, "/board.png")
	if flip {
		path += "?flip=1"
	}
	var img []byte
	err := c.do(ctx, fasthttp.MethodGet, path, nil, true, func(body []byte) error {
		img = append([]byte(nil), body...)
		return nil
	})
	return img, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	var payload []byte
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = raw
	}
	return c.do(ctx, method, path, payload, retry, func(body []byte) error {
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, retry bool, handle func([]byte) error) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if payload != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
		} else if status := resp.StatusCode(); status < 200 || status >= 300 {
			lastErr = apiError(status, resp.Body())
			if !shouldRetryStatus(status) {
				return lastErr
			}
		} else {
			return handle(resp.Body())
		}
		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return lastErr
		}
		resp.Reset()
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func apiError(status int, body []byte) error {
	ae := &APIError{Status: status}
	if err := json.Unmarshal(body, &ae.ErrorResponse); err != nil || ae.Code == "" {
		ae.Code = checkersdto.CodeInternal
		ae.Message = truncate(string(body), 512)
	}
	return ae
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
