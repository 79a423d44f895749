package tradier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xhhuango/json"
)

const (
	DefaultBaseURL = "https://api.tradier.com"
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

var ErrNoToken = errors.New("tradier: missing API token")

type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

type ClientOption func(*Client)

// WithBaseURL points the client at another host, such as the sandbox or a
// test server.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	c := &Client{
		token:   token,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetQuotes fetches OHLC history for symbol between start and end
// (YYYY-MM-DD) at the given interval (daily, weekly or monthly).
func (c *Client) GetQuotes(ctx context.Context, symbol, start, end, interval string) (*QuoteHistory, error) {
	if symbol == "" {
		return nil, errors.New("tradier: empty symbol")
	}
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("start", start)
	q.Set("end", end)
	q.Set("session_filter", "all")

	quoteHistory := &QuoteHistory{}
	if err := c.get(ctx, "/v1/markets/history", q, quoteHistory); err != nil {
		return nil, fmt.Errorf("get quotes for %s: %w", symbol, err)
	}
	return quoteHistory, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path + "?" + query.Encode()
	r, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	r.Header.Add("Authorization", "Bearer "+c.token)
	r.Header.Add("Accept", "application/json")

	resp, err := c.http.Do(r)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response data: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Message: errorMessage(responseData)}
	}

	if err := json.Unmarshal(responseData, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// StatusError is returned for any non-200 response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tradier: status %d: %s", e.Code, e.Message)
}

func errorMessage(body []byte) string {
	var fault apiError
	if err := json.Unmarshal(body, &fault); err == nil && fault.Fault.FaultString != "" {
		return fault.Fault.FaultString
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
