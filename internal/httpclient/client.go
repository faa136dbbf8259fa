// Package httpclient wraps outbound HTTP calls to content sources with a
// per-request timeout and a circuit breaker, so one dead source fails fast
// for the rest of a run instead of costing a full timeout per locality.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	userAgent = "SmartBrief/1.0 (+https://github.com/anaghavs09/SmartBrief)"

	breakerConsecutiveFailures = 3
	breakerOpenTimeout         = 2 * time.Minute
	maxErrorBodyBytes          = 512
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}

	return fmt.Sprintf("unexpected status: %d (body = %s)", e.StatusCode, e.Body)
}

type Client struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func New(name string, timeout time.Duration) *Client {
	return NewWithHTTPClient(name, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(name string, httpClient *http.Client) *Client {
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
	})

	return &Client{client: httpClient, breaker: breaker}
}


// Do sends req through the breaker. 5xx and 429 responses count as
// failures and are returned as *StatusError with the body closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.client.Do(req)
		if doErr != nil {
			return nil, doErr
		}

		if r.StatusCode >= http.StatusInternalServerError || r.StatusCode == http.StatusTooManyRequests {
			return nil, drainStatusError(r)
		}

		return r, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit %s is open: %w", c.breaker.Name(), err)
		}
		return nil, err
	}

	return resp, nil
}

// Get issues a GET and returns the body of a 2xx response. The caller
// closes it.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, drainStatusError(resp)
	}

	return resp.Body, nil
}

// GetJSON issues a GET and decodes a 2xx JSON body into dst.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	return c.doJSON(req, dst)
}

// PostJSON sends body as JSON and decodes a 2xx JSON reply into dst when
// dst is not nil.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(req, dst)
}

func (c *Client) doJSON(req *http.Request, dst any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return drainStatusError(resp)
	}

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func drainStatusError(resp *http.Response) error {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}
