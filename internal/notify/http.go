package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultRetryDelays are the waits before the second, third and later attempts.
var defaultRetryDelays = []time.Duration{5 * time.Second, 30 * time.Second}

// HTTPClient posts webhook payloads with retries on 429 and 5xx.
type HTTPClient struct {
	client     *http.Client
	maxRetries int
	retryDelay []time.Duration
}

// NewHTTPClient creates a client with the given timeout and retry count.
func NewHTTPClient(timeout time.Duration, maxRetries int) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &HTTPClient{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		retryDelay: defaultRetryDelays,
	}
}

// SetRetryDelays overrides the waits between attempts.
func (c *HTTPClient) SetRetryDelays(delays ...time.Duration) {
	c.retryDelay = delays
}

// SendResult contains the result of a send operation.
type SendResult struct {
	StatusCode int
	Duration   time.Duration
	Attempts   int
	Error      error
}

func (c *HTTPClient) delay(attempt int) time.Duration {
	if len(c.retryDelay) == 0 {
		return 0
	}
	if attempt-1 < len(c.retryDelay) {
		return c.retryDelay[attempt-1]
	}
	return c.retryDelay[len(c.retryDelay)-1]
}

// Send POSTs body to url. Client errors (4xx other than 429) are not retried.
func (c *HTTPClient) Send(ctx context.Context, url, contentType string, body []byte) *SendResult {
	result := &SendResult{}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		if attempt > 0 {
			select {
			case <-ctx.Done():
				result.Error = ctx.Err()
				return result
			case <-time.After(c.delay(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			result.Error = fmt.Errorf("failed to create request: %w", err)
			return result
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("User-Agent", "timeblock/1.0")

		resp, err := c.client.Do(req)
		if err != nil {
			result.Error = fmt.Errorf("request failed: %w", err)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		result.StatusCode = resp.StatusCode

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result.Error = nil
			return result
		case resp.StatusCode == http.StatusTooManyRequests:
			result.Error = fmt.Errorf("rate limited (HTTP 429)")
		case resp.StatusCode >= 500:
			result.Error = fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode, respBody)
		default:
			result.Error = fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, respBody)
			return result
		}
	}
	return result
}
