package provider

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/simonyos/zcode-core/internal/zlog"
)

// RetryingClient wraps an *http.Client with exponential-backoff retry on
// transient failures — grounded on kadirpekel-hector's pkg/httpclient
// Client, simplified to the one strategy our providers need: retry
// connection failures and the statuses 408, 429, 500, 502, 503 and 504 up
// to MaxRetries, and return every other response as is.
type RetryingClient struct {
	HTTP       *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// NewRetryingClient returns a client configured with sane defaults,
// matching kadirpekel-hector's Ollama client: 3 retries, 2s base delay.
func NewRetryingClient(timeout time.Duration) *RetryingClient {
	return &RetryingClient{
		HTTP:       &http.Client{Timeout: timeout},
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Do executes req, retrying on connection errors and retryable status
// codes with exponential backoff plus jitter.
func (c *RetryingClient) Do(req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("retrying client: read request body: %w", err)
		}
		req.Body.Close()
	}
	resetBody := func() {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	log := zlog.FromContext(req.Context())

	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		resetBody()
		resp, err := c.HTTP.Do(req)
		if err == nil && !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if err == nil {
			lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
			resp.Body.Close()
		} else {
			lastErr = err
		}

		if attempt == c.MaxRetries {
			log.Error().Err(lastErr).Str("url", req.URL.String()).Int("attempts", attempt+1).Msg("retrying client exhausted retries")
			break
		}
		delay := c.backoff(attempt)
		log.Warn().Err(lastErr).Str("url", req.URL.String()).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying request")
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("retrying client: exhausted %d retries: %w", c.MaxRetries, lastErr)
}

func (c *RetryingClient) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * c.BaseDelay
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.1)
	if delay+jitter > c.MaxDelay {
		return c.MaxDelay
	}
	return delay + jitter
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusRequestTimeout,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
