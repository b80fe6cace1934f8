// Package client holds the outbound HTTP clients of the matchmaking
// service. Every call goes through a retry + circuit breaker pipeline:
// 3 attempts with exponential backoff between 1s and 10s, breaker opening
// after 5 failures and probing again after 60s.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"swappo-matchmaking/internal/metrics"
)

const requestTimeout = 5 * time.Second

// APIError is a non-2xx response from a downstream service.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status=%d body=%s", e.StatusCode, string(e.Body))
}

// NewPipeline builds the shared resilience pipeline for a named downstream
// circuit. Retries cover network errors, 429s and 5xx; the breaker opens on
// the same conditions.
func NewPipeline(circuitName string) failsafe.Executor[*http.Response] {
	shouldHandle := func(resp *http.Response, err error) bool {
		if err != nil {
			return true
		}
		return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
	}

	retryPolicy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(shouldHandle).
		WithBackoff(1*time.Second, 10*time.Second).
		WithMaxRetries(2). // 3 attempts total
		Build()

	breaker := circuitbreaker.NewBuilder[*http.Response]().
		HandleIf(shouldHandle).
		WithFailureThreshold(5).
		WithDelay(60 * time.Second).
		Build()

	return failsafe.With[*http.Response](retryPolicy, breaker)
}

// PostJSON sends payload to url through the pipeline and returns the
// response body for 2xx responses. The request is rebuilt on every attempt
// so retries never reuse a consumed body.
func PostJSON(ctx context.Context, hc *http.Client, pipeline failsafe.Executor[*http.Response], circuitName, url string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	resp, err := pipeline.GetWithExecution(func(_ failsafe.Execution[*http.Response]) (*http.Response, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		return hc.Do(req)
	})
	if err == circuitbreaker.ErrOpen {
		metrics.CircuitBreakerState.WithLabelValues(circuitName).Set(1)
		metrics.CircuitBreakerFailuresTotal.WithLabelValues(circuitName).Inc()
		return nil, fmt.Errorf("%s: %w", circuitName, err)
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	metrics.CircuitBreakerState.WithLabelValues(circuitName).Set(0)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: data}
	}
	return data, nil
}
