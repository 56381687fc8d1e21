// Package webhook builds a zero-arg callable from an HTTP endpoint,
// suitable for scheduling directly with chronos.NewTask. It is an optional,
// separately importable convenience; the scheduler core never imports
// net/http itself.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config describes one HTTP-callable task.
type Config struct {
	Method   string
	Endpoint string
	Headers  map[string]string
	Payload  []byte
	Timeout  time.Duration

	MaxRetries int
	RetryDelay time.Duration

	Client *http.Client
	Sink   ResultSink
}

// ResultSink receives the outcome of each webhook firing. Optional: a nil
// Sink simply discards the result, matching a fire-and-forget HTTP task.
type ResultSink interface {
	Record(result *Result)
}

// Result carries the outcome of one webhook call: status, body, timing, and
// the classified error, if any.
type Result struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	Duration   time.Duration
	Err        error
}

// New builds the zero-arg callable chronos.NewTask expects. Each firing
// executes with retry, per cfg.MaxRetries/cfg.RetryDelay, and reports its
// Result to cfg.Sink if one is set.
func New(cfg Config) func() {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	e := &executor{client: client}

	return func() {
		ctx := context.Background()
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		result := e.executeWithRetry(ctx, cfg, cfg.MaxRetries, cfg.RetryDelay)
		if cfg.Sink != nil {
			cfg.Sink.Record(result)
		}
	}
}

// executor performs the actual HTTP round-trip, with retry on classified
// transient failures.
type executor struct {
	client *http.Client
}

func (e *executor) execute(ctx context.Context, cfg Config) *Result {
	start := time.Now()
	result := &Result{}

	req, err := e.buildRequest(ctx, cfg)
	if err != nil {
		result.Err = err
		return result
	}

	resp, err := e.client.Do(req)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	result.StatusCode = resp.StatusCode
	result.Body = body
	result.Headers = resp.Header
	result.Duration = time.Since(start)

	if resp.StatusCode >= 400 {
		result.Err = fmt.Errorf("webhook: http %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return result
}

func (e *executor) buildRequest(ctx context.Context, cfg Config) (*http.Request, error) {
	var body io.Reader
	if len(cfg.Payload) > 0 {
		body = bytes.NewReader(cfg.Payload)
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("webhook: failed to build request: %w", err)
	}

	req.Header.Set("User-Agent", "chronos/1.0")
	if len(cfg.Payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func (e *executor) executeWithRetry(ctx context.Context, cfg Config, maxRetries int, retryDelay time.Duration) *Result {
	var result *Result

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &Result{Err: ctx.Err()}
			case <-time.After(retryDelay):
			}
		}

		result = e.execute(ctx, cfg)
		if result.Err == nil {
			return result
		}
		if !isRetryable(result) {
			return result
		}
	}

	return result
}

func isRetryable(result *Result) bool {
	if result == nil {
		return true
	}
	if result.StatusCode >= 500 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return false
}
