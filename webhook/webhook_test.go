package webhook_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minisource/chronos/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	results []*webhook.Result
}

func (s *recordingSink) Record(r *webhook.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *recordingSink) last() *webhook.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return nil
	}
	return s.results[len(s.results)-1]
}

func TestNew_SuccessfulCallDeliversMethodAndHeaders(t *testing.T) {
	var gotMethod string
	var gotHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Custom")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := &recordingSink{}
	callable := webhook.New(webhook.Config{
		Method:   http.MethodPost,
		Endpoint: server.URL,
		Headers:  map[string]string{"X-Custom": "abc"},
		Sink:     sink,
	})

	callable()

	require.NotNil(t, sink.last())
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "abc", gotHeader)
	assert.NoError(t, sink.last().Err)
	assert.Equal(t, http.StatusOK, sink.last().StatusCode)
}

func TestNew_RetriesOnServerError(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := &recordingSink{}
	callable := webhook.New(webhook.Config{
		Endpoint:   server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Sink:       sink,
	})

	callable()

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	require.NotNil(t, sink.last())
	assert.NoError(t, sink.last().Err)
}

func TestNew_DoesNotRetryClientError(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sink := &recordingSink{}
	callable := webhook.New(webhook.Config{
		Endpoint:   server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		Sink:       sink,
	})

	callable()

	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
	require.NotNil(t, sink.last())
	assert.Error(t, sink.last().Err)
}

func TestNew_NilSinkIsSafe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	callable := webhook.New(webhook.Config{Endpoint: server.URL})
	assert.NotPanics(t, callable)
}
