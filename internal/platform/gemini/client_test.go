package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/scry-studygen/internal/config"
	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/generation"
	"github.com/phrazzld/scry-studygen/internal/platform/gemini"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:          "test-api-key",
		ModelName:             "gemini-test",
		BaseURL:               baseURL,
		Temperature:           0.2,
		RequestTimeoutSeconds: 5,
	}
}

func candidateBody(finishReason string, parts ...string) string {
	type part struct {
		Text string `json:"text"`
	}
	ps := make([]part, len(parts))
	for i, p := range parts {
		ps[i] = part{Text: p}
	}
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": ps},
			"finishReason": finishReason,
		}},
	})
	return string(body)
}

func errorBody(code int, status string) string {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{"code": code, "message": "upstream said no", "status": status},
	})
	return string(body)
}

func newServer(t *testing.T, status int, body string, seen *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent") {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			raw, _ := io.ReadAll(r.Body)
			seen.Store(string(raw))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, cfg config.LLMConfig) *gemini.Client {
	t.Helper()
	l, _ := logger.GetTestLogger(t)
	c, err := gemini.NewClient(context.Background(), l, cfg)
	require.NoError(t, err)
	return c
}

func TestSubmitReturnsConcatenatedText(t *testing.T) {
	var seen atomic.Value
	srv := newServer(t, http.StatusOK, candidateBody("STOP", "```json\n[", "]\n```"), &seen)
	c := newClient(t, testConfig(srv.URL))

	out, err := c.Submit(context.Background(), "write questions about optics")

	require.NoError(t, err)
	assert.Equal(t, "```json\n[]\n```", out)
	assert.Contains(t, seen.Load().(string), "write questions about optics")
}

func TestSubmitErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, errorBody(429, "RESOURCE_EXHAUSTED"), domain.ErrRateLimit},
		{"bad request", http.StatusBadRequest, errorBody(400, "INVALID_ARGUMENT"), domain.ErrService},
		{"server error", http.StatusInternalServerError, errorBody(500, "INTERNAL"), domain.ErrService},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, domain.ErrService},
		{"safety block", http.StatusOK, candidateBody("SAFETY"), domain.ErrService},
		{"empty text", http.StatusOK, candidateBody("STOP", ""), domain.ErrService},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newServer(t, tc.status, tc.body, nil)
			c := newClient(t, testConfig(srv.URL))

			out, err := c.Submit(context.Background(), "prompt")

			require.Error(t, err)
			assert.Empty(t, out)
			assert.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
		})
	}
}

func TestSubmitNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, testConfig(url))
	_, err := c.Submit(context.Background(), "prompt")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNetwork), "got %v", err)
	assert.True(t, generation.IsRetryable(err))
}

func TestSubmitHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newClient(t, testConfig(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Submit(ctx, "prompt")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrNetwork))
}

func TestNewClientValidation(t *testing.T) {
	l, _ := logger.GetTestLogger(t)

	_, err := gemini.NewClient(context.Background(), nil, testConfig(""))
	assert.Error(t, err)

	cfg := testConfig("")
	cfg.GeminiAPIKey = ""
	_, err = gemini.NewClient(context.Background(), l, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	cfg = testConfig("")
	cfg.ModelName = ""
	_, err = gemini.NewClient(context.Background(), l, cfg)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}
