package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/scry-studygen/internal/api"
	"github.com/phrazzld/scry-studygen/internal/api/middleware"
	"github.com/phrazzld/scry-studygen/internal/api/shared"
	"github.com/phrazzld/scry-studygen/internal/events"
	"github.com/phrazzld/scry-studygen/internal/extract"
	"github.com/phrazzld/scry-studygen/internal/mocks"
	"github.com/phrazzld/scry-studygen/internal/pipeline"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/phrazzld/scry-studygen/internal/presenter"
	"github.com/phrazzld/scry-studygen/internal/prompt"
	"github.com/phrazzld/scry-studygen/internal/session"
	"github.com/phrazzld/scry-studygen/internal/token"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	tokenSecret = "test-secret-that-is-long-enough-for-testing"

	twoRecords = "```json\n[" +
		`{"id":1,"question":"Define convolution.","answer":"An integral of products.","difficulty":"easy","importanceScore":80},` +
		`{"id":2,"question":"State Parseval's theorem.","answer":"Energy is preserved.","difficulty":"hard","importanceScore":95}` +
		"]\n```"

	validSubmit = `{"subject":"Signals and Systems","curriculum_level":"B.E. Semester 4","institution":"Pune University"}`
)

type testServer struct {
	*httptest.Server
	manager *session.Manager
	client  *mocks.MockClient
	logs    *logger.TestLogBuffer
}

func newTestServer(t *testing.T, client *mocks.MockClient) *testServer {
	t.Helper()

	l, buf := logger.GetTestLogger(t)
	builder, err := prompt.NewBuilder("")
	require.NoError(t, err)
	p, err := pipeline.New(builder, client, extract.NewExtractor(nil), l)
	require.NoError(t, err)

	emitter := events.NewInMemoryEventEmitter(l)
	manager, err := session.NewManager(p, emitter, time.Hour, l)
	require.NoError(t, err)

	tokens, err := token.NewServiceWithClock(tokenSecret, time.Hour, time.Now)
	require.NoError(t, err)

	handler, err := api.NewSessionHandler(manager, tokens, emitter, l)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(l, noop.NewTracerProvider()))
	r.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r, middleware.NewSessionAuth(tokens))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		manager.Shutdown()
		srv.Close()
	})
	return &testServer{Server: srv, manager: manager, client: client, logs: buf}
}

func (s *testServer) do(t *testing.T, method, path, tok, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (s *testServer) createSession(t *testing.T) api.CreateSessionResponse {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/sessions", "", "")
	require.Equal(t, http.StatusCreated, status, string(body))
	var resp api.CreateSessionResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func (s *testServer) view(t *testing.T, tok string) presenter.ViewModel {
	t.Helper()
	status, body := s.do(t, http.MethodGet, "/api/session", tok, "")
	require.Equal(t, http.StatusOK, status, string(body))
	return decodeView(t, body)
}

// waitSettled polls until the session leaves the loading status.
func (s *testServer) waitSettled(t *testing.T, tok string) presenter.ViewModel {
	t.Helper()
	var vm presenter.ViewModel
	require.Eventually(t, func() bool {
		vm = s.view(t, tok)
		return !vm.Loading
	}, 2*time.Second, 10*time.Millisecond)
	return vm
}

func decodeView(t *testing.T, body []byte) presenter.ViewModel {
	t.Helper()
	var vm presenter.ViewModel
	require.NoError(t, json.Unmarshal(body, &vm), string(body))
	return vm
}

func decodeError(t *testing.T, body []byte) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	return resp
}
