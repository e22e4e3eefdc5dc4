package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/phrazzld/scry-studygen/internal/domain"
	"github.com/phrazzld/scry-studygen/internal/extract"
	"github.com/phrazzld/scry-studygen/internal/mocks"
	"github.com/phrazzld/scry-studygen/internal/pipeline"
	"github.com/phrazzld/scry-studygen/internal/platform/logger"
	"github.com/phrazzld/scry-studygen/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const scenarioA = "```json\n[{\"id\":1,\"question\":\"Q\",\"answer\":\"A\",\"difficulty\":\"Easy\",\"importanceScore\":80}]\n```"

var requestContext = domain.RequestContext{
	Subject:         "Operating Systems",
	CurriculumLevel: "BSc Year 2",
	Institution:     "University of Leeds",
}

type fixture struct {
	pipeline *pipeline.Pipeline
	client   *mocks.MockClient
	recorder *tracetest.SpanRecorder
	builder  *prompt.Builder
}

func newFixture(t *testing.T, client *mocks.MockClient, opts ...pipeline.Option) fixture {
	t.Helper()

	builder, err := prompt.NewBuilder("")
	require.NoError(t, err)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	l, _ := logger.GetTestLogger(t)
	opts = append([]pipeline.Option{pipeline.WithTracerProvider(tp)}, opts...)
	p, err := pipeline.New(builder, client, extract.NewExtractor(nil), l, opts...)
	require.NoError(t, err)

	return fixture{pipeline: p, client: client, recorder: recorder, builder: builder}
}

func spanNames(r *tracetest.SpanRecorder) []string {
	var names []string
	for _, s := range r.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func TestRunSuccess(t *testing.T) {
	f := newFixture(t, mocks.NewMockClientWithResponse(scenarioA))

	items, err := f.pipeline.Run(context.Background(), requestContext)

	require.NoError(t, err)
	assert.Equal(t, []domain.QuestionRecord{
		{ID: 1, Question: "Q", Answer: "A", Difficulty: "Easy", ImportanceScore: 80},
	}, items)
	assert.Contains(t, f.client.LastPrompt(), "Operating Systems")
	assert.ElementsMatch(t,
		[]string{"prompt.build", "generation.submit", "extract", "records.validate", "pipeline.run"},
		spanNames(f.recorder))
}

func TestRunStageFailures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		wantErr  error
		wantSpan string
	}{
		{"service failure", "", fmt.Errorf("%w: status 500", domain.ErrService), domain.ErrService, "generation.submit"},
		{"no envelope", `[{"id":1}]`, nil, domain.ErrExtraction, "extract"},
		{"not a sequence", "```json\n{\"id\":1}\n```", nil, domain.ErrSchema, "records.validate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, &mocks.MockClient{Response: tc.response, Err: tc.err})

			items, err := f.pipeline.Run(context.Background(), requestContext)

			require.Error(t, err)
			assert.Nil(t, items)
			assert.True(t, errors.Is(err, tc.wantErr))

			var failed []string
			for _, s := range f.recorder.Ended() {
				if s.Status().Code == codes.Error {
					failed = append(failed, s.Name())
				}
			}
			assert.ElementsMatch(t, []string{tc.wantSpan, "pipeline.run"}, failed)
		})
	}
}

func TestRunInputValidationSkipsClient(t *testing.T) {
	f := newFixture(t, mocks.NewMockClientWithResponse(scenarioA))

	_, err := f.pipeline.Run(context.Background(), domain.RequestContext{Subject: "Maths"})

	assert.ErrorIs(t, err, domain.ErrInputValidation)
	assert.Equal(t, 0, f.client.CallCount())
}

func TestRunCachesValidResponses(t *testing.T) {
	cache := mocks.NewMockCache(nil)
	f := newFixture(t, mocks.NewMockClientWithResponse(scenarioA), pipeline.WithCache(cache))

	first, err := f.pipeline.Run(context.Background(), requestContext)
	require.NoError(t, err)
	second, err := f.pipeline.Run(context.Background(), requestContext)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.client.CallCount(), "second run is served from cache")
	assert.Equal(t, 1, cache.Len())
}

func TestRunDoesNotCacheInvalidResponses(t *testing.T) {
	cache := mocks.NewMockCache(nil)
	f := newFixture(t, mocks.NewMockClientWithResponse("no json here"), pipeline.WithCache(cache))

	_, err := f.pipeline.Run(context.Background(), requestContext)

	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 0, cache.SetCount)
}

func TestRunIgnoresStaleCacheEntry(t *testing.T) {
	builder, err := prompt.NewBuilder("")
	require.NoError(t, err)
	promptText, err := builder.Build(requestContext)
	require.NoError(t, err)

	cache := mocks.NewMockCache(map[string]string{promptText: "```json\n[{\"id\":\"bad\"}]\n```"})
	f := newFixture(t, mocks.NewMockClientWithResponse(scenarioA), pipeline.WithCache(cache))

	items, err := f.pipeline.Run(context.Background(), requestContext)

	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, f.client.CallCount())
	assert.Equal(t, 1, cache.DeleteCount)
	raw, ok := cache.Entry(promptText)
	require.True(t, ok)
	assert.Equal(t, scenarioA, raw, "fresh response replaces the stale entry")
}

func TestRunSurvivesCacheOutage(t *testing.T) {
	cache := mocks.NewMockCache(nil)
	cache.GetErr = errors.New("connection refused")
	cache.SetErr = errors.New("connection refused")
	f := newFixture(t, mocks.NewMockClientWithResponse(scenarioA), pipeline.WithCache(cache))

	items, err := f.pipeline.Run(context.Background(), requestContext)

	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestNewValidation(t *testing.T) {
	l, _ := logger.GetTestLogger(t)
	builder, err := prompt.NewBuilder("")
	require.NoError(t, err)

	_, err = pipeline.New(nil, &mocks.MockClient{}, extract.NewExtractor(nil), l)
	assert.Error(t, err)
	_, err = pipeline.New(builder, nil, extract.NewExtractor(nil), l)
	assert.Error(t, err)
	_, err = pipeline.New(builder, &mocks.MockClient{}, extract.NewExtractor(nil), nil)
	assert.Error(t, err)
}
