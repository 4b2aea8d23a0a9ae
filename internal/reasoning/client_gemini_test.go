package reasoning

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrock/internal/types"
)

func testEngine(t *testing.T, url string) *GeminiEngine {
	t.Helper()
	return NewGeminiEngine(Options{
		APIKey:     "test-key",
		BaseURL:    url,
		Model:      "gemini-test",
		Timeout:    5 * time.Second,
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
	})
}

// geminiReply builds a minimal generateContent response whose single part
// carries the given text.
func geminiReply(text string, chunks []GroundingChunk) GeminiResponse {
	cand := GeminiCandidate{
		Content: GeminiContent{
			Role:  "model",
			Parts: []GeminiPart{{Text: text}},
		},
	}
	if len(chunks) > 0 {
		cand.GroundingMetadata = &GroundingMetadata{GroundingChunks: chunks}
	}
	return GeminiResponse{Candidates: []GeminiCandidate{cand}}
}

func TestDecomposeRetriesRateLimitThenSucceeds(t *testing.T) {
	stubSleep(t)

	payload := `{"core_concept":"cc","analogy":"an","why_important":"wi",
		"components":[{"name":"Part A","description":"d","is_fundamental":true,"reasoning":"r"}],
		"assumptions":["a1"]}`

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"rate limited"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(geminiReply(payload, []GroundingChunk{
			{Web: &GroundingWeb{Title: "Ref", URI: "https://ref.example"}},
			{Web: &GroundingWeb{Title: "", URI: "https://untitled.example"}},
		}))
	}))
	defer srv.Close()

	engine := testEngine(t, srv.URL)
	result, err := engine.Decompose(context.Background(), "topic", "", types.IntentConcept, "General")

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, "cc", result.CoreConcept)
	require.Len(t, result.Components, 1)
	assert.True(t, result.Components[0].IsFundamental)
	assert.Equal(t, types.DataSourceAI, result.DataSource)

	// Only complete title+URI chunks become sources
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "Ref", result.Sources[0].Title)
}

func TestDecomposeBadRequestDoesNotRetry(t *testing.T) {
	stubSleep(t)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad request"}}`))
	}))
	defer srv.Close()

	engine := testEngine(t, srv.URL)
	_, err := engine.Decompose(context.Background(), "topic", "", types.IntentConcept, "")

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestDecomposeExhaustsRetries(t *testing.T) {
	stubSleep(t)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	engine := testEngine(t, srv.URL)
	_, err := engine.Decompose(context.Background(), "topic", "", types.IntentConcept, "")

	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&hits), "initial attempt plus three retries")
}

func TestAnalyzeQueryParsesPayload(t *testing.T) {
	stubSleep(t)

	payload := `{"corrected_query":"quantum computing","intent":"CONCEPT","domain":"Physics",
		"is_ambiguous":true,"ambiguity_options":["hardware","algorithms"],
		"enrichment":"focus on qubits","predicted_topics":["superposition"]}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req GeminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotNil(t, req.SystemInstruction)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		assert.NotNil(t, req.GenerationConfig.ResponseSchema)

		_ = json.NewEncoder(w).Encode(geminiReply(payload, nil))
	}))
	defer srv.Close()

	engine := testEngine(t, srv.URL)
	analysis, err := engine.AnalyzeQuery(context.Background(), "  kwantum computing ")

	require.NoError(t, err)
	assert.Equal(t, "quantum computing", analysis.CorrectedQuery)
	assert.Equal(t, types.IntentConcept, analysis.Intent)
	assert.Equal(t, "Physics", analysis.Domain)
	assert.True(t, analysis.IsAmbiguous)
	assert.Equal(t, []string{"hardware", "algorithms"}, analysis.AmbiguityOptions)
	assert.Equal(t, types.DataSourceAI, analysis.DataSource)
}

func TestAnalyzeQueryBlankCorrectionFallsBackToInput(t *testing.T) {
	stubSleep(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiReply(`{"corrected_query":"","intent":"WHY","domain":"General","is_ambiguous":false,"enrichment":""}`, nil))
	}))
	defer srv.Close()

	engine := testEngine(t, srv.URL)
	analysis, err := engine.AnalyzeQuery(context.Background(), " why is the sky blue ")

	require.NoError(t, err)
	assert.Equal(t, "why is the sky blue", analysis.CorrectedQuery)
}

func TestElaborateStripsCodeFence(t *testing.T) {
	stubSleep(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiReply("## Explanation\n\nbody text", nil))
	}))
	defer srv.Close()

	engine := testEngine(t, srv.URL)
	text, err := engine.Elaborate(context.Background(), "topic", "desc")

	require.NoError(t, err)
	assert.Contains(t, text, "## Explanation")
}

func TestGenerateInBandAPIError(t *testing.T) {
	stubSleep(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GeminiResponse{
			Error: &GeminiAPIError{Code: 500, Message: "internal", Status: "INTERNAL"},
		})
	}))
	defer srv.Close()

	engine := testEngine(t, srv.URL)
	_, err := engine.Elaborate(context.Background(), "topic", "desc")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal")
}

func TestGenerateEmptyCandidates(t *testing.T) {
	stubSleep(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(GeminiResponse{})
	}))
	defer srv.Close()

	engine := testEngine(t, srv.URL)
	_, err := engine.GenerateChallengeQuestion(context.Background(), "topic", "desc")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no completion")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, "plain", stripCodeFence("  plain  "))
}

func TestNewEngineSelectsFallbackWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	engine := NewEngine(Options{})
	assert.Equal(t, types.DataSourceFallback, engine.Source())

	live := NewEngine(Options{APIKey: "k"})
	assert.Equal(t, types.DataSourceAI, live.Source())
}
