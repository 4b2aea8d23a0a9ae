// Package reasoning wraps the external reasoning capability: a Gemini-backed
// engine with retry/backoff and grounding extraction, and a deterministic
// offline fallback used when no API key is configured. Response cleaning for
// the tree lives here too (normalize.go).
package reasoning

import (
	"context"
	"os"
	"strings"
	"time"

	"bedrock/internal/logging"
	"bedrock/internal/types"
)

// Engine is one reasoning capability. Implementations must be safe for
// concurrent use; every method is a single logical request.
type Engine interface {
	// AnalyzeQuery interprets raw user input into a search intent.
	AnalyzeQuery(ctx context.Context, text string) (*types.QueryAnalysis, error)
	// Decompose breaks a topic into first-principle components.
	Decompose(ctx context.Context, topic, enrichment string, intent types.Intent, domain string) (*types.DecompositionResult, error)
	// Verify decomposes a single component in the context of its parent.
	Verify(ctx context.Context, componentName, parentContext string) (*types.DecompositionResult, error)
	// Elaborate fetches a long-form markdown explanation.
	Elaborate(ctx context.Context, topic, description string) (string, error)
	// GenerateChallengeQuestion produces one socratic question for the node.
	GenerateChallengeQuestion(ctx context.Context, topic, description string) (string, error)
	// GenerateIllustration returns PNG bytes for the topic, or (nil, nil)
	// when the engine does not produce images.
	GenerateIllustration(ctx context.Context, topic string) ([]byte, error)
	// Source tags every payload this engine produces.
	Source() types.DataSource
}

// Options configures engine construction.
type Options struct {
	APIKey     string
	Model      string
	ImageModel string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

// DetectAPIKey checks the conventional environment variables.
// Priority: GEMINI_API_KEY > GOOGLE_API_KEY.
func DetectAPIKey() string {
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// NewEngine returns the live Gemini engine when an API key is available, or
// the offline fallback otherwise. The fallback never attempts a network call.
func NewEngine(opts Options) Engine {
	if opts.APIKey == "" {
		opts.APIKey = DetectAPIKey()
	}
	if opts.APIKey == "" {
		logging.Boot("no API key configured, running on offline fallback data")
		return NewFallbackEngine()
	}
	logging.Boot("reasoning engine: gemini model=%s", opts.Model)
	return NewGeminiEngine(opts)
}
