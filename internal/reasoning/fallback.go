package reasoning

import (
	"context"
	"fmt"
	"strings"

	"bedrock/internal/types"
)

// FallbackEngine serves canned decompositions when no API key is configured
// or the live engine is unreachable. Every payload is tagged FALLBACK so the
// UI can show the user they are looking at offline sample data. Deterministic
// and network-free.
type FallbackEngine struct{}

// NewFallbackEngine returns the offline engine.
func NewFallbackEngine() *FallbackEngine {
	return &FallbackEngine{}
}

// Source implements Engine.
func (f *FallbackEngine) Source() types.DataSource {
	return types.DataSourceFallback
}

// AnalyzeQuery implements Engine. The query is passed through trimmed; no
// correction or disambiguation happens offline.
func (f *FallbackEngine) AnalyzeQuery(_ context.Context, text string) (*types.QueryAnalysis, error) {
	query := strings.TrimSpace(text)
	return &types.QueryAnalysis{
		CorrectedQuery: query,
		Intent:         types.IntentConcept,
		Domain:         "General",
		IsAmbiguous:    false,
		Enrichment:     "Offline mode: decomposition uses generic sample structure.",
		DataSource:     types.DataSourceFallback,
	}, nil
}

// Decompose implements Engine.
func (f *FallbackEngine) Decompose(_ context.Context, topic, _ string, _ types.Intent, _ string) (*types.DecompositionResult, error) {
	return f.sampleDecomposition(topic), nil
}

// Verify implements Engine.
func (f *FallbackEngine) Verify(_ context.Context, componentName, _ string) (*types.DecompositionResult, error) {
	return f.sampleDecomposition(componentName), nil
}

func (f *FallbackEngine) sampleDecomposition(topic string) *types.DecompositionResult {
	return &types.DecompositionResult{
		CoreConcept: fmt.Sprintf("%s, reduced to the smallest set of truths it cannot work without.", topic),
		Analogy: fmt.Sprintf("Think of %s as a building: strip away the paint and the furniture "+
			"and what remains is the foundation it cannot stand without.", topic),
		WhyImportant: fmt.Sprintf("Understanding %s from first principles lets you rebuild it "+
			"from scratch instead of memorizing its surface.", topic),
		Components: []types.RawComponent{
			{
				Name:          fmt.Sprintf("Core mechanism of %s", topic),
				Description:   fmt.Sprintf("The primary process that makes %s do what it does.", topic),
				IsFundamental: false,
				Reasoning:     "A mechanism is a design choice and can be decomposed further.",
			},
			{
				Name:          fmt.Sprintf("Physical constraints on %s", topic),
				Description:   fmt.Sprintf("The limits imposed by physics or mathematics that %s must respect.", topic),
				IsFundamental: true,
				Reasoning:     "Constraints of nature are irreducible.",
			},
			{
				Name:          fmt.Sprintf("Conventions around %s", topic),
				Description:   fmt.Sprintf("The agreed-upon standards and interfaces %s relies on.", topic),
				IsFundamental: false,
				Reasoning:     "Conventions are human agreements, not truths.",
			},
		},
		Assumptions: []string{
			"Offline sample data: connect an API key for a real decomposition.",
		},
		DataSource: types.DataSourceFallback,
	}
}

// Elaborate implements Engine.
func (f *FallbackEngine) Elaborate(_ context.Context, topic, _ string) (string, error) {
	return fmt.Sprintf("## %s\n\nOffline mode: no detailed explanation is available without an "+
		"API key. Set `GEMINI_API_KEY` and restart to fetch a real elaboration.", topic), nil
}

// GenerateChallengeQuestion implements Engine.
func (f *FallbackEngine) GenerateChallengeQuestion(_ context.Context, topic, _ string) (string, error) {
	return fmt.Sprintf("If you had to rebuild %s from nothing, which single part would you have to get right first, and why?", topic), nil
}

// GenerateIllustration implements Engine. Offline mode produces no images.
func (f *FallbackEngine) GenerateIllustration(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}
