package reasoning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrock/internal/types"
)

func TestFallbackAnalyzeQuery(t *testing.T) {
	f := NewFallbackEngine()

	analysis, err := f.AnalyzeQuery(context.Background(), "  how do magnets work  ")
	require.NoError(t, err)

	assert.Equal(t, "how do magnets work", analysis.CorrectedQuery)
	assert.Equal(t, types.IntentConcept, analysis.Intent)
	assert.Equal(t, "General", analysis.Domain)
	assert.False(t, analysis.IsAmbiguous)
	assert.Equal(t, types.DataSourceFallback, analysis.DataSource)
}

func TestFallbackDecomposeIsDeterministic(t *testing.T) {
	f := NewFallbackEngine()

	a, err := f.Decompose(context.Background(), "magnets", "", types.IntentConcept, "General")
	require.NoError(t, err)
	b, err := f.Decompose(context.Background(), "magnets", "", types.IntentConcept, "General")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, types.DataSourceFallback, a.DataSource)
	require.Len(t, a.Components, 3)

	// The canned set always includes one fundamental
	fundamentals := 0
	for _, c := range a.Components {
		if c.IsFundamental {
			fundamentals++
		}
	}
	assert.Equal(t, 1, fundamentals)
}

func TestFallbackVerifyMatchesDecomposeShape(t *testing.T) {
	f := NewFallbackEngine()

	result, err := f.Verify(context.Background(), "flux", "parent context")
	require.NoError(t, err)
	assert.Equal(t, types.DataSourceFallback, result.DataSource)
	assert.NotEmpty(t, result.Components)
	assert.Contains(t, result.CoreConcept, "flux")
}

func TestFallbackTextOperations(t *testing.T) {
	f := NewFallbackEngine()

	text, err := f.Elaborate(context.Background(), "magnets", "desc")
	require.NoError(t, err)
	assert.Contains(t, text, "magnets")

	q, err := f.GenerateChallengeQuestion(context.Background(), "magnets", "desc")
	require.NoError(t, err)
	assert.Contains(t, q, "magnets")
}

func TestFallbackIllustrationIsAbsent(t *testing.T) {
	f := NewFallbackEngine()

	img, err := f.GenerateIllustration(context.Background(), "magnets")
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestFallbackSource(t *testing.T) {
	assert.Equal(t, types.DataSourceFallback, NewFallbackEngine().Source())
}
