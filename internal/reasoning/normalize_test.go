package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrock/internal/types"
)

func TestCleanComponentsDedupeKeepsFirst(t *testing.T) {
	raw := []types.RawComponent{
		{Name: "Binary Encoding", Description: "first"},
		{Name: "  binary encoding ", Description: "duplicate, different case and padding"},
		{Name: "Voltage Levels", Description: "kept"},
	}

	clean := CleanComponents(raw, "SSD Storage")

	require.Len(t, clean, 2)
	assert.Equal(t, "Binary Encoding", clean[0].Name)
	assert.Equal(t, "first", clean[0].Description, "first occurrence wins")
	assert.Equal(t, "Voltage Levels", clean[1].Name)
}

func TestCleanComponentsDropsSelfReference(t *testing.T) {
	raw := []types.RawComponent{
		{Name: "ssd storage ", Description: "the topic itself"},
		{Name: "Flash Cells", Description: "ok"},
	}

	clean := CleanComponents(raw, "SSD Storage")

	require.Len(t, clean, 1)
	assert.Equal(t, "Flash Cells", clean[0].Name)
}

func TestCleanComponentsDropsBlankNames(t *testing.T) {
	raw := []types.RawComponent{
		{Name: "", Description: "nameless"},
		{Name: "   ", Description: "whitespace only"},
		{Name: "Real", Description: "ok"},
	}

	clean := CleanComponents(raw, "Topic")

	require.Len(t, clean, 1)
	assert.Equal(t, "Real", clean[0].Name)
}

func TestCleanComponentsPreservesOrderAndInput(t *testing.T) {
	raw := []types.RawComponent{
		{Name: "c"}, {Name: "a"}, {Name: "b"},
	}

	clean := CleanComponents(raw, "topic")

	require.Len(t, clean, 3)
	assert.Equal(t, "c", clean[0].Name)
	assert.Equal(t, "a", clean[1].Name)
	assert.Equal(t, "b", clean[2].Name)

	// Pure: the input slice is untouched
	assert.Equal(t, "c", raw[0].Name)
}

func TestCleanComponentsIdempotent(t *testing.T) {
	raw := []types.RawComponent{
		{Name: "One"}, {Name: "one"}, {Name: "Two"},
	}

	once := CleanComponents(raw, "topic")
	twice := CleanComponents(once, "topic")

	assert.Equal(t, once, twice)
}

func TestCleanComponentsEmpty(t *testing.T) {
	assert.Empty(t, CleanComponents(nil, "topic"))
	assert.Empty(t, CleanComponents([]types.RawComponent{}, "topic"))
}

func TestExtractSourcesSkipsIncompleteChunks(t *testing.T) {
	chunks := []GroundingChunk{
		{Web: &GroundingWeb{Title: "Full", URI: "https://a.example"}},
		{Web: &GroundingWeb{Title: "", URI: "https://no-title.example"}},
		{Web: &GroundingWeb{Title: "No URI", URI: ""}},
		{Web: nil},
		{Web: &GroundingWeb{Title: "Also Full", URI: "https://b.example"}},
	}

	sources := ExtractSources(chunks)

	require.Len(t, sources, 2)
	assert.Equal(t, types.Source{Title: "Full", URI: "https://a.example"}, sources[0])
	assert.Equal(t, types.Source{Title: "Also Full", URI: "https://b.example"}, sources[1])
}

func TestExtractSourcesEmpty(t *testing.T) {
	assert.Empty(t, ExtractSources(nil))
}
