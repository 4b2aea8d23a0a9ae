package reasoning

import (
	"bedrock/internal/types"
)

// CleanComponents filters a raw component list before it becomes tree nodes:
//   - components with blank names are dropped,
//   - the first occurrence of a name wins (case-insensitive, trimmed),
//   - a component naming the current topic is dropped (a decomposition must
//     not list the parent as its own child),
//   - surviving components keep their input order.
//
// Pure function; the input slice is not modified.
func CleanComponents(raw []types.RawComponent, currentTopicName string) []types.RawComponent {
	topic := types.NormalizeName(currentTopicName)
	seen := make(map[string]struct{}, len(raw))

	clean := make([]types.RawComponent, 0, len(raw))
	for _, c := range raw {
		name := types.NormalizeName(c.Name)
		if name == "" {
			continue
		}
		if name == topic {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		clean = append(clean, c)
	}
	return clean
}

// ExtractSources converts grounding chunks into citation pairs. Chunks missing
// either a title or a URI are skipped silently; order follows the input and
// duplicates are kept.
func ExtractSources(chunks []GroundingChunk) []types.Source {
	var sources []types.Source
	for _, chunk := range chunks {
		if chunk.Web == nil {
			continue
		}
		if chunk.Web.Title == "" || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, types.Source{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return sources
}
