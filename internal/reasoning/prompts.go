package reasoning

import "fmt"

const systemPrompt = "You are bedrock, a first-principles tutor. Decompose topics into their " +
	"irreducible fundamentals and the design choices built on top of them. Respond in English. " +
	"When a JSON schema is given, output ONLY a JSON object matching it."

func analyzePrompt(text string) string {
	return fmt.Sprintf(`Analyze this learning query and interpret the user's intent.

Query: %q

Correct obvious typos. Classify the intent as CONCEPT (understand a thing),
PROBLEM (solve something), COMPARE (contrast alternatives) or WHY (causal
explanation). Detect the knowledge domain. If the query is ambiguous, set
is_ambiguous and list 2-4 disambiguation options the user can pick from.
Provide one sentence of enrichment guidance for the decomposition step and
predict up to 5 related topics.`, text)
}

func decomposePrompt(topic, enrichment string, intent, domain string) string {
	return fmt.Sprintf(`Decompose the topic %q into its components from first principles.

Intent: %s
Domain: %s
Guidance: %s

For every component decide whether it is a FUNDAMENTAL (an irreducible
physical, mathematical or logical truth) or a design choice that can be
decomposed further, and explain the reasoning. Give the topic's core concept,
a vivid analogy, why it matters, and list the implicit assumptions and
conventions the topic rests on. Do not list the topic itself as a component.`,
		topic, intent, domain, enrichment)
}

func verifyPrompt(componentName, parentContext string) string {
	return fmt.Sprintf(`Decompose the component %q further.

Parent context: %s

Apply the same rules as a top-level decomposition: classify each child as
fundamental or decomposable, surface newly discovered assumptions, and never
list %q itself as one of its own components.`, componentName, parentContext, componentName)
}

func elaboratePrompt(topic, description string) string {
	return fmt.Sprintf(`Write a detailed explanation of %q for a motivated learner.

Context: %s

Use markdown. Cover how it works, why it is designed this way, and one
common misconception. Keep it under 400 words.`, topic, description)
}

func questionPrompt(topic, description string) string {
	return fmt.Sprintf(`Pose one socratic question that tests whether a learner truly
understands %q (context: %s). Return only the question text, no preamble.`,
		topic, description)
}

// Response schemas, enforced via generationConfig.responseJsonSchema.

func analyzeSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"corrected_query":   map[string]interface{}{"type": "string"},
			"intent":            map[string]interface{}{"type": "string", "enum": []string{"CONCEPT", "PROBLEM", "COMPARE", "WHY"}},
			"domain":            map[string]interface{}{"type": "string"},
			"is_ambiguous":      map[string]interface{}{"type": "boolean"},
			"ambiguity_options": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"enrichment":        map[string]interface{}{"type": "string"},
			"predicted_topics":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"corrected_query", "intent", "domain", "is_ambiguous", "enrichment"},
	}
}

func decomposeSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"core_concept":  map[string]interface{}{"type": "string"},
			"analogy":       map[string]interface{}{"type": "string"},
			"why_important": map[string]interface{}{"type": "string"},
			"components": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"name":           map[string]interface{}{"type": "string"},
						"description":    map[string]interface{}{"type": "string"},
						"is_fundamental": map[string]interface{}{"type": "boolean"},
						"reasoning":      map[string]interface{}{"type": "string"},
					},
					"required": []string{"name", "description", "is_fundamental"},
				},
			},
			"assumptions": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		},
		"required": []string{"core_concept", "analogy", "why_important", "components"},
	}
}
