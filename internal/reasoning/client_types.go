package reasoning

// Wire types for the Gemini generateContent REST API. Only the fields this
// application reads or writes are declared.

// GeminiRequest is the request body for models/*:generateContent.
type GeminiRequest struct {
	Contents          []GeminiContent        `json:"contents"`
	SystemInstruction *GeminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  GeminiGenerationConfig `json:"generationConfig"`
	Tools             []GeminiTool           `json:"tools,omitempty"`
}

// GeminiContent is a role-tagged sequence of parts.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart carries one text fragment.
type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

// GeminiGenerationConfig controls sampling and structured output.
type GeminiGenerationConfig struct {
	Temperature      float64                `json:"temperature,omitempty"`
	MaxOutputTokens  int                    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseJsonSchema,omitempty"`
}

// GeminiTool enables built-in tools such as Google Search grounding.
type GeminiTool struct {
	GoogleSearch *GeminiGoogleSearch `json:"google_search,omitempty"`
}

// GeminiGoogleSearch is the (empty) Google Search grounding tool config.
type GeminiGoogleSearch struct{}

// GeminiResponse is the response body for generateContent.
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
	Error      *GeminiAPIError   `json:"error,omitempty"`
}

// GeminiCandidate is one generated completion.
type GeminiCandidate struct {
	Content           GeminiContent      `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

// GroundingMetadata carries the citations backing a grounded response.
type GroundingMetadata struct {
	GroundingChunks  []GroundingChunk `json:"groundingChunks,omitempty"`
	WebSearchQueries []string         `json:"webSearchQueries,omitempty"`
}

// GroundingChunk is a single citation chunk.
type GroundingChunk struct {
	Web *GroundingWeb `json:"web,omitempty"`
}

// GroundingWeb is a web citation with title and URI.
type GroundingWeb struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GeminiAPIError is the in-band error object some responses carry.
type GeminiAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
