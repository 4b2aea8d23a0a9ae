package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"bedrock/internal/logging"
	"bedrock/internal/types"
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel      = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.5-flash-image"
	defaultTimeout    = 2 * time.Minute

	// Minimum gap between consecutive requests to the same endpoint.
	minRequestInterval = 100 * time.Millisecond
)

// GeminiEngine implements Engine against the Gemini generateContent REST API.
// Text operations enforce structured output via responseJsonSchema and enable
// Google Search grounding; illustrations go through the genai SDK.
type GeminiEngine struct {
	apiKey     string
	baseURL    string
	model      string
	imageModel string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration

	mu          sync.Mutex
	lastRequest time.Time

	imageOnce   sync.Once
	imageClient *genai.Client
	imageErr    error
}

// NewGeminiEngine creates a Gemini-backed engine. Zero-valued Options fields
// get defaults.
func NewGeminiEngine(opts Options) *GeminiEngine {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.ImageModel == "" {
		opts.ImageModel = defaultImageModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	return &GeminiEngine{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      opts.Model,
		imageModel: opts.ImageModel,
		httpClient: &http.Client{Timeout: opts.Timeout},
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
	}
}

// Source implements Engine.
func (e *GeminiEngine) Source() types.DataSource {
	return types.DataSourceAI
}

// throttle enforces the minimum gap between requests.
func (e *GeminiEngine) throttle() {
	e.mu.Lock()
	elapsed := time.Since(e.lastRequest)
	if elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	e.lastRequest = time.Now()
	e.mu.Unlock()
}

// generateResult is one parsed completion: concatenated text plus any web
// citations the model grounded it on.
type generateResult struct {
	text    string
	sources []types.Source
}

// generate runs one generateContent exchange with retry on 429/503. When
// schema is non-nil the response is forced to JSON matching it.
func (e *GeminiEngine) generate(ctx context.Context, system, user string, schema map[string]interface{}) (generateResult, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.httpClient.Timeout)
		defer cancel()
	}

	reqBody := GeminiRequest{
		Contents: []GeminiContent{
			{
				Role:  "user",
				Parts: []GeminiPart{{Text: user}},
			},
		},
		SystemInstruction: &GeminiContent{
			Parts: []GeminiPart{{Text: system}},
		},
		GenerationConfig: GeminiGenerationConfig{
			Temperature: 1.0,
		},
		Tools: []GeminiTool{{GoogleSearch: &GeminiGoogleSearch{}}},
	}
	if schema != nil {
		reqBody.GenerationConfig.ResponseMimeType = "application/json"
		reqBody.GenerationConfig.ResponseSchema = schema
		// Gemini cannot combine built-in tools with enforced schemas on all
		// model versions; grounding stays on and the schema wins on conflict.
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return generateResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", e.baseURL, e.model, e.apiKey)
	start := time.Now()

	out, err := CallWithRetry(ctx, func(ctx context.Context) (generateResult, error) {
		return e.doGenerate(ctx, url, jsonData)
	}, e.maxRetries, e.baseDelay)
	if err != nil {
		logging.APIError("generateContent failed after %v: %v", time.Since(start), err)
		return generateResult{}, err
	}

	logging.API("generateContent completed in %v response_len=%d sources=%d",
		time.Since(start), len(out.text), len(out.sources))
	return out, nil
}

// doGenerate is a single attempt; CallWithRetry decides whether to repeat it.
func (e *GeminiEngine) doGenerate(ctx context.Context, url string, jsonData []byte) (generateResult, error) {
	e.throttle()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return generateResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return generateResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return generateResult{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return generateResult{}, &APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var geminiResp GeminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return generateResult{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if geminiResp.Error != nil {
		return generateResult{}, fmt.Errorf("API error: %s", geminiResp.Error.Message)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return generateResult{}, fmt.Errorf("no completion returned")
	}

	var text strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	var sources []types.Source
	if gm := geminiResp.Candidates[0].GroundingMetadata; gm != nil {
		sources = ExtractSources(gm.GroundingChunks)
		if len(sources) > 0 {
			logging.APIDebug("grounding sources=%d queries=%v", len(sources), gm.WebSearchQueries)
		}
	}

	return generateResult{
		text:    strings.TrimSpace(text.String()),
		sources: sources,
	}, nil
}

// generateJSON runs a schema-constrained exchange and unmarshals the reply.
func (e *GeminiEngine) generateJSON(ctx context.Context, user string, schema map[string]interface{}, out interface{}) ([]types.Source, error) {
	res, err := e.generate(ctx, systemPrompt, user, schema)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(stripCodeFence(res.text)), out); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}
	return res.sources, nil
}

// stripCodeFence removes a ```json wrapper some models emit despite the
// enforced mime type.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// analyzePayload mirrors analyzeSchema.
type analyzePayload struct {
	CorrectedQuery   string   `json:"corrected_query"`
	Intent           string   `json:"intent"`
	Domain           string   `json:"domain"`
	IsAmbiguous      bool     `json:"is_ambiguous"`
	AmbiguityOptions []string `json:"ambiguity_options"`
	Enrichment       string   `json:"enrichment"`
	PredictedTopics  []string `json:"predicted_topics"`
}

// decomposePayload mirrors decomposeSchema.
type decomposePayload struct {
	CoreConcept  string `json:"core_concept"`
	Analogy      string `json:"analogy"`
	WhyImportant string `json:"why_important"`
	Components   []struct {
		Name          string `json:"name"`
		Description   string `json:"description"`
		IsFundamental bool   `json:"is_fundamental"`
		Reasoning     string `json:"reasoning"`
	} `json:"components"`
	Assumptions []string `json:"assumptions"`
}

func (p *decomposePayload) toResult(sources []types.Source) *types.DecompositionResult {
	result := &types.DecompositionResult{
		CoreConcept:  p.CoreConcept,
		Analogy:      p.Analogy,
		WhyImportant: p.WhyImportant,
		Assumptions:  p.Assumptions,
		Sources:      sources,
		DataSource:   types.DataSourceAI,
	}
	for _, c := range p.Components {
		result.Components = append(result.Components, types.RawComponent{
			Name:          c.Name,
			Description:   c.Description,
			IsFundamental: c.IsFundamental,
			Reasoning:     c.Reasoning,
		})
	}
	return result
}

// AnalyzeQuery implements Engine.
func (e *GeminiEngine) AnalyzeQuery(ctx context.Context, text string) (*types.QueryAnalysis, error) {
	logging.APIDebug("AnalyzeQuery: query_len=%d", len(text))

	var payload analyzePayload
	if _, err := e.generateJSON(ctx, analyzePrompt(text), analyzeSchema(), &payload); err != nil {
		return nil, err
	}

	analysis := &types.QueryAnalysis{
		CorrectedQuery:   strings.TrimSpace(payload.CorrectedQuery),
		Intent:           types.Intent(payload.Intent),
		Domain:           payload.Domain,
		IsAmbiguous:      payload.IsAmbiguous,
		AmbiguityOptions: payload.AmbiguityOptions,
		Enrichment:       payload.Enrichment,
		PredictedTopics:  payload.PredictedTopics,
		DataSource:       types.DataSourceAI,
	}
	if analysis.CorrectedQuery == "" {
		analysis.CorrectedQuery = strings.TrimSpace(text)
	}
	return analysis, nil
}

// Decompose implements Engine.
func (e *GeminiEngine) Decompose(ctx context.Context, topic, enrichment string, intent types.Intent, domain string) (*types.DecompositionResult, error) {
	logging.APIDebug("Decompose: topic=%q intent=%s domain=%s", topic, intent, domain)

	var payload decomposePayload
	sources, err := e.generateJSON(ctx, decomposePrompt(topic, enrichment, string(intent), domain), decomposeSchema(), &payload)
	if err != nil {
		return nil, err
	}
	return payload.toResult(sources), nil
}

// Verify implements Engine.
func (e *GeminiEngine) Verify(ctx context.Context, componentName, parentContext string) (*types.DecompositionResult, error) {
	logging.APIDebug("Verify: component=%q", componentName)

	var payload decomposePayload
	sources, err := e.generateJSON(ctx, verifyPrompt(componentName, parentContext), decomposeSchema(), &payload)
	if err != nil {
		return nil, err
	}
	return payload.toResult(sources), nil
}

// Elaborate implements Engine.
func (e *GeminiEngine) Elaborate(ctx context.Context, topic, description string) (string, error) {
	logging.APIDebug("Elaborate: topic=%q", topic)

	res, err := e.generate(ctx, systemPrompt, elaboratePrompt(topic, description), nil)
	if err != nil {
		return "", err
	}
	return res.text, nil
}

// GenerateChallengeQuestion implements Engine.
func (e *GeminiEngine) GenerateChallengeQuestion(ctx context.Context, topic, description string) (string, error) {
	logging.APIDebug("GenerateChallengeQuestion: topic=%q", topic)

	res, err := e.generate(ctx, systemPrompt, questionPrompt(topic, description), nil)
	if err != nil {
		return "", err
	}
	return res.text, nil
}

// imageSDK lazily constructs the genai client so text-only use (and tests
// against an httptest server) never touch the SDK.
func (e *GeminiEngine) imageSDK(ctx context.Context) (*genai.Client, error) {
	e.imageOnce.Do(func() {
		e.imageClient, e.imageErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: e.apiKey,
		})
	})
	return e.imageClient, e.imageErr
}

// GenerateIllustration implements Engine. Failures here are expected to be
// tolerated by callers; the decomposition it accompanies stands on its own.
func (e *GeminiEngine) GenerateIllustration(ctx context.Context, topic string) ([]byte, error) {
	client, err := e.imageSDK(ctx)
	if err != nil {
		return nil, fmt.Errorf("image client init failed: %w", err)
	}

	prompt := fmt.Sprintf("A clean minimalist diagram illustrating the concept of %q. "+
		"Flat colors, no text labels.", topic)

	resp, err := client.Models.GenerateContent(ctx, e.imageModel,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				logging.API("GenerateIllustration: topic=%q bytes=%d", topic, len(part.InlineData.Data))
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, nil
}
