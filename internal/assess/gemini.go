package assess

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/sitescout/internal/types"
	json "github.com/goccy/go-json"
)

const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultRegion         = "Shanghai"

	// maxResponseBytes caps how much of a provider response is read.
	maxResponseBytes = 1 << 20
)

// SystemInstruction frames the model as a commercial site analyst.
const SystemInstruction = `You are an expert urban planner and commercial analyst specializing in %s geography.
Analyze the given coordinates.
Return a JSON response evaluating the location for a new commercial park or retail center.
Estimate foot traffic, accessibility based on nearby metro/roads, and residential density.
Return strict JSON format.`

// GeminiConfig configures a GeminiProvider.
type GeminiConfig struct {
	APIKey   string
	Endpoint string // default: DefaultGeminiEndpoint
	Model    string // default: DefaultGeminiModel
	Region   string // default: DefaultRegion
	// HTTPClient defaults to a client with a 60s timeout.
	HTTPClient *http.Client
}

// GeminiProvider asks the Gemini generateContent API for a structured assessment.
type GeminiProvider struct {
	apiKey   string
	endpoint string
	model    string
	region   string
	client   *http.Client
}

// NewGeminiProvider creates a Gemini provider. It fails without an API key.
func NewGeminiProvider(cfg GeminiConfig) (*GeminiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini provider requires an API key")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultGeminiEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &GeminiProvider{
		apiKey:   cfg.APIKey,
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		region:   cfg.Region,
		client:   cfg.HTTPClient,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiSchema struct {
	Type        string                  `json:"type"`
	Description string                  `json:"description,omitempty"`
	Properties  map[string]geminiSchema `json:"properties,omitempty"`
	Required    []string                `json:"required,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string       `json:"responseMimeType"`
	ResponseSchema   geminiSchema `json:"responseSchema"`
}

type geminiRequest struct {
	SystemInstruction geminiContent          `json:"systemInstruction"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// assessmentSchema is the structured output schema: all six fields required.
var assessmentSchema = geminiSchema{
	Type: "OBJECT",
	Properties: map[string]geminiSchema{
		"trafficScore":       {Type: "NUMBER", Description: "Estimated foot traffic score 0-100"},
		"accessibilityScore": {Type: "NUMBER", Description: "Transport accessibility score 0-100"},
		"residentialDensity": {Type: "NUMBER", Description: "Surrounding residential density 0-100"},
		"commercialValue":    {Type: "NUMBER", Description: "Overall commercial potential 0-100"},
		"influenceRadius":    {Type: "NUMBER", Description: "Estimated primary influence radius in meters (e.g., 500-3000)"},
		"description":        {Type: "STRING", Description: "Short qualitative analysis (max 2 sentences)"},
	},
	Required: []string{"trafficScore", "accessibilityScore", "residentialDensity", "commercialValue", "influenceRadius", "description"},
}

// Assess implements Provider.
func (g *GeminiProvider) Assess(ctx context.Context, c types.Coordinate) (types.Assessment, error) {
	body, err := json.Marshal(g.buildRequest(c))
	if err != nil {
		return types.Assessment{}, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.endpoint, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.Assessment{}, fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return types.Assessment{}, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return types.Assessment{}, fmt.Errorf("failed to read gemini response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.Assessment{}, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var gr geminiResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return types.Assessment{}, fmt.Errorf("%w: failed to decode gemini response: %w", ErrInvalidPayload, err)
	}

	text := gr.text()
	if text == "" {
		return types.Assessment{}, fmt.Errorf("%w: %w", ErrInvalidPayload, ErrEmptyResponse)
	}

	return DecodeAssessment([]byte(text), types.SourceGemini)
}

func (g *GeminiProvider) buildRequest(c types.Coordinate) geminiRequest {
	prompt := fmt.Sprintf("Analyze the commercial viability of coordinate: %.6f, %.6f in %s.", c.Lat, c.Lng, g.region)

	return geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: fmt.Sprintf(SystemInstruction, g.region)}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   assessmentSchema,
		},
	}
}

// text joins the text parts of the first candidate.
func (r geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
