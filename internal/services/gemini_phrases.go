package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/codyseavey/phrasebook/internal/config"
	"github.com/codyseavey/phrasebook/internal/metrics"
)

const (
	defaultGeminiModel   = "gemini-3-flash-preview"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiTimeout = 30 * time.Second
)

// GenerationRequest is a prompt for the generative content provider
type GenerationRequest struct {
	Prompt         string
	ResponseFormat string                 // "json" requests structured output
	Schema         map[string]interface{} // optional JSON schema for the response
}

// ContentGenerator produces content from a prompt.
// For ResponseFormat "json" the returned message is the provider's JSON document.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (json.RawMessage, error)
}

// GeminiPhraseService calls the Gemini generateContent REST API
type GeminiPhraseService struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	enabled    bool
}

// geminiRequest is the request body for Gemini API
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	ResponseMimeType   string                 `json:"responseMimeType,omitempty"`
	ResponseJSONSchema map[string]interface{} `json:"responseJsonSchema,omitempty"`
	Temperature        float64                `json:"temperature"`
	MaxOutputTokens    int                    `json:"maxOutputTokens"`
}

// geminiAPIResponse is the response from Gemini API
type geminiAPIResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGeminiPhraseService creates a Gemini provider from configuration.
// Without an API key the service is disabled and Generate returns ErrProviderDisabled.
func NewGeminiPhraseService(cfg config.GeminiConfig) *GeminiPhraseService {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGeminiTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	svc := &GeminiPhraseService{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		enabled:    cfg.APIKey != "",
	}

	if svc.enabled {
		// Only show first 10 chars of key for security
		keyPreview := cfg.APIKey
		if len(keyPreview) > 10 {
			keyPreview = keyPreview[:10] + "..."
		}
		infoLog("Gemini phrase provider: enabled (model=%s, key=%s)", model, keyPreview)
	} else {
		infoLog("Gemini phrase provider: disabled (no GOOGLE_API_KEY)")
	}

	return svc
}

// IsEnabled returns whether Gemini is configured
func (s *GeminiPhraseService) IsEnabled() bool {
	return s.enabled
}

// Generate sends the prompt to Gemini and returns the model's text output.
// For JSON requests the output is validated as JSON before it is returned.
func (s *GeminiPhraseService) Generate(ctx context.Context, genReq GenerationRequest) (json.RawMessage, error) {
	if !s.enabled {
		return nil, ErrProviderDisabled
	}
	if genReq.Prompt == "" {
		return nil, fmt.Errorf("empty prompt")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	startTime := time.Now()

	req := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: genReq.Prompt}}},
		},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.7, // some variety between refreshes
			MaxOutputTokens: 4096,
		},
	}
	if genReq.ResponseFormat == "json" {
		req.GenerationConfig.ResponseMimeType = "application/json"
		req.GenerationConfig.ResponseJSONSchema = genReq.Schema
	}

	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	debugLog("Gemini request: model=%s, prompt=%q", s.model, truncateText(genReq.Prompt, 80))

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues("network").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	latency := time.Since(startTime)
	metrics.GeminiAPILatency.Observe(latency.Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.GeminiErrorsTotal.WithLabelValues("api").Inc()
		debugLog("Gemini API error: status=%d body=%s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncateText(string(body), 200))
	}

	var apiResp geminiAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		metrics.GeminiErrorsTotal.WithLabelValues("parse").Inc()
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}

	if apiResp.Error != nil {
		metrics.GeminiErrorsTotal.WithLabelValues("api").Inc()
		return nil, fmt.Errorf("API error %d: %s", apiResp.Error.Code, apiResp.Error.Message)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		metrics.GeminiErrorsTotal.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("no response from Gemini")
	}

	text := apiResp.Candidates[0].Content.Parts[0].Text
	if genReq.ResponseFormat == "json" && !json.Valid([]byte(text)) {
		metrics.GeminiErrorsTotal.WithLabelValues("schema").Inc()
		debugLog("Gemini returned invalid JSON: %s", truncateText(text, 200))
		return nil, fmt.Errorf("Gemini returned invalid JSON")
	}

	metrics.GeminiRequestsTotal.Inc()
	infoLog("Gemini generated %d bytes (latency=%v)", len(text), latency)

	return json.RawMessage(text), nil
}
