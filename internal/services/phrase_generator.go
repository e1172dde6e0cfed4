package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codyseavey/phrasebook/internal/metrics"
	"github.com/codyseavey/phrasebook/internal/models"
)

const (
	// MaxPhrasesPerRequest caps phrases kept from a multi-location generation
	MaxPhrasesPerRequest = 10
)

// generatedPhrase is the shape the provider is asked to return
type generatedPhrase struct {
	Language      string `json:"language"`
	Phrase        string `json:"phrase"`
	Translation   string `json:"translation"`
	Context       string `json:"context"`
	Pronunciation string `json:"pronunciation"`
	Region        string `json:"region"`
	Category      string `json:"category"`
}

// phraseListSchema enforces the structured JSON output from the provider
var phraseListSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"language":      map[string]interface{}{"type": "string"},
			"phrase":        map[string]interface{}{"type": "string"},
			"translation":   map[string]interface{}{"type": "string"},
			"context":       map[string]interface{}{"type": "string"},
			"pronunciation": map[string]interface{}{"type": "string"},
			"region":        map[string]interface{}{"type": "string"},
			"category":      map[string]interface{}{"type": "string"},
		},
		"required": []string{"language", "phrase", "translation", "context", "pronunciation"},
	},
}

const locationsPrompt = `You are a travel language assistant. The traveler has visited these places:
%s

TASK: Produce useful local-language phrases for these places.

For each phrase, provide:
1. The local language name in English (language)
2. The phrase in the local language, in its native script (phrase)
3. English translation (translation)
4. When a traveler would use it (context)
5. Pronunciation guide for English speakers (pronunciation)
6. The country or region it belongs to (region)
7. One of: "greeting", "dining", "directions", "shopping", "emergency", "culture" (category)

RULES:
- Return %d phrases at most, spread across the languages of the places above
- Prefer phrases tied to local customs over generic textbook phrases
- Do not repeat a phrase

Respond with a JSON array matching the schema.`

const countryPrompt = `You are a travel language assistant. The traveler is planning a trip to %s.

TASK: Produce 5-7 essential phrases in the main local language of %s.

For each phrase, provide language, phrase (native script), translation (English),
context (when to use it), pronunciation (for English speakers), region ("%s"),
and category ("greeting", "dining", "directions", "shopping", "emergency" or "culture").

Respond with a JSON array matching the schema.`

// PhraseGenerator turns visited places or a country into phrases via the content provider.
// Every provider call is gated by the request limiter.
type PhraseGenerator struct {
	provider   ContentGenerator
	limiter    *RequestLimiter
	clock      Clock
	maxPhrases int
}

// NewPhraseGenerator creates a generator. maxPhrases <= 0 uses MaxPhrasesPerRequest.
func NewPhraseGenerator(provider ContentGenerator, limiter *RequestLimiter, clock Clock, maxPhrases int) *PhraseGenerator {
	if maxPhrases <= 0 {
		maxPhrases = MaxPhrasesPerRequest
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &PhraseGenerator{
		provider:   provider,
		limiter:    limiter,
		clock:      clock,
		maxPhrases: maxPhrases,
	}
}

// LocationNames returns the distinct usable location names, in order
func LocationNames(places []models.VisitedPlace) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range places {
		name := p.LocationName()
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// GenerateForLocations generates phrases for the user's visited places, capped at maxPhrases.
// Returns an empty list without calling the provider when no place has a usable name.
func (g *PhraseGenerator) GenerateForLocations(ctx context.Context, places []models.VisitedPlace) ([]models.Phrase, error) {
	names := LocationNames(places)
	if len(names) == 0 {
		debugLog("No usable location names in %d places", len(places))
		return []models.Phrase{}, nil
	}

	var list strings.Builder
	for _, name := range names {
		list.WriteString("- ")
		list.WriteString(name)
		list.WriteString("\n")
	}

	prompt := fmt.Sprintf(locationsPrompt, strings.TrimRight(list.String(), "\n"), g.maxPhrases)
	phrases, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if len(phrases) > g.maxPhrases {
		phrases = phrases[:g.maxPhrases]
	}
	metrics.PhrasesGeneratedTotal.WithLabelValues("locations").Add(float64(len(phrases)))
	return phrases, nil
}

// GenerateForCountry generates phrases for a single country. The result is not capped.
func (g *PhraseGenerator) GenerateForCountry(ctx context.Context, country string) ([]models.Phrase, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return []models.Phrase{}, nil
	}

	phrases, err := g.generate(ctx, fmt.Sprintf(countryPrompt, country, country, country))
	if err != nil {
		return nil, err
	}

	metrics.PhrasesGeneratedTotal.WithLabelValues("country").Add(float64(len(phrases)))
	return phrases, nil
}

func (g *PhraseGenerator) generate(ctx context.Context, prompt string) ([]models.Phrase, error) {
	status := g.limiter.CheckRequestLimit(ctx)
	if !status.CanRequest {
		metrics.RequestLimitRejections.Inc()
		return nil, &LimitReachedError{NextAvailableTime: status.NextAvailableTime}
	}

	raw, err := g.provider.Generate(ctx, GenerationRequest{
		Prompt:         prompt,
		ResponseFormat: "json",
		Schema:         phraseListSchema,
	})
	if err != nil {
		infoLog("Phrase generation failed: %v", err)
		return nil, fmt.Errorf("phrase generation failed: %w", err)
	}

	// The request reached the provider, so it counts even if the payload is unusable.
	g.limiter.UpdateRequestCounter(ctx)

	phrases, err := g.normalize(raw)
	if err != nil {
		infoLog("Phrase generation returned unusable output: %v", err)
		return nil, err
	}
	return phrases, nil
}

// normalize converts provider output into Phrase records with synthetic ids.
// It accepts a bare array or an object with a "phrases" array.
func (g *PhraseGenerator) normalize(raw json.RawMessage) ([]models.Phrase, error) {
	var items []generatedPhrase
	if err := json.Unmarshal(raw, &items); err != nil {
		var wrapped struct {
			Phrases []generatedPhrase `json:"phrases"`
		}
		if wrapErr := json.Unmarshal(raw, &wrapped); wrapErr != nil {
			return nil, fmt.Errorf("failed to parse phrase response: %w", err)
		}
		items = wrapped.Phrases
	}

	now := g.clock.Now()
	phrases := make([]models.Phrase, 0, len(items))
	for _, item := range items {
		text := strings.TrimSpace(item.Phrase)
		if text == "" {
			continue
		}
		phrases = append(phrases, models.Phrase{
			ID:            fmt.Sprintf("phrase-%d-%d", now.UnixMilli(), len(phrases)),
			Language:      strings.TrimSpace(item.Language),
			PhraseText:    text,
			Translation:   strings.TrimSpace(item.Translation),
			UseContext:    strings.TrimSpace(item.Context),
			Pronunciation: strings.TrimSpace(item.Pronunciation),
			Region:        strings.TrimSpace(item.Region),
			Category:      strings.TrimSpace(item.Category),
			IsFavorite:    false,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	debugLog("Normalized %d of %d generated phrases", len(phrases), len(items))
	return phrases, nil
}
