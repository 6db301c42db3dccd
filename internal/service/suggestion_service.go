package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sundaytable/internal/models"
)

const (
	maxSuggestions     = 4
	defaultSuggestURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion   = "2023-06-01"
	suggestionNotice   = "Couldn't load AI picks, showing curated classics instead."
	suggestionDisabled = "AI picks are not configured, showing curated classics instead."
)

var errNoSuggestionText = errors.New("response carried no text content")

// SuggestionConfig configures the meal suggestion endpoint
type SuggestionConfig struct {
	APIURL     string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// SuggestionRequest is the context handed to the suggestion service
type SuggestionRequest struct {
	HostName string
	Month    string
}

// Suggestions holds AI meal ideas. Notice is set whenever Meals is empty
// because the call was skipped or failed.
type Suggestions struct {
	Meals  []models.MealIdea `json:"meals"`
	Notice string            `json:"notice,omitempty"`
}

// SuggestionService asks a language model for dinner ideas. It never fails:
// any problem becomes an empty result with a notice.
type SuggestionService struct {
	cfg SuggestionConfig
}

// NewSuggestionService creates a suggestion service; without an API key it
// always returns the disabled notice
func NewSuggestionService(cfg SuggestionConfig) *SuggestionService {
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = defaultSuggestURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &SuggestionService{cfg: cfg}
}

// IsEnabled reports whether an API key is configured
func (s *SuggestionService) IsEnabled() bool {
	return s.cfg.APIKey != ""
}

// Suggest returns up to four meal ideas for the request
func (s *SuggestionService) Suggest(ctx context.Context, req SuggestionRequest) Suggestions {
	if !s.IsEnabled() {
		return Suggestions{Meals: []models.MealIdea{}, Notice: suggestionDisabled}
	}

	meals, err := s.fetch(ctx, req)
	if err != nil {
		log.Printf("Meal suggestions unavailable: %v", &ExternalServiceError{Service: "suggestions", Err: err})
		return Suggestions{Meals: []models.MealIdea{}, Notice: suggestionNotice}
	}
	return Suggestions{Meals: meals}
}

// SuggestForDinner builds the request from the dinner's host and month
func (s *SuggestionService) SuggestForDinner(ctx context.Context, cfg models.RotationConfig, dinner models.Dinner) Suggestions {
	req := SuggestionRequest{Month: dinner.Date.Time().Month().String()}
	if host, ok := cfg.FamilyByID(dinner.HostID); ok {
		req.HostName = host.Name
	}
	return s.Suggest(ctx, req)
}

func (s *SuggestionService) fetch(ctx context.Context, req SuggestionRequest) ([]models.MealIdea, error) {
	payload := map[string]any{
		"model":      s.cfg.Model,
		"max_tokens": 1200,
		"messages": []map[string]string{
			{"role": "user", "content": suggestionPrompt(req)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", s.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return parseSuggestions(raw)
}

func suggestionPrompt(req SuggestionRequest) string {
	host := strings.TrimSpace(req.HostName)
	if host == "" {
		host = "rotating"
	}
	return fmt.Sprintf(
		"Suggest %d Sunday dinner ideas for: 6 adults, 5 kids aged 1-6 (soft textures, mild, no choking hazards). "+
			"Season: %s. Host: %s.\n"+
			"Return ONLY a valid JSON array of %d objects, no markdown:\n"+
			`[{"name":"...","emoji":"...","desc":"...","kidTip":"...","prepTime":"...","difficulty":"Easy|Medium|Involved","tags":["..."]}]`,
		maxSuggestions, req.Month, host, maxSuggestions,
	)
}

// parseSuggestions extracts the text blocks of a messages response and
// decodes them as a JSON array of meal ideas
func parseSuggestions(raw []byte) ([]models.MealIdea, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("response is not JSON")
	}
	content := gjson.GetBytes(raw, "content")
	if !content.IsArray() {
		return nil, fmt.Errorf("response has no content array")
	}

	var text strings.Builder
	for _, block := range content.Array() {
		text.WriteString(block.Get("text").String())
	}
	cleaned := stripCodeFences(text.String())
	if cleaned == "" {
		return nil, errNoSuggestionText
	}

	var meals []models.MealIdea
	if err := json.Unmarshal([]byte(cleaned), &meals); err != nil {
		return nil, fmt.Errorf("decode meal ideas: %w", err)
	}
	if len(meals) > maxSuggestions {
		meals = meals[:maxSuggestions]
	}
	if meals == nil {
		meals = []models.MealIdea{}
	}
	return meals, nil
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
