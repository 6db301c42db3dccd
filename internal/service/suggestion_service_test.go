package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sundaytable/internal/models"
)

func messagesResponse(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":   "msg_1",
		"type": "message",
		"content": []map[string]string{
			{"type": "text", "text": text},
		},
	})
	return string(b)
}

const fourMeals = `[
 {"name":"Shepherd's Pie","emoji":"🥧","desc":"Mince and mash","kidTip":"Mash on top","prepTime":"1 hr","difficulty":"Medium","tags":["comfort"]},
 {"name":"Pasta Bake","emoji":"🍝","desc":"Cheesy","kidTip":"Small shapes","prepTime":"40 min","difficulty":"Easy","tags":["kid-favourite"]},
 {"name":"Fish Pie","emoji":"🐟","desc":"Creamy","kidTip":"Check bones","prepTime":"1 hr","difficulty":"Medium","tags":["seafood"]},
 {"name":"Dal","emoji":"🍛","desc":"Mild lentils","kidTip":"With rice","prepTime":"30 min","difficulty":"Easy","tags":["vegetarian"]},
 {"name":"Extra","emoji":"➕","desc":"Fifth","kidTip":"-","prepTime":"-","difficulty":"Easy","tags":[]}
]`

func TestSuggestParsesFencedResponse(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = io.WriteString(w, messagesResponse("```json\n"+fourMeals+"\n```"))
	}))
	defer server.Close()

	svc := NewSuggestionService(SuggestionConfig{APIURL: server.URL, APIKey: "test-key", Model: "test-model"})
	got := svc.Suggest(context.Background(), SuggestionRequest{HostName: "Rahul & Leena", Month: "March"})

	assert.Empty(t, got.Notice)
	require.Len(t, got.Meals, 4)
	assert.Equal(t, "Shepherd's Pie", got.Meals[0].Name)
	assert.Equal(t, "Mash on top", got.Meals[0].KidTip)
	assert.Equal(t, []string{"vegetarian"}, got.Meals[3].Tags)

	assert.Equal(t, "test-model", gotBody["model"])
	messages := gotBody["messages"].([]any)
	prompt := messages[0].(map[string]any)["content"].(string)
	assert.Contains(t, prompt, "Season: March")
	assert.Contains(t, prompt, "Host: Rahul & Leena")
}

func TestSuggestDefaultsHostToRotating(t *testing.T) {
	prompt := suggestionPrompt(SuggestionRequest{Month: "July"})
	assert.Contains(t, prompt, "Host: rotating")
}

func TestSuggestForDinnerUsesHostAndMonth(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		prompt = body.Messages[0].Content
		_, _ = io.WriteString(w, messagesResponse("[]"))
	}))
	defer server.Close()

	svc := NewSuggestionService(SuggestionConfig{APIURL: server.URL, APIKey: "k"})
	cfg := models.NewRotationConfig(models.DefaultFamilies, models.DefaultHostRotation)
	dinner := models.NewDinner("2025-12-07")
	dinner.HostID = "f3"

	got := svc.SuggestForDinner(context.Background(), cfg, dinner)
	assert.Empty(t, got.Notice)
	assert.Empty(t, got.Meals)
	assert.Contains(t, prompt, "Season: December")
	assert.Contains(t, prompt, "Host: Iqbal & Zarpheen")
}

func TestSuggestFailuresBecomeNotice(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		timeout time.Duration
		sleep   time.Duration
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "not json", status: http.StatusOK, body: "<html>oops</html>"},
		{name: "no content array", status: http.StatusOK, body: `{"id":"msg"}`},
		{name: "text is not json", status: http.StatusOK, body: messagesResponse("Here are some ideas: tacos!")},
		{name: "wrong shape", status: http.StatusOK, body: messagesResponse(`{"name":"Tacos"}`)},
		{name: "empty text", status: http.StatusOK, body: messagesResponse("```json```")},
		{name: "timeout", status: http.StatusOK, body: messagesResponse("[]"), timeout: 20 * time.Millisecond, sleep: 200 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.sleep > 0 {
					select {
					case <-time.After(tt.sleep):
					case <-r.Context().Done():
						return
					}
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			svc := NewSuggestionService(SuggestionConfig{APIURL: server.URL, APIKey: "k", Timeout: tt.timeout})
			got := svc.Suggest(context.Background(), SuggestionRequest{Month: "May"})

			assert.Empty(t, got.Meals)
			assert.NotNil(t, got.Meals)
			assert.Equal(t, suggestionNotice, got.Notice)
		})
	}
}

func TestSuggestDisabledWithoutKey(t *testing.T) {
	svc := NewSuggestionService(SuggestionConfig{})
	assert.False(t, svc.IsEnabled())

	got := svc.Suggest(context.Background(), SuggestionRequest{Month: "May"})
	assert.Empty(t, got.Meals)
	assert.Equal(t, suggestionDisabled, got.Notice)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "[1]", stripCodeFences("```json\n[1]\n```"))
	assert.Equal(t, "[1]", stripCodeFences("  [1]  "))
	assert.Equal(t, "", stripCodeFences("``````"))
}
