package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sundaytable/internal/database"
	"sundaytable/internal/livesync"
	"sundaytable/internal/models"
	"sundaytable/internal/schedule"
	"sundaytable/internal/security"
	"sundaytable/internal/service"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type testApp struct {
	server *httptest.Server
	svc    *service.DinnerService
}

func newTestApp(t *testing.T, rateLimit int) *testApp {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), ""))

	hub := livesync.NewHub(16)
	svc := service.NewDinnerService(db, hub, service.DinnerOptions{
		WindowMonths: 1,
		Now:          func() time.Time { return testNow },
	})
	_, err = svc.EnsureConfig(context.Background(), models.DefaultFamilies, models.DefaultHostRotation)
	require.NoError(t, err)

	router := NewRouter(
		NewDinnerHandler(svc, service.NewSuggestionService(service.SuggestionConfig{})),
		NewEventsHandler(svc, 50*time.Millisecond),
		security.NewRateLimiter(rateLimit, time.Minute),
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testApp{server: server, svc: svc}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestHealthAndRequestID(t *testing.T) {
	app := newTestApp(t, 0)

	resp, body := app.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestToggleAndGetDinner(t *testing.T) {
	app := newTestApp(t, 0)

	resp, body := app.do(t, http.MethodPost, "/api/dinners/2025-03-09/availability/f2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var view models.DinnerView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, []string{"f2"}, view.Available)
	assert.Empty(t, view.Declined)
	assert.Nil(t, view.HostID)

	app.do(t, http.MethodPost, "/api/dinners/2025-03-09/availability/f2", nil)

	resp, body = app.do(t, http.MethodGet, "/api/dinners/2025-03-09", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Empty(t, view.Available)
	assert.Equal(t, []string{"f2"}, view.Declined)
	assert.Equal(t, int64(2), view.Version)
}

func TestValidationErrors(t *testing.T) {
	app := newTestApp(t, 0)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{name: "bad date", method: http.MethodGet, path: "/api/dinners/2025-02-30", status: http.StatusBadRequest},
		{name: "unknown family", method: http.MethodPost, path: "/api/dinners/2025-03-09/availability/f9", status: http.StatusBadRequest},
		{name: "rating too high", method: http.MethodPut, path: "/api/dinners/2025-03-09/meal-log", body: map[string]interface{}{"what": "Tacos", "rating": 6, "how": "cooked"}, status: http.StatusBadRequest},
		{name: "rating zero", method: http.MethodPut, path: "/api/dinners/2025-03-09/meal-log", body: map[string]interface{}{"what": "Tacos", "rating": 0, "how": "cooked"}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := app.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))

			var errBody errorResponse
			require.NoError(t, json.Unmarshal(body, &errBody))
			assert.NotEmpty(t, errBody.Error)
			assert.Nil(t, errBody.MaybeApplied)
		})
	}
}

func TestConfirmFlow(t *testing.T) {
	app := newTestApp(t, 0)

	resp, body := app.do(t, http.MethodPost, "/api/dinners/2025-03-02/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var confirmed confirmResponse
	require.NoError(t, json.Unmarshal(body, &confirmed))
	require.NotNil(t, confirmed.Dinner.HostID)
	assert.Equal(t, "f1", *confirmed.Dinner.HostID)
	assert.True(t, confirmed.Dinner.Confirmed)
	assert.Equal(t, 0, confirmed.Config.LastHostIndex)

	resp, _ = app.do(t, http.MethodPost, "/api/dinners/2025-03-02/confirm", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = app.do(t, http.MethodPost, "/api/dinners/2025-03-02/availability/f1", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = app.do(t, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cfg configResponse
	require.NoError(t, json.Unmarshal(body, &cfg))
	require.NotNil(t, cfg.NextHostID)
	assert.Equal(t, "f2", *cfg.NextHostID)

	resp, body = app.do(t, http.MethodPut, "/api/dinners/2025-03-02/meal-log",
		map[string]interface{}{"what": "Tacos", "rating": 3, "how": "cooked", "notes": "messy"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = app.do(t, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []historyEntry
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Host)
	assert.Equal(t, "Imran & Rachana", history[0].Host.Name)
	require.NotNil(t, history[0].MealLog)
	assert.Equal(t, "Tacos", history[0].MealLog.What)

	resp, body = app.do(t, http.MethodGet, "/api/families", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats []models.FamilyStats
	require.NoError(t, json.Unmarshal(body, &stats))
	require.Len(t, stats, 3)
	assert.Equal(t, 1, stats[0].HostedCount)
	assert.True(t, stats[1].IsNext)
}

func TestScheduleAndRank(t *testing.T) {
	app := newTestApp(t, 0)

	app.do(t, http.MethodPost, "/api/dinners/2025-03-16/availability/f1", nil)
	app.do(t, http.MethodPost, "/api/dinners/2025-03-16/availability/f3", nil)

	resp, body := app.do(t, http.MethodGet, "/api/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []scheduleEntry
	require.NoError(t, json.Unmarshal(body, &entries))
	require.Len(t, entries, 5)
	assert.Equal(t, models.DateKey("2025-03-02"), entries[0].Date)
	assert.InDelta(t, 2.0/3.0, entries[2].Score, 1e-9)

	resp, body = app.do(t, http.MethodGet, "/api/rank", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ranking service.Ranking
	require.NoError(t, json.Unmarshal(body, &ranking))
	require.NotNil(t, ranking.Best)
	assert.Equal(t, models.DateKey("2025-03-16"), ranking.Best.Date)
	assert.Len(t, ranking.Ranked, 5)
}

func TestSuggestionsFallBackToCurated(t *testing.T) {
	app := newTestApp(t, 0)

	resp, body := app.do(t, http.MethodGet, "/api/dinners/2025-03-02/suggestions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got suggestionsResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Empty(t, got.Meals)
	assert.NotEmpty(t, got.Notice)
	assert.Len(t, got.Curated, len(models.CuratedMeals))
}

func TestMealsFilter(t *testing.T) {
	app := newTestApp(t, 0)

	resp, body := app.do(t, http.MethodGet, "/api/meals?tag=crowd-pleaser", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got mealsResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.NotEmpty(t, got.Meals)
	for _, m := range got.Meals {
		assert.True(t, m.HasTag("crowd-pleaser"), m.Name)
	}

	_, body = app.do(t, http.MethodGet, "/api/meals", nil)
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Len(t, got.Meals, len(models.CuratedMeals))
}

func TestMutationsAreRateLimited(t *testing.T) {
	app := newTestApp(t, 2)

	for i := 0; i < 2; i++ {
		resp, _ := app.do(t, http.MethodPost, "/api/dinners/2025-03-02/availability/f1", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := app.do(t, http.MethodPost, "/api/dinners/2025-03-02/availability/f1", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	resp, _ = app.do(t, http.MethodGet, "/api/dinners/2025-03-02", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads are not limited")
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventStream(t *testing.T) {
	app := newTestApp(t, 0)
	_, err := app.svc.ToggleAvailability(context.Background(), "2025-03-02", "f1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, app.server.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	snap := readEvent(t, reader)
	require.Equal(t, "snapshot", snap.name)
	var snapshot snapshotPayload
	require.NoError(t, json.Unmarshal([]byte(snap.data), &snapshot))
	require.Len(t, snapshot.Dinners, 1)
	assert.Equal(t, []string{"f1"}, snapshot.Dinners[0].Available)

	_, _, err = app.svc.ConfirmDinner(context.Background(), "2025-03-02")
	require.NoError(t, err)

	change := readEvent(t, reader)
	require.Equal(t, "change", change.name)
	var payload changePayload
	require.NoError(t, json.Unmarshal([]byte(change.data), &payload))
	require.NotNil(t, payload.Config)
	require.NotNil(t, payload.Dinner)
	assert.Equal(t, 0, payload.Config.LastHostIndex)
	require.NotNil(t, payload.Dinner.HostID)
	assert.Equal(t, "f1", *payload.Dinner.HostID)
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		status       int
		maybeApplied *bool
	}{
		{name: "not applied", err: &service.StoreError{Op: "toggle", Outcome: service.NotApplied, Err: errors.New("disk")}, status: http.StatusServiceUnavailable, maybeApplied: boolPtr(false)},
		{name: "maybe applied", err: &service.StoreError{Op: "confirm", Outcome: service.Unknown, Err: database.ErrCommit}, status: http.StatusServiceUnavailable, maybeApplied: boolPtr(true)},
		{name: "already confirmed", err: &schedule.ValidationError{Field: "date", Message: "x", Err: schedule.ErrAlreadyConfirmed}, status: http.StatusConflict},
		{name: "other", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	var logs bytes.Buffer
	original := log.Writer()
	log.SetOutput(&logs)
	defer log.SetOutput(original)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/dinners/2025-03-02/confirm", nil)
			respondWithServiceError(rec, req, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.maybeApplied, body.MaybeApplied)
		})
	}
	assert.Contains(t, logs.String(), "boom")
}

func boolPtr(b bool) *bool { return &b }
