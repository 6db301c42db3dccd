package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sundaytable/internal/models"
	"sundaytable/internal/schedule"
	"sundaytable/internal/service"
)

// DinnerHandler serves the dinner planning JSON API
type DinnerHandler struct {
	dinners     *service.DinnerService
	suggestions *service.SuggestionService
}

// NewDinnerHandler creates a new dinner handler
func NewDinnerHandler(dinners *service.DinnerService, suggestions *service.SuggestionService) *DinnerHandler {
	return &DinnerHandler{dinners: dinners, suggestions: suggestions}
}

// Health reports liveness
func (h *DinnerHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetConfig returns the families, rotation and the next host
func (h *DinnerHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.dinners.Config(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	resp := configResponse{RotationConfig: cfg}
	if next, err := schedule.NextHost(cfg); err == nil {
		resp.NextHostID = &next
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetSchedule lists every upcoming Sunday with its availability
func (h *DinnerHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.dinners.Config(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	dinners, err := h.dinners.Schedule(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	entries := make([]scheduleEntry, 0, len(dinners))
	for _, d := range dinners {
		entries = append(entries, scheduleEntry{DinnerView: d.View(), Score: attendanceScore(d, len(cfg.Families))})
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetRank returns unconfirmed upcoming Sundays ordered by attendance
func (h *DinnerHandler) GetRank(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.dinners.Rank(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	if ranking.Ranked == nil {
		ranking.Ranked = []schedule.Ranked{}
	}
	respondJSON(w, http.StatusOK, ranking)
}

// GetDinner returns one dinner; unknown dates return the defaults
func (h *DinnerHandler) GetDinner(w http.ResponseWriter, r *http.Request) {
	date, err := schedule.ParseDate(r.PathValue("date"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	d, err := h.dinners.Dinner(r.Context(), date)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d.View())
}

// ToggleAvailability advances one family's response for the date
func (h *DinnerHandler) ToggleAvailability(w http.ResponseWriter, r *http.Request) {
	date, err := schedule.ParseDate(r.PathValue("date"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	d, err := h.dinners.ToggleAvailability(r.Context(), date, r.PathValue("familyID"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d.View())
}

// ConfirmDinner confirms the date and assigns the next host
func (h *DinnerHandler) ConfirmDinner(w http.ResponseWriter, r *http.Request) {
	date, err := schedule.ParseDate(r.PathValue("date"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	d, cfg, err := h.dinners.ConfirmDinner(r.Context(), date)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, confirmResponse{Dinner: d.View(), Config: cfg})
}

type mealLogRequest struct {
	What   string `json:"what"`
	Recipe string `json:"recipe"`
	Notes  string `json:"notes"`
	Rating int    `json:"rating"`
	How    string `json:"how"`
}

// SaveMealLog replaces the meal log for the date
func (h *DinnerHandler) SaveMealLog(w http.ResponseWriter, r *http.Request) {
	date, err := schedule.ParseDate(r.PathValue("date"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	var req mealLogRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON body", "", nil)
		return
	}

	d, err := h.dinners.SaveMealLog(r.Context(), date, models.MealLog{
		What:   req.What,
		Recipe: req.Recipe,
		Notes:  req.Notes,
		Rating: req.Rating,
		How:    req.How,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, d.View())
}

// GetSuggestions asks for AI meal ideas and always includes the curated list
func (h *DinnerHandler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	date, err := schedule.ParseDate(r.PathValue("date"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	cfg, err := h.dinners.Config(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	d, err := h.dinners.Dinner(r.Context(), date)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	ideas := h.suggestions.SuggestForDinner(r.Context(), cfg, d)
	respondJSON(w, http.StatusOK, suggestionsResponse{
		Date:    date,
		Meals:   ideas.Meals,
		Notice:  ideas.Notice,
		Curated: models.CuratedMeals,
	})
}

// GetFamilies returns each family's hosting stats
func (h *DinnerHandler) GetFamilies(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dinners.FamilyStats(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetHistory lists confirmed dinners, newest first
func (h *DinnerHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.dinners.Config(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	dinners, err := h.dinners.History(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	entries := make([]historyEntry, 0, len(dinners))
	for _, d := range dinners {
		entries = append(entries, newHistoryEntry(cfg, d))
	}
	respondJSON(w, http.StatusOK, entries)
}

// GetMeals returns the curated meals, optionally filtered by ?tag=
func (h *DinnerHandler) GetMeals(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	meals := models.FilterMeals(models.CuratedMeals, tag)
	if meals == nil {
		meals = []models.MealIdea{}
	}
	respondJSON(w, http.StatusOK, mealsResponse{Tag: tag, Meals: meals})
}
