package handlers

import (
	"net/http"

	"sundaytable/internal/security"
)

// NewRouter wires every route. Mutating routes go through the rate limiter.
func NewRouter(dinners *DinnerHandler, events *EventsHandler, limiter *security.RateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", dinners.Health)

	mux.HandleFunc("GET /api/config", dinners.GetConfig)
	mux.HandleFunc("GET /api/schedule", dinners.GetSchedule)
	mux.HandleFunc("GET /api/rank", dinners.GetRank)
	mux.HandleFunc("GET /api/families", dinners.GetFamilies)
	mux.HandleFunc("GET /api/history", dinners.GetHistory)
	mux.HandleFunc("GET /api/meals", dinners.GetMeals)

	mux.HandleFunc("GET /api/dinners/{date}", dinners.GetDinner)
	mux.HandleFunc("GET /api/dinners/{date}/suggestions", dinners.GetSuggestions)
	mux.HandleFunc("POST /api/dinners/{date}/availability/{familyID}", limiter.Limit(dinners.ToggleAvailability))
	mux.HandleFunc("POST /api/dinners/{date}/confirm", limiter.Limit(dinners.ConfirmDinner))
	mux.HandleFunc("PUT /api/dinners/{date}/meal-log", limiter.Limit(dinners.SaveMealLog))

	mux.HandleFunc("GET /api/events", events.Stream)

	return RequestID(Logging(mux))
}
