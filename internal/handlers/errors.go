package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"sundaytable/internal/schedule"
	"sundaytable/internal/service"
)

type errorResponse struct {
	Error        string `json:"error"`
	Field        string `json:"field,omitempty"`
	MaybeApplied *bool  `json:"maybe_applied,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps validation and store failures onto status codes
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *schedule.ValidationError
	if errors.As(err, &validation) {
		status := http.StatusBadRequest
		if errors.Is(err, schedule.ErrAlreadyConfirmed) || errors.Is(err, schedule.ErrDinnerConfirmed) {
			status = http.StatusConflict
		}
		respondJSON(w, status, errorResponse{Error: validation.Message, Field: validation.Field})
		return
	}

	var storeErr *service.StoreError
	if errors.As(err, &storeErr) {
		maybe := storeErr.MaybeApplied()
		log.Printf("[%s] %s %s: %v", RequestIDFromContext(r.Context()), r.Method, r.URL.Path, err)
		msg := "storage is unavailable, nothing was saved"
		if maybe {
			msg = "storage failed while saving; reload before retrying"
		}
		respondJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msg, MaybeApplied: &maybe})
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		respondWithError(w, http.StatusServiceUnavailable, "request cancelled", "", err)
		return
	}

	respondWithError(w, http.StatusInternalServerError, "internal server error", "", err)
}
