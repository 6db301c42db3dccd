package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"sundaytable/internal/livesync"
	"sundaytable/internal/service"
)

const defaultHeartbeatInterval = 25 * time.Second

// EventsHandler streams live changes as server-sent events
type EventsHandler struct {
	dinners   *service.DinnerService
	heartbeat time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(dinners *service.DinnerService, heartbeat time.Duration) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}
	return &EventsHandler{dinners: dinners, heartbeat: heartbeat}
}

// Stream sends a "snapshot" event followed by a "change" event per commit.
// A "lagged" event tells the client it fell behind and must reconnect.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	sub, snap, err := h.dinners.Watch(ctx)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	defer sub.Close()
	view := livesync.NewView(snap)

	// streams outlive the server's write timeout
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Printf("Failed to clear write deadline: %v", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSE(w, rc, "snapshot", snap.Seq, newSnapshotPayload(snap)); err != nil {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case e, ok := <-sub.Events():
			if !ok {
				if sub.Lagged() {
					_ = writeSSE(w, rc, "lagged", 0, map[string]string{"reason": "subscriber fell behind"})
				}
				return
			}
			if !view.Apply(e) {
				continue
			}
			if err := writeSSE(w, rc, "change", e.Seq, newChangePayload(e)); err != nil {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, rc *http.ResponseController, event string, id uint64, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal SSE %s event: %v", event, err)
		return err
	}
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return rc.Flush()
}
