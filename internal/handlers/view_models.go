package handlers

import (
	"sundaytable/internal/livesync"
	"sundaytable/internal/models"
)

type configResponse struct {
	models.RotationConfig
	NextHostID *string `json:"nextHostId"`
}

type scheduleEntry struct {
	models.DinnerView
	Score float64 `json:"score"`
}

type confirmResponse struct {
	Dinner models.DinnerView     `json:"dinner"`
	Config models.RotationConfig `json:"config"`
}

type historyEntry struct {
	models.DinnerView
	Host      *models.Family  `json:"host"`
	Attendees []models.Family `json:"attendees"`
}

type suggestionsResponse struct {
	Date    models.DateKey    `json:"date"`
	Meals   []models.MealIdea `json:"meals"`
	Notice  string            `json:"notice,omitempty"`
	Curated []models.MealIdea `json:"curated"`
}

type mealsResponse struct {
	Tag   string            `json:"tag"`
	Meals []models.MealIdea `json:"meals"`
}

type snapshotPayload struct {
	Seq     uint64                `json:"seq"`
	Config  models.RotationConfig `json:"config"`
	Dinners []models.DinnerView   `json:"dinners"`
}

type changePayload struct {
	Seq    uint64                 `json:"seq"`
	Config *models.RotationConfig `json:"config,omitempty"`
	Dinner *models.DinnerView     `json:"dinner,omitempty"`
}

func newSnapshotPayload(snap livesync.Snapshot) snapshotPayload {
	p := snapshotPayload{Seq: snap.Seq, Config: snap.Config, Dinners: make([]models.DinnerView, 0, len(snap.Dinners))}
	for _, d := range snap.Dinners {
		p.Dinners = append(p.Dinners, d.View())
	}
	return p
}

func newChangePayload(e livesync.Event) changePayload {
	p := changePayload{Seq: e.Seq, Config: e.Config}
	if e.Dinner != nil {
		v := e.Dinner.View()
		p.Dinner = &v
	}
	return p
}

func attendanceScore(d models.Dinner, familyCount int) float64 {
	if familyCount < 1 {
		familyCount = 1
	}
	return float64(len(d.Available())) / float64(familyCount)
}

func newHistoryEntry(cfg models.RotationConfig, d models.Dinner) historyEntry {
	entry := historyEntry{DinnerView: d.View(), Attendees: []models.Family{}}
	if host, ok := cfg.FamilyByID(d.HostID); ok {
		entry.Host = &host
	}
	for _, id := range d.Available() {
		if f, ok := cfg.FamilyByID(id); ok {
			entry.Attendees = append(entry.Attendees, f)
		}
	}
	return entry
}

