package schedule

import (
	"sort"

	"sundaytable/internal/models"
)

// Ranked is one upcoming date with its availability score
type Ranked struct {
	Date  models.DateKey `json:"date"`
	Score float64        `json:"score"`
}

// RankUpcoming scores each window date by the share of families available.
// Confirmed dinners are left out. Higher scores come first and equal scores
// are ordered by earlier date.
func RankUpcoming(dinners map[models.DateKey]models.Dinner, window []models.DateKey, familyCount int) []Ranked {
	if familyCount < 1 {
		familyCount = 1
	}
	out := make([]Ranked, 0, len(window))
	for _, date := range window {
		d, ok := dinners[date]
		if ok && d.Confirmed {
			continue
		}
		score := 0.0
		if ok {
			score = float64(len(d.Available())) / float64(familyCount)
		}
		out = append(out, Ranked{Date: date, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Date < out[j].Date
	})
	return out
}

// BestPick returns the top ranked date, ignoring dates nobody is available for
func BestPick(ranked []Ranked) (Ranked, bool) {
	if len(ranked) == 0 || ranked[0].Score <= 0 {
		return Ranked{}, false
	}
	return ranked[0], true
}
