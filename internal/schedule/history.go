package schedule

import (
	"sort"

	"sundaytable/internal/models"
)

// FamilyStats reports how often each family has hosted and who is up next,
// in display order.
func FamilyStats(cfg models.RotationConfig, dinners []models.Dinner) []models.FamilyStats {
	hosted := make(map[string]int)
	for _, d := range dinners {
		if d.Confirmed && d.HostID != "" {
			hosted[d.HostID]++
		}
	}
	nextIdx, err := NextHostIndex(cfg)
	if err != nil {
		nextIdx = -1
	}

	out := make([]models.FamilyStats, 0, len(cfg.Families))
	for _, f := range cfg.Families {
		pos := -1
		for i, id := range cfg.HostRotation {
			if id == f.ID {
				pos = i
				break
			}
		}
		out = append(out, models.FamilyStats{
			Family:           f,
			HostedCount:      hosted[f.ID],
			RotationPosition: pos,
			IsNext:           pos >= 0 && pos == nextIdx,
		})
	}
	return out
}

// History returns confirmed dinners, newest first
func History(dinners []models.Dinner) []models.Dinner {
	var out []models.Dinner
	for _, d := range dinners {
		if d.Confirmed {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}
