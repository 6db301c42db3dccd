package livesync

import (
	"sort"
	"sync"

	"sundaytable/internal/models"
)

// Snapshot is the full state at one point in time
type Snapshot struct {
	Seq     uint64                `json:"seq"`
	Config  models.RotationConfig `json:"config"`
	Dinners []models.Dinner       `json:"dinners"`
}

// View folds a snapshot and the events that follow it into current state.
// Events for document versions the view already holds are ignored, so a
// consumer may subscribe before taking the snapshot without double-applying.
type View struct {
	mu      sync.RWMutex
	config  models.RotationConfig
	dinners map[models.DateKey]models.Dinner
}

// NewView starts a view from snap
func NewView(snap Snapshot) *View {
	v := &View{
		config:  snap.Config.Clone(),
		dinners: make(map[models.DateKey]models.Dinner, len(snap.Dinners)),
	}
	for _, d := range snap.Dinners {
		v.dinners[d.Date] = d.Clone()
	}
	return v
}

// Apply folds e into the view and reports whether anything changed
func (v *View) Apply(e Event) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	changed := false
	if e.Config != nil && e.Config.Version > v.config.Version {
		v.config = e.Config.Clone()
		changed = true
	}
	if e.Dinner != nil {
		cur, ok := v.dinners[e.Dinner.Date]
		if !ok || e.Dinner.Version > cur.Version {
			v.dinners[e.Dinner.Date] = e.Dinner.Clone()
			changed = true
		}
	}
	return changed
}

// Config returns a copy of the current config
func (v *View) Config() models.RotationConfig {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.config.Clone()
}

// Dinner returns the current state of date, or the default dinner if unseen
func (v *View) Dinner(date models.DateKey) models.Dinner {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if d, ok := v.dinners[date]; ok {
		return d.Clone()
	}
	return models.NewDinner(date)
}

// Dinners returns a copy of every known dinner keyed by date
func (v *View) Dinners() map[models.DateKey]models.Dinner {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[models.DateKey]models.Dinner, len(v.dinners))
	for k, d := range v.dinners {
		out[k] = d.Clone()
	}
	return out
}

// Snapshot returns the view's state as a snapshot, dinners sorted by date
func (v *View) Snapshot(seq uint64) Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	snap := Snapshot{Seq: seq, Config: v.config.Clone(), Dinners: make([]models.Dinner, 0, len(v.dinners))}
	for _, d := range v.dinners {
		snap.Dinners = append(snap.Dinners, d.Clone())
	}
	sort.Slice(snap.Dinners, func(i, j int) bool { return snap.Dinners[i].Date < snap.Dinners[j].Date })
	return snap
}
