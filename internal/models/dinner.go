package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Availability is a family's response to one dinner
type Availability int

const (
	Unset Availability = iota
	Available
	Declined
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Declined:
		return "declined"
	default:
		return "unset"
	}
}

// ParseAvailability converts the stored string form back to an Availability
func ParseAvailability(s string) (Availability, error) {
	switch s {
	case "available":
		return Available, nil
	case "declined":
		return Declined, nil
	case "unset", "":
		return Unset, nil
	}
	return Unset, fmt.Errorf("unknown availability %q", s)
}

func (a Availability) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Availability) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseAvailability(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Availability) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

func (a *Availability) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseAvailability(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// How a logged meal was sourced
const (
	HowCooked  = "cooked"
	HowOrdered = "ordered"
)

// MealLog is the free-form record kept after a dinner
type MealLog struct {
	What    string    `json:"what" yaml:"what"`
	Recipe  string    `json:"recipe" yaml:"recipe"`
	Notes   string    `json:"notes" yaml:"notes"`
	Rating  int       `json:"rating" yaml:"rating"`
	How     string    `json:"how" yaml:"how"`
	SavedAt time.Time `json:"savedAt" yaml:"saved_at"`
}

// Dinner is one occurrence of the weekly event, keyed by date.
// Responses only holds families that are Available or Declined.
type Dinner struct {
	Date      DateKey                 `json:"date" yaml:"date"`
	Responses map[string]Availability `json:"responses" yaml:"responses"`
	Confirmed bool                    `json:"confirmed" yaml:"confirmed"`
	HostID    string                  `json:"hostId,omitempty" yaml:"host_id,omitempty"`
	MealLog   *MealLog                `json:"mealLog,omitempty" yaml:"meal_log,omitempty"`
	Version   int64                   `json:"version" yaml:"version"`
	CreatedAt time.Time               `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time               `json:"updatedAt" yaml:"updated_at"`
}

// NewDinner returns the default, never-persisted dinner for a date
func NewDinner(date DateKey) Dinner {
	return Dinner{Date: date, Responses: map[string]Availability{}}
}

// StateOf returns the family's current response
func (d Dinner) StateOf(familyID string) Availability {
	return d.Responses[familyID]
}

// Available lists families marked available, sorted by id
func (d Dinner) Available() []string {
	return d.withState(Available)
}

// Declined lists families marked declined, sorted by id
func (d Dinner) Declined() []string {
	return d.withState(Declined)
}

func (d Dinner) withState(state Availability) []string {
	ids := []string{}
	for id, s := range d.Responses {
		if s == state {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy
func (d Dinner) Clone() Dinner {
	out := d
	out.Responses = make(map[string]Availability, len(d.Responses))
	for id, s := range d.Responses {
		out.Responses[id] = s
	}
	if d.MealLog != nil {
		log := *d.MealLog
		out.MealLog = &log
	}
	return out
}

// IsPersisted reports whether the dinner has been written at least once
func (d Dinner) IsPersisted() bool {
	return d.Version > 0
}

// DinnerView is the wire shape with availability split into the two sets
type DinnerView struct {
	Date      DateKey  `json:"date"`
	Available []string `json:"available"`
	Declined  []string `json:"declined"`
	Confirmed bool     `json:"confirmed"`
	HostID    *string  `json:"hostId"`
	MealLog   *MealLog `json:"mealLog"`
	Version   int64    `json:"version"`
}

// View converts the dinner into its wire shape
func (d Dinner) View() DinnerView {
	v := DinnerView{
		Date:      d.Date,
		Available: d.Available(),
		Declined:  d.Declined(),
		Confirmed: d.Confirmed,
		MealLog:   d.MealLog,
		Version:   d.Version,
	}
	if d.HostID != "" {
		host := d.HostID
		v.HostID = &host
	}
	return v
}
