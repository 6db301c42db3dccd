package models

import "time"

// ConfigKey is the document key of the rotation config singleton
const ConfigKey = "config/app"

// Family represents one participating household
type Family struct {
	ID    string `json:"id" toml:"id" yaml:"id"`
	Name  string `json:"name" toml:"name" yaml:"name"`
	Emoji string `json:"emoji" toml:"emoji" yaml:"emoji"`
	Color string `json:"color" toml:"color" yaml:"color"`
	Email string `json:"email,omitempty" toml:"email" yaml:"email,omitempty"`
}

// RotationConfig is the shared singleton holding the families and the host rotation.
// LastHostIndex is -1 until the first dinner is confirmed.
type RotationConfig struct {
	Families      []Family  `json:"families" yaml:"families"`
	HostRotation  []string  `json:"hostRotation" yaml:"host_rotation"`
	LastHostIndex int       `json:"lastHostIndex" yaml:"last_host_index"`
	Version       int64     `json:"version" yaml:"version"`
	CreatedAt     time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" yaml:"updated_at"`
}

// DefaultFamilies are the families seeded on first run when no seed file is configured
var DefaultFamilies = []Family{
	{ID: "f1", Name: "Imran & Rachana", Emoji: "🌙", Color: "#c17f5e"},
	{ID: "f2", Name: "Rahul & Leena", Emoji: "🌸", Color: "#7a9e7e"},
	{ID: "f3", Name: "Iqbal & Zarpheen", Emoji: "⭐", Color: "#8b6f9e"},
}

// DefaultHostRotation follows the family id order
var DefaultHostRotation = []string{"f1", "f2", "f3"}

// NewRotationConfig builds an unsaved config with no host assigned yet
func NewRotationConfig(families []Family, hostRotation []string) RotationConfig {
	return RotationConfig{
		Families:      append([]Family(nil), families...),
		HostRotation:  append([]string(nil), hostRotation...),
		LastHostIndex: -1,
	}
}

// FamilyByID looks up a configured family
func (c RotationConfig) FamilyByID(id string) (Family, bool) {
	for _, f := range c.Families {
		if f.ID == id {
			return f, true
		}
	}
	return Family{}, false
}

// HasFamily reports whether id references a configured family
func (c RotationConfig) HasFamily(id string) bool {
	_, ok := c.FamilyByID(id)
	return ok
}

// Clone returns a deep copy so callers can mutate freely
func (c RotationConfig) Clone() RotationConfig {
	out := c
	out.Families = append([]Family(nil), c.Families...)
	out.HostRotation = append([]string(nil), c.HostRotation...)
	return out
}

// FamilyStats summarises a family's hosting record
type FamilyStats struct {
	Family           Family `json:"family"`
	HostedCount      int    `json:"hostedCount"`
	RotationPosition int    `json:"rotationPosition"`
	IsNext           bool   `json:"isNext"`
}
