package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"sundaytable/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Seed is the family list and rotation written on first run
type Seed struct {
	Families     []models.Family
	HostRotation []string
}

type seedFile struct {
	Family       []models.Family `toml:"family"`
	HostRotation []string        `toml:"host_rotation"`
}

// DefaultSeed returns the built-in three families
func DefaultSeed() Seed {
	return Seed{
		Families:     append([]models.Family(nil), models.DefaultFamilies...),
		HostRotation: append([]string(nil), models.DefaultHostRotation...),
	}
}

// LoadSeed reads a families TOML file, or returns the defaults when path is empty.
// A file without host_rotation rotates in family order.
func LoadSeed(path string) (Seed, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSeed(), nil
	}

	var raw seedFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Seed{}, fmt.Errorf("load families file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Seed{}, fmt.Errorf("load families file: unknown key %q", undecoded[0].String())
	}

	seed := Seed{Families: raw.Family, HostRotation: raw.HostRotation}
	for i := range seed.Families {
		seed.Families[i].ID = strings.TrimSpace(seed.Families[i].ID)
		seed.Families[i].Name = strings.TrimSpace(seed.Families[i].Name)
	}
	if !meta.IsDefined("host_rotation") {
		for _, f := range seed.Families {
			seed.HostRotation = append(seed.HostRotation, f.ID)
		}
	}
	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// Validate checks ids are unique and the rotation only names known families
func (s Seed) Validate() error {
	if len(s.Families) == 0 {
		return fmt.Errorf("at least one family is required")
	}
	known := make(map[string]bool, len(s.Families))
	for _, f := range s.Families {
		if f.ID == "" {
			return fmt.Errorf("family %q has no id", f.Name)
		}
		if f.Name == "" {
			return fmt.Errorf("family %q has no name", f.ID)
		}
		if f.Email != "" && !emailRegex.MatchString(strings.TrimSpace(f.Email)) {
			return fmt.Errorf("family %q has an invalid email %q", f.ID, f.Email)
		}
		if known[f.ID] {
			return fmt.Errorf("duplicate family id %q", f.ID)
		}
		known[f.ID] = true
	}
	if len(s.HostRotation) == 0 {
		return fmt.Errorf("host rotation is empty")
	}
	for _, id := range s.HostRotation {
		if !known[id] {
			return fmt.Errorf("host rotation references unknown family %q", id)
		}
	}
	return nil
}
