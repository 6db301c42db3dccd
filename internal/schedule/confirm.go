package schedule

import "sundaytable/internal/models"

// NextHostIndex returns the rotation index the next confirmation will consume
func NextHostIndex(cfg models.RotationConfig) (int, error) {
	if len(cfg.HostRotation) == 0 {
		return 0, invalid("host_rotation", ErrEmptyRotation, "host rotation is empty")
	}
	// lastHostIndex may be -1 (nobody hosted yet)
	n := len(cfg.HostRotation)
	return ((cfg.LastHostIndex+1)%n + n) % n, nil
}

// NextHost returns the family id that will host the next confirmed dinner
func NextHost(cfg models.RotationConfig) (string, error) {
	idx, err := NextHostIndex(cfg)
	if err != nil {
		return "", err
	}
	return cfg.HostRotation[idx], nil
}

// Confirm locks in dinner and assigns the next host in the rotation.
// The returned dinner and config must be persisted together.
func Confirm(dinner models.Dinner, cfg models.RotationConfig) (models.Dinner, models.RotationConfig, error) {
	if dinner.Confirmed {
		return dinner, cfg, invalid("date", ErrAlreadyConfirmed, "dinner on %s is already confirmed", dinner.Date)
	}
	idx, err := NextHostIndex(cfg)
	if err != nil {
		return dinner, cfg, err
	}

	nextDinner := dinner.Clone()
	nextDinner.Confirmed = true
	nextDinner.HostID = cfg.HostRotation[idx]

	nextCfg := cfg.Clone()
	nextCfg.LastHostIndex = idx
	return nextDinner, nextCfg, nil
}
