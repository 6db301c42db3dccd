package schedule

import "sundaytable/internal/models"

// NextAvailability advances a response one step through
// unset -> available -> declined -> unset.
func NextAvailability(current models.Availability) models.Availability {
	switch current {
	case models.Unset:
		return models.Available
	case models.Available:
		return models.Declined
	default:
		return models.Unset
	}
}

// ToggleAvailability cycles familyID's response on dinner.
// The input is not modified.
func ToggleAvailability(dinner models.Dinner, cfg models.RotationConfig, familyID string) (models.Dinner, error) {
	if !cfg.HasFamily(familyID) {
		return dinner, invalid("family_id", ErrUnknownFamily, "unknown family %q", familyID)
	}
	if dinner.Confirmed {
		return dinner, invalid("date", ErrDinnerConfirmed, "dinner on %s is already confirmed", dinner.Date)
	}

	next := dinner.Clone()
	state := NextAvailability(next.StateOf(familyID))
	if state == models.Unset {
		delete(next.Responses, familyID)
	} else {
		next.Responses[familyID] = state
	}
	return next, nil
}
