package schedule

import (
	"strings"
	"time"

	"sundaytable/internal/models"
)

// ValidateMealLog checks the fields a caller supplies
func ValidateMealLog(log models.MealLog) error {
	if strings.TrimSpace(log.What) == "" {
		return invalid("what", ErrInvalidMealLog, "what is required")
	}
	if log.Rating < 1 || log.Rating > 5 {
		return invalid("rating", ErrInvalidMealLog, "rating must be between 1 and 5, got %d", log.Rating)
	}
	if log.How != models.HowCooked && log.How != models.HowOrdered {
		return invalid("how", ErrInvalidMealLog, "how must be %q or %q, got %q", models.HowCooked, models.HowOrdered, log.How)
	}
	return nil
}

// ApplyMealLog replaces the dinner's whole meal log and stamps SavedAt.
// Allowed whether or not the dinner is confirmed.
func ApplyMealLog(dinner models.Dinner, log models.MealLog, now time.Time) (models.Dinner, error) {
	if err := ValidateMealLog(log); err != nil {
		return dinner, err
	}
	next := dinner.Clone()
	log.SavedAt = now.UTC()
	next.MealLog = &log
	return next, nil
}
