package schedule

import (
	"time"

	"sundaytable/internal/models"
)

// DefaultWindowMonths is how far ahead the schedule looks
const DefaultWindowMonths = 3

// UpcomingSundays lists every Sunday from today (rolled forward when today is
// not a Sunday) through today plus months, inclusive, using UTC calendar dates.
func UpcomingSundays(today time.Time, months int) []models.DateKey {
	if months <= 0 {
		months = DefaultWindowMonths
	}
	y, m, d := today.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, months, 0)

	offset := (7 - int(start.Weekday())) % 7
	var out []models.DateKey
	for day := start.AddDate(0, 0, offset); !day.After(end); day = day.AddDate(0, 0, 7) {
		out = append(out, models.DateKeyOf(day))
	}
	return out
}

// ParseDate validates a YYYY-MM-DD date key supplied by a caller
func ParseDate(s string) (models.DateKey, error) {
	key, err := models.ParseDateKey(s)
	if err != nil {
		return "", invalid("date", ErrInvalidDateKey, "%q is not a YYYY-MM-DD date", s)
	}
	return key, nil
}
