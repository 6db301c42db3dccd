package models

import (
	"fmt"
	"time"
)

// DateKeyLayout is the canonical calendar date form used as the dinner document key
const DateKeyLayout = "2006-01-02"

// DateKey identifies a dinner by its UTC calendar date
type DateKey string

// ParseDateKey validates s and returns it as a DateKey.
// Only strings that survive a parse/format round trip are accepted.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date key %q: %w", s, err)
	}
	if t.Format(DateKeyLayout) != s {
		return "", fmt.Errorf("invalid date key %q: not canonical", s)
	}
	return DateKey(s), nil
}

// DateKeyOf returns the key for the UTC calendar date of t
func DateKeyOf(t time.Time) DateKey {
	return DateKey(t.UTC().Format(DateKeyLayout))
}

// Time returns midnight UTC of the key's date
func (k DateKey) Time() time.Time {
	t, _ := time.Parse(DateKeyLayout, string(k))
	return t
}

func (k DateKey) String() string {
	return string(k)
}

// DocKey is the logical document key, dinners/{date}
func (k DateKey) DocKey() string {
	return "dinners/" + string(k)
}
