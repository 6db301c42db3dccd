package schedule

import (
	"errors"
	"math"
	"testing"
	"time"

	"sundaytable/internal/models"
)

func TestRankUpcomingScoresShareOfFamilies(t *testing.T) {
	d := models.NewDinner("2026-10-25")
	d.Responses["f1"] = models.Available
	d.Responses["f2"] = models.Available
	d.Responses["f3"] = models.Declined

	ranked := RankUpcoming(map[models.DateKey]models.Dinner{d.Date: d}, []models.DateKey{"2026-10-25"}, 3)
	if len(ranked) != 1 {
		t.Fatalf("got %d entries, want 1", len(ranked))
	}
	if math.Abs(ranked[0].Score-2.0/3.0) > 1e-9 {
		t.Errorf("score = %v, want 0.666...", ranked[0].Score)
	}
}

func TestRankUpcomingOrdering(t *testing.T) {
	window := []models.DateKey{"2026-10-18", "2026-10-25", "2026-11-01", "2026-11-08", "2026-11-15"}

	confirmed := models.NewDinner("2026-10-18")
	confirmed.Responses["f1"] = models.Available
	confirmed.Responses["f2"] = models.Available
	confirmed.Confirmed = true
	confirmed.HostID = "f1"

	one := models.NewDinner("2026-11-08")
	one.Responses["f3"] = models.Available

	oneEarlier := models.NewDinner("2026-11-01")
	oneEarlier.Responses["f2"] = models.Available

	declinedOnly := models.NewDinner("2026-10-25")
	declinedOnly.Responses["f1"] = models.Declined

	dinners := map[models.DateKey]models.Dinner{
		confirmed.Date:    confirmed,
		one.Date:          one,
		oneEarlier.Date:   oneEarlier,
		declinedOnly.Date: declinedOnly,
	}

	ranked := RankUpcoming(dinners, window, 3)
	want := []models.DateKey{"2026-11-01", "2026-11-08", "2026-10-25", "2026-11-15"}
	if len(ranked) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(ranked), len(want), ranked)
	}
	for i, date := range want {
		if ranked[i].Date != date {
			t.Errorf("position %d: got %s, want %s", i, ranked[i].Date, date)
		}
		if ranked[i].Date == confirmed.Date {
			t.Errorf("confirmed dinner %s was ranked", confirmed.Date)
		}
	}

	best, ok := BestPick(ranked)
	if !ok || best.Date != "2026-11-01" {
		t.Errorf("BestPick() = %+v, %v", best, ok)
	}
}

func TestRankUpcomingZeroFamilies(t *testing.T) {
	d := models.NewDinner("2026-10-25")
	d.Responses["f1"] = models.Available
	ranked := RankUpcoming(map[models.DateKey]models.Dinner{d.Date: d}, []models.DateKey{d.Date}, 0)
	if ranked[0].Score != 1 {
		t.Errorf("score = %v, want 1 with family count clamped to 1", ranked[0].Score)
	}
}

func TestBestPickSkipsZeroScores(t *testing.T) {
	ranked := []Ranked{{Date: "2026-10-25", Score: 0}, {Date: "2026-11-01", Score: 0}}
	if _, ok := BestPick(ranked); ok {
		t.Error("BestPick() should report nothing when every score is zero")
	}
}

func TestUpcomingSundays(t *testing.T) {
	tests := []struct {
		name      string
		today     time.Time
		months    int
		wantFirst models.DateKey
		wantLast  models.DateKey
		wantCount int
	}{
		{
			name:      "today is sunday",
			today:     time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC),
			months:    3,
			wantFirst: "2026-10-18",
			wantLast:  "2027-01-17",
			wantCount: 14,
		},
		{
			name:      "midweek rolls forward",
			today:     time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC),
			months:    1,
			wantFirst: "2026-10-25",
			wantLast:  "2026-11-15",
			wantCount: 4,
		},
		{
			name:      "saturday rolls to next day",
			today:     time.Date(2026, 10, 24, 23, 59, 0, 0, time.UTC),
			months:    1,
			wantFirst: "2026-10-25",
			wantLast:  "2026-11-22",
			wantCount: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UpcomingSundays(tt.today, tt.months)
			if len(got) != tt.wantCount {
				t.Fatalf("got %d sundays, want %d: %v", len(got), tt.wantCount, got)
			}
			if got[0] != tt.wantFirst || got[len(got)-1] != tt.wantLast {
				t.Errorf("range = %s..%s, want %s..%s", got[0], got[len(got)-1], tt.wantFirst, tt.wantLast)
			}
			for _, key := range got {
				if key.Time().Weekday() != time.Sunday {
					t.Errorf("%s is not a Sunday", key)
				}
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if got, err := ParseDate("2025-03-02"); err != nil || got != "2025-03-02" {
		t.Fatalf("ParseDate(valid) = %q, %v", got, err)
	}
	for _, in := range []string{"", "2025-3-2", "2025-02-30", "02/03/2025", "2025-03-02T00:00:00Z"} {
		_, err := ParseDate(in)
		if !errors.Is(err, ErrInvalidDateKey) || !IsValidation(err) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDateKey validation error", in, err)
		}
	}
}
