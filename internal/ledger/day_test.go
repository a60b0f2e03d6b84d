package ledger

import (
	"testing"
	"time"
)

func TestDayOf(t *testing.T) {
	accra := time.FixedZone("GMT", 0)
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		loc     *time.Location
		wantKey string
	}{
		{"morning", time.Date(2026, 10, 12, 8, 45, 0, 0, accra), accra, "2026-10-12"},
		{"just before midnight", time.Date(2026, 10, 12, 23, 59, 59, 0, accra), accra, "2026-10-12"},
		{"midnight", time.Date(2026, 10, 13, 0, 0, 0, 0, accra), accra, "2026-10-13"},
		{"utc instant in new york evening", time.Date(2026, 10, 13, 2, 0, 0, 0, time.UTC), ny, "2026-10-12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DayOf(tt.at, tt.loc)
			if d.Key() != tt.wantKey {
				t.Fatalf("DayOf(%v).Key() = %s, want %s", tt.at, d.Key(), tt.wantKey)
			}
			if !d.Contains(tt.at) {
				t.Fatalf("day %s does not contain %v", d, tt.at)
			}
		})
	}
}

func TestDayBoundaries(t *testing.T) {
	loc := time.FixedZone("GMT", 0)
	d := DayOf(time.Date(2026, 10, 12, 10, 0, 0, 0, loc), loc)
	if !d.Contains(d.Start) {
		t.Fatal("day must include its start")
	}
	if d.Contains(d.End()) {
		t.Fatal("day must exclude its end")
	}
	if d.Next().Key() != "2026-10-13" {
		t.Fatalf("Next = %s", d.Next())
	}
}

func TestDayAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2026-11-01 is 25 hours long in New York.
	d, err := ParseDay("2026-11-01", ny)
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if got := d.End().Sub(d.Start); got != 25*time.Hour {
		t.Fatalf("day length = %v, want 25h", got)
	}
	late := time.Date(2026, 11, 1, 23, 30, 0, 0, ny)
	if !d.Contains(late) {
		t.Fatal("late evening must stay in the same calendar day")
	}
}

func TestParseDayInvalid(t *testing.T) {
	if _, err := ParseDay("12/10/2026", time.UTC); err == nil {
		t.Fatal("expected error")
	}
}
