package ledger

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// Day is a local calendar day [Start, End).
type Day struct {
	Start time.Time
}

// DayOf returns the calendar day containing t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	return Day{Start: time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)}
}

// ParseDay parses a YYYY-MM-DD key in loc.
func ParseDay(key string, loc *time.Location) (Day, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(dayLayout, key, loc)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", key, err)
	}
	return Day{Start: t}, nil
}

// End is the next local midnight. It is not always Start+24h across DST changes.
func (d Day) End() time.Time {
	return d.Start.AddDate(0, 0, 1)
}

// Key is the storage key for the day.
func (d Day) Key() string {
	return d.Start.Format(dayLayout)
}

// Contains reports whether t falls in the day.
func (d Day) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End())
}

// Next returns the following calendar day.
func (d Day) Next() Day {
	return Day{Start: d.End()}
}

func (d Day) String() string { return d.Key() }
