package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/ppmsim/core/model"
)

// Resolution is the time unit removed from a window's exclusive end so that
// consecutive windows never share an instant.
const Resolution = time.Second

const maxHours = float64(math.MaxInt64) / float64(time.Hour)

// Placement is the outcome of resolving one guide row.
type Placement struct {
	Windows []model.Window
	// Next is the cursor the following row of the same group starts from.
	Next time.Time
}

// Resolve computes the windows for row. cursor is the rolling start of the
// row's group and now anchors day, week and month rows.
func Resolve(row model.GuideRow, cursor, now time.Time) (Placement, error) {
	if row.Kind == model.KindWeek {
		return Placement{Windows: WeekWindows(now), Next: cursor}, nil
	}
	d, err := ParseHours(row.DurationHours)
	if err != nil {
		return Placement{Next: cursor}, err
	}
	switch row.Kind {
	case model.KindDay:
		return Placement{Windows: []model.Window{span(StartOfDay(now), d)}, Next: cursor}, nil
	case model.KindMonth:
		return Placement{Windows: []model.Window{span(StartOfMonth(now), d)}, Next: cursor}, nil
	default:
		w := span(cursor, d)
		return Placement{Windows: []model.Window{w}, Next: w.End.Add(Resolution)}, nil
	}
}

// ParseHours parses a duration magnitude expressed in hours, truncated to
// Resolution. Magnitudes shorter than Resolution are rejected.
func ParseHours(s string) (time.Duration, error) {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(h > 0) || h >= maxHours {
		return 0, fmt.Errorf("%w: %q hours", ErrInvalidDuration, s)
	}
	d := time.Duration(h * float64(time.Hour)).Truncate(Resolution)
	if d < Resolution {
		return 0, fmt.Errorf("%w: %q hours is shorter than %s", ErrInvalidDuration, s, Resolution)
	}
	return d, nil
}

// WeekWindows splits the current week into Monday-Wednesday,
// Wednesday-Friday and Friday-next Monday.
func WeekWindows(now time.Time) []model.Window {
	mon := StartOfWeek(now)
	bounds := []time.Time{mon, mon.AddDate(0, 0, 2), mon.AddDate(0, 0, 4), mon.AddDate(0, 0, 7)}
	out := make([]model.Window, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		out = append(out, model.Window{Start: bounds[i], End: bounds[i+1].Add(-Resolution)})
	}
	return out
}

func span(start time.Time, d time.Duration) model.Window {
	return model.Window{Start: start, End: start.Add(d - Resolution)}
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the most recent Monday.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
