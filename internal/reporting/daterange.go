// Package reporting aggregates fetched tickets for the dashboard and
// performance screens.
package reporting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Preset names a selectable reporting window.
type Preset string

const (
	PresetWeek   Preset = "week"
	PresetMonth  Preset = "month"
	PresetYear   Preset = "year"
	PresetAll    Preset = "all"
	PresetCustom Preset = "custom"
)

var (
	ErrUnknownPreset = errors.New("unknown date range preset")
	ErrCustomBounds  = errors.New("custom range requires from and to")
	ErrInvertedRange = errors.New("range ends before it starts")
)

// ParsePreset maps a query value to a preset. Empty selects the current month.
func ParsePreset(raw string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PresetMonth, nil
	case PresetWeek, PresetMonth, PresetYear, PresetAll, PresetCustom:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPreset, raw)
	}
}

// DateRange is the half-open interval [Start, End). A nil bound is open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && !t.Before(*r.End) {
		return false
	}
	return true
}

// Unbounded reports whether the range admits every timestamp.
func (r DateRange) Unbounded() bool {
	return r.Start == nil && r.End == nil
}

// LastInstant returns the inclusive upper bound, for stores that compare with <=.
func (r DateRange) LastInstant() *time.Time {
	if r.End == nil {
		return nil
	}
	last := r.End.Add(-time.Nanosecond)
	return &last
}

// Resolve turns a preset into concrete bounds. Calendar boundaries are taken in
// now's location. Week is today plus the six days before it. Custom bounds are
// whole days and the to day is included.
func Resolve(preset Preset, from, to *time.Time, now time.Time) (DateRange, error) {
	loc := now.Location()
	today := startOfDay(now, loc)

	switch preset {
	case PresetWeek:
		return bounded(today.AddDate(0, 0, -6), today.AddDate(0, 0, 1)), nil
	case PresetMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return bounded(start, start.AddDate(0, 1, 0)), nil
	case PresetYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return bounded(start, start.AddDate(1, 0, 0)), nil
	case PresetAll:
		return DateRange{}, nil
	case PresetCustom:
		if from == nil || to == nil {
			return DateRange{}, ErrCustomBounds
		}
		start := startOfDay(*from, loc)
		end := startOfDay(*to, loc).AddDate(0, 0, 1)
		if !end.After(start) {
			return DateRange{}, ErrInvertedRange
		}
		return bounded(start, end), nil
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
}

func bounded(start, end time.Time) DateRange {
	return DateRange{Start: &start, End: &end}
}

// startOfDay keeps t's calendar date as written and anchors it at midnight in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
