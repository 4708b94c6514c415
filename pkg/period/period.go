// Package period resolves the dashboard's global reporting period.
package period

import (
	"time"

	"github.com/matzehuels/gridboard/pkg/errors"
)

// Period is the date range every widget reports on, with an optional
// comparison range.
type Period struct {
	From        time.Time  `json:"dateFrom"`
	To          time.Time  `json:"dateTo"`
	CompareFrom *time.Time `json:"compareDateFrom,omitempty"`
	CompareTo   *time.Time `json:"compareDateTo,omitempty"`
}

// Validate checks that the range is not inverted.
func (p Period) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return errors.New(errors.ErrCodeInvalidPeriod, "period needs both a start and an end")
	}
	if p.To.Before(p.From) {
		return errors.New(errors.ErrCodeInvalidPeriod, "period ends (%s) before it starts (%s)", p.To.Format(time.DateOnly), p.From.Format(time.DateOnly))
	}
	if (p.CompareFrom == nil) != (p.CompareTo == nil) {
		return errors.New(errors.ErrCodeInvalidPeriod, "comparison range needs both a start and an end")
	}
	if p.CompareFrom != nil && p.CompareTo.Before(*p.CompareFrom) {
		return errors.New(errors.ErrCodeInvalidPeriod, "comparison range is inverted")
	}
	return nil
}

// Compared reports whether a comparison range is set.
func (p Period) Compared() bool { return p.CompareFrom != nil && p.CompareTo != nil }

// WithPreviousComparison returns p compared against the equally long range
// immediately before it.
func (p Period) WithPreviousComparison() Period {
	span := p.To.Sub(p.From)
	to := p.From.Add(-time.Millisecond)
	from := to.Add(-span)
	p.CompareFrom, p.CompareTo = &from, &to
	return p
}

// Code names a preset range.
type Code string

const (
	Today       Code = "today"
	Yesterday   Code = "yesterday"
	Last7Days   Code = "last7Days"
	ThisWeek    Code = "thisWeek"
	LastWeek    Code = "lastWeek"
	ThisMonth   Code = "thisMonth"
	ThisQuarter Code = "thisQuarter"
	YearToDate  Code = "yearToDate"
)

// DefaultCode is the preset a new dashboard starts with.
const DefaultCode = Last7Days

// Codes lists the offered presets in display order.
var Codes = []Code{Today, Yesterday, Last7Days, ThisWeek, LastWeek, ThisMonth, ThisQuarter, YearToDate}

// Preset is a named range resolved against a point in time.
type Preset struct {
	Code Code      `json:"code"`
	From time.Time `json:"dateFrom"`
	To   time.Time `json:"dateTo"`
}

// Period converts the preset into a Period without comparison.
func (p Preset) Period() Period { return Period{From: p.From, To: p.To} }

// Presets resolves every preset against now, in display order.
func Presets(now time.Time) []Preset {
	out := make([]Preset, 0, len(Codes))
	for _, c := range Codes {
		p, _ := Resolve(c, now)
		out = append(out, Preset{Code: c, From: p.From, To: p.To})
	}
	return out
}

// Resolve returns the range of preset code relative to now, in now's location.
// Weeks start on Sunday.
func Resolve(code Code, now time.Time) (Period, error) {
	day := startOfDay(now)
	switch code {
	case Today:
		return span(day, endOfDay(now)), nil
	case Yesterday:
		y := day.AddDate(0, 0, -1)
		return span(y, endOfDay(y)), nil
	case Last7Days:
		return span(day.AddDate(0, 0, -6), endOfDay(now)), nil
	case ThisWeek:
		ws := startOfWeek(now)
		return span(ws, endOfDay(ws.AddDate(0, 0, 6))), nil
	case LastWeek:
		ws := startOfWeek(now).AddDate(0, 0, -7)
		return span(ws, endOfDay(ws.AddDate(0, 0, 6))), nil
	case ThisMonth:
		ms := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return span(ms, endOfDay(ms.AddDate(0, 1, -1))), nil
	case ThisQuarter:
		qm := time.Month((int(now.Month())-1)/3*3 + 1)
		qs := time.Date(now.Year(), qm, 1, 0, 0, 0, 0, now.Location())
		return span(qs, endOfDay(qs.AddDate(0, 3, -1))), nil
	case YearToDate:
		ys := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		return span(ys, endOfDay(now)), nil
	}
	return Period{}, errors.New(errors.ErrCodeInvalidPeriod, "unknown period preset %q", code)
}

// Default returns the default period relative to now.
func Default(now time.Time) Period {
	p, _ := Resolve(DefaultCode, now)
	return p
}

func span(from, to time.Time) Period { return Period{From: from, To: to} }

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func startOfWeek(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}
