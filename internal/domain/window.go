package domain

import (
	"fmt"
	"time"
)

// DefaultWindowMonths is the nominal analysis window length.
const DefaultWindowMonths = 3

// Window is a half-open UTC date range [Start, End) over which records are aggregated.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns a window starting at start and spanning the given number of calendar months.
func NewWindow(start time.Time, months int) Window {
	start = start.UTC()
	return Window{Start: start, End: start.AddDate(0, months, 0)}
}

// Validate checks that the window is non-empty.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return &ConfigurationError{Field: "window", Reason: "start and end are required"}
	}
	if !w.End.After(w.Start) {
		return &ConfigurationError{Field: "window", Reason: fmt.Sprintf("end %s is not after start %s", w.End.Format(time.DateOnly), w.Start.Format(time.DateOnly))}
	}
	return nil
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Months returns the number of whole calendar months in the window, rounded down, minimum 1.
func (w Window) Months() int {
	n := monthsBetween(w.Start, w.End)
	if n < 1 {
		return 1
	}
	return n
}

// MonthIndex returns the zero-based month bucket of t relative to Start.
// Records in a trailing partial month fold into the last whole month.
func (w Window) MonthIndex(t time.Time) int {
	idx := monthsBetween(w.Start, t)
	if idx < 0 {
		return 0
	}
	if last := w.Months() - 1; idx > last {
		return last
	}
	return idx
}

// String renders the window as start..end dates.
func (w Window) String() string {
	return w.Start.Format(time.DateOnly) + ".." + w.End.Format(time.DateOnly)
}

// monthsBetween counts completed calendar months from a to b.
func monthsBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	n := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	anchor := a.AddDate(0, n, 0)
	if anchor.After(b) {
		n--
	}
	return n
}
