// Package clock is the single source of civil time for billing decisions.
package clock

import (
	"sync"
	"time"
)

const MonthLayout = "2006-01"

type Clock interface {
	Now() time.Time
	// Today is midnight of the current civil day.
	Today() time.Time
}

// MonthStamp formats t as YYYY-MM in t's own location.
func MonthStamp(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseMonth accepts YYYY-MM and returns the first instant of that month.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(MonthLayout, s, loc)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type System struct {
	Loc *time.Location
}

func NewSystem(loc *time.Location) System {
	if loc == nil {
		loc = time.UTC
	}
	return System{Loc: loc}
}

func (s System) Now() time.Time   { return time.Now().In(s.Loc) }
func (s System) Today() time.Time { return startOfDay(s.Now()) }

// Manual is a settable clock for tests and one-shot jobs.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(t time.Time) *Manual { return &Manual{now: t} }

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Today() time.Time { return startOfDay(m.Now()) }

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
