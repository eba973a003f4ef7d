// Package marketclock provides the "as of" time source and the exchange
// trading-window check used to flag potentially stale data.
package marketclock

import (
	"fmt"
	"time"
)

// Clock supplies the current time. Abstracted so scan cycles are testable
// against fixed dates.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall-clock Clock.
func System() Clock { return systemClock{} }

// Session is an exchange trading window in its local timezone. Weekends are
// always closed; the open/close bounds are inclusive.
type Session struct {
	loc       *time.Location
	openMins  int
	closeMins int
}

// NewSession builds a Session from a timezone name and "HH:MM" bounds,
// e.g. NewSession("Asia/Kolkata", "09:15", "15:30").
func NewSession(timezone, open, close string) (Session, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Session{}, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	openMins, err := parseClock(open)
	if err != nil {
		return Session{}, fmt.Errorf("parse open time: %w", err)
	}
	closeMins, err := parseClock(close)
	if err != nil {
		return Session{}, fmt.Errorf("parse close time: %w", err)
	}
	if closeMins <= openMins {
		return Session{}, fmt.Errorf("close %s is not after open %s", close, open)
	}
	return Session{loc: loc, openMins: openMins, closeMins: closeMins}, nil
}

// IsOpen reports whether t falls inside the trading window, Monday to Friday.
func (s Session) IsOpen(t time.Time) bool {
	local := t.In(s.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	mins := local.Hour()*60 + local.Minute()
	return mins >= s.openMins && mins <= s.closeMins
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
