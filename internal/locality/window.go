package locality

import (
	"time"

	"smartbrief/internal/domain"
)

// Window is the local-time interval in which a subscriber is due.
type Window struct {
	Hour  int
	Width time.Duration
}

func (w Window) Contains(local time.Time) bool {
	start := time.Date(local.Year(), local.Month(), local.Day(), w.Hour, 0, 0, 0, local.Location())
	elapsed := local.Sub(start)

	return elapsed >= 0 && elapsed < w.Width
}

// Verdict is the outcome of a due-now check.
type Verdict int

const (
	Due Verdict = iota
	NotDue
	AlreadySent
)

func (v Verdict) String() string {
	switch v {
	case Due:
		return "due"
	case NotDue:
		return "not-due"
	case AlreadySent:
		return "already-sent-today"
	default:
		return "unknown"
	}
}

// Check evaluates the subscriber against the current instant in loc.
// It returns the subscriber's local calendar day alongside the verdict.
func (w Window) Check(now time.Time, loc *time.Location, sub domain.Subscriber) (Verdict, string) {
	local := now.In(loc)
	today := local.Format(domain.DateLayout)

	if sub.LastSentDate == today {
		return AlreadySent, today
	}

	if !w.Contains(local) {
		return NotDue, today
	}

	return Due, today
}
