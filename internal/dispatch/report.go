package dispatch

import (
	"log/slog"
	"time"
)

// State is the terminal state of one subscriber in a run.
type State int

const (
	StateSkipped State = iota
	StateSent
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSkipped:
		return "skipped"
	case StateSent:
		return "sent"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	ReasonUnknownZone = "unknown-zone"

	StageCache     = "cache"
	StageWeather   = "weather"
	StageSynthesis = "synthesis"
	StageMessage   = "message"
	StageSend      = "send"
)

// Outcome is what happened to one subscriber.
type Outcome struct {
	Email  string
	State  State
	Reason string
	// CacheHit is set when the digest came from the cache.
	CacheHit bool
	// Generated is set when this subscriber triggered synthesis.
	Generated bool
	// MarkFailed is set when the digest was sent but the last-sent marker
	// could not be stored. The subscriber may get a second copy next run.
	MarkFailed bool
	Err        error
}

// Report summarizes a run.
type Report struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Subscribers int
	Sent        int
	CacheHits   int
	Generated   int
	MarkFailed  int
	Skipped     map[string]int
	Failed      map[string]int
}

func newReport(runID string, startedAt time.Time) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: startedAt,
		Skipped:   make(map[string]int),
		Failed:    make(map[string]int),
	}
}

func (r *Report) record(o Outcome) {
	r.Subscribers++

	switch o.State {
	case StateSkipped:
		r.Skipped[o.Reason]++
	case StateFailed:
		r.Failed[o.Reason]++
	case StateSent:
		r.Sent++
	}

	if o.CacheHit {
		r.CacheHits++
	}
	if o.Generated {
		r.Generated++
	}
	if o.MarkFailed {
		r.MarkFailed++
	}
}

func (r *Report) LogValue() slog.Value {
	skipped := make([]slog.Attr, 0, len(r.Skipped))
	for reason, n := range r.Skipped {
		skipped = append(skipped, slog.Int(reason, n))
	}

	failed := make([]slog.Attr, 0, len(r.Failed))
	for stage, n := range r.Failed {
		failed = append(failed, slog.Int(stage, n))
	}

	return slog.GroupValue(
		slog.Int("subscribers", r.Subscribers),
		slog.Int("sent", r.Sent),
		slog.Int("cacheHits", r.CacheHits),
		slog.Int("generated", r.Generated),
		slog.Int("markFailed", r.MarkFailed),
		slog.Attr{Key: "skipped", Value: slog.GroupValue(skipped...)},
		slog.Attr{Key: "failed", Value: slog.GroupValue(failed...)},
		slog.Duration("duration", r.FinishedAt.Sub(r.StartedAt)),
	)
}
