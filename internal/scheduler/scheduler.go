package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSpec           = "*/15 * * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0

	// cadenceSamples covers a full day at minute granularity.
	cadenceSamples = 24 * 60
)

// Job is one scheduled pass. It must return once ctx is done.
type Job func(ctx context.Context)

type Scheduler struct {
	ctx        context.Context
	cron       *cron.Cron
	spec       string
	job        Job
	runTimeout time.Duration
	log        *slog.Logger
}

// New builds a scheduler that triggers job on spec in UTC. A tick that
// starts while the previous one is still running is skipped.
func New(ctx context.Context, spec string, job Job, runTimeout time.Duration, log *slog.Logger) *Scheduler {
	logger := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelInfo))

	c := cron.New(
		cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	return &Scheduler{
		ctx:        ctx,
		cron:       c,
		spec:       spec,
		job:        job,
		runTimeout: runTimeout,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.tick); err != nil {
		return fmt.Errorf("add job: %w", err)
	}

	s.cron.Start()

	return nil
}

// Stop halts the trigger and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(s.ctx, s.runTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	start := time.Now()
	s.job(ctx)

	s.log.DebugContext(ctx, "Scheduled job is finished",
		"spec", s.spec,
		"durationSeconds", time.Since(start).Seconds())
}

// CheckCadence rejects specs whose longest gap between two firings exceeds
// window, because subscribers whose window falls in the gap would be
// skipped for the day.
func CheckCadence(spec string, window time.Duration) error {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("parse spec %q: %w", spec, err)
	}

	// Any fixed day works; UTC has no DST gaps.
	prev := schedule.Next(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC))
	if prev.IsZero() {
		return fmt.Errorf("spec %q never fires", spec)
	}

	var widest time.Duration
	for range cadenceSamples {
		next := schedule.Next(prev)
		if next.IsZero() {
			return fmt.Errorf("spec %q never fires again after %s", spec, prev)
		}

		widest = max(widest, next.Sub(prev))
		if widest > window {
			return fmt.Errorf("spec %q leaves a %s gap, wider than the %s dispatch window", spec, widest, window)
		}

		prev = next
	}

	return nil
}
