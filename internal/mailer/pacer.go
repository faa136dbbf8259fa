package mailer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pacer spaces consecutive sends by at least interval to stay under
// provider rate limits.
type Pacer struct {
	next     Sender
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	lastSent time.Time
}

func NewPacer(next Sender, interval time.Duration, log *slog.Logger) *Pacer {
	return &Pacer{next: next, interval: interval, log: log}
}

func (p *Pacer) Send(ctx context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.lastSent.IsZero() {
		if delay := getDelay(p.interval, p.lastSent); delay > 0 {
			p.log.DebugContext(ctx, "Pacing mail",
				"email", msg.To,
				"delay", delay)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}

	err := p.next.Send(ctx, msg)
	p.lastSent = time.Now()

	return err
}

func getDelay(interval time.Duration, lastSent time.Time) time.Duration {
	return max(interval-time.Since(lastSent), 0)
}
