// Package dispatch runs one digest pass over the subscriber list.
//
// For every subscriber the engine resolves the local timezone, decides
// whether the subscriber is due, and then either reuses the locality's
// cached digest for the local day or builds it from the content fetchers
// and the synthesis engine. A (date, locality) pair is synthesized at most
// once per run and every subscriber sharing it gets the same bytes.
// Failures are contained to the subscriber they happen for.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"smartbrief/internal/cache"
	"smartbrief/internal/domain"
	"smartbrief/internal/geocode"
	"smartbrief/internal/locality"
	"smartbrief/internal/mailer"
	"smartbrief/internal/news"
	"smartbrief/internal/subscribers"
	"smartbrief/internal/synthesis"

	"github.com/google/uuid"
)

type Resolver interface {
	Location(lat, lon float64) (*time.Location, error)
}

type WeatherFetcher interface {
	Fetch(ctx context.Context, lat, lon float64) (domain.Weather, error)
}

type NewsFetcher interface {
	Fetch(ctx context.Context, q news.Query) ([]domain.Article, error)
}

type QuoteFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (geocode.Place, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, in synthesis.Input) (string, error)
}

// Deps are the collaborators of the engine. Geocoder may be nil.
type Deps struct {
	Subscribers subscribers.Store
	Resolver    Resolver
	Cache       cache.Store
	Weather     WeatherFetcher
	News        NewsFetcher
	Quote       QuoteFetcher
	Geocoder    Geocoder
	Synthesizer Synthesizer
	Sender      mailer.Sender
	Log         *slog.Logger
}

type Options struct {
	Window         locality.Window
	DefaultCountry string

	FetchTimeout     time.Duration
	SynthesisTimeout time.Duration
	SendTimeout      time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

type Engine struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{deps: deps, opts: opts}
}

// run holds the state of a single pass.
type run struct {
	log    *slog.Logger
	report *Report

	// quoteTried records dates whose quote fetch already ran this pass.
	quoteTried map[string]bool
	// unstored keeps digests the cache failed to persist so the locality
	// is still synthesized only once.
	unstored map[string]domain.DigestEntry
	// failed keeps localities whose generation failed; they are retried on
	// the next pass, not again in this one.
	failed map[string]failure
}

type failure struct {
	stage string
	err   error
}

// Run processes every subscriber once. Only a failure to list subscribers
// is returned; everything else is recorded in the report.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	r := &run{
		log:        e.deps.Log.With("runID", runID),
		report:     newReport(runID, e.opts.Now()),
		quoteTried: make(map[string]bool),
		unstored:   make(map[string]domain.DigestEntry),
		failed:     make(map[string]failure),
	}

	r.log.InfoContext(ctx, "Run is started")

	subs, err := e.deps.Subscribers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	for _, sub := range subs {
		if err = ctx.Err(); err != nil {
			r.log.WarnContext(ctx, "Run is interrupted",
				"error", err,
				"remaining", len(subs)-r.report.Subscribers)
			break
		}

		r.report.record(e.process(ctx, r, sub))
	}

	r.report.FinishedAt = e.opts.Now()
	r.log.InfoContext(ctx, "Run is finished", "report", r.report)

	return r.report, nil
}

func (e *Engine) process(ctx context.Context, r *run, sub domain.Subscriber) Outcome {
	out := Outcome{Email: sub.Email}

	loc, err := e.deps.Resolver.Location(sub.Latitude, sub.Longitude)
	if err != nil {
		r.log.WarnContext(ctx, "Skipping subscriber without timezone",
			"error", err,
			"email", sub.Email)

		out.State, out.Reason, out.Err = StateSkipped, ReasonUnknownZone, err
		return out
	}

	now := e.opts.Now()
	verdict, today := e.opts.Window.Check(now, loc, sub)
	if verdict != locality.Due {
		r.log.DebugContext(ctx, "Skipping subscriber",
			"email", sub.Email,
			"reason", verdict.String(),
			"timezone", loc.String())

		out.State, out.Reason = StateSkipped, verdict.String()
		return out
	}

	place := locality.FromSubscriber(sub, loc.String())
	log := r.log.With("email", sub.Email, "locality", place.Key, "date", today)

	entry, hit := e.lookup(r, today, place.Key)
	if hit {
		out.CacheHit = true
	} else {
		if f, ok := r.failed[today+"/"+place.Key]; ok {
			log.WarnContext(ctx, "Skipping locality that failed earlier in this run",
				"error", f.err,
				"stage", f.stage)

			out.State, out.Reason, out.Err = StateFailed, f.stage, f.err
			return out
		}

		var stage string
		entry, stage, err = e.generate(ctx, r, log, today, now.In(loc), place, sub)
		if err != nil {
			log.ErrorContext(ctx, "Failed to generate digest",
				"error", err,
				"stage", stage)

			r.failed[today+"/"+place.Key] = failure{stage: stage, err: err}

			out.State, out.Reason, out.Err = StateFailed, stage, err
			return out
		}
		out.Generated = true
	}

	msg, err := mailer.NewMessage(sub.Email, mailer.Subject(now.In(loc)), entry.HTML)
	if err != nil {
		log.ErrorContext(ctx, "Failed to build message", "error", err)

		out.State, out.Reason, out.Err = StateFailed, StageMessage, err
		return out
	}

	sendCtx, cancel := withTimeout(ctx, e.opts.SendTimeout)
	err = e.deps.Sender.Send(sendCtx, msg)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "Failed to send digest", "error", err)

		out.State, out.Reason, out.Err = StateFailed, StageSend, err
		return out
	}

	out.State = StateSent

	if err = e.deps.Subscribers.MarkSent(ctx, sub.Email, today); err != nil {
		log.ErrorContext(ctx, "Failed to mark digest as sent", "error", err)

		out.MarkFailed, out.Err = true, err
		return out
	}

	log.InfoContext(ctx, "Digest is sent", "cacheHit", out.CacheHit)

	return out
}

func (e *Engine) lookup(r *run, date, key string) (domain.DigestEntry, bool) {
	if entry, ok := r.unstored[date+"/"+key]; ok {
		return entry, true
	}

	return e.deps.Cache.Get(date, key)
}

func (e *Engine) generate(
	ctx context.Context,
	r *run,
	log *slog.Logger,
	today string,
	localNow time.Time,
	place domain.Locality,
	sub domain.Subscriber,
) (domain.DigestEntry, string, error) {
	quote := e.dailyQuote(ctx, r, log, today)

	fetchCtx, cancel := withTimeout(ctx, e.opts.FetchTimeout)
	weather, err := e.deps.Weather.Fetch(fetchCtx, sub.Latitude, sub.Longitude)
	cancel()
	if err != nil {
		return domain.DigestEntry{}, StageWeather, err
	}

	q := e.newsQuery(ctx, log, place, sub)

	fetchCtx, cancel = withTimeout(ctx, e.opts.FetchTimeout)
	articles, err := e.deps.News.Fetch(fetchCtx, q)
	cancel()
	if err != nil {
		log.WarnContext(ctx, "News is incomplete",
			"error", err,
			"articles", len(articles))
	}

	synthCtx, cancel := withTimeout(ctx, e.opts.SynthesisTimeout)
	html, err := e.deps.Synthesizer.Synthesize(synthCtx, synthesis.Input{
		Label:   place.Label,
		Date:    localNow,
		Weather: weather,
		News:    articles,
		Quote:   quote,
	})
	cancel()
	if err != nil {
		return domain.DigestEntry{}, StageSynthesis, err
	}

	entry := domain.DigestEntry{
		Label:     place.Label,
		HTML:      html,
		Weather:   weather,
		News:      articles,
		CreatedAt: e.opts.Now().UTC(),
	}

	written, err := e.deps.Cache.Put(today, place.Key, entry)
	if err != nil {
		log.ErrorContext(ctx, "Failed to store digest", "error", err)

		r.unstored[today+"/"+place.Key] = entry
		return entry, "", nil
	}

	if !written {
		// Another writer got there first; its content is what everybody
		// else in the locality receives.
		if stored, ok := e.deps.Cache.Get(today, place.Key); ok {
			return stored, "", nil
		}
		return domain.DigestEntry{}, StageCache, errors.New("digest is neither written nor readable")
	}

	log.InfoContext(ctx, "Digest is generated",
		"articles", len(articles),
		"hasQuote", quote != "")

	return entry, "", nil
}

func (e *Engine) dailyQuote(ctx context.Context, r *run, log *slog.Logger, today string) string {
	if text, ok := e.deps.Cache.DailyQuote(today); ok {
		return text
	}

	if r.quoteTried[today] {
		return ""
	}
	r.quoteTried[today] = true

	fetchCtx, cancel := withTimeout(ctx, e.opts.FetchTimeout)
	text, err := e.deps.Quote.Fetch(fetchCtx)
	cancel()
	if err != nil {
		log.WarnContext(ctx, "Failed to fetch quote", "error", err)
		return ""
	}

	if _, err = e.deps.Cache.PutDailyQuote(today, text); err != nil {
		log.ErrorContext(ctx, "Failed to store quote", "error", err)
	}

	if stored, ok := e.deps.Cache.DailyQuote(today); ok {
		return stored
	}

	return text
}

func (e *Engine) newsQuery(ctx context.Context, log *slog.Logger, place domain.Locality, sub domain.Subscriber) news.Query {
	q := news.Query{City: place.City, CountryCode: place.CountryCode}
	if q.CountryCode != "" || e.deps.Geocoder == nil {
		if q.CountryCode == "" {
			q.CountryCode = e.opts.DefaultCountry
		}
		return q
	}

	fetchCtx, cancel := withTimeout(ctx, e.opts.FetchTimeout)
	found, err := e.deps.Geocoder.Reverse(fetchCtx, sub.Latitude, sub.Longitude)
	cancel()
	if err != nil {
		log.WarnContext(ctx, "Failed to reverse geocode",
			"error", err,
			"defaultCountry", e.opts.DefaultCountry)

		q.CountryCode = e.opts.DefaultCountry
		return q
	}

	if q.City == "" {
		q.City = found.City
	}

	q.CountryCode = found.CountryCode
	if q.CountryCode == "" {
		q.CountryCode = e.opts.DefaultCountry
	}

	return q
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d)
}
