package main

import (
	"context"
	"fmt"
	"log/slog"

	"smartbrief/internal/cache"
	"smartbrief/internal/config"
	"smartbrief/internal/database"
	"smartbrief/internal/dispatch"
	"smartbrief/internal/geocode"
	"smartbrief/internal/httpclient"
	"smartbrief/internal/locality"
	"smartbrief/internal/mailer"
	"smartbrief/internal/news"
	"smartbrief/internal/quote"
	"smartbrief/internal/subscribers"
	"smartbrief/internal/summarizer"
	"smartbrief/internal/synthesis"
	"smartbrief/internal/weather"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// app owns the long-lived collaborators. The cache is opened per pass so
// that every pass sees what earlier passes and other processes stored.
type app struct {
	cfg  config.Config
	log  *slog.Logger
	deps dispatch.Deps
	opts dispatch.Options
	db   *database.Database
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	resolver, err := locality.NewResolver()
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "Timezone resolver is initialized")

	store, err := a.initSubscribers(ctx)
	if err != nil {
		return nil, err
	}

	backend, err := summarizer.NewOpenAISummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("create OpenAI summarizer: %w", err)
	}
	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai",
		"model", cfg.OpenAIModel)

	sender, err := a.initSender(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	newsAPI := news.NewNewsAPI(cfg.NewsAPIBaseURL, cfg.NewsAPIKey, httpclient.New("newsapi", cfg.FetchTimeout))
	cascade := news.NewCascade(cfg.NewsTargetCount, log,
		newsAPI.City(),
		newsAPI.Country(),
		news.NewFeedStrategy(cfg.NewsGlobalFeedURL, httpclient.New("global-feed", cfg.FetchTimeout)),
	)

	a.deps = dispatch.Deps{
		Subscribers: store,
		Resolver:    resolver,
		Weather:     weather.NewClient(cfg.WeatherBaseURL, httpclient.New("weather", cfg.FetchTimeout)),
		News:        cascade,
		Quote:       quote.NewClient(cfg.QuoteURL, httpclient.New("quote", cfg.FetchTimeout)),
		Geocoder:    geocode.NewClient(cfg.GeocoderBaseURL, httpclient.New("geocoder", cfg.FetchTimeout)),
		Synthesizer: synthesis.NewEngine(backend, log),
		Sender:      mailer.NewPacer(sender, cfg.SendInterval, log),
		Log:         log,
	}

	a.opts = dispatch.Options{
		Window:           locality.Window{Hour: cfg.DispatchHour, Width: cfg.DispatchWindow},
		DefaultCountry:   cfg.NewsDefaultCountry,
		FetchTimeout:     cfg.FetchTimeout,
		SynthesisTimeout: cfg.SynthesisTimeout,
		SendTimeout:      cfg.SendTimeout,
	}

	return a, nil
}

func (a *app) initSubscribers(ctx context.Context) (subscribers.Store, error) {
	switch a.cfg.SubscriberStore {
	case config.StoreSQLite:
		db, err := database.New(ctx, a.cfg.DBPath, a.log)
		if err != nil {
			return nil, fmt.Errorf("initialize db (path = %s): %w", a.cfg.DBPath, err)
		}
		a.db = db

		a.log.InfoContext(ctx, "DB is initialized",
			"dbPath", a.cfg.DBPath)

		return subscribers.NewSQLite(db, a.log), nil
	default:
		a.log.InfoContext(ctx, "Subscriber bridge is configured",
			"store", config.StoreBridge)

		return subscribers.NewBridge(a.cfg.SubscriberBridgeURL, httpclient.New("bridge", a.cfg.FetchTimeout), a.log), nil
	}
}

func (a *app) initSender(ctx context.Context) (mailer.Sender, error) {
	from := mailer.From{Name: a.cfg.SenderName, Address: a.cfg.SenderEmail}

	switch a.cfg.MailTransport {
	case config.TransportSES:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}

		a.log.InfoContext(ctx, "SES transport is initialized",
			"region", awsCfg.Region,
			"configurationSet", a.cfg.SESConfigurationSet)

		return mailer.NewSES(awsCfg, from, a.cfg.SESConfigurationSet, a.log), nil
	default:
		s, err := mailer.NewSMTP(mailer.SMTPConfig{
			Host:     a.cfg.SMTPHost,
			Port:     a.cfg.SMTPPort,
			Username: a.cfg.SenderEmail,
			Password: a.cfg.SenderPassword,
			From:     from,
			Timeout:  a.cfg.SendTimeout,
		}, a.log)
		if err != nil {
			return nil, err
		}

		a.log.InfoContext(ctx, "SMTP transport is initialized",
			"host", a.cfg.SMTPHost,
			"port", a.cfg.SMTPPort)

		return s, nil
	}
}

// run takes the run lock, opens the cache and performs one pass.
func (a *app) run(ctx context.Context) (*dispatch.Report, error) {
	lock, err := cache.LockRun(a.cfg.CachePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.log.ErrorContext(ctx, "Failed to release run lock",
				"error", err,
				"cachePath", a.cfg.CachePath)
		}
	}()

	store, err := cache.OpenFile(a.cfg.CachePath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	deps := a.deps
	deps.Cache = store

	return dispatch.New(deps, a.opts).Run(ctx)
}

func (a *app) Close(ctx context.Context) {
	if a.db == nil {
		return
	}

	if err := a.db.Close(); err != nil {
		a.log.ErrorContext(ctx, "Failed to close db",
			"error", err,
			"dbPath", a.cfg.DBPath)
	}
	a.db = nil
}
