package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreBridge = "bridge"
	StoreSQLite = "sqlite"

	TransportSMTP = "smtp"
	TransportSES  = "ses"
)

type Config struct {
	OpenAIAPIKey string `env:"OPENAI_API_KEY,required,notEmpty"`
	OpenAIModel  string `env:"OPENAI_MODEL"                     envDefault:"gpt-5-mini"`

	NewsAPIKey         string `env:"NEWS_API_KEY,required,notEmpty"`
	NewsAPIBaseURL     string `env:"NEWS_API_BASE_URL"    envDefault:"https://newsapi.org/v2"`
	NewsTargetCount    int    `env:"NEWS_TARGET_COUNT"    envDefault:"5"`
	NewsDefaultCountry string `env:"NEWS_DEFAULT_COUNTRY" envDefault:"us"`
	NewsGlobalFeedURL  string `env:"NEWS_GLOBAL_FEED_URL" envDefault:"https://feeds.bbci.co.uk/news/world/rss.xml"`

	WeatherBaseURL  string `env:"WEATHER_BASE_URL"  envDefault:"https://api.open-meteo.com/v1"`
	QuoteURL        string `env:"QUOTE_URL"         envDefault:"https://zenquotes.io/api/today"`
	GeocoderBaseURL string `env:"GEOCODER_BASE_URL" envDefault:"https://api.bigdatacloud.net/data/reverse-geocode-client"`

	CachePath string `env:"CACHE_PATH" envDefault:"digest_cache.json"`

	SubscriberStore     string `env:"SUBSCRIBER_STORE"      envDefault:"bridge"`
	SubscriberBridgeURL string `env:"SUBSCRIBER_BRIDGE_URL"`
	DBPath              string `env:"DB_PATH"               envDefault:"subscribers.sqlite"`

	MailTransport       string        `env:"MAIL_TRANSPORT"        envDefault:"smtp"`
	SMTPHost            string        `env:"SMTP_HOST"             envDefault:"smtp.gmail.com"`
	SMTPPort            int           `env:"SMTP_PORT"             envDefault:"465"`
	SenderEmail         string        `env:"SENDER_EMAIL,required,notEmpty"`
	SenderPassword      string        `env:"SENDER_PASSWORD"`
	SenderName          string        `env:"SENDER_NAME"           envDefault:"SmartBrief"`
	SESConfigurationSet string        `env:"SES_CONFIGURATION_SET"`
	SendInterval        time.Duration `env:"SEND_INTERVAL"         envDefault:"1s"`

	DispatchHour   int           `env:"DISPATCH_HOUR"   envDefault:"7"`
	DispatchWindow time.Duration `env:"DISPATCH_WINDOW" envDefault:"1h"`

	FetchTimeout     time.Duration `env:"FETCH_TIMEOUT"     envDefault:"15s"`
	SynthesisTimeout time.Duration `env:"SYNTHESIS_TIMEOUT" envDefault:"90s"`
	SendTimeout      time.Duration `env:"SEND_TIMEOUT"      envDefault:"30s"`

	Schedule   string        `env:"SCHEDULE"    envDefault:"*/15 * * * *"`
	RunTimeout time.Duration `env:"RUN_TIMEOUT" envDefault:"10m"`
	LogLevel   string        `env:"LOG_LEVEL"   envDefault:"info"`
}

// InspectConfig is what the read-only cache inspection needs. It carries
// no secrets so inspection works without them.
type InspectConfig struct {
	CachePath string `env:"CACHE_PATH" envDefault:"digest_cache.json"`
}

// Load reads an optional .env file and then parses the environment.
func Load(dotenvFiles ...string) (Config, error) {
	if err := loadDotenv(dotenvFiles); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func LoadInspect(dotenvFiles ...string) (InspectConfig, error) {
	if err := loadDotenv(dotenvFiles); err != nil {
		return InspectConfig{}, err
	}

	var cfg InspectConfig
	if err := env.Parse(&cfg); err != nil {
		return InspectConfig{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

// loadDotenv never overrides variables already set in the environment.
func loadDotenv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, name := range files {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}

	return nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.SubscriberStore {
	case StoreBridge:
		if strings.TrimSpace(c.SubscriberBridgeURL) == "" {
			errs = append(errs, errors.New("SUBSCRIBER_BRIDGE_URL is required for the bridge store"))
		}
	case StoreSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("SUBSCRIBER_STORE must be %q or %q", StoreBridge, StoreSQLite))
	}

	switch c.MailTransport {
	case TransportSMTP:
		if strings.TrimSpace(c.SenderPassword) == "" {
			errs = append(errs, errors.New("SENDER_PASSWORD is required for the smtp transport"))
		}
	case TransportSES:
	default:
		errs = append(errs, fmt.Errorf("MAIL_TRANSPORT must be %q or %q", TransportSMTP, TransportSES))
	}

	if c.DispatchHour < 0 || c.DispatchHour > 23 {
		errs = append(errs, fmt.Errorf("DISPATCH_HOUR must be in 0..23, got %d", c.DispatchHour))
	}

	if c.DispatchWindow <= 0 || c.DispatchWindow > time.Hour {
		errs = append(errs, fmt.Errorf("DISPATCH_WINDOW must be in (0, 1h], got %s", c.DispatchWindow))
	}

	if c.RunTimeout <= 0 {
		errs = append(errs, fmt.Errorf("RUN_TIMEOUT must be positive, got %s", c.RunTimeout))
	}

	if c.NewsTargetCount <= 0 {
		errs = append(errs, fmt.Errorf("NEWS_TARGET_COUNT must be positive, got %d", c.NewsTargetCount))
	}

	return errors.Join(errs...)
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return level
}
