// Package news assembles a locality's article list from progressively
// broader sources: city, then country, then a global feed. Earlier scopes
// keep their position; later scopes only fill the remaining slots with
// articles whose URL has not been seen in the same fetch.
package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"smartbrief/internal/domain"
)

// Query is the scope of one locality's fetch.
type Query struct {
	City        string
	CountryCode string
}

// Strategy is one scope of the cascade.
type Strategy interface {
	Name() string
	// Applies reports whether the strategy can run for q at all.
	Applies(q Query) bool
	Fetch(ctx context.Context, q Query, limit int) ([]domain.Article, error)
}

type Cascade struct {
	strategies []Strategy
	target     int
	log        *slog.Logger
}

func NewCascade(target int, log *slog.Logger, strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies, target: target, log: log}
}

// Fetch runs the strategies in order until the target count is reached.
// A failing strategy does not stop the cascade; its error is returned
// joined with the others alongside whatever articles were collected.
// Fewer articles than the target, even none, is not an error by itself.
func (c *Cascade) Fetch(ctx context.Context, q Query) ([]domain.Article, error) {
	articles := make([]domain.Article, 0, c.target)
	seen := make(map[string]struct{}, c.target)
	var errs []error

	for _, s := range c.strategies {
		if len(articles) >= c.target {
			break
		}

		if !s.Applies(q) {
			continue
		}

		fetched, err := s.Fetch(ctx, q, c.target)
		if err != nil {
			c.log.WarnContext(ctx, "News strategy failed",
				"error", err,
				"strategy", s.Name(),
				"city", q.City,
				"countryCode", q.CountryCode)

			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}

		added := 0
		for _, a := range fetched {
			if len(articles) >= c.target {
				break
			}

			a, ok := normalize(a)
			if !ok {
				continue
			}

			if _, dup := seen[a.URL]; dup {
				continue
			}

			seen[a.URL] = struct{}{}
			articles = append(articles, a)
			added++
		}

		c.log.DebugContext(ctx, "News strategy is applied",
			"strategy", s.Name(),
			"fetched", len(fetched),
			"added", added,
			"total", len(articles))
	}

	return articles, errors.Join(errs...)
}

func normalize(a domain.Article) (domain.Article, bool) {
	a.Title = strings.TrimSpace(a.Title)
	a.URL = strings.TrimSpace(a.URL)
	a.Snippet = strings.TrimSpace(a.Snippet)
	a.Source = strings.TrimSpace(a.Source)

	if a.Title == "" || a.URL == "" {
		return domain.Article{}, false
	}

	// NewsAPI redacts withdrawn articles instead of dropping them.
	if a.Title == "[Removed]" {
		return domain.Article{}, false
	}

	if !strings.HasPrefix(a.URL, "https://") && !strings.HasPrefix(a.URL, "http://") {
		return domain.Article{}, false
	}

	return a, true
}
