// Package subscribers reads and updates the subscriber list. The batch run
// only needs List and MarkSent; Subscribe and Unsubscribe back the external
// signup forms.
package subscribers

import (
	"context"
	"log/slog"
	"strings"

	"smartbrief/internal/domain"

	"github.com/go-playground/validator/v10"
)

type Store interface {
	// List returns the active subscribers. Invalid records are dropped.
	List(ctx context.Context) ([]domain.Subscriber, error)
	MarkSent(ctx context.Context, email string, date string) error
	Subscribe(ctx context.Context, sub domain.Subscriber) error
	Unsubscribe(ctx context.Context, email string) error
}

var validate = validator.New()

// Validate checks email syntax and coordinate ranges.
func Validate(sub domain.Subscriber) error {
	return validate.Struct(sub)
}

func filterValid(ctx context.Context, log *slog.Logger, store string, subs []domain.Subscriber) []domain.Subscriber {
	valid := make([]domain.Subscriber, 0, len(subs))
	seen := make(map[string]struct{}, len(subs))

	for _, sub := range subs {
		sub.Email = strings.TrimSpace(sub.Email)
		sub.LocationName = strings.TrimSpace(sub.LocationName)
		sub.LastSentDate = strings.TrimSpace(sub.LastSentDate)

		if err := Validate(sub); err != nil {
			log.WarnContext(ctx, "Skipping invalid subscriber",
				"error", err,
				"store", store,
				"email", sub.Email)
			continue
		}

		key := strings.ToLower(sub.Email)
		if _, dup := seen[key]; dup {
			log.WarnContext(ctx, "Skipping duplicate subscriber",
				"store", store,
				"email", sub.Email)
			continue
		}

		seen[key] = struct{}{}
		valid = append(valid, sub)
	}

	return valid
}
