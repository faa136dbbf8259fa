package subscribers

import (
	"context"
	"fmt"
	"log/slog"

	"smartbrief/internal/database"
	"smartbrief/internal/domain"
)

// SQLite keeps subscribers in a local database.
type SQLite struct {
	db  *database.Database
	log *slog.Logger
}

func NewSQLite(db *database.Database, log *slog.Logger) *SQLite {
	return &SQLite{db: db, log: log}
}

func (s *SQLite) List(ctx context.Context) ([]domain.Subscriber, error) {
	subs, err := s.db.GetActiveSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active subscribers: %w", err)
	}

	return filterValid(ctx, s.log, "sqlite", subs), nil
}

func (s *SQLite) MarkSent(ctx context.Context, email string, date string) error {
	return s.db.SetLastSentDate(ctx, email, date)
}

func (s *SQLite) Subscribe(ctx context.Context, sub domain.Subscriber) error {
	if err := Validate(sub); err != nil {
		return fmt.Errorf("validate subscriber: %w", err)
	}

	return s.db.UpsertSubscriber(ctx, sub)
}

func (s *SQLite) Unsubscribe(ctx context.Context, email string) error {
	found, err := s.db.DeactivateSubscriber(ctx, email)
	if err != nil {
		return fmt.Errorf("deactivate subscriber: %w", err)
	}

	if !found {
		s.log.InfoContext(ctx, "Subscriber is not active",
			"email", email)
	}

	return nil
}
