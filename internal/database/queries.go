package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smartbrief/internal/domain"
)

// UpsertSubscriber inserts the subscriber or reactivates and updates the
// existing row with the same email.
func (d *Database) UpsertSubscriber(ctx context.Context, sub domain.Subscriber) error {
	email := strings.ToLower(strings.TrimSpace(sub.Email))
	if email == "" {
		return errors.New("email is empty")
	}

	query := `insert into subscribers (email, latitude, longitude, location_name)
values (?, ?, ?, ?)
on conflict (email) do update set
    latitude = excluded.latitude,
    longitude = excluded.longitude,
    location_name = excluded.location_name,
    is_active = 1`

	_, err := d.db.ExecContext(ctx, query,
		email, sub.Latitude, sub.Longitude, strings.TrimSpace(sub.LocationName))

	return err
}

// DeactivateSubscriber reports whether an active subscriber was found.
func (d *Database) DeactivateSubscriber(ctx context.Context, email string) (bool, error) {
	query := "update subscribers set is_active = 0 where email = ? and is_active = 1"

	res, err := d.db.ExecContext(ctx, query, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get affected rows: %w", err)
	}

	return n > 0, nil
}

func (d *Database) SetLastSentDate(ctx context.Context, email string, date string) error {
	query := "update subscribers set last_sent_date = ? where email = ?"

	res, err := d.db.ExecContext(ctx, query, date, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("subscriber %s is not found", email)
	}

	return nil
}

func (d *Database) GetActiveSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	query := `select email, latitude, longitude, location_name, last_sent_date
from subscribers where is_active = 1 order by id`

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "GetActiveSubscribers")
		}
	}()

	var subs []domain.Subscriber
	for rows.Next() {
		var s domain.Subscriber
		if err = rows.Scan(&s.Email, &s.Latitude, &s.Longitude, &s.LocationName, &s.LastSentDate); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		s.LocationName = strings.TrimSpace(s.LocationName)
		subs = append(subs, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return subs, nil
}
