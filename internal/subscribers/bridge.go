package subscribers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"smartbrief/internal/domain"
	"smartbrief/internal/httpclient"
)

const (
	actionList        = "list"
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"
	actionMarkSent    = "mark_sent"
)

// coordinate accepts both JSON numbers and numeric strings, since
// spreadsheet cells come back either way. Blank or garbled cells decode
// to NaN so that validation drops the row instead of the whole list.
type coordinate float64

func (c *coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			v = math.NaN()
		}

		*c = coordinate(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*c = coordinate(v)
	return nil
}

type bridgeRow struct {
	Email        string     `json:"email"`
	Latitude     coordinate `json:"latitude"`
	Longitude    coordinate `json:"longitude"`
	LocationName string     `json:"location_name"`
	LastSentDate string     `json:"last_sent_date"`
}

type listResponse struct {
	Subscribers []bridgeRow `json:"subscribers"`
}

type bridgeRequest struct {
	Action       string `json:"action"`
	Email        string `json:"email"`
	LastSentDate string `json:"last_sent_date,omitempty"`
}

// subscribeRequest always carries both coordinates; 0 is a valid one.
type subscribeRequest struct {
	Action       string  `json:"action"`
	Email        string  `json:"email"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	LocationName string  `json:"location_name"`
}

// Bridge talks to the spreadsheet bridge API.
type Bridge struct {
	endpoint string
	http     *httpclient.Client
	log      *slog.Logger
}

func NewBridge(endpoint string, client *httpclient.Client, log *slog.Logger) *Bridge {
	return &Bridge{endpoint: strings.TrimSpace(endpoint), http: client, log: log}
}

func (b *Bridge) List(ctx context.Context) ([]domain.Subscriber, error) {
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse bridge URL: %w", err)
	}

	q := u.Query()
	q.Set("action", actionList)
	u.RawQuery = q.Encode()

	var resp listResponse
	if err = b.http.GetJSON(ctx, u.String(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	subs := make([]domain.Subscriber, 0, len(resp.Subscribers))
	for _, row := range resp.Subscribers {
		subs = append(subs, domain.Subscriber{
			Email:        row.Email,
			Latitude:     float64(row.Latitude),
			Longitude:    float64(row.Longitude),
			LocationName: row.LocationName,
			LastSentDate: row.LastSentDate,
		})
	}

	return filterValid(ctx, b.log, "bridge", subs), nil
}

func (b *Bridge) MarkSent(ctx context.Context, email string, date string) error {
	return b.post(ctx, actionMarkSent, bridgeRequest{
		Action:       actionMarkSent,
		Email:        strings.TrimSpace(email),
		LastSentDate: date,
	})
}

func (b *Bridge) Subscribe(ctx context.Context, sub domain.Subscriber) error {
	if err := Validate(sub); err != nil {
		return fmt.Errorf("validate subscriber: %w", err)
	}

	return b.post(ctx, actionSubscribe, subscribeRequest{
		Action:       actionSubscribe,
		Email:        strings.TrimSpace(sub.Email),
		Latitude:     sub.Latitude,
		Longitude:    sub.Longitude,
		LocationName: strings.TrimSpace(sub.LocationName),
	})
}

func (b *Bridge) Unsubscribe(ctx context.Context, email string) error {
	return b.post(ctx, actionUnsubscribe, bridgeRequest{Action: actionUnsubscribe, Email: strings.TrimSpace(email)})
}

func (b *Bridge) post(ctx context.Context, action string, body any) error {
	if err := b.http.PostJSON(ctx, b.endpoint, body, nil); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	return nil
}
