package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smartbrief/internal/domain"
	"smartbrief/internal/httpclient"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	placeTTL        = 24 * time.Hour
	placeMaxEntries = 1024
)

// Place is the city-level answer of a reverse geocoder.
type Place struct {
	City        string
	CountryCode string
}

type reverseResponse struct {
	City        string `json:"city"`
	Locality    string `json:"locality"`
	CountryCode string `json:"countryCode"`
}

// Client reverse-geocodes coordinates with the BigDataCloud client API.
// Answers are memoized by coordinate rounded to about a kilometre.
type Client struct {
	baseURL string
	http    *httpclient.Client
	places  *expirable.LRU[string, Place]
}

func NewClient(baseURL string, http *httpclient.Client) *Client {
	return newClient(baseURL, http, placeMaxEntries, placeTTL)
}

func newClient(baseURL string, http *httpclient.Client, maxEntries int, ttl time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSpace(baseURL),
		http:    http,
		places:  expirable.NewLRU[string, Place](maxEntries, nil, ttl),
	}
}

func placeKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

func (c *Client) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	key := placeKey(lat, lon)

	if place, ok := c.places.Get(key); ok {
		return place, nil
	}

	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("localityLanguage", "en")

	var resp reverseResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"?"+q.Encode(), nil, &resp); err != nil {
		return Place{}, &domain.FetchError{Source: "geocoder", Err: err}
	}

	city := strings.TrimSpace(resp.City)
	if city == "" {
		city = strings.TrimSpace(resp.Locality)
	}

	place := Place{
		City:        city,
		CountryCode: strings.ToLower(strings.TrimSpace(resp.CountryCode)),
	}
	if place.City == "" && place.CountryCode == "" {
		return Place{}, &domain.FetchError{Source: "geocoder", Err: errors.New("no place for coordinates")}
	}

	c.places.Add(key, place)

	return place, nil
}
