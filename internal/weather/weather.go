package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"smartbrief/internal/domain"
	"smartbrief/internal/httpclient"
)

const dailyFields = "temperature_2m_max,temperature_2m_min," +
	"apparent_temperature_max,apparent_temperature_min," +
	"sunrise,sunset,precipitation_sum,uv_index_max,cloudcover_mean"

type forecastResponse struct {
	CurrentWeather *struct {
		Temperature   float64 `json:"temperature"`
		WindSpeed     float64 `json:"windspeed"`
		WindDirection float64 `json:"winddirection"`
		WeatherCode   int     `json:"weathercode"`
	} `json:"current_weather"`
	Daily struct {
		TemperatureMax   []float64 `json:"temperature_2m_max"`
		TemperatureMin   []float64 `json:"temperature_2m_min"`
		ApparentMax      []float64 `json:"apparent_temperature_max"`
		ApparentMin      []float64 `json:"apparent_temperature_min"`
		Sunrise          []string  `json:"sunrise"`
		Sunset           []string  `json:"sunset"`
		PrecipitationSum []float64 `json:"precipitation_sum"`
		UVIndexMax       []float64 `json:"uv_index_max"`
		CloudCoverMean   []float64 `json:"cloudcover_mean"`
	} `json:"daily"`
}

// Client fetches today's snapshot from the Open-Meteo forecast API.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

func NewClient(baseURL string, http *httpclient.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    http,
	}
}

func (c *Client) Fetch(ctx context.Context, lat, lon float64) (domain.Weather, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current_weather", "true")
	q.Set("daily", dailyFields)
	q.Set("timezone", "auto")
	q.Set("forecast_days", "1")

	var resp forecastResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/forecast?"+q.Encode(), nil, &resp); err != nil {
		return domain.Weather{}, &domain.FetchError{Source: "weather", Err: err}
	}

	w, err := snapshot(resp)
	if err != nil {
		return domain.Weather{}, &domain.FetchError{Source: "weather", Err: err}
	}

	return w, nil
}

func snapshot(resp forecastResponse) (domain.Weather, error) {
	current := resp.CurrentWeather
	if current == nil {
		return domain.Weather{}, errors.New("current weather is missing")
	}

	daily := resp.Daily
	if len(daily.TemperatureMax) == 0 || len(daily.TemperatureMin) == 0 {
		return domain.Weather{}, errors.New("daily temperature range is missing")
	}

	sunrise, err := clock(daily.Sunrise)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("parse sunrise: %w", err)
	}

	sunset, err := clock(daily.Sunset)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("parse sunset: %w", err)
	}

	feelsLike := (first(daily.ApparentMax, current.Temperature) + first(daily.ApparentMin, current.Temperature)) / 2

	return domain.Weather{
		Temperature:   current.Temperature,
		WindSpeed:     current.WindSpeed,
		WindDirection: current.WindDirection,
		Max:           daily.TemperatureMax[0],
		Min:           daily.TemperatureMin[0],
		FeelsLike:     math.Round(feelsLike*10) / 10,
		Sunrise:       sunrise,
		Sunset:        sunset,
		CloudCover:    first(daily.CloudCoverMean, 0),
		Precipitation: first(daily.PrecipitationSum, 0),
		UVIndex:       first(daily.UVIndexMax, 0),
		Condition:     Condition(current.WeatherCode),
	}, nil
}

func first(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}

	return values[0]
}

// clock extracts HH:MM from an ISO local timestamp such as 2026-10-14T06:09.
func clock(values []string) (string, error) {
	if len(values) == 0 {
		return "", errors.New("value is missing")
	}

	_, hm, ok := strings.Cut(values[0], "T")
	if !ok || len(hm) < len("15:04") {
		return "", fmt.Errorf("unexpected format (value = %s)", values[0])
	}

	return hm[:len("15:04")], nil
}
