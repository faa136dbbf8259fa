package domain

import "time"

// DateLayout is the calendar-day format used for cache partitions and
// last-sent markers.
const DateLayout = "2006-01-02"

type Subscriber struct {
	Email        string  `json:"email"          validate:"required,email"`
	Latitude     float64 `json:"latitude"       validate:"latitude"`
	Longitude    float64 `json:"longitude"      validate:"longitude"`
	LocationName string  `json:"location_name"`
	LastSentDate string  `json:"last_sent_date"`
}

type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source,omitempty"`
}

type Weather struct {
	Temperature   float64 `json:"temp"`
	WindSpeed     float64 `json:"windspeed"`
	WindDirection float64 `json:"winddir"`
	Max           float64 `json:"max"`
	Min           float64 `json:"min"`
	FeelsLike     float64 `json:"feels_like"`
	Sunrise       string  `json:"sunrise"`
	Sunset        string  `json:"sunset"`
	CloudCover    float64 `json:"cloudcover"`
	Precipitation float64 `json:"precipitation"`
	UVIndex       float64 `json:"uv_index"`
	Condition     string  `json:"condition"`
}

// DigestEntry is the shared result for one locality on one calendar day.
type DigestEntry struct {
	Label     string    `json:"label"`
	HTML      string    `json:"html"`
	Weather   Weather   `json:"weather"`
	News      []Article `json:"news"`
	CreatedAt time.Time `json:"created_at"`
}

// Locality identifies the unit of shared work below the date.
type Locality struct {
	Key         string
	Label       string
	City        string
	CountryCode string
	Timezone    string
}
