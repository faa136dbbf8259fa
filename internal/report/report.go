// Package report renders the digest cache for operators. It only reads the
// cache file and never takes the run lock.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"smartbrief/internal/cache"
	"smartbrief/internal/domain"
)

type Location struct {
	Key       string           `json:"key"`
	Label     string           `json:"label"`
	Weather   domain.Weather   `json:"weather"`
	News      []domain.Article `json:"news"`
	HTML      string           `json:"html"`
	CreatedAt time.Time        `json:"created_at"`
}

// Day is the cache content for one date.
type Day struct {
	Date      string     `json:"date"`
	Found     bool       `json:"found"`
	Quote     string     `json:"quote"`
	Locations []Location `json:"locations"`
	// Available lists every date present in the cache.
	Available []string `json:"available"`
}

// Load reads the cache file at path and extracts date.
func Load(path string, date string) (Day, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return Day{}, fmt.Errorf("date %q is not YYYY-MM-DD", date)
	}

	doc, err := cache.ReadFile(path)
	if err != nil {
		return Day{}, err
	}

	day := Day{Date: date, Available: doc.Dates(), Locations: []Location{}}

	partition, ok := doc[date]
	if !ok || partition == nil {
		return day, nil
	}

	day.Found = true
	day.Quote = partition.Quote

	for key, entry := range partition.Locations {
		day.Locations = append(day.Locations, Location{
			Key:       key,
			Label:     entry.Label,
			Weather:   entry.Weather,
			News:      entry.News,
			HTML:      entry.HTML,
			CreatedAt: entry.CreatedAt,
		})
	}

	slices.SortFunc(day.Locations, func(a, b Location) int {
		return strings.Compare(a.Key, b.Key)
	})

	return day, nil
}

func (d Day) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(d)
}

func (d Day) WriteText(w io.Writer) error {
	var b strings.Builder

	if !d.Found {
		fmt.Fprintf(&b, "No cached digests for %s.\n", d.Date)
		if len(d.Available) > 0 {
			fmt.Fprintf(&b, "Cached dates: %s\n", strings.Join(d.Available, ", "))
		}

		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "SmartBrief cache for %s: %d localities\n", d.Date, len(d.Locations))
	if d.Quote != "" {
		fmt.Fprintf(&b, "Quote: %s\n", d.Quote)
	} else {
		b.WriteString("Quote: (none)\n")
	}

	for _, loc := range d.Locations {
		wx := loc.Weather

		fmt.Fprintf(&b, "\n[%s] %s\n", loc.Key, loc.Label)
		fmt.Fprintf(&b, "  Weather: %s, %.1f to %.1f°C, feels like %.1f°C, sunrise %s, sunset %s\n",
			wx.Condition, wx.Min, wx.Max, wx.FeelsLike, wx.Sunrise, wx.Sunset)

		fmt.Fprintf(&b, "  News (%d):\n", len(loc.News))
		for i, a := range loc.News {
			fmt.Fprintf(&b, "    %d. %s\n       %s\n", i+1, a.Title, a.URL)
		}

		fmt.Fprintf(&b, "  HTML: %d bytes, created %s\n", len(loc.HTML), loc.CreatedAt.UTC().Format(time.RFC3339))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
