package locality

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"smartbrief/internal/domain"

	"github.com/ringsaturn/tzf"
)

// Unknown is returned when coordinates have no civil timezone.
const Unknown = ""

// ZoneFinder maps a coordinate to an IANA timezone name.
// Implementations take longitude first, like tzf.
type ZoneFinder interface {
	GetTimezoneName(lng float64, lat float64) string
}

// Resolver maps coordinates to timezones using an offline dataset.
type Resolver struct {
	finder ZoneFinder

	mu        sync.Mutex
	locations map[string]*time.Location
}

func NewResolver() (*Resolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("create timezone finder: %w", err)
	}

	return NewResolverWithFinder(finder), nil
}

func NewResolverWithFinder(finder ZoneFinder) *Resolver {
	return &Resolver{
		finder:    finder,
		locations: make(map[string]*time.Location),
	}
}

// Zone returns the timezone name for the coordinate, or Unknown.
// Nautical Etc/GMT zones count as Unknown: they are not a subscriber's
// civil time.
func (r *Resolver) Zone(lat, lon float64) string {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Unknown
	}

	name := strings.TrimSpace(r.finder.GetTimezoneName(lon, lat))
	if name == "" || strings.HasPrefix(name, "Etc/") {
		return Unknown
	}

	return name
}

// Location resolves the coordinate to a loaded *time.Location.
func (r *Resolver) Location(lat, lon float64) (*time.Location, error) {
	name := r.Zone(lat, lon)
	if name == Unknown {
		return nil, &domain.ResolutionError{Latitude: lat, Longitude: lon}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if loc, ok := r.locations[name]; ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location (name = %s): %w", name, err)
	}
	r.locations[name] = loc

	return loc, nil
}
