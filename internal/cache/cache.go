// Package cache stores shared digest content partitioned by calendar day and
// locality. Reads are only ever made for the caller's current day; older days
// stay in the document untouched until something outside the process prunes
// them.
package cache

import (
	"maps"
	"slices"
	"sync"

	"smartbrief/internal/domain"
)

type Store interface {
	Get(date, key string) (domain.DigestEntry, bool)
	// Put stores entry unless one already exists for (date, key).
	// It reports whether entry was written.
	Put(date, key string, entry domain.DigestEntry) (bool, error)
	DailyQuote(date string) (string, bool)
	PutDailyQuote(date, text string) (bool, error)
}

// Day is one date partition of the cache document.
type Day struct {
	Quote     string                        `json:"quote"`
	Locations map[string]domain.DigestEntry `json:"locations"`
}

// Document is keyed by ISO date.
type Document map[string]*Day

func (d Document) Dates() []string {
	return slices.Sorted(maps.Keys(d))
}

type MemoryStore struct {
	mu  sync.Mutex
	doc Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{doc: make(Document)}
}

func (s *MemoryStore) Get(date, key string) (domain.DigestEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.get(date, key)
}

func (s *MemoryStore) Put(date, key string, entry domain.DigestEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.put(date, key, entry), nil
}

func (s *MemoryStore) DailyQuote(date string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.quote(date)
}

func (s *MemoryStore) PutDailyQuote(date, text string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.putQuote(date, text), nil
}

func (d Document) day(date string) *Day {
	day, ok := d[date]
	if !ok || day == nil {
		day = &Day{}
		d[date] = day
	}

	if day.Locations == nil {
		day.Locations = make(map[string]domain.DigestEntry)
	}

	return day
}

func (d Document) get(date, key string) (domain.DigestEntry, bool) {
	day, ok := d[date]
	if !ok || day == nil {
		return domain.DigestEntry{}, false
	}

	entry, ok := day.Locations[key]
	if !ok {
		return domain.DigestEntry{}, false
	}

	entry.News = slices.Clone(entry.News)

	return entry, true
}

func (d Document) put(date, key string, entry domain.DigestEntry) bool {
	if date == "" || key == "" {
		return false
	}

	day := d.day(date)
	if _, ok := day.Locations[key]; ok {
		return false
	}

	entry.News = slices.Clone(entry.News)
	day.Locations[key] = entry

	return true
}

func (d Document) quote(date string) (string, bool) {
	day, ok := d[date]
	if !ok || day == nil || day.Quote == "" {
		return "", false
	}

	return day.Quote, true
}

func (d Document) putQuote(date, text string) bool {
	if date == "" || text == "" {
		return false
	}

	day := d.day(date)
	if day.Quote != "" {
		return false
	}
	day.Quote = text

	return true
}
