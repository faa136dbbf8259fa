package locality

import (
	"fmt"
	"strings"
	"unicode"

	"smartbrief/internal/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeCity folds case, accents and punctuation so that freeform
// reverse-geocoding labels for the same city produce the same text.
func NormalizeCity(city string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, city)
	if err != nil {
		folded = city
	}

	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// FromSubscriber derives the locality of a subscriber whose coordinates
// resolved to timezone. The cache key is the normalized city qualified by
// the timezone, so "Bengaluru" and "bengaluru, India" share an entry while
// same-named cities in different zones do not.
func FromSubscriber(sub domain.Subscriber, timezone string) domain.Locality {
	label := strings.TrimSpace(sub.LocationName)
	city, country := splitLabel(label)

	keyCity := NormalizeCity(city)
	if keyCity == "" {
		keyCity = fmt.Sprintf("%.1f,%.1f", sub.Latitude, sub.Longitude)
	}

	if label == "" {
		label = keyCity
	}

	return domain.Locality{
		Key:         keyCity + "@" + strings.ToLower(timezone),
		Label:       label,
		City:        city,
		CountryCode: country,
		Timezone:    timezone,
	}
}

func splitLabel(label string) (string, string) {
	parts := strings.Split(label, ",")

	city := strings.TrimSpace(parts[0])
	if len(parts) < 2 {
		return city, ""
	}

	last := strings.TrimSpace(parts[len(parts)-1])
	if len(last) == 2 && isASCIILetters(last) {
		return city, strings.ToLower(last)
	}

	return city, ""
}

func isASCIILetters(s string) bool {
	for i := range len(s) {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}

	return true
}
