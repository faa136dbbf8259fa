package synthesis

import (
	"fmt"
	"strings"

	"smartbrief/internal/domain"
	"smartbrief/internal/markdown"

	"github.com/PuerkitoBio/goquery"
	"mvdan.cc/xurls/v2"
)

const forbiddenSelector = "script, style, iframe, object, embed, form, link, meta"

var strictURLs = xurls.Strict()

// Sanitize strips formatting artifacts from raw generated text.
func Sanitize(raw string) string {
	return strings.TrimSpace(markdown.StripEmphasis(markdown.StripFences(raw)))
}

// Validate checks a sanitized fragment against the output contract and
// returns the fragment body ready for the layout. Every href and every
// bare URL in the text must be one of the article URLs in.News.
func Validate(fragment string, in Input) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", violation("output is empty")
	}

	if markdown.HasArtifacts(fragment) {
		return "", violation("output contains markdown artifacts")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", violation(fmt.Sprintf("parse html: %v", err))
	}

	if n := doc.Find(forbiddenSelector).Length(); n > 0 {
		return "", violation(fmt.Sprintf("output contains %d forbidden elements", n))
	}

	required := []string{SectionGreeting, SectionWeather, SectionNews}
	if strings.TrimSpace(in.Quote) != "" {
		required = append(required, SectionQuote)
	}
	for _, name := range required {
		if doc.Find(fmt.Sprintf("[data-section=%q]", name)).Length() == 0 {
			return "", violation(fmt.Sprintf("section %q is missing", name))
		}
	}

	allowed := make(map[string]struct{}, len(in.News))
	for _, a := range in.News {
		allowed[a.URL] = struct{}{}
	}

	var bad string
	doc.Find("[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if _, ok := allowed[href]; !ok {
			bad = href
			return false
		}
		return true
	})
	if bad != "" {
		return "", violation(fmt.Sprintf("href %q is not a supplied article URL", bad))
	}

	body := doc.Find("body")
	body.Find("*").AddBack().Contents().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) != "#text" {
			return true
		}
		for _, u := range strictURLs.FindAllString(s.Text(), -1) {
			if _, ok := allowed[u]; !ok {
				bad = u
				return false
			}
		}
		return true
	})
	if bad != "" {
		return "", violation(fmt.Sprintf("text URL %q is not a supplied article URL", bad))
	}

	out, err := body.Html()
	if err != nil {
		return "", violation(fmt.Sprintf("render html: %v", err))
	}

	return strings.TrimSpace(out), nil
}

// Hrefs lists every href value in an HTML document in document order.
func Hrefs(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	hrefs := make([]string, 0)
	doc.Find("[href]").Each(func(_ int, s *goquery.Selection) {
		hrefs = append(hrefs, strings.TrimSpace(s.AttrOr("href", "")))
	})

	return hrefs, nil
}

func violation(reason string) error {
	return &domain.ContractViolation{Reason: reason}
}
