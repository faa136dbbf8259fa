package news

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"smartbrief/internal/domain"
	"smartbrief/internal/httpclient"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const maxSnippetChars = 300

// FeedStrategy reads an unfiltered RSS or Atom feed. It is the last,
// broadest scope of the cascade.
type FeedStrategy struct {
	url    string
	http   *httpclient.Client
	parser *gofeed.Parser
}

func NewFeedStrategy(feedURL string, client *httpclient.Client) *FeedStrategy {
	return &FeedStrategy{
		url:    strings.TrimSpace(feedURL),
		http:   client,
		parser: gofeed.NewParser(),
	}
}

func (s *FeedStrategy) Name() string { return "global" }

func (s *FeedStrategy) Applies(Query) bool {
	return s.url != ""
}

func (s *FeedStrategy) Fetch(ctx context.Context, _ Query, limit int) ([]domain.Article, error) {
	body, err := s.http.Get(ctx, s.url, http.Header{
		"Accept": {"application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"},
	})
	if err != nil {
		return nil, &domain.FetchError{Source: "global feed", Err: err}
	}
	defer body.Close()

	parsed, err := s.parser.Parse(body)
	if err != nil {
		return nil, &domain.FetchError{Source: "global feed", Err: fmt.Errorf("parse feed: %w", err)}
	}

	source := strings.TrimSpace(parsed.Title)

	articles := make([]domain.Article, 0, min(limit, len(parsed.Items)))
	for _, item := range parsed.Items {
		if len(articles) >= limit {
			break
		}

		if item == nil {
			continue
		}

		articles = append(articles, domain.Article{
			Title:   item.Title,
			URL:     item.Link,
			Snippet: plainText(item.Description),
			Source:  source,
		})
	}

	return articles, nil
}

// plainText flattens feed descriptions, which are often HTML fragments.
func plainText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}

	text := fragment
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
		text = doc.Text()
	}

	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > maxSnippetChars {
		text = strings.TrimSpace(string(runes[:maxSnippetChars])) + "…"
	}

	return text
}
