package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"smartbrief/internal/domain"
	"smartbrief/internal/httpclient"
)

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
	} `json:"articles"`
}

// NewsAPI is a client for newsapi.org v2.
type NewsAPI struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
}

func NewNewsAPI(baseURL, apiKey string, client *httpclient.Client) *NewsAPI {
	return &NewsAPI{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    client,
	}
}

// City returns the strategy searching articles that mention the city.
func (n *NewsAPI) City() Strategy {
	return cityStrategy{api: n}
}

// Country returns the strategy reading a country's general top headlines.
func (n *NewsAPI) Country() Strategy {
	return countryStrategy{api: n}
}

func (n *NewsAPI) get(ctx context.Context, path string, q url.Values) ([]domain.Article, error) {
	header := http.Header{"X-Api-Key": {n.apiKey}}

	var resp newsAPIResponse
	if err := n.http.GetJSON(ctx, n.baseURL+path+"?"+q.Encode(), header, &resp); err != nil {
		return nil, &domain.FetchError{Source: "newsapi", Err: err}
	}

	if resp.Status != "ok" {
		return nil, &domain.FetchError{
			Source: "newsapi",
			Err:    fmt.Errorf("status %s (code = %s): %s", resp.Status, resp.Code, resp.Message),
		}
	}

	articles := make([]domain.Article, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, domain.Article{
			Title:   a.Title,
			URL:     a.URL,
			Snippet: a.Description,
			Source:  a.Source.Name,
		})
	}

	return articles, nil
}

type cityStrategy struct {
	api *NewsAPI
}

func (cityStrategy) Name() string { return "city" }

func (cityStrategy) Applies(q Query) bool {
	return strings.TrimSpace(q.City) != ""
}

func (s cityStrategy) Fetch(ctx context.Context, q Query, limit int) ([]domain.Article, error) {
	city := strings.TrimSpace(q.City)
	if city == "" {
		return nil, errors.New("city is empty")
	}

	v := url.Values{}
	v.Set("q", strconv.Quote(city))
	v.Set("searchIn", "title,description")
	v.Set("language", "en")
	v.Set("sortBy", "publishedAt")
	v.Set("pageSize", strconv.Itoa(limit))

	return s.api.get(ctx, "/everything", v)
}

type countryStrategy struct {
	api *NewsAPI
}

func (countryStrategy) Name() string { return "country" }

func (countryStrategy) Applies(q Query) bool {
	return len(strings.TrimSpace(q.CountryCode)) == 2
}

func (s countryStrategy) Fetch(ctx context.Context, q Query, limit int) ([]domain.Article, error) {
	v := url.Values{}
	v.Set("country", strings.ToLower(strings.TrimSpace(q.CountryCode)))
	v.Set("category", "general")
	v.Set("pageSize", strconv.Itoa(limit))

	return s.api.get(ctx, "/top-headlines", v)
}
