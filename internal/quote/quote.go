package quote

import (
	"context"
	"errors"
	"strings"

	"smartbrief/internal/domain"
	"smartbrief/internal/httpclient"
)

type zenQuote struct {
	Quote  string `json:"q"`
	Author string `json:"a"`
}

// Client fetches the quote of the day from a ZenQuotes-compatible endpoint.
type Client struct {
	url  string
	http *httpclient.Client
}

func NewClient(url string, http *httpclient.Client) *Client {
	return &Client{url: strings.TrimSpace(url), http: http}
}

func (c *Client) Fetch(ctx context.Context) (string, error) {
	var quotes []zenQuote
	if err := c.http.GetJSON(ctx, c.url, nil, &quotes); err != nil {
		return "", &domain.FetchError{Source: "quote", Err: err}
	}

	if len(quotes) == 0 {
		return "", &domain.FetchError{Source: "quote", Err: errors.New("response is empty")}
	}

	text := strings.TrimSpace(quotes[0].Quote)
	if text == "" {
		return "", &domain.FetchError{Source: "quote", Err: errors.New("quote text is missing")}
	}

	if author := strings.TrimSpace(quotes[0].Author); author != "" {
		return "“" + text + "” — " + author, nil
	}

	return "“" + text + "”", nil
}
