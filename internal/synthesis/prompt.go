package synthesis

import (
	"fmt"
	"strings"
	"time"

	"smartbrief/internal/domain"
)

// Section names the generated fragment must carry as data-section attributes.
const (
	SectionGreeting = "greeting"
	SectionWeather  = "weather"
	SectionNews     = "news"
	SectionQuote    = "quote"
)

const instructions = `You are a calm, premium AI morning assistant writing the body of a daily email.

Output rules:
- Answer with an HTML fragment only. No markdown, no code fences, no <html>, <head>, <body>, <script> or <style> tags.
- Use only these tags: <div>, <p>, <b>, <i>, <ul>, <li>, <a>, <br>.
- Wrap each part in a <div> with a data-section attribute, in this order:
  1) data-section="greeting": a warm Good Morning greeting naming the location and date.
  2) data-section="weather": a bold "Weather Snapshot" line, a bullet list with min, max, feels like, sunrise and sunset, then a 2-3 line weather summary.
  3) data-section="news": a bold "Top News" line and a bullet list, one item per supplied article, 1-2 sentences each, each ending with <a href="URL">Read more</a>. If no articles are supplied, write one short line saying there is no major news today.
  4) data-section="quote": the supplied quote, unchanged. Omit this part when no quote is supplied.
- Every href MUST be copied character for character from the supplied article URLs. Never invent, shorten or modify a URL, and never write any URL outside an href.`

// Input is the raw content for one locality's digest.
type Input struct {
	Label   string
	Date    time.Time
	Weather domain.Weather
	News    []domain.Article
	Quote   string
}

func buildPrompt(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Location: %s\n", in.Label)
	fmt.Fprintf(&b, "Date: %s\n\n", in.Date.Format("Monday, 02 January 2006"))

	w := in.Weather
	b.WriteString("Weather details:\n")
	fmt.Fprintf(&b, "Condition: %s\n", w.Condition)
	fmt.Fprintf(&b, "Now: %.1f°C\n", w.Temperature)
	fmt.Fprintf(&b, "Min: %.1f°C\n", w.Min)
	fmt.Fprintf(&b, "Max: %.1f°C\n", w.Max)
	fmt.Fprintf(&b, "Feels Like: %.1f°C\n", w.FeelsLike)
	fmt.Fprintf(&b, "Sunrise: %s\n", w.Sunrise)
	fmt.Fprintf(&b, "Sunset: %s\n", w.Sunset)
	fmt.Fprintf(&b, "Wind: %.1f km/h from %.0f°\n", w.WindSpeed, w.WindDirection)
	fmt.Fprintf(&b, "Cloud cover: %.0f%%\n", w.CloudCover)
	fmt.Fprintf(&b, "Precipitation: %.1f mm\n", w.Precipitation)
	fmt.Fprintf(&b, "UV index: %.1f\n\n", w.UVIndex)

	b.WriteString("News:\n")
	if len(in.News) == 0 {
		b.WriteString("No articles supplied.\n")
	}
	for i, a := range in.News {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Title)
		if a.Source != "" {
			fmt.Fprintf(&b, "   Source: %s\n", a.Source)
		}
		if a.Snippet != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", a.Snippet)
		}
		fmt.Fprintf(&b, "   URL: %s\n", a.URL)
	}

	b.WriteString("\nQuote:\n")
	if strings.TrimSpace(in.Quote) == "" {
		b.WriteString("None supplied.\n")
	} else {
		b.WriteString(in.Quote + "\n")
	}

	return b.String()
}
