// Package mailer submits rendered digests to a mail transport.
package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Message is a fully rendered email for one recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message. Failures are returned as *domain.TransportError.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// From is the sender identity shared by every transport.
type From struct {
	Name    string
	Address string
}

func (f From) String() string {
	if f.Name == "" {
		return f.Address
	}
	return fmt.Sprintf("%s <%s>", f.Name, f.Address)
}

// Subject formats the digest subject line for the recipient's local day.
func Subject(localDay time.Time) string {
	return "🌅 SmartBrief — " + localDay.Format("Monday, January 2")
}

// NewMessage builds a message with a plain-text alternative derived from
// the HTML body.
func NewMessage(to string, subject string, html string) (Message, error) {
	text, err := PlainText(html)
	if err != nil {
		return Message{}, fmt.Errorf("extract plain text: %w", err)
	}

	return Message{To: to, Subject: subject, HTML: html, Text: text}, nil
}

// PlainText renders an HTML document as readable text. Links keep their
// target in parentheses and list items become dashes.
func PlainText(doc string) (string, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	d.Find("head, style, script").Remove()

	var b strings.Builder
	writeText(&b, d.Find("body"))

	var lines []string
	blank := true
	for line := range strings.SplitSeq(b.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				lines = append(lines, "")
			}
			blank = true
			continue
		}

		lines = append(lines, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func writeText(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(collapseSpace(c.Text()))
		case "br":
			b.WriteString("\n")
		case "a":
			writeText(b, c)
			if href := strings.TrimSpace(c.AttrOr("href", "")); href != "" {
				fmt.Fprintf(b, " (%s)", href)
			}
		case "li":
			b.WriteString("\n- ")
			writeText(b, c)
		case "p", "div", "ul", "ol", "h1", "h2", "h3", "h4", "table", "tr":
			b.WriteString("\n")
			writeText(b, c)
			b.WriteString("\n")
		default:
			writeText(b, c)
		}
	})
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}

	out := strings.Join(fields, " ")
	if strings.TrimLeft(s[:1], " \t\r\n") == "" {
		out = " " + out
	}
	if strings.TrimRight(s[len(s)-1:], " \t\r\n") == "" {
		out += " "
	}

	return out
}
