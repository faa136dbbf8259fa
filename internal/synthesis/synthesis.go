// Package synthesis turns one locality's raw content into the rendered
// digest email through a generative backend. Generated output is sanitized
// and then checked mechanically; anything failing the check is returned as
// a *domain.ContractViolation and must not be cached or sent.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"

	"smartbrief/internal/domain"
	"smartbrief/internal/summarizer"
)

type Engine struct {
	backend summarizer.Summarizer
	log     *slog.Logger
}

func NewEngine(backend summarizer.Summarizer, log *slog.Logger) *Engine {
	return &Engine{backend: backend, log: log}
}

// Synthesize returns the full HTML document for in.
func (e *Engine) Synthesize(ctx context.Context, in Input) (string, error) {
	raw, err := e.backend.Summarize(ctx, summarizer.Input{
		Instructions: instructions,
		Text:         buildPrompt(in),
	})
	if err != nil {
		return "", &domain.FetchError{Source: "synthesis", Err: err}
	}

	fragment, err := Validate(Sanitize(raw), in)
	if err != nil {
		e.log.WarnContext(ctx, "Generated digest is rejected",
			"error", err,
			"label", in.Label,
			"rawLength", len(raw))

		return "", err
	}

	doc, err := Render(fragment, in.Label, in.Date)
	if err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}

	return doc, nil
}
