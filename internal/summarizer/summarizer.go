package summarizer

import (
	"context"
)

// Input describes one generation request.
type Input struct {
	// Instructions is the system prompt governing the output contract.
	Instructions string
	// Text is the user content to work from.
	Text string
}

// Summarizer turns raw content into generated text.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
