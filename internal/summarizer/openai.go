package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	baseMaxOutputTokens  int64 = 4096
	limitMaxOutputTokens int64 = 16384

	DefaultModel = openai.ChatModelGPT5Mini
)

// OpenAISummarizer calls OpenAI's Responses API.
type OpenAISummarizer struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAISummarizer builds a new summarizer instance. An empty model
// selects DefaultModel.
func NewOpenAISummarizer(apiKey string, model string, opts ...option.RequestOption) (*OpenAISummarizer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("API key is empty")
	}

	m := openai.ChatModel(strings.TrimSpace(model))
	if m == "" {
		m = DefaultModel
	}

	return &OpenAISummarizer{
		client: openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
		model:  m,
	}, nil
}

func (s *OpenAISummarizer) Summarize(
	ctx context.Context,
	input Input,
) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", errors.New("input is empty")
	}

	maxOutputTokens := baseMaxOutputTokens
	for {
		resp, err := s.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           s.model,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Instructions: openai.String(input.Instructions),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(text),
			},
		})
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			}
			return "", fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		output := strings.TrimSpace(resp.OutputText())
		if output == "" {
			return "", fmt.Errorf("output text is missing (status = %s)", resp.Status)
		}
		return output, nil
	}
}
