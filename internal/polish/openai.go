// Package polish rewrites raw transcripts into cleaner prose through a
// chat completion model. Polishing is optional and never fatal, a failed
// request leaves the raw transcript in place.
package polish

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/WanderingAstronomer/Vociferous-sub003/pkg/logger"
)

const defaultInstructions = "You are a transcript editor. Fix punctuation, casing and obvious " +
	"mis-hearings in the transcript you are given. Preserve the speaker's wording and meaning. " +
	"Reply with the corrected transcript only."

// Settings configures the OpenAI polisher
type Settings struct {
	APIKey       string
	BaseURL      string // optional override for OpenAI-compatible endpoints
	Model        string
	Temperature  float64
	Instructions string // optional override for the system prompt
}

// OpenAIPolisher rewrites transcripts with the OpenAI chat completions API
type OpenAIPolisher struct {
	client       openai.Client
	model        string
	temperature  float64
	instructions string
	logger       *logger.Logger
}

// NewOpenAIPolisher creates a polisher from settings
func NewOpenAIPolisher(settings Settings, log *logger.Logger) (*OpenAIPolisher, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("polisher requires an API key")
	}

	opts := []option.RequestOption{option.WithAPIKey(settings.APIKey)}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}

	model := settings.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	instructions := settings.Instructions
	if instructions == "" {
		instructions = defaultInstructions
	}

	return &OpenAIPolisher{
		client:       openai.NewClient(opts...),
		model:        model,
		temperature:  settings.Temperature,
		instructions: instructions,
		logger:       log.Named("polish"),
	}, nil
}

// Polish rewrites the transcript and returns the corrected text
func (p *OpenAIPolisher) Polish(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return text, nil
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.instructions),
			openai.UserMessage(trimmed),
		},
		Temperature: openai.Float(p.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to polish transcript: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("polish response contained no choices")
	}

	polished := strings.TrimSpace(resp.Choices[0].Message.Content)
	if polished == "" {
		return "", fmt.Errorf("polish response was empty")
	}

	p.logger.Debug("Transcript polished",
		logger.Int("input_chars", len(trimmed)),
		logger.Int("output_chars", len(polished)),
	)
	return polished, nil
}
