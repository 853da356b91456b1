package escalation

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/samber/mo"
)

// OpenAILLM implements the LLM interface against any OpenAI-compatible chat API.
type OpenAILLM struct {
	client openai.Client
	config LLMConfig
}

// NewOpenAILLM creates an OpenAI-compatible LLM implementation.
// Returns an error if the API key or model is missing.
func NewOpenAILLM(config LLMConfig) (*OpenAILLM, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set COMPLETION_API_KEY or OPENROUTER_API_KEY)", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("%w: temperature %.2f out of range", ErrInvalidConfig, config.Temperature)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		// escalations are attempted exactly once
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &OpenAILLM{
		client: openai.NewClient(opts...),
		config: config,
	}, nil
}

// Complete sends the system instruction and user text to the chat completions API.
func (o *OpenAILLM) Complete(ctx context.Context, system, user string) (mo.Option[string], error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(o.config.Temperature),
	}
	if o.config.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.config.MaxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return mo.None[string](), fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}

	if len(completion.Choices) == 0 {
		return mo.None[string](), nil
	}
	return usableText(completion.Choices[0].Message.Content), nil
}

// usableText trims provider output and treats blank text as absent.
func usableText(content string) mo.Option[string] {
	text := strings.TrimSpace(content)
	if text == "" {
		return mo.None[string]()
	}
	return mo.Some(text)
}
