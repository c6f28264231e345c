package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/mkrill/glossa/internal/translator"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// Client generates text through the OpenAI chat completions API.
type Client struct {
	client openai.Client
	model  string
}

// New builds an OpenAI client. The API key is required; a blank model uses
// DefaultModel.
func New(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is not set", translator.ErrProviderAuth)
	}
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = DefaultModel
	}
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  trimmedModel,
	}, nil
}

func (c *Client) Name() string {
	return "openai"
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	if c == nil {
		return ""
	}
	return c.model
}

func (c *Client) Generate(ctx context.Context, prompt translator.Prompt, params translator.GenerateParams) (*translator.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("openai client is nil")
	}

	chatParams := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
		Temperature: openai.Float(params.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	}
	if params.Seed != nil {
		chatParams.Seed = openai.Int(int64(*params.Seed))
	}
	if params.MaxTokens > 0 {
		chatParams.MaxTokens = openai.Int(int64(params.MaxTokens))
	}

	started := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, chatParams)
	if err != nil {
		return nil, classifyAPIError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: no completion choices returned", translator.ErrProviderUnavailable)
	}

	return &translator.Response{
		Text:        completion.Choices[0].Message.Content,
		Model:       string(completion.Model),
		LatencyMs:   time.Since(started).Milliseconds(),
		TotalTokens: int(completion.Usage.TotalTokens),
	}, nil
}

func classifyAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", translator.ErrProviderTimeout, err)
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", translator.ErrProviderAuth, err)
		}
	}
	return fmt.Errorf("%w: %v", translator.ErrProviderUnavailable, err)
}
