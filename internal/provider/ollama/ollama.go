package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkrill/glossa/internal/translator"
)

const (
	// DefaultHost points to a local Ollama daemon.
	DefaultHost = "http://localhost:11434"
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-oss:20b"

	defaultTimeout = 120 * time.Second
)

// Client generates text through an Ollama daemon. It prefers /api/chat and
// falls back to /api/generate when the daemon does not expose the chat route.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

// New builds an Ollama client for the given host/model. Blank values use the
// package defaults.
func New(host, model string) *Client {
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = DefaultModel
	}
	return &Client{
		baseURL: normalizeHost(host),
		model:   trimmedModel,
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (c *Client) Name() string {
	return "ollama"
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
		return nil, fmt.Errorf("ollama client is nil")
	}

	started := time.Now()

	content, model, err := c.chat(ctx, prompt, params)
	if err != nil {
		var httpErr *statusError
		if errors.As(err, &httpErr) && httpErr.status == http.StatusNotFound {
			content, model, err = c.generateCompletion(ctx, prompt, params)
		}
	}
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: ollama returned empty content", translator.ErrProviderUnavailable)
	}

	return &translator.Response{
		Text:      content,
		Model:     model,
		LatencyMs: time.Since(started).Milliseconds(),
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
	Options  options       `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Format  string  `json:"format,omitempty"`
	Options options `json:"options"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

type options struct {
	Temperature float64 `json:"temperature"`
	Seed        *int    `json:"seed,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) chat(ctx context.Context, prompt translator.Prompt, params translator.GenerateParams) (string, string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Stream:  false,
		Format:  "json",
		Options: optionsFromParams(params),
	}

	body, err := c.post(ctx, "/api/chat", payload)
	if err != nil {
		return "", "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("%w: decode ollama chat response: %v", translator.ErrProviderUnavailable, err)
	}
	return parsed.Message.Content, parsed.Model, nil
}

func (c *Client) generateCompletion(ctx context.Context, prompt translator.Prompt, params translator.GenerateParams) (string, string, error) {
	payload := generateRequest{
		Model:   c.model,
		Prompt:  prompt.System + "\n\n" + prompt.User,
		Stream:  false,
		Format:  "json",
		Options: optionsFromParams(params),
	}

	body, err := c.post(ctx, "/api/generate", payload)
	if err != nil {
		return "", "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("%w: decode ollama generate response: %v", translator.ErrProviderUnavailable, err)
	}
	return parsed.Response, parsed.Model, nil
}

func optionsFromParams(params translator.GenerateParams) options {
	return options{
		Temperature: params.Temperature,
		Seed:        params.Seed,
		NumPredict:  params.MaxTokens,
	}
}

// statusError preserves the HTTP status so Generate can decide whether the
// chat route is simply missing.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ollama endpoint status %d: %s", e.status, e.message)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read ollama response: %v", translator.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(respBody))
		var errPayload errorResponse
		if unmarshalErr := json.Unmarshal(respBody, &errPayload); unmarshalErr == nil && strings.TrimSpace(errPayload.Error) != "" {
			message = strings.TrimSpace(errPayload.Error)
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: ollama status %d: %s", translator.ErrProviderAuth, resp.StatusCode, message)
		case http.StatusNotFound:
			return nil, &statusError{status: resp.StatusCode, message: message}
		default:
			return nil, fmt.Errorf("%w: ollama status %d: %s", translator.ErrProviderUnavailable, resp.StatusCode, message)
		}
	}

	return respBody, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", translator.ErrProviderTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", translator.ErrProviderTimeout, err)
	}
	return fmt.Errorf("%w: %v", translator.ErrProviderUnavailable, err)
}

func normalizeHost(raw string) string {
	host := strings.TrimSpace(raw)
	if host == "" {
		return DefaultHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}

	parsed, err := url.Parse(host)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultHost
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	return parsed.String()
}
