package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkrill/glossa/internal/translator"
)

func testPrompt() translator.Prompt {
	return translator.Prompt{
		System: "You are a translation engine.",
		User:   "Translate: hello",
	}
}

func TestGenerateChat(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "qwen2.5",
			"message": map[string]string{"content": `{"translation": "你好"}`},
		})
	}))
	defer server.Close()

	client := New(server.URL, "qwen2.5")
	seed := 7
	resp, err := client.Generate(context.Background(), testPrompt(), translator.GenerateParams{
		Temperature: 0.2,
		Seed:        &seed,
		MaxTokens:   512,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if resp.Text != `{"translation": "你好"}` {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Model != "qwen2.5" {
		t.Errorf("Model = %q", resp.Model)
	}

	if gotReq.Model != "qwen2.5" {
		t.Errorf("request model = %q", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("request should not stream")
	}
	if gotReq.Format != "json" {
		t.Errorf("request format = %q, want json", gotReq.Format)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Options.Temperature != 0.2 {
		t.Errorf("temperature = %v", gotReq.Options.Temperature)
	}
	if gotReq.Options.Seed == nil || *gotReq.Options.Seed != 7 {
		t.Errorf("seed = %v", gotReq.Options.Seed)
	}
	if gotReq.Options.NumPredict != 512 {
		t.Errorf("num_predict = %d", gotReq.Options.NumPredict)
	}
}

func TestGenerateFallsBackWhenChatMissing(t *testing.T) {
	t.Parallel()

	var generateCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			http.NotFound(w, r)
		case "/api/generate":
			generateCalled = true
			var req generateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode generate request: %v", err)
			}
			if !strings.Contains(req.Prompt, "You are a translation engine.") || !strings.Contains(req.Prompt, "Translate: hello") {
				t.Errorf("generate prompt is missing the system or user part:\n%s", req.Prompt)
			}
			json.NewEncoder(w).Encode(map[string]string{
				"model":    "qwen2.5",
				"response": `{"translation": "你好"}`,
			})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	client := New(server.URL, "qwen2.5")
	resp, err := client.Generate(context.Background(), testPrompt(), translator.GenerateParams{})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !generateCalled {
		t.Error("fallback to /api/generate did not happen")
	}
	if resp.Text != `{"translation": "你好"}` {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestGenerateErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"error": "missing api key"}`,
			wantErr: translator.ErrProviderAuth,
		},
		{
			name:    "forbidden",
			status:  http.StatusForbidden,
			body:    `{"error": "denied"}`,
			wantErr: translator.ErrProviderAuth,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"error": "model not loaded"}`,
			wantErr: translator.ErrProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := New(server.URL, "qwen2.5")
			_, err := client.Generate(context.Background(), testPrompt(), translator.GenerateParams{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateEmptyContent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "qwen2.5",
			"message": map[string]string{"content": "   "},
		})
	}))
	defer server.Close()

	client := New(server.URL, "qwen2.5")
	_, err := client.Generate(context.Background(), testPrompt(), translator.GenerateParams{})
	if !errors.Is(err, translator.ErrProviderUnavailable) {
		t.Errorf("error = %v, want %v", err, translator.ErrProviderUnavailable)
	}
}

func TestGenerateConnectionRefused(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := New(server.URL, "qwen2.5")
	_, err := client.Generate(context.Background(), testPrompt(), translator.GenerateParams{})
	if !errors.Is(err, translator.ErrProviderUnavailable) {
		t.Errorf("error = %v, want %v", err, translator.ErrProviderUnavailable)
	}
}

func TestNormalizeHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: DefaultHost},
		{in: "   ", want: DefaultHost},
		{in: "localhost:11434", want: "http://localhost:11434"},
		{in: "http://ollama.internal:11434/", want: "http://ollama.internal:11434"},
		{in: "https://ollama.internal", want: "https://ollama.internal"},
	}

	for _, tt := range tests {
		if got := normalizeHost(tt.in); got != tt.want {
			t.Errorf("normalizeHost(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	client := New("", "")
	if client.baseURL != DefaultHost {
		t.Errorf("baseURL = %q, want %q", client.baseURL, DefaultHost)
	}
	if client.ModelName() != DefaultModel {
		t.Errorf("ModelName = %q, want %q", client.ModelName(), DefaultModel)
	}
}
