package translator

import (
	"context"
	"strings"
	"testing"
)

type namedProvider struct {
	name string
}

func (p *namedProvider) Name() string { return p.name }

func (p *namedProvider) Generate(context.Context, Prompt, GenerateParams) (*Response, error) {
	return &Response{Text: `{"translation": "ok"}`}, nil
}

func TestRegistryEmpty(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if _, err := registry.Provider(""); err == nil {
		t.Error("empty registry lookup should fail")
	}
}

func TestRegistryFirstRegisteredIsDefault(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if err := registry.Register(&namedProvider{name: "ollama"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := registry.Register(&namedProvider{name: "openai"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if got := registry.DefaultProvider(); got != "ollama" {
		t.Errorf("DefaultProvider = %q, want %q", got, "ollama")
	}
	provider, err := registry.Provider("")
	if err != nil {
		t.Fatalf("Provider returned error: %v", err)
	}
	if provider.Name() != "ollama" {
		t.Errorf("default lookup = %q, want %q", provider.Name(), "ollama")
	}
}

func TestRegistryConfiguredDefault(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("OpenAI")
	if err := registry.Register(&namedProvider{name: "ollama"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := registry.Register(&namedProvider{name: "openai"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	provider, err := registry.Provider("")
	if err != nil {
		t.Fatalf("Provider returned error: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("default lookup = %q, want configured %q", provider.Name(), "openai")
	}
}

func TestRegistryLookupNormalizesName(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if err := registry.Register(&namedProvider{name: "Ollama"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	provider, err := registry.Provider("  OLLAMA ")
	if err != nil {
		t.Fatalf("Provider returned error: %v", err)
	}
	if provider.Name() != "Ollama" {
		t.Errorf("lookup = %q", provider.Name())
	}
}

func TestRegistryUnknownProviderListsAvailable(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if err := registry.Register(&namedProvider{name: "ollama"}); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, err := registry.Provider("claude")
	if err == nil {
		t.Fatal("unknown provider lookup should fail")
	}
	if !strings.Contains(err.Error(), "ollama") {
		t.Errorf("error should list available providers: %v", err)
	}
}

func TestRegistryRejectsNilAndUnnamed(t *testing.T) {
	t.Parallel()

	registry := NewRegistry("")
	if err := registry.Register(nil); err == nil {
		t.Error("nil provider should be rejected")
	}
	if err := registry.Register(&namedProvider{name: "  "}); err == nil {
		t.Error("unnamed provider should be rejected")
	}
}
