package reasoning

import (
	"context"
	"testing"
)

type namedProvider struct{ name string }

func (p *namedProvider) Name() string { return p.name }

func (p *namedProvider) Generate(context.Context, string, string) (string, error) {
	return "", nil
}

func TestRegistryResolvesByNameAndDefault(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(" OpenAI ")
	if err := registry.Register(&namedProvider{name: "openai"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(&namedProvider{name: "anthropic"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	provider, err := registry.Provider("")
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if provider.Name() != "openai" {
		t.Fatalf("expected default openai, got %s", provider.Name())
	}

	provider, err = registry.Provider("Anthropic")
	if err != nil {
		t.Fatalf("resolve anthropic: %v", err)
	}
	if provider.Name() != "anthropic" {
		t.Fatalf("unexpected provider %s", provider.Name())
	}

	if _, err := registry.Provider("gemini"); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}
