package providers

import "testing"

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Options{Model: "gpt-4o"}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestNewSelectsByModel(t *testing.T) {
	p, err := New(Options{APIKey: "k", Model: "claude-sonnet-4-20250514"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := p.(*AnthropicProvider); !ok {
		t.Errorf("claude model got %T, want AnthropicProvider", p)
	}

	p, err = New(Options{APIKey: "k", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := p.(*OpenAIProvider); !ok {
		t.Errorf("gpt model got %T, want OpenAIProvider", p)
	}
}
