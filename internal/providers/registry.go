package providers

import (
	"fmt"
	"strings"
)

// Options holds the credentials and defaults needed to construct a provider.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New selects a provider implementation by model keyword: claude-family
// models go through the Anthropic SDK, everything else through the
// OpenAI-compatible client.
func New(opts Options) (Provider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("provider api key is required")
	}
	lower := strings.ToLower(opts.Model)
	if strings.Contains(lower, "claude") || strings.Contains(lower, "anthropic") {
		return NewAnthropicProvider(opts.APIKey), nil
	}
	return NewOpenAIProvider(opts.APIKey, opts.BaseURL, opts.Model), nil
}
