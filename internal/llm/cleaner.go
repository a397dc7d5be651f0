package llm

import (
	"context"
	"fmt"
)

// Cleaner wraps a Provider for page-at-a-time text cleanup.
type Cleaner struct {
	provider Provider
	config   Config
}

// NewCleaner creates a Cleaner from configuration. With no provider
// configured the Cleaner is disabled rather than failing.
func NewCleaner(config Config) (*Cleaner, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return &Cleaner{provider: provider, config: config}, nil
}

// IsEnabled reports whether a provider is configured.
func (c *Cleaner) IsEnabled() bool {
	return c != nil && c.provider != nil
}

// CleanPage cleans one page of corrected text. Empty input short-circuits
// without an API call.
func (c *Cleaner) CleanPage(ctx context.Context, text string) (string, error) {
	if !c.IsEnabled() {
		return text, nil
	}
	if text == "" {
		return "", nil
	}

	resp, err := c.provider.Clean(ctx, CleanRequest{
		Text:      text,
		Model:     c.config.Model,
		MaxTokens: c.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("clean page: %w", err)
	}
	return resp.Text, nil
}
