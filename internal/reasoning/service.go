package reasoning

import "context"

// Provider sends one free-text prompt to a reasoning service and returns the
// raw text of the answer. The API key is supplied per call so that the key
// pool can rotate keys without rebuilding providers.
type Provider interface {
	Generate(ctx context.Context, apiKey, prompt string) (string, error)
	Name() string
}
