package reasoning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

const anthropicMaxTokens = 4096

// AnthropicProvider answers prompts through the Anthropic messages API.
type AnthropicProvider struct {
	model string
}

func NewAnthropicProvider(model string) *AnthropicProvider {
	return &AnthropicProvider{model: model}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) ModelName() string {
	return p.model
}

func (p *AnthropicProvider) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	client := anthropic.NewClient(apiKey)

	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(p.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) && apiErr.Type == anthropic.ErrTypeRateLimit {
			return "", &QuotaError{Err: err}
		}
		var reqErr *anthropic.RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusTooManyRequests {
			return "", &QuotaError{Err: err}
		}
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	return strings.TrimSpace(resp.GetFirstContentText()), nil
}
