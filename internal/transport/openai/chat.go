package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ChatClient wraps one OpenAI-compatible chat backend. Providers with
// compatibility endpoints (Gemini, Groq) are reached the same way as OpenAI
// itself, only the base URL and model differ.
type ChatClient struct {
	client   *openai.Client
	provider string
}

// NewChatClient creates a chat client for one provider.
func NewChatClient(apiKey, baseURL, provider string) *ChatClient {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &ChatClient{
		client:   openai.NewClientWithConfig(clientCfg),
		provider: provider,
	}
}

// Provider returns the provider name this client talks to.
func (c *ChatClient) Provider() string {
	return c.provider
}

// CreateChatCompletion forwards a chat completion request to the backend.
func (c *ChatClient) CreateChatCompletion(
	ctx context.Context, req openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return openai.ChatCompletionResponse{}, fmt.Errorf("%s chat completion: %w", c.provider, err)
	}
	return resp, nil
}

// FailureReason classifies a chat completion error into a short label for
// fallback bookkeeping and metrics.
func FailureReason(err error) string {
	status := 0

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "auth_failed"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "bad_request"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "unavailable"
	}
}
