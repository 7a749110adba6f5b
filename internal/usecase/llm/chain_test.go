package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fieldops-ai/fieldops/internal/config"
	"github.com/fieldops-ai/fieldops/internal/domain"
	"github.com/fieldops-ai/fieldops/internal/metrics"
)

// --- Mocks ---

type fakeClient struct {
	provider string
	baseURL  string
}

func (f *fakeClient) Provider() string { return f.provider }

func (f *fakeClient) CreateChatCompletion(
	_ context.Context, _ openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}

// testChain wires a recording factory so construction failures can be forced.
func testChain(providers map[string]config.LLMProviderConfig, failFor map[string]error) *Chain {
	c := NewChain(providers, zap.NewNop())
	c.build = func(_, baseURL, provider string) (ChatCompleter, error) {
		if err, ok := failFor[provider]; ok {
			return nil, err
		}
		return &fakeClient{provider: provider, baseURL: baseURL}, nil
	}
	return c
}

func configured(providers ...string) map[string]config.LLMProviderConfig {
	m := make(map[string]config.LLMProviderConfig)
	for _, p := range providers {
		m[p] = config.LLMProviderConfig{APIKey: "key-" + p}
	}
	return m
}

// --- Tests ---

func TestSelect_Primary(t *testing.T) {
	chain := testChain(configured("openai", "google", "groq"), nil)

	sel, err := chain.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Model.DisplayName != "gpt4o-mini" {
		t.Errorf("model = %q", sel.Model.DisplayName)
	}
	if sel.FallbackUsed || sel.FallbackReason != "" {
		t.Errorf("primary selection must not be marked fallback: %+v", sel)
	}
}

func TestSelect_SkipsUnconfiguredPrimary(t *testing.T) {
	chain := testChain(configured("google", "groq"), nil)

	sel, err := chain.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Model.DisplayName != "gemini-flash" {
		t.Errorf("model = %q", sel.Model.DisplayName)
	}
	if !sel.FallbackUsed {
		t.Error("fallback flag not set")
	}
	if sel.FallbackReason != "gpt4o-mini not configured" {
		t.Errorf("reason = %q", sel.FallbackReason)
	}
}

func TestSelect_SkipsFailedConstruction(t *testing.T) {
	chain := testChain(
		configured("openai", "groq"),
		map[string]error{"openai": errors.New("bad credentials")},
	)

	sel, err := chain.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Model.DisplayName != "llama-groq" {
		t.Errorf("model = %q", sel.Model.DisplayName)
	}
	if sel.FallbackReason != "gpt4o-mini error: bad credentials" {
		t.Errorf("reason = %q", sel.FallbackReason)
	}
}

func TestSelect_FallbackMetric_NotConfigured(t *testing.T) {
	counter := metrics.ProviderFallbacksTotal.WithLabelValues("openai", "groq", "not_configured")
	before := testutil.ToFloat64(counter)

	chain := testChain(configured("groq"), nil)
	if _, err := chain.Select(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("not_configured fallbacks = %v, want 1", got)
	}
}

func TestSelect_FallbackMetric_ClassifiesProviderError(t *testing.T) {
	counter := metrics.ProviderFallbacksTotal.WithLabelValues("openai", "google", "rate_limited")
	before := testutil.ToFloat64(counter)

	chain := testChain(
		configured("openai", "google"),
		map[string]error{"openai": &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}},
	)
	sel, err := chain.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Model.Provider != "google" {
		t.Fatalf("provider = %q", sel.Model.Provider)
	}

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("rate_limited fallbacks = %v, want 1", got)
	}
}

func TestSelect_EmptyAPIKeyIsUnconfigured(t *testing.T) {
	providers := map[string]config.LLMProviderConfig{
		"openai": {APIKey: ""},
		"groq":   {APIKey: "key"},
	}
	chain := testChain(providers, nil)

	sel, err := chain.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Model.Provider != "groq" {
		t.Errorf("provider = %q", sel.Model.Provider)
	}
}

func TestSelect_Exhausted(t *testing.T) {
	chain := testChain(nil, nil)

	_, err := chain.Select()
	if !errors.Is(err, domain.ErrProviderExhausted) {
		t.Errorf("expected ErrProviderExhausted, got %v", err)
	}
}

func TestSelect_DefaultBaseURLs(t *testing.T) {
	chain := testChain(configured("google"), nil)

	sel, err := chain.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := sel.Client.(*fakeClient)
	if client.baseURL != "https://generativelanguage.googleapis.com/v1beta/openai/" {
		t.Errorf("baseURL = %q", client.baseURL)
	}
}

func TestSelect_CustomBaseURLWins(t *testing.T) {
	providers := map[string]config.LLMProviderConfig{
		"groq": {APIKey: "key", BaseURL: "http://localhost:8080/v1"},
	}
	chain := testChain(providers, nil)

	sel, err := chain.Select()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := sel.Client.(*fakeClient).baseURL; got != "http://localhost:8080/v1" {
		t.Errorf("baseURL = %q", got)
	}
}

func TestFallbackOrder(t *testing.T) {
	want := []string{"openai", "google", "groq"}
	if len(FallbackOrder) != len(want) {
		t.Fatalf("chain length = %d", len(FallbackOrder))
	}
	for i, p := range want {
		if FallbackOrder[i].Provider != p {
			t.Errorf("position %d = %q, want %q", i, FallbackOrder[i].Provider, p)
		}
	}
}

func TestCostEUR(t *testing.T) {
	// 1M input + 1M output on gpt4o-mini: (0.15 + 0.60) * 0.92.
	got := CostEUR(1_000_000, 1_000_000, GPT4oMini)
	if math.Abs(got-0.69) > 1e-9 {
		t.Errorf("cost = %v, want 0.69", got)
	}

	if CostEUR(0, 0, GeminiFlash) != 0 {
		t.Error("zero tokens must cost zero")
	}

	// Output tokens are priced at the output rate.
	inOnly := CostEUR(1000, 0, LlamaGroq)
	outOnly := CostEUR(0, 1000, LlamaGroq)
	if inOnly >= outOnly {
		t.Errorf("llama output rate should exceed input rate: in=%v out=%v", inOnly, outOnly)
	}
}
