// Package llm picks a usable chat backend from an ordered provider chain and
// prices its usage.
package llm

// Model describes one catalog entry: a provider, its model id, and the USD
// price per million tokens.
type Model struct {
	Provider          string
	ModelID           string
	DisplayName       string
	InputCostPerMTok  float64 // USD
	OutputCostPerMTok float64 // USD
}

// Catalog entries, cheapest viable provider first. All are reached through
// OpenAI-compatible endpoints.
var (
	GPT4oMini = Model{
		Provider:          "openai",
		ModelID:           "gpt-4o-mini",
		DisplayName:       "gpt4o-mini",
		InputCostPerMTok:  0.15,
		OutputCostPerMTok: 0.60,
	}

	GeminiFlash = Model{
		Provider:          "google",
		ModelID:           "gemini-2.0-flash",
		DisplayName:       "gemini-flash",
		InputCostPerMTok:  0.075,
		OutputCostPerMTok: 0.30,
	}

	LlamaGroq = Model{
		Provider:          "groq",
		ModelID:           "llama-3.3-70b-versatile",
		DisplayName:       "llama-groq",
		InputCostPerMTok:  0.59,
		OutputCostPerMTok: 0.79,
	}
)

// FallbackOrder is the static candidate order the chain walks.
var FallbackOrder = []Model{GPT4oMini, GeminiFlash, LlamaGroq}

// Default compatibility endpoints for providers that need an explicit base URL.
var defaultBaseURLs = map[string]string{
	"google": "https://generativelanguage.googleapis.com/v1beta/openai/",
	"groq":   "https://api.groq.com/openai/v1",
}

const usdToEur = 0.92

// CostEUR prices a query in euro from token counts and the model's
// per-million-token USD rates.
func CostEUR(tokensInput, tokensOutput int, model Model) float64 {
	inputCost := float64(tokensInput) / 1_000_000 * model.InputCostPerMTok
	outputCost := float64(tokensOutput) / 1_000_000 * model.OutputCostPerMTok
	return (inputCost + outputCost) * usdToEur
}
