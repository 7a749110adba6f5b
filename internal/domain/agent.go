package domain

// Turn is a single prior exchange in a conversation, most-recent-last.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// AgentResponse is the outcome of one agent query. Produced once per query;
// immutable; returned to the message-handling collaborator.
type AgentResponse struct {
	Answer       string
	ModelUsed    string
	TokensInput  int
	TokensOutput int
	CostEuro     float64
	ToolsUsed    []string
	Success      bool
	FallbackUsed bool
	Error        string
}
