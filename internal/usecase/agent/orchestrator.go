// Package agent binds the retrieval tools and a chat backend into a
// tool-calling reasoning loop, and turns whatever happens inside that loop
// into a well-formed response: every runtime failure is absorbed, only a
// fully unconfigured provider chain surfaces as an error.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fieldops-ai/fieldops/internal/domain"
	"github.com/fieldops-ai/fieldops/internal/metrics"
	"github.com/fieldops-ai/fieldops/internal/usecase/llm"
)

// FallbackMessage is the canned answer when no information was found or the
// loop failed.
const FallbackMessage = "Info not found. Try rephrasing or contact technical support."

// timeoutAnswer is the user-facing answer when the wall-clock deadline hits.
const timeoutAnswer = "Timeout. Try again in a few minutes."

const maxCompletionTokens = 1024

// Config bounds one agent invocation.
type Config struct {
	Timeout         time.Duration // wall clock for the whole loop
	MaxIterations   int           // reasoning rounds before forced completion
	MaxHistoryTurns int           // prior turns injected into the prompt
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 360 * time.Second
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 10
	}
	if c.MaxHistoryTurns <= 0 {
		c.MaxHistoryTurns = 5
	}
}

// Orchestrator runs queries through the reason-act loop.
type Orchestrator struct {
	chain     ProviderChain
	retriever Retriever
	cfg       Config
	logger    *zap.Logger
}

// NewOrchestrator creates an agent orchestrator.
func NewOrchestrator(chain ProviderChain, retriever Retriever, cfg Config, logger *zap.Logger) *Orchestrator {
	cfg.ApplyDefaults()
	return &Orchestrator{
		chain:     chain,
		retriever: retriever,
		cfg:       cfg,
		logger:    logger,
	}
}

// Invoke answers one query for one tenant. The returned error is non-nil only
// when no LLM provider is available; every runtime failure inside the loop is
// converted into a fallback AgentResponse.
func (o *Orchestrator) Invoke(
	ctx context.Context, tenantID, query string, history []domain.Turn,
) (domain.AgentResponse, error) {
	sel, err := o.chain.Select()
	if err != nil {
		return domain.AgentResponse{}, fmt.Errorf("select provider: %w", err)
	}

	o.logger.Info("agent query",
		zap.String("tenant_id", tenantID),
		zap.String("model", sel.Model.DisplayName),
		zap.Bool("provider_fallback", sel.FallbackUsed),
	)

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	tools := Tools(tenantID, o.retriever)
	answer, toolsUsed, loopErr := o.runLoop(ctx, sel, tools, query, history)

	duration := time.Since(start)
	metrics.AgentRequestDuration.WithLabelValues(sel.Model.DisplayName).Observe(duration.Seconds())

	if loopErr != nil {
		return o.failureResponse(sel.Model, query, loopErr), nil
	}

	tokensInput := estimateTokens(query)
	for _, turn := range history {
		tokensInput += estimateTokens(turn.Content)
	}
	tokensOutput := estimateTokens(answer)
	costEuro := llm.CostEUR(tokensInput, tokensOutput, sel.Model)

	// The model can degrade gracefully to the canned non-answer without any
	// error occurring; classify that as fallback, not success.
	lower := strings.ToLower(answer)
	isFallback := answer == FallbackMessage ||
		strings.Contains(lower, "not found") ||
		strings.Contains(lower, "no information")

	status := "answered"
	if isFallback {
		status = "fallback"
	}
	o.recordOutcome(sel.Model, status, tokensInput, tokensOutput, costEuro)

	o.logger.Info("agent query completed",
		zap.String("model", sel.Model.DisplayName),
		zap.Strings("tools_used", toolsUsed),
		zap.Bool("success", !isFallback),
		zap.Float64("cost_euro", costEuro),
		zap.Duration("duration", duration),
	)

	return domain.AgentResponse{
		Answer:       answer,
		ModelUsed:    sel.Model.DisplayName,
		TokensInput:  tokensInput,
		TokensOutput: tokensOutput,
		CostEuro:     costEuro,
		ToolsUsed:    toolsUsed,
		Success:      !isFallback,
		FallbackUsed: isFallback,
	}, nil
}

// runLoop drives the tool-calling rounds. Hitting the iteration cap is a
// normal completion with whatever answer was produced last.
func (o *Orchestrator) runLoop(
	ctx context.Context, sel llm.Selection, tools []Tool, query string, history []domain.Turn,
) (string, []string, error) {
	defs := make([]openai.Tool, len(tools))
	byName := make(map[string]Tool, len(tools))
	for i, tool := range tools {
		defs[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		}
		byName[tool.Name()] = tool
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(history, o.cfg.MaxHistoryTurns)},
		{Role: openai.ChatMessageRoleUser, Content: query},
	}

	var toolsUsed []string
	seen := make(map[string]bool)
	var lastContent string

	for iter := 0; iter < o.cfg.MaxIterations; iter++ {
		resp, err := sel.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     sel.Model.ModelID,
			Messages:  messages,
			Tools:     defs,
			MaxTokens: maxCompletionTokens,
		})
		if err != nil {
			return "", toolsUsed, err
		}
		if len(resp.Choices) == 0 {
			return "", toolsUsed, errors.New("empty completion response")
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, toolsUsed, nil
		}

		if msg.Content != "" {
			lastContent = msg.Content
		}
		messages = append(messages, msg)

		for _, call := range msg.ToolCalls {
			name := call.Function.Name
			if !seen[name] {
				seen[name] = true
				toolsUsed = append(toolsUsed, name)
			}
			metrics.AgentToolCallsTotal.WithLabelValues(name).Inc()

			result := o.dispatch(ctx, byName, call)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	if lastContent == "" {
		lastContent = FallbackMessage
	}
	return lastContent, toolsUsed, nil
}

func (o *Orchestrator) dispatch(
	ctx context.Context, byName map[string]Tool, call openai.ToolCall,
) string {
	tool, ok := byName[call.Function.Name]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", call.Function.Name)
	}

	o.logger.Debug("tool call",
		zap.String("tool", call.Function.Name),
		zap.String("args", call.Function.Arguments),
	)
	return tool.Invoke(ctx, []byte(call.Function.Arguments))
}

// failureResponse maps a loop failure to the fixed timeout or fallback
// answer. Token accounting covers the query only; no cost is charged.
func (o *Orchestrator) failureResponse(model llm.Model, query string, loopErr error) domain.AgentResponse {
	if errors.Is(loopErr, context.DeadlineExceeded) {
		o.logger.Warn("agent timed out",
			zap.Duration("timeout", o.cfg.Timeout), zap.String("model", model.DisplayName))
		o.recordOutcome(model, "timeout", estimateTokens(query), 0, 0)
		return domain.AgentResponse{
			Answer:       timeoutAnswer,
			ModelUsed:    model.DisplayName,
			TokensInput:  estimateTokens(query),
			ToolsUsed:    []string{},
			Success:      false,
			FallbackUsed: true,
			Error:        "Timeout",
		}
	}

	o.logger.Error("agent loop failed", zap.Error(loopErr), zap.String("model", model.DisplayName))
	o.recordOutcome(model, "error", estimateTokens(query), 0, 0)
	return domain.AgentResponse{
		Answer:       FallbackMessage,
		ModelUsed:    model.DisplayName,
		TokensInput:  estimateTokens(query),
		ToolsUsed:    []string{},
		Success:      false,
		FallbackUsed: true,
		Error:        loopErr.Error(),
	}
}

func (o *Orchestrator) recordOutcome(model llm.Model, status string, in, out int, cost float64) {
	metrics.AgentRequestsTotal.WithLabelValues(model.DisplayName, status).Inc()
	metrics.AgentTokensTotal.WithLabelValues(model.DisplayName, "input").Add(float64(in))
	metrics.AgentTokensTotal.WithLabelValues(model.DisplayName, "output").Add(float64(out))
	metrics.AgentCostEuroTotal.WithLabelValues(model.DisplayName).Add(cost)
}

// estimateTokens approximates token count as 4 characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}
