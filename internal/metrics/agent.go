package metrics

import "github.com/prometheus/client_golang/prometheus"

// Agent and ingestion Prometheus metrics.
var (
	AgentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldops",
			Name:      "agent_requests_total",
			Help:      "Total number of agent invocations",
		},
		[]string{"model", "status"}, // status: "answered" / "fallback" / "timeout" / "error"
	)

	AgentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fieldops",
			Name:      "agent_request_duration_seconds",
			Help:      "Agent invocation duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 360},
		},
		[]string{"model"},
	)

	AgentToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldops",
			Name:      "agent_tool_calls_total",
			Help:      "Total number of tool calls made by the agent",
		},
		[]string{"tool"},
	)

	AgentTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldops",
			Name:      "agent_tokens_total",
			Help:      "Total LLM tokens consumed by the agent",
		},
		[]string{"model", "type"}, // type: "input" / "output"
	)

	AgentCostEuroTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldops",
			Name:      "agent_cost_euro_total",
			Help:      "Total LLM cost in euro",
		},
		[]string{"model"},
	)

	ProviderFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldops",
			Name:      "provider_fallbacks_total",
			Help:      "Total LLM provider fallback transitions",
		},
		[]string{"from", "to", "reason"},
	)

	DocumentsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldops",
			Name:      "documents_processed_total",
			Help:      "Total documents processed through the ingestion pipeline",
		},
		[]string{"file_type", "status"}, // status: "ok" / "error"
	)

	DocumentChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fieldops",
			Name:      "document_chunks_total",
			Help:      "Total chunks produced by the ingestion pipeline",
		},
		[]string{"file_type"},
	)
)

var agentMetricsRegistered bool

// RegisterAgentMetrics registers agent and ingestion metrics. Must be called once from main.
func RegisterAgentMetrics() {
	if agentMetricsRegistered {
		return
	}
	prometheus.MustRegister(AgentRequestsTotal)
	prometheus.MustRegister(AgentRequestDuration)
	prometheus.MustRegister(AgentToolCallsTotal)
	prometheus.MustRegister(AgentTokensTotal)
	prometheus.MustRegister(AgentCostEuroTotal)
	prometheus.MustRegister(ProviderFallbacksTotal)
	prometheus.MustRegister(DocumentsProcessedTotal)
	prometheus.MustRegister(DocumentChunksTotal)
	agentMetricsRegistered = true
}
