package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fieldops-ai/fieldops/internal/domain"
	logpkg "github.com/fieldops-ai/fieldops/internal/logger"
	agentuc "github.com/fieldops-ai/fieldops/internal/usecase/agent"
	indexuc "github.com/fieldops-ai/fieldops/internal/usecase/index"
	ingestuc "github.com/fieldops-ai/fieldops/internal/usecase/ingest"
)

const maxUploadBytes = 100 << 20

type pinger interface {
	Ping(ctx context.Context) error
}

// api exposes operational and internal maintenance endpoints. The public API
// lives in a separate service; these routes are for the platform itself.
type api struct {
	ingest *ingestuc.Service
	index  *indexuc.Service
	agent  *agentuc.Orchestrator
	db     pinger
	embed  domain.HealthChecker
}

func newAPI(ingest *ingestuc.Service, index *indexuc.Service, agent *agentuc.Orchestrator, db pinger, embed domain.HealthChecker) *api {
	return &api{ingest: ingest, index: index, agent: agent, db: db, embed: embed}
}

func (a *api) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports ready only when both hard dependencies answer: the database
// and the embedding provider.
func (a *api) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable", "reason": "database: " + err.Error(),
		})
		return
	}
	if err := a.embed.HealthCheck(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable", "reason": "embedding provider: " + err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type agentQueryRequest struct {
	TenantID string `json:"tenant_id"`
	Query    string `json:"query"`
	History  []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"history"`
}

type agentQueryResponse struct {
	Answer       string   `json:"answer"`
	ModelUsed    string   `json:"model_used"`
	TokensInput  int      `json:"tokens_input"`
	TokensOutput int      `json:"tokens_output"`
	CostEuro     float64  `json:"cost_euro"`
	ToolsUsed    []string `json:"tools_used"`
	Success      bool     `json:"success"`
	FallbackUsed bool     `json:"fallback_used"`
	Error        string   `json:"error,omitempty"`
}

func (a *api) agentQuery(w http.ResponseWriter, r *http.Request) {
	var req agentQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TenantID == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "tenant_id and query are required")
		return
	}

	history := make([]domain.Turn, len(req.History))
	for i, turn := range req.History {
		history[i] = domain.Turn{Role: turn.Role, Content: turn.Content}
	}

	resp, err := a.agent.Invoke(r.Context(), req.TenantID, req.Query, history)
	if err != nil {
		if errors.Is(err, domain.ErrProviderExhausted) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		logpkg.FromContext(r.Context()).Error("agent query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, agentQueryResponse{
		Answer:       resp.Answer,
		ModelUsed:    resp.ModelUsed,
		TokensInput:  resp.TokensInput,
		TokensOutput: resp.TokensOutput,
		CostEuro:     resp.CostEuro,
		ToolsUsed:    resp.ToolsUsed,
		Success:      resp.Success,
		FallbackUsed: resp.FallbackUsed,
		Error:        resp.Error,
	})
}

type processResponse struct {
	Success      bool   `json:"success"`
	ChunkCount   int    `json:"chunk_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// processDocument ingests one uploaded file: multipart form with a "file"
// part, optional "tier" field for quota limits.
func (a *api) processDocument(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	documentID := chi.URLParam(r, "documentID")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer func() { _ = file.Close() }()

	tier := r.FormValue("tier")
	if tier == "" {
		tier = ingestuc.TierBasic
	}

	validation := ingestuc.ValidateFile(
		header.Filename, header.Size, header.Header.Get("Content-Type"),
		ingestuc.LimitsForTier(tier), 0,
	)
	if !validation.IsValid {
		writeError(w, http.StatusUnprocessableEntity, validation.ErrorMessage)
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	if _, err := a.ingest.StoreOriginal(r.Context(), tenantID, documentID, header.Filename, content); err != nil {
		logpkg.FromContext(r.Context()).Error("store original failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	result := a.ingest.ProcessDocument(r.Context(), tenantID, documentID, content, header.Filename)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, processResponse{
		Success:      result.Success,
		ChunkCount:   result.ChunkCount,
		ErrorMessage: result.ErrorMessage,
	})
}

func (a *api) deleteDocument(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	documentID := chi.URLParam(r, "documentID")

	filename := r.URL.Query().Get("filename")
	if err := a.ingest.DeleteDocumentData(r.Context(), tenantID, documentID, filename); err != nil {
		logpkg.FromContext(r.Context()).Error("delete document failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete document data")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reprocessDocument rebuilds a document's chunks from the stored original
// file, without a new upload.
func (a *api) reprocessDocument(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	documentID := chi.URLParam(r, "documentID")

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "filename query parameter is required")
		return
	}

	result, err := a.ingest.ReprocessDocument(r.Context(), tenantID, documentID, filename)
	if err != nil {
		logpkg.FromContext(r.Context()).Error("reprocess failed", zap.Error(err))
		writeError(w, http.StatusNotFound, "original file not found")
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, processResponse{
		Success:      result.Success,
		ChunkCount:   result.ChunkCount,
		ErrorMessage: result.ErrorMessage,
	})
}

// tenantChunks reports how many chunks a tenant has indexed.
func (a *api) tenantChunks(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	n, err := a.index.Count(r.Context(), tenantID)
	if err != nil {
		logpkg.FromContext(r.Context()).Error("chunk count failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to count chunks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"chunk_count": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
