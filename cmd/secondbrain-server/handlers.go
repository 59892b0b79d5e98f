package main

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/secondbrain/engine/contracts"
	"github.com/secondbrain/engine/ingestreport"
	"github.com/secondbrain/engine/internal/metrics"
	"github.com/secondbrain/engine/memory"
	"github.com/secondbrain/engine/planner"
	"github.com/secondbrain/engine/recall"
	"github.com/secondbrain/engine/router"
)

// writeJSON encodes data as the HTTP response body. Encoding failures are
// logged but cannot be surfaced once headers are written.
func writeJSON(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("encode response", zap.Error(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string, logger *zap.Logger) {
	writeJSON(w, status, map[string]string{"error": code, "message": message}, logger)
}

// engineHandlers binds the three engine operations (§6.1) to net/http.
type engineHandlers struct {
	orchestrator *recall.Orchestrator
	planner      *planner.Planner
	ingest       *ingestreport.Store
	logger       *zap.Logger
	metrics      *metrics.Collector
}

// recallSearchRequest is the JSON body for POST /v1/recall_search.
type recallSearchRequest struct {
	Query     string  `json:"query"`
	Mode      string  `json:"mode"`
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold"`
	FilterType string `json:"filter_type,omitempty"`
}

func (h *engineHandlers) handleRecallSearch(w http.ResponseWriter, r *http.Request) {
	var req recallSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_argument", "malformed JSON body", h.logger)
		return
	}

	mode := router.Mode(req.Mode)
	if !isValidMode(mode) {
		writeJSONError(w, http.StatusBadRequest, "invalid_argument", "mode must be one of fast, accurate, conversation", h.logger)
		return
	}

	var filter memory.Filter
	if req.FilterType != "" {
		filter.KnowledgeType = contracts.KnowledgeType(req.FilterType)
	}

	packet := h.orchestrator.RecallWithOptions(r.Context(), req.Query, nil, mode, filter, recall.Options{
		TopKOverride:      req.TopK,
		ThresholdOverride: req.Threshold,
	})
	h.recordPacketMetrics(packet)
	writeJSON(w, http.StatusOK, packet, h.logger)
}

// chatRequest is the JSON body for POST /v1/chat.
type chatRequest struct {
	Query     string  `json:"query"`
	SessionID string  `json:"session_id,omitempty"`
	Mode      string  `json:"mode"`
	TopK      int     `json:"top_k,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

func (h *engineHandlers) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_argument", "malformed JSON body", h.logger)
		return
	}

	mode := router.Mode(req.Mode)
	if !isValidMode(mode) {
		writeJSONError(w, http.StatusBadRequest, "invalid_argument", "mode must be one of fast, accurate, conversation", h.logger)
		return
	}

	resp := h.planner.Chat(r.Context(), planner.ChatRequest{
		Query:             req.Query,
		SessionID:         req.SessionID,
		Mode:              mode,
		TopKOverride:      req.TopK,
		ThresholdOverride: req.Threshold,
	})
	if h.metrics != nil {
		h.metrics.RecordBranchClassification(string(mode), string(resp.ActionTaken), resp.Confidence)
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// ingestRequest is the JSON body for POST /v1/ingest. The engine does not
// implement ingestion; this endpoint only records the report an external
// ingestion pipeline would produce.
type ingestRequest struct {
	Report contracts.IngestReport `json:"report"`
}

func (h *engineHandlers) handleIngest(w http.ResponseWriter, r *http.Request) {
	if h.ingest == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "ingest report persistence is not configured", h.logger)
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_argument", "malformed JSON body", h.logger)
		return
	}
	if req.Report.StartedAt.IsZero() {
		req.Report.StartedAt = time.Now().UTC()
	}
	if req.Report.FinishedAt.IsZero() {
		req.Report.FinishedAt = time.Now().UTC()
	}

	stored, err := h.ingest.Append(r.Context(), req.Report)
	if err != nil {
		h.logger.Error("ingest report append failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "store_unavailable", "failed to persist ingest report", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, stored, h.logger)
}

// recordPacketMetrics records one provider_requests/provider_candidates
// series per entry in the packet's routing metadata.
func (h *engineHandlers) recordPacketMetrics(packet contracts.ContextPacket) {
	if h.metrics == nil {
		return
	}
	for provider, pm := range packet.RoutingMetadata {
		status := "success"
		if pm.Error != "" {
			status = "error"
		}
		h.metrics.RecordProviderRequest("memory", provider, status, time.Duration(pm.LatencyMS)*time.Millisecond)
		h.metrics.RecordProviderCandidates(provider, pm.RawCount)
	}
}

func isValidMode(m router.Mode) bool {
	switch m {
	case router.ModeFast, router.ModeAccurate, router.ModeConversation:
		return true
	default:
		return false
	}
}

// healthStatus is the body returned to liveness/readiness probes.
type healthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{Status: "healthy", Timestamp: time.Now().UTC()}, zap.NewNop())
}
