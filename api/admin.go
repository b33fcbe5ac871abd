package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/koopa0/guardian/internal/log"
	"github.com/koopa0/guardian/internal/rag"
)

// MaxIngestRecords bounds one ingest request.
const MaxIngestRecords = 1000

// CorpusAdmin prepares the vector index and loads incident records into it.
type CorpusAdmin interface {
	EnsureCollection(ctx context.Context) error
	Ingest(ctx context.Context, records []rag.SourceRecord) error
}

// AdminHandler handles administrative endpoints.
type AdminHandler struct {
	admin  CorpusAdmin
	logger log.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(admin CorpusAdmin, logger log.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// RegisterRoutes registers admin routes on the given mux.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin/ingest", h.ingest)
}

// IngestRequest is the request body for corpus ingestion. An empty record
// list loads the built-in incident corpus.
type IngestRequest struct {
	Records []rag.SourceRecord `json:"records"`
}

// ingest ensures the collection exists and loads the given records (or the
// built-in corpus) into the vector index.
func (h *AdminHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
			return
		}
	}

	records := req.Records
	if len(records) == 0 {
		records = rag.IncidentCorpus
	}
	if len(records) > MaxIngestRecords {
		writeError(w, http.StatusBadRequest, "too_many_records", "at most 1000 records per request")
		return
	}
	for _, rec := range records {
		if rec.ID == 0 || rec.Content == "" {
			writeError(w, http.StatusBadRequest, "invalid_record", "records need a non-zero ID and content")
			return
		}
	}

	ctx := r.Context()

	if err := h.admin.EnsureCollection(ctx); err != nil {
		h.logger.Error("failed to prepare collection", "error", err)
		writeError(w, http.StatusBadGateway, "index_unavailable", "vector index unavailable")
		return
	}
	if err := h.admin.Ingest(ctx, records); err != nil {
		h.logger.Error("failed to ingest records", "count", len(records), "error", err)
		writeError(w, http.StatusBadGateway, "ingest_failed", "failed to ingest records")
		return
	}

	h.logger.Info("ingested records via API", "count", len(records))
	writeJSON(w, http.StatusOK, map[string]int{"ingested": len(records)})
}
