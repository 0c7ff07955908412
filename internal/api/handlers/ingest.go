package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tutanak-ai/tutanak/internal/domain"
	"github.com/tutanak-ai/tutanak/internal/parser"
	"github.com/tutanak-ai/tutanak/internal/service"
	"github.com/tutanak-ai/tutanak/internal/store"
)

type IngestHandler struct {
	svc *service.IngestService
}

func NewIngestHandler(svc *service.IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type ingestRequest struct {
	SourceID string `json:"source_id"`
	Date     string `json:"date,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Pages    []struct {
		Number int    `json:"number"`
		Text   string `json:"text"`
	} `json:"pages"`
}

func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceID == "" {
		writeError(w, http.StatusBadRequest, "source_id is required")
		return
	}
	if req.Kind != "" && !domain.ValidSessionKind(req.Kind) {
		writeError(w, http.StatusBadRequest, "invalid kind")
		return
	}

	doc := domain.SourceDocument{
		ID:   req.SourceID,
		Kind: domain.SessionKind(req.Kind),
	}
	var ok bool
	if doc.Date, ok = parseDate(w, "date", req.Date); !ok {
		return
	}
	for _, p := range req.Pages {
		doc.Pages = append(doc.Pages, domain.SourcePage{Number: p.Number, Text: p.Text})
	}

	stats, err := h.svc.IngestDocument(r.Context(), doc)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDocumentEmpty), errors.Is(err, parser.ErrMalformedDocument):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "statement store unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "ingestion failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, stats)
}

func (h *IngestHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "sourceID")
	if sourceID == "" {
		writeError(w, http.StatusBadRequest, "source id is required")
		return
	}

	deleted, err := h.svc.DeleteSource(r.Context(), sourceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete source")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"source_id": sourceID, "deleted": deleted})
}
