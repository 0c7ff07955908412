package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tutanak-ai/tutanak/internal/domain"
	"github.com/tutanak-ai/tutanak/internal/service"
	"github.com/tutanak-ai/tutanak/internal/store"
)

type DetectHandler struct {
	svc *service.DetectionService
}

func NewDetectHandler(svc *service.DetectionService) *DetectHandler {
	return &DetectHandler{svc: svc}
}

type detectRequest struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Date      string `json:"date,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Kind      string `json:"kind,omitempty"`
	TopK      int    `json:"top_k,omitempty"`
	ExcludeID string `json:"exclude_id,omitempty"`
}

func (h *DetectHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svcReq := service.DetectRequest{
		Speaker: req.Speaker,
		Text:    req.Text,
		TopK:    req.TopK,
	}
	if req.ExcludeID != "" {
		id, err := uuid.Parse(req.ExcludeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid exclude_id")
			return
		}
		svcReq.ExcludeID = id
	}

	var ok bool
	if svcReq.Date, ok = parseDate(w, "date", req.Date); !ok {
		return
	}
	from, ok := parseDate(w, "from", req.From)
	if !ok {
		return
	}
	if !from.IsZero() {
		svcReq.From = &from
	}
	to, ok := parseDate(w, "to", req.To)
	if !ok {
		return
	}
	if !to.IsZero() {
		svcReq.To = &to
	}
	if req.Kind != "" {
		if !domain.ValidSessionKind(req.Kind) {
			writeError(w, http.StatusBadRequest, "invalid kind")
			return
		}
		kind := domain.SessionKind(req.Kind)
		svcReq.Kind = &kind
	}

	result, err := h.svc.Detect(r.Context(), svcReq)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDetectTextEmpty), errors.Is(err, service.ErrDetectSpeakerEmpty):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSpeakerUnresolved):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, store.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "statement store unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "detection failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// parseDate accepts YYYY-MM-DD or RFC 3339; empty input is a zero time.
func parseDate(w http.ResponseWriter, field, value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	writeError(w, http.StatusBadRequest, "invalid "+field)
	return time.Time{}, false
}
