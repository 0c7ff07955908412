package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tutanak-ai/tutanak/internal/domain"
	"github.com/tutanak-ai/tutanak/internal/store"
)

type StatementsHandler struct {
	statements domain.StatementStore
}

func NewStatementsHandler(ss domain.StatementStore) *StatementsHandler {
	return &StatementsHandler{statements: ss}
}

func (h *StatementsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid statement id")
		return
	}

	record, err := h.statements.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "statement not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load statement")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"statement": record, "locator": record.Locator()})
}
