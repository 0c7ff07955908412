package handlers

import (
	"net/http"

	"github.com/tutanak-ai/tutanak/internal/domain"
	"github.com/tutanak-ai/tutanak/internal/resolver"
)

type SpeakersHandler struct {
	resolver   *resolver.Resolver
	identities domain.IdentityStore
}

func NewSpeakersHandler(r *resolver.Resolver, is domain.IdentityStore) *SpeakersHandler {
	return &SpeakersHandler{resolver: r, identities: is}
}

// Resolve answers GET /v1/speakers/resolve?name=... with the full tagged
// resolution, ambiguity candidates included.
func (h *SpeakersHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	res, err := h.resolver.Resolve(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "resolution failed")
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *SpeakersHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.identities.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list speakers")
		return
	}
	if identities == nil {
		identities = []domain.SpeakerIdentity{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"speakers": identities, "count": len(identities)})
}
