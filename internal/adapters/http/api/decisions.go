// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// DecisionsHandler handles decision lookups.
type DecisionsHandler struct {
	deps Dependencies
}

// NewDecisionsHandler creates a new decisions handler.
func NewDecisionsHandler(deps Dependencies) *DecisionsHandler {
	return &DecisionsHandler{deps: deps}
}

// HandleGetDecision handles GET /decisions/{submission_id} requests.
func (h *DecisionsHandler) HandleGetDecision(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_decision"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /decisions/
	path := strings.TrimPrefix(r.URL.Path, "/decisions/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	decision, err := h.deps.Decision(r.Context(), path)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
