// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/guardian/internal/domain/model"
)

const defaultPendingLimit = 20

// ReviewsHandler handles the human review queue.
type ReviewsHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewReviewsHandler creates a new reviews handler.
func NewReviewsHandler(deps Dependencies, maxLimit int) *ReviewsHandler {
	return &ReviewsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleListPending handles GET /reviews?limit=N requests.
func (h *ReviewsHandler) HandleListPending(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_pending"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := defaultPendingLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		n = parsed
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	pending, err := h.deps.Pending(r.Context(), n)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	if pending == nil {
		pending = []model.ModerationDecision{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// HandlePostVerdict handles POST /reviews/{submission_id}/verdict requests.
func (h *ReviewsHandler) HandlePostVerdict(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_verdict"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /reviews/
	path := strings.TrimPrefix(r.URL.Path, "/reviews/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "verdict" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	submissionID := parts[0]

	var req verdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	verdict := model.HumanVerdict(strings.ToUpper(strings.TrimSpace(req.Verdict)))
	decision, err := h.deps.SubmitVerdict(r.Context(), submissionID, verdict)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}
