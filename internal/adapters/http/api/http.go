// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/guardian/internal/adapters/repository"
	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/internal/domain/normalize"
	"github.com/okian/guardian/internal/domain/review"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Classify runs a submission through the moderation pipeline and
	// returns its decision.
	Classify(ctx context.Context, sub model.Submission) (model.ModerationDecision, error)

	// Pending lists decisions awaiting a human verdict, oldest first.
	Pending(ctx context.Context, limit int) ([]model.ModerationDecision, error)

	// SubmitVerdict records one moderator verdict for a pending decision.
	SubmitVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict) (model.ModerationDecision, error)

	// Decision returns the stored decision for a submission.
	Decision(ctx context.Context, submissionID string) (model.ModerationDecision, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	submissionsHandler *SubmissionsHandler
	reviewsHandler     *ReviewsHandler
	decisionsHandler   *DecisionsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxPendingLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		submissionsHandler: NewSubmissionsHandler(deps),
		reviewsHandler:     NewReviewsHandler(deps, maxPendingLimit),
		decisionsHandler:   NewDecisionsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/submissions", MetricsMiddleware(s.submissionsHandler.HandlePostSubmission, "submissions"))
	mux.HandleFunc("/reviews", MetricsMiddleware(s.reviewsHandler.HandleListPending, "reviews"))
	mux.HandleFunc("/reviews/", MetricsMiddleware(s.reviewsHandler.HandlePostVerdict, "review_verdict"))
	mux.HandleFunc("/decisions/", MetricsMiddleware(s.decisionsHandler.HandleGetDecision, "decisions"))
}

// submissionRequest mirrors the OpenAPI schema for POST /submissions.
type submissionRequest struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Media       []model.MediaRef `json:"media,omitempty"`
	Geo         model.GeoTag     `json:"geo"`
	SubmittedAt string           `json:"submitted_at,omitempty"`
}

func (s submissionRequest) toModel() (model.Submission, error) {
	sub := model.Submission{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Media:       s.Media,
		Geo:         s.Geo,
	}
	if s.SubmittedAt != "" {
		ts, err := time.Parse(time.RFC3339, s.SubmittedAt)
		if err != nil {
			return model.Submission{}, errors.New("invalid submitted_at; must be RFC3339")
		}
		sub.SubmittedAt = ts
	}
	return sub, nil
}

type verdictRequest struct {
	Verdict string `json:"verdict"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates domain sentinels to HTTP statuses.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	var verr *normalize.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation_failed", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrAlreadyReviewed):
		writeError(w, http.StatusConflict, "already_reviewed", err)
	case errors.Is(err, review.ErrInvalidVerdict):
		writeError(w, http.StatusBadRequest, "invalid_verdict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
