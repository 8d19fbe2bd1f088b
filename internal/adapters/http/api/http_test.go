package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/guardian/internal/adapters/http/api"
	"github.com/okian/guardian/internal/adapters/repository"
	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/internal/domain/normalize"
	"github.com/okian/guardian/internal/domain/review"
	"github.com/okian/guardian/pkg/logger"
)

// fakeDeps implements api.Dependencies for handler tests.
type fakeDeps struct {
	classifyFn func(ctx context.Context, sub model.Submission) (model.ModerationDecision, error)
	pendingFn  func(ctx context.Context, limit int) ([]model.ModerationDecision, error)
	verdictFn  func(ctx context.Context, submissionID string, verdict model.HumanVerdict) (model.ModerationDecision, error)
	decisionFn func(ctx context.Context, submissionID string) (model.ModerationDecision, error)
}

func (f *fakeDeps) Classify(ctx context.Context, sub model.Submission) (model.ModerationDecision, error) {
	return f.classifyFn(ctx, sub)
}

func (f *fakeDeps) Pending(ctx context.Context, limit int) ([]model.ModerationDecision, error) {
	return f.pendingFn(ctx, limit)
}

func (f *fakeDeps) SubmitVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict) (model.ModerationDecision, error) {
	return f.verdictFn(ctx, submissionID, verdict)
}

func (f *fakeDeps) Decision(ctx context.Context, submissionID string) (model.ModerationDecision, error) {
	return f.decisionFn(ctx, submissionID)
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"queueLength": 0}
}

func newMux(t *testing.T, deps *fakeDeps) *http.ServeMux {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(deps, fakeStats{}, 100).Register(context.Background(), mux)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestPostSubmission(t *testing.T) {
	decided := model.ModerationDecision{
		SubmissionID: "sub-1",
		Tier:         model.TierGreen,
		RiskScore:    0.1,
		Rationale:    "risk 0.10 below threshold",
		CreatedAt:    time.Now(),
	}
	deps := &fakeDeps{
		classifyFn: func(ctx context.Context, sub model.Submission) (model.ModerationDecision, error) {
			if sub.ID != "sub-1" {
				t.Errorf("unexpected submission id %q", sub.ID)
			}
			return decided, nil
		},
	}
	mux := newMux(t, deps)

	rec := do(t, mux, http.MethodPost, "/submissions", map[string]any{
		"id":          "sub-1",
		"title":       "Pothole on Elm Street",
		"description": "A large pothole has opened up near the bus stop",
		"geo":         map[string]string{"country": "US", "state": "CA", "city": "Oakland"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got model.ModerationDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Tier != model.TierGreen {
		t.Errorf("expected GREEN, got %s", got.Tier)
	}
}

func TestPostSubmissionErrors(t *testing.T) {
	tests := []struct {
		name       string
		classify   error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation failure",
			classify:   &normalize.ValidationError{Field: "title", Reason: "too short"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_failed",
		},
		{
			name:       "internal failure",
			classify:   errors.New("store down"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := &fakeDeps{
				classifyFn: func(ctx context.Context, sub model.Submission) (model.ModerationDecision, error) {
					return model.ModerationDecision{}, tt.classify
				},
			}
			mux := newMux(t, deps)
			rec := do(t, mux, http.MethodPost, "/submissions", map[string]any{"id": "sub-1"})
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			var resp struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestPostSubmissionBadPayload(t *testing.T) {
	deps := &fakeDeps{
		classifyFn: func(ctx context.Context, sub model.Submission) (model.ModerationDecision, error) {
			t.Fatal("classify must not be called")
			return model.ModerationDecision{}, nil
		},
	}
	mux := newMux(t, deps)

	req := httptest.NewRequest(http.MethodPost, "/submissions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = do(t, mux, http.MethodPost, "/submissions", map[string]any{
		"id":           "sub-1",
		"submitted_at": "yesterday",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad timestamp, got %d", rec.Code)
	}
}

func TestListPending(t *testing.T) {
	deps := &fakeDeps{
		pendingFn: func(ctx context.Context, limit int) ([]model.ModerationDecision, error) {
			if limit != 5 {
				t.Errorf("expected limit 5, got %d", limit)
			}
			return []model.ModerationDecision{
				{SubmissionID: "sub-old", Tier: model.TierYellow},
				{SubmissionID: "sub-new", Tier: model.TierYellow},
			}, nil
		},
	}
	mux := newMux(t, deps)

	rec := do(t, mux, http.MethodGet, "/reviews?limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got []model.ModerationDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 || got[0].SubmissionID != "sub-old" {
		t.Errorf("unexpected pending list: %+v", got)
	}
}

func TestListPendingLimits(t *testing.T) {
	deps := &fakeDeps{
		pendingFn: func(ctx context.Context, limit int) ([]model.ModerationDecision, error) {
			return nil, nil
		},
	}
	mux := newMux(t, deps)

	if rec := do(t, mux, http.MethodGet, "/reviews?limit=0", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for limit=0, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodGet, "/reviews?limit=abc", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric limit, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodGet, "/reviews?limit=101", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for limit over maximum, got %d", rec.Code)
	}

	// An empty queue serializes as [], not null.
	rec := do(t, mux, http.MethodGet, "/reviews", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty array, got %q", body)
	}
}

func TestPostVerdict(t *testing.T) {
	deps := &fakeDeps{
		verdictFn: func(ctx context.Context, submissionID string, verdict model.HumanVerdict) (model.ModerationDecision, error) {
			if submissionID != "sub-1" || verdict != model.VerdictApprove {
				t.Errorf("unexpected verdict call: %s %s", submissionID, verdict)
			}
			return model.ModerationDecision{SubmissionID: submissionID, Tier: model.TierYellow, HumanVerdict: verdict}, nil
		},
	}
	mux := newMux(t, deps)

	// Verdicts are case-insensitive on the wire.
	rec := do(t, mux, http.MethodPost, "/reviews/sub-1/verdict", map[string]string{"verdict": "approve"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got model.ModerationDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.HumanVerdict != model.VerdictApprove {
		t.Errorf("expected APPROVE, got %s", got.HumanVerdict)
	}
}

func TestPostVerdictErrors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		verdictErr error
		wantStatus int
	}{
		{"unknown submission", "/reviews/ghost/verdict", repository.ErrNotFound, http.StatusNotFound},
		{"already reviewed", "/reviews/sub-1/verdict", repository.ErrAlreadyReviewed, http.StatusConflict},
		{"invalid verdict", "/reviews/sub-1/verdict", review.ErrInvalidVerdict, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := &fakeDeps{
				verdictFn: func(ctx context.Context, submissionID string, verdict model.HumanVerdict) (model.ModerationDecision, error) {
					return model.ModerationDecision{}, tt.verdictErr
				},
			}
			mux := newMux(t, deps)
			rec := do(t, mux, http.MethodPost, tt.path, map[string]string{"verdict": "APPROVE"})
			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestPostVerdictBadPath(t *testing.T) {
	deps := &fakeDeps{
		verdictFn: func(ctx context.Context, submissionID string, verdict model.HumanVerdict) (model.ModerationDecision, error) {
			t.Fatal("verdict must not be recorded")
			return model.ModerationDecision{}, nil
		},
	}
	mux := newMux(t, deps)

	for _, path := range []string{"/reviews//verdict", "/reviews/sub-1/approve"} {
		rec := do(t, mux, http.MethodPost, path, map[string]string{"verdict": "APPROVE"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("path %s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestGetDecision(t *testing.T) {
	deps := &fakeDeps{
		decisionFn: func(ctx context.Context, submissionID string) (model.ModerationDecision, error) {
			if submissionID == "sub-1" {
				return model.ModerationDecision{SubmissionID: "sub-1", Tier: model.TierRed}, nil
			}
			return model.ModerationDecision{}, repository.ErrNotFound
		},
	}
	mux := newMux(t, deps)

	rec := do(t, mux, http.MethodGet, "/decisions/sub-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got model.ModerationDecision
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Tier != model.TierRed {
		t.Errorf("expected RED, got %s", got.Tier)
	}

	if rec := do(t, mux, http.MethodGet, "/decisions/ghost", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodGet, "/decisions/", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty id, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	deps := &fakeDeps{
		classifyFn: func(ctx context.Context, sub model.Submission) (model.ModerationDecision, error) {
			return model.ModerationDecision{}, nil
		},
		pendingFn: func(ctx context.Context, limit int) ([]model.ModerationDecision, error) {
			return nil, nil
		},
	}
	mux := newMux(t, deps)

	if rec := do(t, mux, http.MethodGet, "/submissions", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET /submissions: expected 404, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodPost, "/reviews", nil); rec.Code != http.StatusNotFound {
		t.Errorf("POST /reviews: expected 404, got %d", rec.Code)
	}
}
