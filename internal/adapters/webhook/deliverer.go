// Package webhook delivers decision notifications to a downstream
// endpoint with retries and a dead-letter ledger.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/pkg/logger"
	"github.com/okian/guardian/pkg/metrics"
)

// Default delivery configuration constants.
const (
	defaultMaxAttempts = 5
	defaultBackoffBase = 500 * time.Millisecond
	defaultBackoffCap  = 30 * time.Second
	requestTimeout     = 10 * time.Second
)

// payload is the JSON body posted to the endpoint. Regenerated per
// attempt so the attempt counter is accurate.
type payload struct {
	SubmissionID string     `json:"submission_id"`
	Tier         model.Tier `json:"tier"`
	RiskScore    float64    `json:"risk_score"`
	Rationale    string     `json:"rationale"`
	Timestamp    time.Time  `json:"timestamp"`
	Attempt      int        `json:"attempt"`
}

// Deliverer posts decision notifications with exponential backoff and
// jitter. Exhausted deliveries land in an in-memory dead-letter ledger
// for operator inspection instead of being silently dropped.
type Deliverer struct {
	endpoint    string
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	client      *retryablehttp.Client
	log         logger.Logger

	mu      sync.RWMutex
	ledger  map[string]model.DeliveryAttempt
	rngMu   sync.Mutex
	rng     *rand.Rand
	nowFunc func() time.Time
}

// Option applies a configuration option to the Deliverer.
type Option func(*Deliverer)

// WithMaxAttempts sets the total number of delivery attempts.
func WithMaxAttempts(n int) Option {
	return func(d *Deliverer) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithBackoff sets the exponential backoff base delay and cap.
func WithBackoff(base, cap time.Duration) Option {
	return func(d *Deliverer) {
		if base > 0 {
			d.backoffBase = base
		}
		if cap > 0 {
			d.backoffCap = cap
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client, for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Deliverer) {
		if c != nil {
			d.client.HTTPClient = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(d *Deliverer) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDeliverer creates a Deliverer posting to endpoint.
func NewDeliverer(endpoint string, opts ...Option) *Deliverer {
	d := &Deliverer{
		endpoint:    endpoint,
		maxAttempts: defaultMaxAttempts,
		backoffBase: defaultBackoffBase,
		backoffCap:  defaultBackoffCap,
		client:      retryablehttp.NewClient(),
		log:         logger.Get().Named("webhook"),
		ledger:      make(map[string]model.DeliveryAttempt),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.client.RetryMax = d.maxAttempts - 1
	d.client.RetryWaitMin = d.backoffBase
	d.client.RetryWaitMax = d.backoffCap
	d.client.HTTPClient.Timeout = requestTimeout
	d.client.Logger = nil
	d.client.Backoff = d.backoff
	return d
}

// backoff doubles the base delay per attempt, caps it, and adds up to
// 50% jitter so retry bursts from many deliveries spread out.
func (d *Deliverer) backoff(min, max time.Duration, attemptNum int, _ *http.Response) time.Duration {
	delay := min << uint(attemptNum)
	if delay > max || delay <= 0 {
		delay = max
	}
	d.rngMu.Lock()
	jitter := time.Duration(d.rng.Int63n(int64(delay)/2 + 1))
	d.rngMu.Unlock()
	return delay + jitter
}

// Deliver posts the decision to the endpoint, retrying transient
// failures up to the attempt budget. On exhaustion the delivery is
// recorded as dead-lettered and an error is returned.
func (d *Deliverer) Deliver(ctx context.Context, decision model.ModerationDecision) error {
	if d.endpoint == "" {
		return nil // delivery disabled
	}

	id := uuid.NewString()
	d.track(model.DeliveryAttempt{
		ID:           id,
		SubmissionID: decision.SubmissionID,
		Endpoint:     d.endpoint,
		Status:       model.DeliveryPending,
		UpdatedAt:    d.nowFunc(),
	})

	// The body is regenerated per attempt so each retry carries its own
	// attempt number.
	var attempt atomic.Int64
	body := func() (io.Reader, error) {
		n := int(attempt.Add(1))
		d.recordAttempt(id, n)
		metrics.RecordDeliveryAttempt()
		buf, err := json.Marshal(payload{
			SubmissionID: decision.SubmissionID,
			Tier:         decision.Tier,
			RiskScore:    decision.RiskScore,
			Rationale:    decision.Rationale,
			Timestamp:    decision.CreatedAt,
			Attempt:      n,
		})
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(buf), nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, body)
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Source", "moderation")

	resp, err := d.client.Do(req)
	if resp != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	if err == nil && resp != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		d.succeed(id)
		metrics.RecordDeliverySuccess()
		return nil
	}

	reason := "exhausted retries"
	if err != nil {
		reason = err.Error()
	} else if resp != nil {
		reason = fmt.Sprintf("endpoint returned %d", resp.StatusCode)
	}
	d.deadLetter(id, reason)
	metrics.RecordDeadLetter("webhook")
	d.log.Error(ctx, "webhook delivery dead-lettered",
		logger.String("submission_id", decision.SubmissionID),
		logger.Int("attempts", int(attempt.Load())),
		logger.String("reason", reason),
	)
	return fmt.Errorf("deliver decision %s: %s", decision.SubmissionID, reason)
}

// DeadLetters returns deliveries that exhausted their attempt budget.
func (d *Deliverer) DeadLetters() []model.DeliveryAttempt {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []model.DeliveryAttempt
	for _, a := range d.ledger {
		if a.Status == model.DeliveryDeadLettered {
			out = append(out, a)
		}
	}
	return out
}

func (d *Deliverer) track(a model.DeliveryAttempt) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ledger[a.ID] = a
}

func (d *Deliverer) recordAttempt(id string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.ledger[id]
	a.Attempts = n
	a.UpdatedAt = d.nowFunc()
	d.ledger[id] = a
}

func (d *Deliverer) succeed(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.ledger[id]
	a.Status = model.DeliverySucceeded
	a.UpdatedAt = d.nowFunc()
	d.ledger[id] = a
}

func (d *Deliverer) deadLetter(id, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.ledger[id]
	a.Status = model.DeliveryDeadLettered
	a.LastError = reason
	a.UpdatedAt = d.nowFunc()
	d.ledger[id] = a
}
