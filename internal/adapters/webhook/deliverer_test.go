package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/guardian/internal/adapters/webhook"
	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func decision() model.ModerationDecision {
	return model.ModerationDecision{
		SubmissionID: "sub-1",
		Tier:         model.TierRed,
		RiskScore:    0.92,
		Rationale:    "risk 0.92 above threshold; auto-reject",
		CreatedAt:    time.Now(),
	}
}

func fastBackoff() webhook.Option {
	return webhook.WithBackoff(time.Millisecond, 5*time.Millisecond)
}

func TestDeliver(t *testing.T) {
	Convey("Given a webhook deliverer", t, func() {
		_ = logger.Init()
		ctx := context.Background()

		Convey("When the endpoint accepts on the first attempt", func() {
			var got payloadCapture
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got.capture(r)
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			d := webhook.NewDeliverer(srv.URL, fastBackoff())
			err := d.Deliver(ctx, decision())

			Convey("Then delivery succeeds with the decision payload", func() {
				So(err, ShouldBeNil)
				So(got.count(), ShouldEqual, 1)
				So(got.last().SubmissionID, ShouldEqual, "sub-1")
				So(got.last().Tier, ShouldEqual, model.TierRed)
				So(got.last().Attempt, ShouldEqual, 1)
				So(got.contentType(), ShouldEqual, "application/json")
				So(got.source(), ShouldEqual, "moderation")
				So(d.DeadLetters(), ShouldBeEmpty)
			})
		})

		Convey("When the endpoint fails before recovering", func() {
			var got payloadCapture
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := got.capture(r)
				if n < 3 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			d := webhook.NewDeliverer(srv.URL, fastBackoff())
			err := d.Deliver(ctx, decision())

			Convey("Then retries carry increasing attempt numbers", func() {
				So(err, ShouldBeNil)
				So(got.count(), ShouldEqual, 3)
				So(got.last().Attempt, ShouldEqual, 3)
			})
		})

		Convey("When the endpoint never recovers", func() {
			var got payloadCapture
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got.capture(r)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			d := webhook.NewDeliverer(srv.URL, webhook.WithMaxAttempts(3), fastBackoff())
			err := d.Deliver(ctx, decision())

			Convey("Then the delivery dead-letters after the attempt budget", func() {
				So(err, ShouldNotBeNil)
				So(got.count(), ShouldEqual, 3)

				letters := d.DeadLetters()
				So(letters, ShouldHaveLength, 1)
				So(letters[0].SubmissionID, ShouldEqual, "sub-1")
				So(letters[0].Attempts, ShouldEqual, 3)
				So(letters[0].Status, ShouldEqual, model.DeliveryDeadLettered)
			})
		})

		Convey("When client errors come back", func() {
			var got payloadCapture
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got.capture(r)
				w.WriteHeader(http.StatusBadRequest)
			}))
			defer srv.Close()

			d := webhook.NewDeliverer(srv.URL, webhook.WithMaxAttempts(4), fastBackoff())
			err := d.Deliver(ctx, decision())

			Convey("Then a 4xx is terminal, not retried", func() {
				So(err, ShouldNotBeNil)
				So(got.count(), ShouldEqual, 1)
				So(d.DeadLetters(), ShouldHaveLength, 1)
			})
		})

		Convey("When no endpoint is configured", func() {
			d := webhook.NewDeliverer("", fastBackoff())
			err := d.Deliver(ctx, decision())

			Convey("Then delivery is a silent no-op", func() {
				So(err, ShouldBeNil)
				So(d.DeadLetters(), ShouldBeEmpty)
			})
		})
	})
}

// payloadCapture records delivered payloads and headers across attempts.
type payloadCapture struct {
	n           atomic.Int64
	mu          sync.Mutex
	payloads    []deliveredPayload
	contentTyp  string
	sourceValue string
}

type deliveredPayload struct {
	SubmissionID string     `json:"submission_id"`
	Tier         model.Tier `json:"tier"`
	RiskScore    float64    `json:"risk_score"`
	Rationale    string     `json:"rationale"`
	Attempt      int        `json:"attempt"`
}

func (c *payloadCapture) capture(r *http.Request) int64 {
	var p deliveredPayload
	_ = json.NewDecoder(r.Body).Decode(&p)
	c.mu.Lock()
	c.payloads = append(c.payloads, p)
	c.contentTyp = r.Header.Get("Content-Type")
	c.sourceValue = r.Header.Get("X-Source")
	c.mu.Unlock()
	return c.n.Add(1)
}

func (c *payloadCapture) count() int {
	return int(c.n.Load())
}

func (c *payloadCapture) last() deliveredPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.payloads[len(c.payloads)-1]
}

func (c *payloadCapture) contentType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contentTyp
}

func (c *payloadCapture) source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sourceValue
}
