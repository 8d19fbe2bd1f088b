package review_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/guardian/internal/adapters/repository"
	"github.com/okian/guardian/internal/domain/model"
	"github.com/okian/guardian/internal/domain/review"
	"github.com/okian/guardian/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeStore struct {
	pending    []model.ModerationDecision
	listErr    error
	recordErr  error
	recordedID string
	recordedV  model.HumanVerdict
	recordedAt time.Time
}

func (f *fakeStore) ListPending(ctx context.Context, limit int) ([]model.ModerationDecision, error) {
	return f.pending, f.listErr
}

func (f *fakeStore) RecordVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict, at time.Time) (model.ModerationDecision, error) {
	if f.recordErr != nil {
		return model.ModerationDecision{}, f.recordErr
	}
	f.recordedID = submissionID
	f.recordedV = verdict
	f.recordedAt = at
	return model.ModerationDecision{
		SubmissionID: submissionID,
		Tier:         model.TierYellow,
		HumanVerdict: verdict,
	}, nil
}

type fakeMemory struct {
	setID  string
	setV   model.HumanVerdict
	setErr error
}

func (f *fakeMemory) SetHumanVerdict(ctx context.Context, submissionID string, verdict model.HumanVerdict) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setID = submissionID
	f.setV = verdict
	return nil
}

func TestSubmitVerdict(t *testing.T) {
	Convey("Given a review gateway", t, func() {
		_ = logger.Init()
		ctx := context.Background()
		frozen := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

		Convey("When a moderator approves a pending decision", func() {
			store := &fakeStore{}
			memory := &fakeMemory{}
			g := review.NewGateway(store, memory, review.WithClock(func() time.Time { return frozen }))
			d, err := g.SubmitVerdict(ctx, "sub-1", model.VerdictApprove)

			Convey("Then the verdict is recorded with the gateway clock", func() {
				So(err, ShouldBeNil)
				So(d.HumanVerdict, ShouldEqual, model.VerdictApprove)
				So(store.recordedID, ShouldEqual, "sub-1")
				So(store.recordedAt.Equal(frozen), ShouldBeTrue)
			})

			Convey("Then the verdict reaches the similarity index", func() {
				So(memory.setID, ShouldEqual, "sub-1")
				So(memory.setV, ShouldEqual, model.VerdictApprove)
			})
		})

		Convey("When the verdict is not APPROVE or REJECT", func() {
			store := &fakeStore{}
			g := review.NewGateway(store, &fakeMemory{})
			_, err := g.SubmitVerdict(ctx, "sub-1", model.HumanVerdict("MAYBE"))

			Convey("Then the gateway rejects it without touching the store", func() {
				So(errors.Is(err, review.ErrInvalidVerdict), ShouldBeTrue)
				So(store.recordedID, ShouldBeEmpty)
			})
		})

		Convey("When the decision was already reviewed", func() {
			store := &fakeStore{recordErr: repository.ErrAlreadyReviewed}
			g := review.NewGateway(store, &fakeMemory{})
			_, err := g.SubmitVerdict(ctx, "sub-1", model.VerdictReject)

			Convey("Then the store error surfaces unchanged", func() {
				So(errors.Is(err, repository.ErrAlreadyReviewed), ShouldBeTrue)
			})
		})

		Convey("When the similarity index propagation fails", func() {
			store := &fakeStore{}
			memory := &fakeMemory{setErr: errors.New("index down")}
			g := review.NewGateway(store, memory)
			d, err := g.SubmitVerdict(ctx, "sub-1", model.VerdictReject)

			Convey("Then the recorded verdict stands", func() {
				So(err, ShouldBeNil)
				So(d.HumanVerdict, ShouldEqual, model.VerdictReject)
				So(store.recordedID, ShouldEqual, "sub-1")
			})
		})

		Convey("When no memory updater is wired", func() {
			store := &fakeStore{}
			g := review.NewGateway(store, nil)
			_, err := g.SubmitVerdict(ctx, "sub-1", model.VerdictApprove)

			Convey("Then the verdict still records", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestPending(t *testing.T) {
	Convey("Given a review gateway", t, func() {
		_ = logger.Init()
		ctx := context.Background()

		Convey("When decisions are waiting", func() {
			store := &fakeStore{pending: []model.ModerationDecision{
				{SubmissionID: "sub-1", Tier: model.TierYellow},
				{SubmissionID: "sub-2", Tier: model.TierYellow},
			}}
			g := review.NewGateway(store, &fakeMemory{})
			pending, err := g.Pending(ctx, 10)

			Convey("Then they are returned in store order", func() {
				So(err, ShouldBeNil)
				So(pending, ShouldHaveLength, 2)
				So(pending[0].SubmissionID, ShouldEqual, "sub-1")
			})
		})

		Convey("When the store fails", func() {
			store := &fakeStore{listErr: errors.New("store down")}
			g := review.NewGateway(store, &fakeMemory{})
			_, err := g.Pending(ctx, 10)

			Convey("Then the failure is wrapped for the caller", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "list pending reviews")
			})
		})
	})
}
