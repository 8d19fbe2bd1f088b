package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/guardian/internal/adapters/repository"
	"github.com/okian/guardian/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// exerciseStore runs the shared Store contract against a backend.
func exerciseStore(newStore func(t *testing.T) repository.Store) func(*testing.T) {
	return func(t *testing.T) {
		Convey("Given an empty decision store", t, func() {
			ctx := context.Background()
			store := newStore(t)
			now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

			yellow := func(id string, age time.Duration) model.ModerationDecision {
				return model.ModerationDecision{
					SubmissionID: id,
					Tier:         model.TierYellow,
					RiskScore:    0.5,
					Rationale:    "risk 0.50 requires review",
					CreatedAt:    now.Add(-age),
				}
			}

			Convey("When a decision is created", func() {
				d := yellow("sub-1", 0)
				stored, created, err := store.Create(ctx, d)

				Convey("Then it persists and reads back", func() {
					So(err, ShouldBeNil)
					So(created, ShouldBeTrue)
					So(stored.SubmissionID, ShouldEqual, "sub-1")

					got, err := store.Get(ctx, "sub-1")
					So(err, ShouldBeNil)
					So(got.Tier, ShouldEqual, model.TierYellow)
					So(store.Count(ctx), ShouldEqual, 1)
				})

				Convey("And the same submission is decided again", func() {
					second := yellow("sub-1", 0)
					second.RiskScore = 0.9
					stored2, created2, err := store.Create(ctx, second)

					Convey("Then the first decision wins", func() {
						So(err, ShouldBeNil)
						So(created2, ShouldBeFalse)
						So(stored2.RiskScore, ShouldAlmostEqual, 0.5, 1e-9)
						So(store.Count(ctx), ShouldEqual, 1)
					})
				})
			})

			Convey("When a decision has no submission id", func() {
				_, _, err := store.Create(ctx, model.ModerationDecision{})

				Convey("Then creation fails", func() {
					So(errors.Is(err, repository.ErrMissingID), ShouldBeTrue)
				})
			})

			Convey("When an unknown id is fetched", func() {
				_, err := store.Get(ctx, "ghost")

				Convey("Then the store reports not found", func() {
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When listing pending reviews", func() {
				_, _, err := store.Create(ctx, yellow("sub-newer", time.Hour))
				So(err, ShouldBeNil)
				_, _, err = store.Create(ctx, yellow("sub-oldest", 3*time.Hour))
				So(err, ShouldBeNil)
				_, _, err = store.Create(ctx, yellow("sub-middle", 2*time.Hour))
				So(err, ShouldBeNil)

				green := yellow("sub-green", 4*time.Hour)
				green.Tier = model.TierGreen
				_, _, err = store.Create(ctx, green)
				So(err, ShouldBeNil)

				Convey("Then only YELLOW decisions come back, oldest first", func() {
					pending, err := store.ListPending(ctx, 10)
					So(err, ShouldBeNil)
					So(pending, ShouldHaveLength, 3)
					So(pending[0].SubmissionID, ShouldEqual, "sub-oldest")
					So(pending[1].SubmissionID, ShouldEqual, "sub-middle")
					So(pending[2].SubmissionID, ShouldEqual, "sub-newer")
				})

				Convey("Then the limit truncates the queue", func() {
					pending, err := store.ListPending(ctx, 2)
					So(err, ShouldBeNil)
					So(pending, ShouldHaveLength, 2)
					So(pending[0].SubmissionID, ShouldEqual, "sub-oldest")
				})

				Convey("Then a non-positive limit is rejected", func() {
					_, err := store.ListPending(ctx, 0)
					So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
				})

				Convey("And a verdict is recorded", func() {
					_, err := store.RecordVerdict(ctx, "sub-oldest", model.VerdictApprove, now)
					So(err, ShouldBeNil)

					Convey("Then the reviewed decision leaves the queue", func() {
						pending, err := store.ListPending(ctx, 10)
						So(err, ShouldBeNil)
						So(pending, ShouldHaveLength, 2)
						So(pending[0].SubmissionID, ShouldEqual, "sub-middle")
					})
				})
			})

			Convey("When recording verdicts", func() {
				_, _, err := store.Create(ctx, yellow("sub-1", 0))
				So(err, ShouldBeNil)

				Convey("Then the first verdict sticks", func() {
					d, err := store.RecordVerdict(ctx, "sub-1", model.VerdictReject, now)
					So(err, ShouldBeNil)
					So(d.HumanVerdict, ShouldEqual, model.VerdictReject)
					So(d.ReviewedAt, ShouldHappenWithin, time.Second, now)

					Convey("And a second verdict is refused", func() {
						_, err := store.RecordVerdict(ctx, "sub-1", model.VerdictApprove, now)
						So(errors.Is(err, repository.ErrAlreadyReviewed), ShouldBeTrue)

						got, err := store.Get(ctx, "sub-1")
						So(err, ShouldBeNil)
						So(got.HumanVerdict, ShouldEqual, model.VerdictReject)
					})
				})

				Convey("Then unknown submissions are reported", func() {
					_, err := store.RecordVerdict(ctx, "ghost", model.VerdictApprove, now)
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})

				Convey("Then GREEN and RED decisions take a verdict too", func() {
					red := yellow("sub-red", 0)
					red.Tier = model.TierRed
					_, _, err := store.Create(ctx, red)
					So(err, ShouldBeNil)
					green := yellow("sub-green", 0)
					green.Tier = model.TierGreen
					_, _, err = store.Create(ctx, green)
					So(err, ShouldBeNil)

					d, err := store.RecordVerdict(ctx, "sub-red", model.VerdictApprove, now)
					So(err, ShouldBeNil)
					So(d.HumanVerdict, ShouldEqual, model.VerdictApprove)
					d, err = store.RecordVerdict(ctx, "sub-green", model.VerdictReject, now)
					So(err, ShouldBeNil)
					So(d.HumanVerdict, ShouldEqual, model.VerdictReject)

					Convey("And they still get only one verdict", func() {
						_, err := store.RecordVerdict(ctx, "sub-red", model.VerdictReject, now)
						So(errors.Is(err, repository.ErrAlreadyReviewed), ShouldBeTrue)
					})

					Convey("And the pending queue never lists them", func() {
						pending, err := store.ListPending(ctx, 10)
						So(err, ShouldBeNil)
						So(pending, ShouldHaveLength, 1)
						So(pending[0].SubmissionID, ShouldEqual, "sub-1")
					})
				})
			})
		})
	}
}

func TestMemStore(t *testing.T) {
	exerciseStore(func(t *testing.T) repository.Store {
		return repository.NewMemStore()
	})(t)
}

func TestPebbleStore(t *testing.T) {
	exerciseStore(func(t *testing.T) repository.Store {
		store, err := repository.OpenPebbleStore(t.TempDir())
		if err != nil {
			t.Fatalf("open pebble store: %v", err)
		}
		t.Cleanup(func() {
			if err := store.Close(); err != nil {
				t.Errorf("close pebble store: %v", err)
			}
		})
		return store
	})(t)
}

func TestPebbleStoreReopen(t *testing.T) {
	Convey("Given a pebble store with a decision", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		store, err := repository.OpenPebbleStore(dir)
		So(err, ShouldBeNil)
		_, _, err = store.Create(ctx, model.ModerationDecision{
			SubmissionID: "sub-1",
			Tier:         model.TierYellow,
			CreatedAt:    time.Now(),
		})
		So(err, ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("When the store reopens at the same path", func() {
			reopened, err := repository.OpenPebbleStore(dir)
			So(err, ShouldBeNil)
			defer func() { So(reopened.Close(), ShouldBeNil) }()

			Convey("Then the decision survived the restart", func() {
				got, err := reopened.Get(ctx, "sub-1")
				So(err, ShouldBeNil)
				So(got.Tier, ShouldEqual, model.TierYellow)
				So(reopened.Count(ctx), ShouldEqual, 1)
			})
		})
	})
}
