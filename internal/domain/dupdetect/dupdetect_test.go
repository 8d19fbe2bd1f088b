package dupdetect_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/guardian/internal/adapters/vecstore"
	"github.com/okian/guardian/internal/domain/dupdetect"
	"github.com/okian/guardian/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeIndex struct {
	matches []model.SimilarityMatch
	err     error
	lastQ   vecstore.Query
	queried bool
}

func (f *fakeIndex) Nearest(ctx context.Context, q vecstore.Query) ([]model.SimilarityMatch, error) {
	f.lastQ = q
	f.queried = true
	return f.matches, f.err
}

func TestDetect(t *testing.T) {
	Convey("Given a duplicate detector", t, func() {
		ctx := context.Background()
		now := time.Now()
		sub := model.Submission{
			ID:          "sub-new",
			SubmittedAt: now,
			Geo:         model.GeoTag{Country: "US", State: "CA", City: "Oakland"},
		}
		embedding := []float32{0.1, 0.9}

		Convey("When the index has no candidates", func() {
			idx := &fakeIndex{}
			d := dupdetect.New(idx)
			match, err := d.Detect(ctx, sub, embedding)

			Convey("Then no duplicate is reported", func() {
				So(err, ShouldBeNil)
				So(match, ShouldBeNil)
			})

			Convey("Then the query carries scope, window, and threshold", func() {
				So(idx.lastQ.Scope, ShouldEqual, sub.Geo.Scope())
				So(idx.lastQ.MinSimilarity, ShouldEqual, 0.90)
				So(idx.lastQ.Since, ShouldHappenWithin, time.Second, now.Add(-24*time.Hour))
				So(idx.lastQ.ExcludeID, ShouldEqual, "sub-new")
			})
		})

		Convey("When one candidate clears the threshold", func() {
			idx := &fakeIndex{matches: []model.SimilarityMatch{
				{SubmissionID: "sub-old", Similarity: 0.95, CreatedAt: now.Add(-time.Hour)},
			}}
			d := dupdetect.New(idx)
			match, err := d.Detect(ctx, sub, embedding)

			Convey("Then it becomes the canonical original", func() {
				So(err, ShouldBeNil)
				So(match, ShouldNotBeNil)
				So(match.OriginalID, ShouldEqual, "sub-old")
				So(match.Similarity, ShouldAlmostEqual, 0.95, 1e-9)
			})
		})

		Convey("When several candidates clear the threshold", func() {
			idx := &fakeIndex{matches: []model.SimilarityMatch{
				{SubmissionID: "sub-b", Similarity: 0.99, CreatedAt: now.Add(-time.Hour)},
				{SubmissionID: "sub-a", Similarity: 0.91, CreatedAt: now.Add(-3 * time.Hour)},
				{SubmissionID: "sub-c", Similarity: 0.94, CreatedAt: now.Add(-2 * time.Hour)},
			}}
			d := dupdetect.New(idx)
			match, err := d.Detect(ctx, sub, embedding)

			Convey("Then the earliest-created candidate wins over the most similar", func() {
				So(err, ShouldBeNil)
				So(match.OriginalID, ShouldEqual, "sub-a")
				So(match.Similarity, ShouldAlmostEqual, 0.91, 1e-9)
			})
		})

		Convey("When the embedding is empty", func() {
			idx := &fakeIndex{}
			d := dupdetect.New(idx)
			match, err := d.Detect(ctx, sub, nil)

			Convey("Then detection is skipped without touching the index", func() {
				So(err, ShouldBeNil)
				So(match, ShouldBeNil)
				So(idx.queried, ShouldBeFalse)
			})
		})

		Convey("When the index fails", func() {
			idx := &fakeIndex{err: errors.New("index down")}
			d := dupdetect.New(idx)
			_, err := d.Detect(ctx, sub, embedding)

			Convey("Then the error propagates to the caller", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When threshold and window are customized", func() {
			idx := &fakeIndex{}
			d := dupdetect.New(idx, dupdetect.WithThreshold(0.8), dupdetect.WithWindow(time.Hour))
			_, err := d.Detect(ctx, sub, embedding)

			Convey("Then the query reflects the overrides", func() {
				So(err, ShouldBeNil)
				So(idx.lastQ.MinSimilarity, ShouldEqual, 0.8)
				So(idx.lastQ.Since, ShouldHappenWithin, time.Second, now.Add(-time.Hour))
			})
		})

		Convey("When options carry out-of-range values", func() {
			idx := &fakeIndex{}
			d := dupdetect.New(idx, dupdetect.WithThreshold(1.5), dupdetect.WithWindow(-time.Hour))
			_, err := d.Detect(ctx, sub, embedding)

			Convey("Then the defaults are kept", func() {
				So(err, ShouldBeNil)
				So(idx.lastQ.MinSimilarity, ShouldEqual, 0.90)
			})
		})
	})
}
