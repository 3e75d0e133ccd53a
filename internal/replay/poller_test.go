package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"

	"github.com/your-org/rallyscope/internal/models"
)

type fakeSource struct {
	calls   int
	lastIDs []uuid.UUID
	updates []StatusUpdate
	err     error
}

func (f *fakeSource) Statuses(ctx context.Context, ids []uuid.UUID) ([]StatusUpdate, error) {
	f.calls++
	f.lastIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	return f.updates, nil
}

func TestPoller(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a poller tracking two matches", t, func() {
		first, second := uuid.New(), uuid.New()
		source := &fakeSource{}
		var terminal []uuid.UUID
		poller := NewPoller(source, time.Second, time.Second,
			func(ctx context.Context, id uuid.UUID, status models.MatchStatus) {
				terminal = append(terminal, id)
			})
		poller.Track(first)
		poller.Track(second)

		convey.Convey("One round issues exactly one batch request", func() {
			source.updates = []StatusUpdate{
				{MatchID: first, Status: models.MatchStatusProcessing},
				{MatchID: second, Status: models.MatchStatusProcessing},
			}
			poller.Poll(ctx)
			convey.So(source.calls, convey.ShouldEqual, 1)
			convey.So(source.lastIDs, convey.ShouldHaveLength, 2)
			convey.So(terminal, convey.ShouldBeEmpty)
			convey.So(poller.TrackedCount(), convey.ShouldEqual, 2)
		})

		convey.Convey("A terminal status fires the callback once and untracks", func() {
			source.updates = []StatusUpdate{
				{MatchID: first, Status: models.MatchStatusComplete},
				{MatchID: second, Status: models.MatchStatusProcessing},
			}
			poller.Poll(ctx)
			poller.Poll(ctx)

			convey.So(terminal, convey.ShouldResemble, []uuid.UUID{first})
			convey.So(poller.TrackedCount(), convey.ShouldEqual, 1)
		})

		convey.Convey("Once everything is terminal no further requests go out", func() {
			source.updates = []StatusUpdate{
				{MatchID: first, Status: models.MatchStatusComplete},
				{MatchID: second, Status: models.MatchStatusFailed},
			}
			poller.Poll(ctx)
			convey.So(poller.TrackedCount(), convey.ShouldEqual, 0)

			calls := source.calls
			poller.Poll(ctx)
			convey.So(source.calls, convey.ShouldEqual, calls)
		})

		convey.Convey("A request error skips the round without side effects", func() {
			source.err = errors.New("timeout")
			poller.Poll(ctx)
			convey.So(terminal, convey.ShouldBeEmpty)
			convey.So(poller.TrackedCount(), convey.ShouldEqual, 2)
		})

		convey.Convey("A match missing from the reply is dropped, not retried", func() {
			source.updates = []StatusUpdate{
				{MatchID: second, Status: models.MatchStatusProcessing},
			}
			poller.Poll(ctx)
			convey.So(terminal, convey.ShouldBeEmpty)
			convey.So(poller.TrackedCount(), convey.ShouldEqual, 1)
		})

		convey.Convey("Untracking stops polling for that match", func() {
			poller.Untrack(first)
			poller.Untrack(second)
			poller.Poll(ctx)
			convey.So(source.calls, convey.ShouldEqual, 0)
		})
	})
}
