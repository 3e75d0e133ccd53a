package replay

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/your-org/rallyscope/internal/models"
)

func sessionMatch() *models.Match {
	return &models.Match{
		Status: models.MatchStatusComplete,
		Shots: []models.Shot{
			{TimestampMs: 100, Player: 1, Speed: 40},
			{TimestampMs: 533, Player: 2, Speed: 62},
			{TimestampMs: 1200, Player: 1, Speed: 51},
		},
		Events: []models.Event{
			{ID: "e1", TimestampMs: 533, Type: models.EventTypeScore, Importance: 6},
		},
		Statistics: &models.Statistics{
			MomentumTimeline: []models.MomentumSample{
				{TimestampMs: 533, ScoringPlayer: 1, ScoreAfter: models.ScoreState{Player1: 1}, Lead: 1},
			},
		},
	}
}

func TestSessionSeek(t *testing.T) {
	convey.Convey("Given a session over a completed match", t, func() {
		var delivered []Frame
		session := NewSession(sessionMatch(), testWindows(), func(f Frame) {
			delivered = append(delivered, f)
		})

		convey.Convey("A seek near a shot and event resolves both plus score and aggregates", func() {
			frame, ok := session.Seek(540)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(frame.ActiveShot, convey.ShouldNotBeNil)
			convey.So(frame.ActiveShot.TimestampMs, convey.ShouldEqual, 533)
			convey.So(frame.ActiveEvent, convey.ShouldNotBeNil)
			convey.So(frame.ActiveEvent.ID, convey.ShouldEqual, "e1")
			convey.So(frame.Score, convey.ShouldResemble, models.ScoreState{Player1: 1})
			convey.So(frame.Lead, convey.ShouldEqual, 1)
			convey.So(frame.Live.TotalShots, convey.ShouldEqual, 2)
			convey.So(delivered, convey.ShouldHaveLength, 1)
		})

		convey.Convey("A seek in dead time resolves neither shot nor event", func() {
			frame, ok := session.Seek(900)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(frame.ActiveShot, convey.ShouldBeNil)
			convey.So(frame.ActiveEvent, convey.ShouldBeNil)
		})

		convey.Convey("Seeking backwards gives the same answer as a fresh session", func() {
			_, _ = session.Seek(1200)
			back, ok := session.Seek(540)
			convey.So(ok, convey.ShouldBeTrue)

			fresh := NewSession(sessionMatch(), testWindows(), nil)
			cold, _ := fresh.Seek(540)
			convey.So(back.ActiveShot.TimestampMs, convey.ShouldEqual, cold.ActiveShot.TimestampMs)
			convey.So(back.Live, convey.ShouldResemble, cold.Live)
			convey.So(back.Score, convey.ShouldResemble, cold.Score)
		})
	})
}
