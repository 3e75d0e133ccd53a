package replay

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/your-org/rallyscope/internal/models"
)

func TestScoreAt(t *testing.T) {
	timeline := []models.MomentumSample{
		{TimestampMs: 533, ScoringPlayer: 1, ScoreAfter: models.ScoreState{Player1: 1, Player2: 0}, Lead: 1},
		{TimestampMs: 2100, ScoringPlayer: 2, ScoreAfter: models.ScoreState{Player1: 1, Player2: 1}, Lead: 0},
	}

	convey.Convey("Given a timeline with points at 533 and 2100 ms", t, func() {
		convey.Convey("Before the first point the score is 0-0", func() {
			score := ScoreAt(timeline, 0)
			convey.So(score, convey.ShouldResemble, models.ScoreState{})
		})

		convey.Convey("Between the points the first sample holds", func() {
			score := ScoreAt(timeline, 600)
			convey.So(score, convey.ShouldResemble, models.ScoreState{Player1: 1, Player2: 0})
		})

		convey.Convey("Exactly at a point its own score applies", func() {
			score := ScoreAt(timeline, 533)
			convey.So(score, convey.ShouldResemble, models.ScoreState{Player1: 1, Player2: 0})
		})

		convey.Convey("After the last point the final score holds", func() {
			score := ScoreAt(timeline, 5000)
			convey.So(score, convey.ShouldResemble, models.ScoreState{Player1: 1, Player2: 1})
		})

		convey.Convey("The lead tracks the score step function", func() {
			convey.So(LeadAt(timeline, 0), convey.ShouldEqual, 0)
			convey.So(LeadAt(timeline, 600), convey.ShouldEqual, 1)
			convey.So(LeadAt(timeline, 5000), convey.ShouldEqual, 0)
		})
	})

	convey.Convey("Given an empty timeline", t, func() {
		convey.Convey("Every position reads 0-0", func() {
			convey.So(ScoreAt(nil, 9999), convey.ShouldResemble, models.ScoreState{})
		})
	})
}
