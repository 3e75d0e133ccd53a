package analysis

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/your-org/rallyscope/internal/models"
)

func scoreEvent(ts int64, player int) models.Event {
	return models.Event{
		ID:          "e",
		TimestampMs: ts,
		Type:        models.EventTypeScore,
		Player:      &player,
		Metadata:    &models.EventMetadata{},
	}
}

func TestBuildMomentumTimeline(t *testing.T) {
	convey.Convey("Given score events for both players", t, func() {
		events := []models.Event{
			scoreEvent(533, 1),
			{ID: "x", TimestampMs: 900, Type: models.EventTypeMiss},
			scoreEvent(2100, 2),
			scoreEvent(3000, 1),
		}

		timeline := buildMomentumTimeline(events)

		convey.Convey("One sample per score event, nothing per frame", func() {
			convey.So(timeline, convey.ShouldHaveLength, 3)
		})

		convey.Convey("The running score accumulates and the lead tracks it", func() {
			convey.So(timeline[0].ScoreAfter, convey.ShouldResemble, models.ScoreState{Player1: 1})
			convey.So(timeline[0].Lead, convey.ShouldEqual, 1)
			convey.So(timeline[1].ScoreAfter, convey.ShouldResemble, models.ScoreState{Player1: 1, Player2: 1})
			convey.So(timeline[1].Lead, convey.ShouldEqual, 0)
			convey.So(timeline[2].ScoreAfter, convey.ShouldResemble, models.ScoreState{Player1: 2, Player2: 1})
		})

		convey.Convey("Score events are stamped with the score after them", func() {
			convey.So(events[0].Metadata.ScoreAfter, convey.ShouldResemble, &models.ScoreState{Player1: 1})
			convey.So(events[1].Metadata, convey.ShouldBeNil)
		})
	})
}

func TestBuildStatistics(t *testing.T) {
	shots := []models.Shot{
		{TimestampMs: 100, Player: 1, ShotType: models.ShotTypeServe, Speed: 60, Accuracy: 90, Result: models.ShotResultIn},
		{TimestampMs: 1500, Player: 2, ShotType: models.ShotTypeForehand, Speed: 45, Accuracy: 82, Result: models.ShotResultIn},
		{TimestampMs: 3000, Player: 1, ShotType: models.ShotTypeSmash, Speed: 95, Accuracy: 70, Result: models.ShotResultOut},
	}

	convey.Convey("Given shots and score events without model statistics", t, func() {
		events := []models.Event{scoreEvent(3100, 1)}
		stats := BuildStatistics(nil, shots, events)

		convey.Convey("Speeds derive from the shots, rounded to one decimal", func() {
			convey.So(stats.MaxBallSpeed, convey.ShouldEqual, 95)
			convey.So(stats.AvgBallSpeed, convey.ShouldEqual, 66.7)
		})

		convey.Convey("The final score comes off the momentum timeline", func() {
			convey.So(stats.Player1Score, convey.ShouldEqual, 1)
			convey.So(stats.Player2Score, convey.ShouldEqual, 0)
			convey.So(stats.MomentumTimeline, convey.ShouldHaveLength, 1)
		})

		convey.Convey("Serve and return metrics follow the shot sequence", func() {
			convey.So(stats.ServeMetrics.TotalServes, convey.ShouldEqual, 1)
			convey.So(stats.ServeMetrics.SuccessfulServes, convey.ShouldEqual, 1)
			convey.So(stats.ServeMetrics.SuccessRate, convey.ShouldEqual, 100)
			convey.So(stats.ReturnMetrics.TotalReturns, convey.ShouldEqual, 1)
			convey.So(stats.ReturnMetrics.SuccessfulReturns, convey.ShouldEqual, 1)
		})

		convey.Convey("The shot type breakdown lists only observed types", func() {
			convey.So(stats.ShotTypeBreakdown, convey.ShouldHaveLength, 3)
			convey.So(stats.ShotTypeBreakdown[0].ShotType, convey.ShouldEqual, models.ShotTypeServe)
		})

		convey.Convey("The player breakdown always covers both players", func() {
			convey.So(stats.PlayerBreakdown, convey.ShouldHaveLength, 2)
			convey.So(stats.PlayerBreakdown[0].TotalShots, convey.ShouldEqual, 2)
			convey.So(stats.PlayerBreakdown[1].TotalShots, convey.ShouldEqual, 1)
			convey.So(stats.PlayerBreakdown[0].TotalPointsWon, convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given model statistics alongside derived values", t, func() {
		modelStats := &ModelStatistics{
			Player1Score: iptr(11),
			Player2Score: iptr(7),
			MaxBallSpeed: f64(102.34),
		}
		stats := BuildStatistics(modelStats, shots, nil)

		convey.Convey("Model values win over derived ones", func() {
			convey.So(stats.Player1Score, convey.ShouldEqual, 11)
			convey.So(stats.Player2Score, convey.ShouldEqual, 7)
			convey.So(stats.MaxBallSpeed, convey.ShouldEqual, 102.3)
		})

		convey.Convey("Unset model fields still derive from the shots", func() {
			convey.So(stats.AvgBallSpeed, convey.ShouldEqual, 66.7)
		})
	})
}
