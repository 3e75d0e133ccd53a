package analysis

import (
	"fmt"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/your-org/rallyscope/internal/models"
)

func typedEvent(id string, ts int64, t models.EventType, importance int) models.Event {
	return models.Event{ID: id, TimestampMs: ts, Type: t, Importance: importance}
}

func TestBuildHighlights(t *testing.T) {
	convey.Convey("Given a mixed set of events", t, func() {
		events := []models.Event{
			typedEvent("score1", 500, models.EventTypeScore, 5),
			typedEvent("rally1", 1000, models.EventTypeRallyHighlight, 7),
			typedEvent("rally2", 2000, models.EventTypeRallyHighlight, 9),
			typedEvent("rally3", 3000, models.EventTypeRallyHighlight, 6),
			typedEvent("rally4", 4000, models.EventTypeRallyHighlight, 8),
			typedEvent("fast1", 5000, models.EventTypeFastestShot, 7),
			typedEvent("ace1", 6000, models.EventTypeServeAce, 4),
			typedEvent("ace2", 7000, models.EventTypeServeAce, 5),
		}

		highlights := BuildHighlights(events)

		convey.Convey("Play of the game is the single most important event", func() {
			convey.So(highlights.PlayOfTheGame, convey.ShouldNotBeNil)
			convey.So(highlights.PlayOfTheGame.EventID, convey.ShouldEqual, "rally2")
			convey.So(highlights.PlayOfTheGame.TimestampMs, convey.ShouldEqual, 2000)
		})

		convey.Convey("Top rallies are capped at three, ordered by importance", func() {
			convey.So(highlights.TopRallies, convey.ShouldHaveLength, 3)
			convey.So(highlights.TopRallies[0].EventID, convey.ShouldEqual, "rally2")
			convey.So(highlights.TopRallies[1].EventID, convey.ShouldEqual, "rally4")
			convey.So(highlights.TopRallies[2].EventID, convey.ShouldEqual, "rally1")
		})

		convey.Convey("Fastest shots and best serves pick from their own types", func() {
			convey.So(highlights.FastestShots, convey.ShouldHaveLength, 1)
			convey.So(highlights.FastestShots[0].EventID, convey.ShouldEqual, "fast1")
			convey.So(highlights.BestServes, convey.ShouldHaveLength, 2)
			convey.So(highlights.BestServes[0].EventID, convey.ShouldEqual, "ace1")
		})
	})

	convey.Convey("Given more aces than the category cap", t, func() {
		var events []models.Event
		for i := 0; i < 5; i++ {
			events = append(events, typedEvent(fmt.Sprintf("ace%d", i), int64(i*1000), models.EventTypeServeAce, 5))
		}

		highlights := BuildHighlights(events)

		convey.Convey("Only the first three make the cut", func() {
			convey.So(highlights.BestServes, convey.ShouldHaveLength, 3)
			convey.So(highlights.BestServes[2].EventID, convey.ShouldEqual, "ace2")
		})
	})

	convey.Convey("Given importance ties for play of the game", t, func() {
		events := []models.Event{
			typedEvent("first", 100, models.EventTypeScore, 9),
			typedEvent("second", 200, models.EventTypeScore, 9),
		}

		convey.Convey("The earlier event wins", func() {
			highlights := BuildHighlights(events)
			convey.So(highlights.PlayOfTheGame.EventID, convey.ShouldEqual, "first")
		})
	})

	convey.Convey("Given no events at all", t, func() {
		highlights := BuildHighlights(nil)

		convey.Convey("Every category is empty but the structure exists", func() {
			convey.So(highlights, convey.ShouldNotBeNil)
			convey.So(highlights.PlayOfTheGame, convey.ShouldBeNil)
			convey.So(highlights.TopRallies, convey.ShouldBeEmpty)
		})
	})
}
