package analysis

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/your-org/rallyscope/internal/models"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func iptr(v int) *int        { return &v }

func TestNormalize(t *testing.T) {
	convey.Convey("Given model output with mixed frame and millisecond timestamps", t, func() {
		result := &ModelResult{
			FPS: f64(25),
			Shots: []ModelShot{
				{TimestampMs: f64(1200), Player: iptr(2), ShotType: "smash", Speed: f64(80), Result: "in"},
				{Frame: i64(25), ShotType: "SERVE", Speed: f64(60), Accuracy: f64(90), Result: "landed out"},
			},
			Events: []ModelEvent{
				{Type: "SCORE", Frame: i64(50), Player: iptr(1), Importance: iptr(8)},
				{Label: "incredible rally", TimestampMs: f64(500)},
			},
		}

		shots, events := Normalize(result, 30)

		convey.Convey("Frame-only entries convert through fps", func() {
			convey.So(shots, convey.ShouldHaveLength, 2)
			convey.So(shots[0].TimestampMs, convey.ShouldEqual, 1000) // frame 25 at 25 fps
			convey.So(shots[1].TimestampMs, convey.ShouldEqual, 1200)
		})

		convey.Convey("Both sequences come back sorted by timestamp", func() {
			convey.So(events[0].TimestampMs, convey.ShouldEqual, 500)
			convey.So(events[1].TimestampMs, convey.ShouldEqual, 2000)
		})

		convey.Convey("Shot fields coerce with defaults for the gaps", func() {
			serve := shots[0]
			convey.So(serve.ShotType, convey.ShouldEqual, models.ShotTypeServe)
			convey.So(serve.Result, convey.ShouldEqual, models.ShotResultOut)
			convey.So(serve.Player, convey.ShouldEqual, 1)

			smash := shots[1]
			convey.So(smash.ShotType, convey.ShouldEqual, models.ShotTypeSmash)
			convey.So(smash.Accuracy, convey.ShouldEqual, defaultShotAccuracy)
		})

		convey.Convey("Event types resolve from the tag or the label", func() {
			convey.So(events[0].Type, convey.ShouldEqual, models.EventTypeRallyHighlight)
			convey.So(events[0].Description, convey.ShouldEqual, "Incredible rally")
			convey.So(events[1].Type, convey.ShouldEqual, models.EventTypeScore)
			convey.So(events[1].Importance, convey.ShouldEqual, 8)
		})

		convey.Convey("Untagged events fall back to the default importance", func() {
			convey.So(events[0].Importance, convey.ShouldEqual, defaultImportance)
		})

		convey.Convey("Every event gets a unique id", func() {
			convey.So(events[0].ID, convey.ShouldNotBeEmpty)
			convey.So(events[0].ID, convey.ShouldNotEqual, events[1].ID)
		})
	})

	convey.Convey("Given model output with events but no shots", t, func() {
		result := &ModelResult{
			Events: []ModelEvent{
				{Type: "SCORE", TimestampMs: f64(1000), Player: iptr(2), ShotSpeed: f64(55)},
				{Type: "MISS", TimestampMs: f64(2000)},
			},
		}

		shots, events := Normalize(result, 30)

		convey.Convey("Shots are synthesized from the events", func() {
			convey.So(events, convey.ShouldHaveLength, 2)
			convey.So(shots, convey.ShouldHaveLength, 2)
			convey.So(shots[0].TimestampMs, convey.ShouldEqual, 1000)
			convey.So(shots[0].Player, convey.ShouldEqual, 2)
			convey.So(shots[0].Speed, convey.ShouldEqual, 55)
			convey.So(shots[1].Speed, convey.ShouldEqual, synthShotSpeed)
		})
	})
}

func TestResolveEventType(t *testing.T) {
	convey.Convey("Label heuristics cover the common model vocabulary", t, func() {
		cases := map[string]models.EventType{
			"ball bounce detected": models.EventTypeScore,
			"service ace":          models.EventTypeServeAce,
			"fast smash":           models.EventTypeFastestShot,
			"unforced error":       models.EventTypeMiss,
			"long rally":           models.EventTypeRallyHighlight,
			"something else":       models.EventTypePlayOfTheGame,
		}
		for label, want := range cases {
			convey.So(resolveEventType("", label), convey.ShouldEqual, want)
		}
	})

	convey.Convey("An explicit type tag wins over the label", t, func() {
		convey.So(resolveEventType("MISS", "long rally"), convey.ShouldEqual, models.EventTypeMiss)
	})
}
