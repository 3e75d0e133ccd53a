package replay

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/your-org/rallyscope/internal/models"
)

func testWindows() Windows {
	return Windows{ShotMs: 50, EventMs: 100}
}

func shotsAt(timestamps ...int64) []models.Shot {
	shots := make([]models.Shot, 0, len(timestamps))
	for i, ts := range timestamps {
		shots = append(shots, models.Shot{
			TimestampMs: ts,
			Player:      (i % 2) + 1,
			ShotType:    models.ShotTypeForehand,
			Speed:       float64(40 + i),
		})
	}
	return shots
}

func eventsAt(timestamps ...int64) []models.Event {
	events := make([]models.Event, 0, len(timestamps))
	for i, ts := range timestamps {
		events = append(events, models.Event{
			ID:          string(rune('a' + i)),
			TimestampMs: ts,
			Type:        models.EventTypeScore,
			Importance:  5,
		})
	}
	return events
}

func TestActiveShot(t *testing.T) {
	convey.Convey("Given shots at 100, 533 and 1200 ms with a 50 ms window", t, func() {
		engine := NewEngine(shotsAt(100, 533, 1200), nil, testWindows())

		convey.Convey("A position 13 ms before a shot resolves that shot", func() {
			shot, ok := engine.ActiveShot(520)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(shot.TimestampMs, convey.ShouldEqual, 533)
		})

		convey.Convey("A position outside every window resolves nothing", func() {
			_, ok := engine.ActiveShot(600)
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("An exact hit resolves the shot itself", func() {
			shot, ok := engine.ActiveShot(1200)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(shot.TimestampMs, convey.ShouldEqual, 1200)
		})

		convey.Convey("The window boundary is inclusive", func() {
			shot, ok := engine.ActiveShot(150)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(shot.TimestampMs, convey.ShouldEqual, 100)

			_, ok = engine.ActiveShot(151)
			convey.So(ok, convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given two shots equidistant from the position", t, func() {
		engine := NewEngine(shotsAt(480, 520), nil, testWindows())

		convey.Convey("The tie breaks toward the earlier shot", func() {
			shot, ok := engine.ActiveShot(500)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(shot.TimestampMs, convey.ShouldEqual, 480)
		})
	})

	convey.Convey("Given no shots at all", t, func() {
		engine := NewEngine(nil, nil, testWindows())

		convey.Convey("Every position resolves nothing", func() {
			_, ok := engine.ActiveShot(0)
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestActiveEvent(t *testing.T) {
	convey.Convey("Given events at 500 and 900 ms with a 100 ms window", t, func() {
		engine := NewEngine(nil, eventsAt(500, 900), testWindows())

		convey.Convey("The wider event window accepts a 90 ms distance", func() {
			event, ok := engine.ActiveEvent(590)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(event.TimestampMs, convey.ShouldEqual, 500)
		})

		convey.Convey("A distance past the window resolves nothing", func() {
			_, ok := engine.ActiveEvent(700)
			convey.So(ok, convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given two events both inside the window", t, func() {
		engine := NewEngine(nil, eventsAt(750, 900), testWindows())

		convey.Convey("The nearest one wins", func() {
			event, ok := engine.ActiveEvent(820)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(event.TimestampMs, convey.ShouldEqual, 750)
		})
	})
}

func TestCursorConsistency(t *testing.T) {
	convey.Convey("Given a warmed engine and a cold one over the same data", t, func() {
		shots := shotsAt(100, 533, 1200, 1800, 2500, 3100)
		warm := NewEngine(shots, nil, testWindows())

		// Forward walk, a backward jump, then a far forward jump.
		positions := []int64{0, 90, 120, 533, 600, 1190, 2510, 450, 3140, 80, 3200}

		convey.Convey("Every query answers exactly like a fresh engine", func() {
			for _, pos := range positions {
				cold := NewEngine(shots, nil, testWindows())
				warmShot, warmOK := warm.ActiveShot(pos)
				coldShot, coldOK := cold.ActiveShot(pos)
				convey.So(warmOK, convey.ShouldEqual, coldOK)
				convey.So(warmShot.TimestampMs, convey.ShouldEqual, coldShot.TimestampMs)
			}
		})
	})
}
