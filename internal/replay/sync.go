// Package replay derives live view state from an immutable match payload as
// the playback position moves. All derived values are recomputed per position
// change and never persisted; seeking in either direction, or jumping, yields
// the same answer as arriving at that position cold.
package replay

import (
	"sort"

	"github.com/your-org/rallyscope/internal/models"
)

// Windows are the tolerance distances, in milliseconds, at which a shot or
// event counts as active for a position. They are independently tunable
// configuration, not protocol constants.
type Windows struct {
	ShotMs  int64
	EventMs int64
}

// Engine resolves the active shot and event for a playback position against
// timestamp-sorted sequences. The cursors are forward-scan hints only: a
// fresh Engine over the same data answers every query identically.
type Engine struct {
	shots   []models.Shot
	events  []models.Event
	windows Windows

	shotCursor  cursor
	eventCursor cursor
}

type cursor struct {
	idx     int
	lastPos int64
	primed  bool
}

func NewEngine(shots []models.Shot, events []models.Event, windows Windows) *Engine {
	return &Engine{shots: shots, events: events, windows: windows}
}

// ActiveShot returns the shot nearest to positionMs within the shot window.
// Among candidates inside the window the smallest absolute difference wins;
// an exact tie breaks toward the earlier timestamp. ok is false when no shot
// qualifies, which is the normal case for most positions.
func (e *Engine) ActiveShot(positionMs int64) (models.Shot, bool) {
	idx, ok := nearestWithin(len(e.shots), positionMs, e.windows.ShotMs, &e.shotCursor,
		func(i int) int64 { return e.shots[i].TimestampMs })
	if !ok {
		return models.Shot{}, false
	}
	return e.shots[idx], true
}

// ActiveEvent is ActiveShot for the event sequence and the event window.
func (e *Engine) ActiveEvent(positionMs int64) (models.Event, bool) {
	idx, ok := nearestWithin(len(e.events), positionMs, e.windows.EventMs, &e.eventCursor,
		func(i int) int64 { return e.events[i].TimestampMs })
	if !ok {
		return models.Event{}, false
	}
	return e.events[idx], true
}

// nearestWithin finds the index whose timestamp is nearest to pos and at most
// window away. It locates the first timestamp greater than pos, then weighs
// that candidate against its left neighbor.
func nearestWithin(n int, pos, window int64, c *cursor, ts func(int) int64) (int, bool) {
	if n == 0 {
		return 0, false
	}

	upper := advance(n, pos, c, ts)

	best, bestDiff := -1, int64(-1)
	if upper > 0 {
		// Left neighbor checked first so exact ties keep the earlier timestamp.
		if d := pos - ts(upper-1); d <= window {
			best, bestDiff = upper-1, d
		}
	}
	if upper < n {
		if d := ts(upper) - pos; d <= window && (best == -1 || d < bestDiff) {
			best = upper
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// advance returns the first index with timestamp > pos. While playback moves
// forward it walks the cursor linearly; a backward jump falls back to binary
// search. Either path lands on the same index.
func advance(n int, pos int64, c *cursor, ts func(int) int64) int {
	if c.primed && pos >= c.lastPos {
		for c.idx < n && ts(c.idx) <= pos {
			c.idx++
		}
	} else {
		c.idx = sort.Search(n, func(i int) bool { return ts(i) > pos })
	}
	c.lastPos = pos
	c.primed = true
	return c.idx
}
