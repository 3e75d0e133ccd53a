package replay

import (
	"sync"

	"github.com/your-org/rallyscope/internal/models"
)

// Frame is everything the view needs for one playback position.
type Frame struct {
	PositionMs  int64
	ActiveShot  *models.Shot
	ActiveEvent *models.Event
	Live        LiveStats
	Score       models.ScoreState
	Lead        int
}

// Session holds the playback position for one completed match and recomputes
// the derived frame whenever the position changes. Position updates carry a
// generation number; a frame is delivered only if no newer update arrived
// while it was being computed, so rapid seeking settles on the latest
// position.
type Session struct {
	mu       sync.Mutex
	gen      uint64
	engine   *Engine
	shots    []models.Shot
	timeline []models.MomentumSample
	onFrame  func(Frame)
}

// NewSession builds a session over a completed match payload. onFrame may be
// nil when the caller only uses the returned frames.
func NewSession(match *models.Match, windows Windows, onFrame func(Frame)) *Session {
	var timeline []models.MomentumSample
	if match.Statistics != nil {
		timeline = match.Statistics.MomentumTimeline
	}
	return &Session{
		engine:   NewEngine(match.Shots, match.Events, windows),
		shots:    match.Shots,
		timeline: timeline,
		onFrame:  onFrame,
	}
}

// Seek recomputes the frame for positionMs. The returned ok is false when a
// newer Seek superseded this one, in which case the frame was not delivered
// and its contents should be discarded.
func (s *Session) Seek(positionMs int64) (Frame, bool) {
	s.mu.Lock()
	s.gen++
	gen := s.gen

	frame := Frame{PositionMs: positionMs}
	if shot, ok := s.engine.ActiveShot(positionMs); ok {
		frame.ActiveShot = &shot
	}
	if event, ok := s.engine.ActiveEvent(positionMs); ok {
		frame.ActiveEvent = &event
	}
	frame.Live = Aggregate(s.shots, positionMs)
	frame.Score = ScoreAt(s.timeline, positionMs)
	frame.Lead = frame.Score.Player1 - frame.Score.Player2

	onFrame := s.onFrame
	s.mu.Unlock()

	// Delivery happens outside the lock; by then a newer Seek may have taken
	// over, and only the latest position's frame reaches the view.
	s.mu.Lock()
	current := gen == s.gen
	s.mu.Unlock()
	if !current {
		return Frame{}, false
	}
	if onFrame != nil {
		onFrame(frame)
	}
	return frame, true
}
