package models

type EventType string

const (
	EventTypeScore          EventType = "SCORE"
	EventTypeMiss           EventType = "MISS"
	EventTypeRallyHighlight EventType = "RALLY_HIGHLIGHT"
	EventTypeFastestShot    EventType = "FASTEST_SHOT"
	EventTypeServeAce       EventType = "SERVE_ACE"
	EventTypePlayOfTheGame  EventType = "PLAY_OF_THE_GAME"
)

// Event is a narratively significant moment, distinct from a raw shot.
// Player is nil for match-level events.
type Event struct {
	ID          string         `json:"id"`
	TimestampMs int64          `json:"timestamp_ms"`
	Type        EventType      `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Player      *int           `json:"player,omitempty"`
	Importance  int            `json:"importance"`
	Metadata    *EventMetadata `json:"metadata,omitempty"`
}

type EventMetadata struct {
	ShotSpeed      *float64    `json:"shot_speed,omitempty"`
	RallyLength    *int        `json:"rally_length,omitempty"`
	ShotType       string      `json:"shot_type,omitempty"`
	BallTrajectory [][]float64 `json:"ball_trajectory,omitempty"`
	FrameNumber    int         `json:"frame_number"`
	Confidence     float64     `json:"confidence"`
	Source         string      `json:"source,omitempty"`
	ScoreAfter     *ScoreState `json:"score_after,omitempty"`
}
