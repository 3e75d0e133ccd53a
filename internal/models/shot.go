package models

type ShotType string

const (
	ShotTypeServe     ShotType = "SERVE"
	ShotTypeForehand  ShotType = "FOREHAND"
	ShotTypeBackhand  ShotType = "BACKHAND"
	ShotTypeSmash     ShotType = "SMASH"
	ShotTypeDefensive ShotType = "DEFENSIVE"
)

type ShotResult string

const (
	ShotResultIn  ShotResult = "IN"
	ShotResultOut ShotResult = "OUT"
	ShotResultNet ShotResult = "NET"
)

// Shot is a single detected ball strike. Immutable once produced by the
// analysis job; ordering key is TimestampMs, ties keep production order.
type Shot struct {
	TimestampMs int64       `json:"timestamp_ms"`
	Player      int         `json:"player"`
	ShotType    ShotType    `json:"shot_type"`
	Speed       float64     `json:"speed"`
	Accuracy    float64     `json:"accuracy"`
	Result      ShotResult  `json:"result"`
	Detections  []Detection `json:"detections,omitempty"`
}

// Detection is one raw ball sighting backing a shot.
type Detection struct {
	FrameNumber int     `json:"frame_number"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Confidence  float64 `json:"confidence"`
}
