package analysis

// Raw shapes of the external model's result JSON. Every field is optional on
// the wire; normalization fills the gaps.

type ModelResult struct {
	FPS        *float64         `json:"fps"`
	Shots      []ModelShot      `json:"shots"`
	Events     []ModelEvent     `json:"events"`
	Statistics *ModelStatistics `json:"statistics"`
}

type ModelShot struct {
	Frame       *int64           `json:"frame"`
	TimestampMs *float64         `json:"timestamp_ms"`
	Player      *int             `json:"player"`
	ShotType    string           `json:"shot_type"`
	Speed       *float64         `json:"speed"`
	Accuracy    *float64         `json:"accuracy"`
	Result      string           `json:"result"`
	Confidence  *float64         `json:"confidence"`
	Detections  []ModelDetection `json:"detections"`
}

type ModelEvent struct {
	Type           string           `json:"type"`
	Label          string           `json:"label"`
	Frame          *int64           `json:"frame"`
	TimestampMs    *float64         `json:"timestamp_ms"`
	FrameNumber    *int             `json:"frame_number"`
	Player         *int             `json:"player"`
	Importance     *int             `json:"importance"`
	ShotSpeed      *float64         `json:"shot_speed"`
	RallyLength    *int             `json:"rally_length"`
	ShotType       string           `json:"shot_type"`
	BallTrajectory [][]float64      `json:"ball_trajectory"`
	Confidence     float64          `json:"confidence"`
	Detections     []ModelDetection `json:"detections"`
}

type ModelDetection struct {
	FrameNumber int     `json:"frame_number"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Confidence  float64 `json:"confidence"`
}

type ModelStatistics struct {
	Player1Score   *int     `json:"player1_score"`
	Player2Score   *int     `json:"player2_score"`
	TotalRallies   *int     `json:"total_rallies"`
	AvgRallyLength *float64 `json:"avg_rally_length"`
	AvgBallSpeed   *float64 `json:"avg_ball_speed"`
	MaxBallSpeed   *float64 `json:"max_ball_speed"`
}
