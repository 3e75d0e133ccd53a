package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusUploaded   MatchStatus = "UPLOADED"
	MatchStatusProcessing MatchStatus = "PROCESSING"
	MatchStatusComplete   MatchStatus = "COMPLETE"
	MatchStatusFailed     MatchStatus = "FAILED"
)

// Terminal reports whether no further status transition is possible.
func (s MatchStatus) Terminal() bool {
	return s == MatchStatusComplete || s == MatchStatusFailed
}

// Match is one analyzed video session. The analysis result fields
// (Statistics, Shots, Events, Highlights) are non-nil only when
// Status == COMPLETE; a FAILED match carries no partial result.
type Match struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	Status           MatchStatus  `json:"status" db:"status"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	ProcessedAt      *time.Time   `json:"processed_at,omitempty" db:"processed_at"`
	DurationSeconds  *int         `json:"duration_seconds,omitempty" db:"duration_seconds"`
	VideoKey         string       `json:"video_key" db:"video_key"`
	OriginalFilename string       `json:"original_filename" db:"original_filename"`
	FailureReason    string       `json:"failure_reason,omitempty" db:"failure_reason"`
	Statistics       *Statistics  `json:"statistics,omitempty" db:"statistics"`
	Shots            []Shot       `json:"shots,omitempty" db:"shots"`
	Events           []Event      `json:"events,omitempty" db:"events"`
	Highlights       *Highlights  `json:"highlights,omitempty" db:"highlights"`
}

// Statistics are computed once by the analysis job over the whole match.
type Statistics struct {
	Player1Score      int                      `json:"player1_score"`
	Player2Score      int                      `json:"player2_score"`
	TotalRallies      int                      `json:"total_rallies"`
	AvgRallyLength    float64                  `json:"avg_rally_length"`
	MaxBallSpeed      float64                  `json:"max_ball_speed"`
	AvgBallSpeed      float64                  `json:"avg_ball_speed"`
	RallyMetrics      *RallyMetrics            `json:"rally_metrics,omitempty"`
	ShotSpeedMetrics  *ShotSpeedMetrics        `json:"shot_speed_metrics,omitempty"`
	ServeMetrics      *ServeMetrics            `json:"serve_metrics,omitempty"`
	ReturnMetrics     *ReturnMetrics           `json:"return_metrics,omitempty"`
	ShotTypeBreakdown []ShotTypeBreakdownItem  `json:"shot_type_breakdown,omitempty"`
	PlayerBreakdown   []PlayerBreakdown        `json:"player_breakdown,omitempty"`
	MomentumTimeline  []MomentumSample         `json:"momentum_timeline,omitempty"`
}

type RallyMetrics struct {
	TotalRallies          int     `json:"total_rallies"`
	AverageRallyLength    float64 `json:"average_rally_length"`
	LongestRallyLength    int     `json:"longest_rally_length"`
	AverageRallySeconds   float64 `json:"average_rally_seconds"`
	LongestRallySeconds   float64 `json:"longest_rally_seconds"`
	AverageRallyShotSpeed float64 `json:"average_rally_shot_speed"`
}

type ShotSpeedMetrics struct {
	FastestShot  float64 `json:"fastest_shot"`
	AverageShot  float64 `json:"average_shot"`
	AverageServe float64 `json:"average_serve"`
	AverageRally float64 `json:"average_rally"`
}

type ServeMetrics struct {
	TotalServes       int     `json:"total_serves"`
	SuccessfulServes  int     `json:"successful_serves"`
	Faults            int     `json:"faults"`
	SuccessRate       float64 `json:"success_rate"`
	AverageServeSpeed float64 `json:"average_serve_speed"`
	FastestServeSpeed float64 `json:"fastest_serve_speed"`
}

type ReturnMetrics struct {
	TotalReturns       int     `json:"total_returns"`
	SuccessfulReturns  int     `json:"successful_returns"`
	SuccessRate        float64 `json:"success_rate"`
	AverageReturnSpeed float64 `json:"average_return_speed"`
}

type ShotTypeBreakdownItem struct {
	ShotType        ShotType `json:"shot_type"`
	Count           int      `json:"count"`
	AverageSpeed    float64  `json:"average_speed"`
	AverageAccuracy float64  `json:"average_accuracy"`
}

type PlayerBreakdown struct {
	Player            int     `json:"player"`
	TotalPointsWon    int     `json:"total_points_won"`
	TotalShots        int     `json:"total_shots"`
	TotalServes       int     `json:"total_serves"`
	SuccessfulServes  int     `json:"successful_serves"`
	TotalReturns      int     `json:"total_returns"`
	SuccessfulReturns int     `json:"successful_returns"`
	Winners           int     `json:"winners"`
	Errors            int     `json:"errors"`
	AverageShotSpeed  float64 `json:"average_shot_speed"`
	AverageAccuracy   float64 `json:"average_accuracy"`
	PointWinRate      float64 `json:"point_win_rate"`
	ServeSuccessRate  float64 `json:"serve_success_rate"`
	ReturnSuccessRate float64 `json:"return_success_rate"`
}

// MomentumSample is one entry of the sparse score timeline: a sample is
// recorded per score-changing event only, never per frame.
type MomentumSample struct {
	TimestampMs   int64      `json:"timestamp_ms"`
	ScoringPlayer int        `json:"scoring_player"`
	ScoreAfter    ScoreState `json:"score_after"`
	Lead          int        `json:"lead"`
}

type ScoreState struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// Highlights are curated references into the match's own event list,
// resolved against it at display time.
type Highlights struct {
	PlayOfTheGame *HighlightRef  `json:"play_of_the_game,omitempty"`
	TopRallies    []HighlightRef `json:"top_rallies,omitempty"`
	FastestShots  []HighlightRef `json:"fastest_shots,omitempty"`
	BestServes    []HighlightRef `json:"best_serves,omitempty"`
}

type HighlightRef struct {
	EventID     string `json:"event_id"`
	TimestampMs int64  `json:"timestamp_ms"`
}
