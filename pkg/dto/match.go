package dto

import (
	"github.com/google/uuid"

	"github.com/your-org/rallyscope/internal/models"
)

// UploadResponse acknowledges an accepted upload; analysis continues in the
// background and the match starts in UPLOADED.
type UploadResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type MatchStatusResponse struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	ProcessedAt string    `json:"processed_at,omitempty"`
}

// StatusBatchResponse answers a batch status query. Unknown ids are simply
// absent from Matches.
type StatusBatchResponse struct {
	Matches []MatchStatusResponse `json:"matches"`
}

type MatchSummaryResponse struct {
	ID               uuid.UUID `json:"id"`
	Status           string    `json:"status"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	DurationSeconds  *int      `json:"duration_seconds,omitempty"`
	CreatedAt        string    `json:"created_at"`
	ProcessedAt      string    `json:"processed_at,omitempty"`
}

type MatchListResponse struct {
	Matches []MatchSummaryResponse `json:"matches"`
	Total   int                    `json:"total"`
}

// MatchDetailsResponse is the full payload for a match. Statistics, shots,
// events and highlights are only present once analysis completes.
type MatchDetailsResponse struct {
	ID               uuid.UUID          `json:"id"`
	Status           string             `json:"status"`
	OriginalFilename string             `json:"original_filename,omitempty"`
	DurationSeconds  *int               `json:"duration_seconds,omitempty"`
	FailureReason    string             `json:"failure_reason,omitempty"`
	CreatedAt        string             `json:"created_at"`
	ProcessedAt      string             `json:"processed_at,omitempty"`
	Statistics       *models.Statistics `json:"statistics,omitempty"`
	Shots            []models.Shot      `json:"shots,omitempty"`
	Events           []models.Event     `json:"events,omitempty"`
	Highlights       *models.Highlights `json:"highlights,omitempty"`
}

// WSEvent is a match status change pushed over the WebSocket.
type WSEvent struct {
	Type    string    `json:"type"`
	MatchID uuid.UUID `json:"match_id"`
	Status  string    `json:"status"`
}
