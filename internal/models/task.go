package models

import "github.com/google/uuid"

// AnalysisTask is the message published to NATS for worker processing.
// Exactly one task is published per match, at upload time.
type AnalysisTask struct {
	MatchID          uuid.UUID `json:"match_id"`
	VideoKey         string    `json:"video_key"`
	OriginalFilename string    `json:"original_filename"`
}

// AnalysisResult is the full payload an analysis job produces on success.
type AnalysisResult struct {
	DurationSeconds int         `json:"duration_seconds"`
	Statistics      *Statistics `json:"statistics"`
	Shots           []Shot      `json:"shots"`
	Events          []Event     `json:"events"`
	Highlights      *Highlights `json:"highlights"`
}

// AnalysisOutcome is the worker's completion callback, delivered over the
// results stream. Delivery may be retried, so applying an outcome must be
// idempotent. Exactly one of Result / Failure is set.
type AnalysisOutcome struct {
	MatchID uuid.UUID       `json:"match_id"`
	Result  *AnalysisResult `json:"result,omitempty"`
	Failure string          `json:"failure,omitempty"`
}
