package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/your-org/rallyscope/internal/models"
	"github.com/your-org/rallyscope/internal/observability"
)

// VideoFetcher downloads a stored match video to a local path.
type VideoFetcher interface {
	FetchVideo(ctx context.Context, key, destPath string) error
}

// OutcomePublisher delivers the job's terminal outcome back to the API side.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, matchID string, outcome interface{}) error
}

// Runner executes one analysis job end to end: fetch the video, run the
// model, normalize its output, derive statistics and highlights, publish the
// outcome. Analysis failures are published as FAILED outcomes rather than
// returned, so the task is acked either way and never redelivered; the
// orchestrator deliberately performs no retries.
type Runner struct {
	videos      VideoFetcher
	detector    *Detector
	publisher   OutcomePublisher
	fallbackFPS float64
}

func NewRunner(videos VideoFetcher, detector *Detector, publisher OutcomePublisher, fallbackFPS float64) *Runner {
	return &Runner{
		videos:      videos,
		detector:    detector,
		publisher:   publisher,
		fallbackFPS: fallbackFPS,
	}
}

// Handle processes one analysis task. The returned error covers only
// publish/transport problems; those nak the message for redelivery.
func (r *Runner) Handle(ctx context.Context, task models.AnalysisTask) error {
	start := time.Now()
	matchID := task.MatchID.String()
	slog.Info("analysis job started", "match_id", matchID)

	result, err := r.analyze(ctx, task)

	outcome := models.AnalysisOutcome{MatchID: task.MatchID}
	if err != nil {
		outcome.Failure = err.Error()
		observability.MatchesProcessed.WithLabelValues("failed").Inc()
		slog.Error("analysis job failed", "match_id", matchID, "error", err)
	} else {
		outcome.Result = result
		observability.AnalysisDuration.Observe(time.Since(start).Seconds())
		slog.Info("analysis job finished", "match_id", matchID,
			"duration", time.Since(start).String(),
			"shots", len(result.Shots), "events", len(result.Events))
	}

	if err := r.publisher.PublishOutcome(ctx, matchID, outcome); err != nil {
		return fmt.Errorf("publish outcome for %s: %w", matchID, err)
	}
	return nil
}

func (r *Runner) analyze(ctx context.Context, task models.AnalysisTask) (*models.AnalysisResult, error) {
	workDir, err := os.MkdirTemp("", "rallyscope-job-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	videoPath := filepath.Join(workDir, filepath.Base(task.VideoKey))
	if err := r.videos.FetchVideo(ctx, task.VideoKey, videoPath); err != nil {
		return nil, err
	}

	raw, err := r.detector.Detect(ctx, task.MatchID.String(), videoPath)
	if err != nil {
		return nil, err
	}
	if len(raw.Events) == 0 && len(raw.Shots) == 0 {
		return nil, fmt.Errorf("model produced no shots or events")
	}

	shots, events := Normalize(raw, r.fallbackFPS)
	statistics := BuildStatistics(raw.Statistics, shots, events)
	highlights := BuildHighlights(events)

	return &models.AnalysisResult{
		DurationSeconds: durationSeconds(shots, events),
		Statistics:      statistics,
		Shots:           shots,
		Events:          events,
		Highlights:      highlights,
	}, nil
}

// durationSeconds approximates match duration from the last observed
// timestamp. The model sees the full video, so the final detection sits at
// or near the end of play.
func durationSeconds(shots []models.Shot, events []models.Event) int {
	var last int64
	if n := len(shots); n > 0 {
		last = shots[n-1].TimestampMs
	}
	if n := len(events); n > 0 && events[n-1].TimestampMs > last {
		last = events[n-1].TimestampMs
	}
	return int((last + 999) / 1000)
}
