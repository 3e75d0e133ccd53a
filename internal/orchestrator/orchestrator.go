// Package orchestrator owns the match lifecycle state machine:
// UPLOADED -> PROCESSING -> COMPLETE | FAILED. Transitions are monotonic and
// the terminal write happens exactly once; retried callbacks are no-ops.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/rallyscope/internal/models"
	"github.com/your-org/rallyscope/internal/observability"
)

// Store is the durable match record store. The conditional updates
// (SetProcessing, CompleteMatch, FailMatch) return false instead of writing
// when the match is not in the expected prior state; that conditionality is
// the single-writer guarantee the state machine relies on.
type Store interface {
	CreateMatch(ctx context.Context, m *models.Match) error
	GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListMatches(ctx context.Context) ([]models.Match, error)
	GetStatuses(ctx context.Context, ids []uuid.UUID) ([]models.Match, error)
	SetProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	CompleteMatch(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, processedAt time.Time) (bool, error)
	FailMatch(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	DeleteMatch(ctx context.Context, id uuid.UUID) (bool, error)
}

// Dispatcher hands an analysis task to the job runner. Dispatch returns once
// the task is durably queued, not when the job finishes.
type Dispatcher interface {
	Dispatch(ctx context.Context, task models.AnalysisTask) error
}

// VideoReleaser releases stored video objects when a match is deleted.
type VideoReleaser interface {
	DeleteMatchObjects(ctx context.Context, matchID string) error
}

type Orchestrator struct {
	store      Store
	dispatcher Dispatcher
	videos     VideoReleaser // may be nil
	now        func() time.Time
}

func New(store Store, dispatcher Dispatcher, videos VideoReleaser) *Orchestrator {
	return &Orchestrator{
		store:      store,
		dispatcher: dispatcher,
		videos:     videos,
		now:        time.Now,
	}
}

// CreateAndDispatch persists a new match in UPLOADED, queues exactly one
// analysis task for it and moves it to PROCESSING. Every upload is a brand
// new identity minted by the caller (the video object key embeds it);
// resubmission of an existing id is not a thing here.
func (o *Orchestrator) CreateAndDispatch(ctx context.Context, id uuid.UUID, videoKey, originalFilename string) (*models.Match, error) {
	if videoKey == "" {
		return nil, fmt.Errorf("%w: empty video reference", ErrInvalidInput)
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: zero match id", ErrInvalidInput)
	}

	m := &models.Match{
		ID:               id,
		Status:           models.MatchStatusUploaded,
		VideoKey:         videoKey,
		OriginalFilename: originalFilename,
	}
	if err := o.store.CreateMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("persist match: %w", err)
	}

	task := models.AnalysisTask{
		MatchID:          m.ID,
		VideoKey:         m.VideoKey,
		OriginalFilename: m.OriginalFilename,
	}
	if err := o.dispatcher.Dispatch(ctx, task); err != nil {
		// No job exists, so the half-created record must not linger.
		if _, delErr := o.store.DeleteMatch(ctx, m.ID); delErr != nil {
			slog.Error("rollback match after dispatch failure", "match_id", m.ID, "error", delErr)
		}
		return nil, fmt.Errorf("dispatch analysis job: %w", err)
	}

	if _, err := o.store.SetProcessing(ctx, m.ID); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}
	m.Status = models.MatchStatusProcessing

	observability.MatchesUploaded.Inc()
	slog.Info("match created and job dispatched", "match_id", m.ID)
	return m, nil
}

// OnJobSuccess persists the analysis result and moves the match to COMPLETE.
// Safe to deliver more than once: the second call finds the match already
// terminal and does nothing. A callback for a deleted match is a no-op.
func (o *Orchestrator) OnJobSuccess(ctx context.Context, id uuid.UUID, result *models.AnalysisResult) error {
	applied, err := o.store.CompleteMatch(ctx, id, result, o.now())
	if err != nil {
		return err
	}
	if applied {
		observability.MatchesProcessed.WithLabelValues("complete").Inc()
		slog.Info("match analysis complete", "match_id", id,
			"shots", len(result.Shots), "events", len(result.Events))
		return nil
	}
	return o.explainUnapplied(ctx, id)
}

// OnJobFailure moves the match to FAILED. No partial result is recorded and
// no retry is attempted here; retries are the job runner's concern. Idempotent
// like OnJobSuccess.
func (o *Orchestrator) OnJobFailure(ctx context.Context, id uuid.UUID, cause string) error {
	applied, err := o.store.FailMatch(ctx, id, cause)
	if err != nil {
		return err
	}
	if applied {
		observability.MatchesProcessed.WithLabelValues("failed").Inc()
		slog.Warn("match analysis failed", "match_id", id, "cause", cause)
		return nil
	}
	return o.explainUnapplied(ctx, id)
}

// ApplyOutcome routes a job outcome off the wire to the right terminal
// transition and reports the status it settled on. An outcome carrying
// neither a result nor a failure is malformed; it is logged and dropped
// (empty status, nil error) so the message is acked instead of redelivered.
func (o *Orchestrator) ApplyOutcome(ctx context.Context, outcome models.AnalysisOutcome) (models.MatchStatus, error) {
	if outcome.Failure != "" {
		if err := o.OnJobFailure(ctx, outcome.MatchID, outcome.Failure); err != nil {
			return "", err
		}
		return models.MatchStatusFailed, nil
	}
	if outcome.Result == nil {
		slog.Error("job outcome with neither result nor failure dropped", "match_id", outcome.MatchID)
		return "", nil
	}
	if err := o.OnJobSuccess(ctx, outcome.MatchID, outcome.Result); err != nil {
		return "", err
	}
	return models.MatchStatusComplete, nil
}

// explainUnapplied decides what an unapplied terminal transition means:
// deleted match and repeated delivery are fine, anything else is a bug.
func (o *Orchestrator) explainUnapplied(ctx context.Context, id uuid.UUID) error {
	m, err := o.store.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		slog.Info("job callback for deleted match ignored", "match_id", id)
		return nil
	}
	if m.Status.Terminal() {
		slog.Debug("duplicate job callback ignored", "match_id", id, "status", m.Status)
		return nil
	}
	return fmt.Errorf("%w: match %s is %s", ErrIllegalTransition, id, m.Status)
}

// GetStatus is a pure read of the lifecycle state.
func (o *Orchestrator) GetStatus(ctx context.Context, id uuid.UUID) (models.MatchStatus, *time.Time, error) {
	m, err := o.store.GetMatch(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if m == nil {
		return "", nil, ErrNotFound
	}
	return m.Status, m.ProcessedAt, nil
}

// GetStatuses resolves the lifecycle state of a batch of ids in one read.
// Unknown ids are absent from the result, not an error; the polling client
// treats absence as NotFound per id.
func (o *Orchestrator) GetStatuses(ctx context.Context, ids []uuid.UUID) ([]models.Match, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return o.store.GetStatuses(ctx, ids)
}

// GetMatch returns the full record. Result fields are nil unless COMPLETE.
func (o *Orchestrator) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, err := o.store.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (o *Orchestrator) ListMatches(ctx context.Context) ([]models.Match, error) {
	return o.store.ListMatches(ctx)
}

// Delete removes the record and releases stored video objects. Deleting a
// PROCESSING match does not cancel the in-flight job; its eventual callback
// hits a missing record and is dropped.
func (o *Orchestrator) Delete(ctx context.Context, id uuid.UUID) error {
	m, err := o.store.GetMatch(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotFound
	}

	if o.videos != nil {
		if err := o.videos.DeleteMatchObjects(ctx, id.String()); err != nil {
			slog.Warn("release video objects", "match_id", id, "error", err)
		}
	}

	deleted, err := o.store.DeleteMatch(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	slog.Info("match deleted", "match_id", id, "was_status", m.Status)
	return nil
}
