package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartystreets/goconvey/convey"

	"github.com/your-org/rallyscope/internal/models"
)

// memStore mimics the conditional-update contract of the Postgres store.
type memStore struct {
	matches map[uuid.UUID]*models.Match
}

func newMemStore() *memStore {
	return &memStore{matches: make(map[uuid.UUID]*models.Match)}
}

func (s *memStore) CreateMatch(ctx context.Context, m *models.Match) error {
	cp := *m
	cp.CreatedAt = time.Now()
	s.matches[m.ID] = &cp
	return nil
}

func (s *memStore) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) ListMatches(ctx context.Context) ([]models.Match, error) {
	out := make([]models.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, *m)
	}
	return out, nil
}

func (s *memStore) GetStatuses(ctx context.Context, ids []uuid.UUID) ([]models.Match, error) {
	var out []models.Match
	for _, id := range ids {
		if m, ok := s.matches[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memStore) SetProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	m, ok := s.matches[id]
	if !ok || m.Status != models.MatchStatusUploaded {
		return false, nil
	}
	m.Status = models.MatchStatusProcessing
	return true, nil
}

func (s *memStore) CompleteMatch(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, processedAt time.Time) (bool, error) {
	m, ok := s.matches[id]
	if !ok || m.Status != models.MatchStatusProcessing {
		return false, nil
	}
	m.Status = models.MatchStatusComplete
	m.ProcessedAt = &processedAt
	m.DurationSeconds = &result.DurationSeconds
	m.Statistics = result.Statistics
	m.Shots = result.Shots
	m.Events = result.Events
	m.Highlights = result.Highlights
	return true, nil
}

func (s *memStore) FailMatch(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	m, ok := s.matches[id]
	if !ok || m.Status != models.MatchStatusProcessing {
		return false, nil
	}
	m.Status = models.MatchStatusFailed
	m.FailureReason = reason
	return true, nil
}

func (s *memStore) DeleteMatch(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := s.matches[id]; !ok {
		return false, nil
	}
	delete(s.matches, id)
	return true, nil
}

type recordingDispatcher struct {
	tasks []models.AnalysisTask
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, task models.AnalysisTask) error {
	if d.err != nil {
		return d.err
	}
	d.tasks = append(d.tasks, task)
	return nil
}

type recordingReleaser struct {
	released []string
}

func (r *recordingReleaser) DeleteMatchObjects(ctx context.Context, matchID string) error {
	r.released = append(r.released, matchID)
	return nil
}

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		DurationSeconds: 90,
		Statistics:      &models.Statistics{TotalRallies: 3},
		Shots:           []models.Shot{{TimestampMs: 100, Player: 1}},
		Events:          []models.Event{{ID: "e1", TimestampMs: 533, Type: models.EventTypeScore}},
		Highlights:      &models.Highlights{},
	}
}

func TestCreateAndDispatch(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given an orchestrator over an empty store", t, func() {
		store := newMemStore()
		dispatcher := &recordingDispatcher{}
		orch := New(store, dispatcher, nil)

		convey.Convey("An upload creates the match and queues exactly one task", func() {
			id := uuid.New()
			m, err := orch.CreateAndDispatch(ctx, id, "matches/"+id.String()+"/game.mp4", "game.mp4")
			convey.So(err, convey.ShouldBeNil)
			convey.So(m.ID, convey.ShouldEqual, id)
			convey.So(m.Status, convey.ShouldEqual, models.MatchStatusProcessing)
			convey.So(dispatcher.tasks, convey.ShouldHaveLength, 1)
			convey.So(dispatcher.tasks[0].MatchID, convey.ShouldEqual, id)

			stored, _ := store.GetMatch(ctx, id)
			convey.So(stored.Status, convey.ShouldEqual, models.MatchStatusProcessing)
		})

		convey.Convey("An empty video reference is rejected without a record", func() {
			_, err := orch.CreateAndDispatch(ctx, uuid.New(), "", "game.mp4")
			convey.So(errors.Is(err, ErrInvalidInput), convey.ShouldBeTrue)
			convey.So(store.matches, convey.ShouldBeEmpty)
		})

		convey.Convey("A dispatch failure rolls the record back", func() {
			dispatcher.err = errors.New("nats down")
			id := uuid.New()
			_, err := orch.CreateAndDispatch(ctx, id, "matches/"+id.String()+"/game.mp4", "game.mp4")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(store.matches, convey.ShouldBeEmpty)
		})
	})
}

func TestJobCallbacks(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a match in PROCESSING", t, func() {
		store := newMemStore()
		orch := New(store, &recordingDispatcher{}, nil)
		id := uuid.New()
		_, err := orch.CreateAndDispatch(ctx, id, "matches/"+id.String()+"/game.mp4", "game.mp4")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("A success callback completes the match with its result", func() {
			convey.So(orch.OnJobSuccess(ctx, id, sampleResult()), convey.ShouldBeNil)

			m, _ := orch.GetMatch(ctx, id)
			convey.So(m.Status, convey.ShouldEqual, models.MatchStatusComplete)
			convey.So(m.ProcessedAt, convey.ShouldNotBeNil)
			convey.So(*m.DurationSeconds, convey.ShouldEqual, 90)
			convey.So(m.Statistics.TotalRallies, convey.ShouldEqual, 3)
		})

		convey.Convey("A duplicate success callback is a no-op", func() {
			convey.So(orch.OnJobSuccess(ctx, id, sampleResult()), convey.ShouldBeNil)
			first, _ := orch.GetMatch(ctx, id)

			convey.So(orch.OnJobSuccess(ctx, id, sampleResult()), convey.ShouldBeNil)
			second, _ := orch.GetMatch(ctx, id)
			convey.So(second.ProcessedAt.Equal(*first.ProcessedAt), convey.ShouldBeTrue)
		})

		convey.Convey("A failure callback records the cause without a completion time", func() {
			convey.So(orch.OnJobFailure(ctx, id, "model produced no shots or events"), convey.ShouldBeNil)

			m, _ := orch.GetMatch(ctx, id)
			convey.So(m.Status, convey.ShouldEqual, models.MatchStatusFailed)
			convey.So(m.FailureReason, convey.ShouldEqual, "model produced no shots or events")
			convey.So(m.ProcessedAt, convey.ShouldBeNil)
		})

		convey.Convey("A failure after success does not overwrite the terminal state", func() {
			convey.So(orch.OnJobSuccess(ctx, id, sampleResult()), convey.ShouldBeNil)
			convey.So(orch.OnJobFailure(ctx, id, "late failure"), convey.ShouldBeNil)

			m, _ := orch.GetMatch(ctx, id)
			convey.So(m.Status, convey.ShouldEqual, models.MatchStatusComplete)
		})

		convey.Convey("ApplyOutcome routes a success to COMPLETE", func() {
			status, err := orch.ApplyOutcome(ctx, models.AnalysisOutcome{MatchID: id, Result: sampleResult()})
			convey.So(err, convey.ShouldBeNil)
			convey.So(status, convey.ShouldEqual, models.MatchStatusComplete)
		})

		convey.Convey("ApplyOutcome routes a failure to FAILED", func() {
			status, err := orch.ApplyOutcome(ctx, models.AnalysisOutcome{MatchID: id, Failure: "boom"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(status, convey.ShouldEqual, models.MatchStatusFailed)
		})

		convey.Convey("ApplyOutcome drops an outcome with neither result nor failure", func() {
			status, err := orch.ApplyOutcome(ctx, models.AnalysisOutcome{MatchID: id})
			convey.So(err, convey.ShouldBeNil)
			convey.So(status, convey.ShouldBeEmpty)

			m, _ := orch.GetMatch(ctx, id)
			convey.So(m.Status, convey.ShouldEqual, models.MatchStatusProcessing)
		})

		convey.Convey("A callback for a deleted match is dropped silently", func() {
			convey.So(orch.Delete(ctx, id), convey.ShouldBeNil)
			convey.So(orch.OnJobSuccess(ctx, id, sampleResult()), convey.ShouldBeNil)
			convey.So(orch.OnJobFailure(ctx, id, "late"), convey.ShouldBeNil)
		})
	})
}

func TestReadsAndDelete(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given an orchestrator with one match", t, func() {
		store := newMemStore()
		releaser := &recordingReleaser{}
		orch := New(store, &recordingDispatcher{}, releaser)
		id := uuid.New()
		_, err := orch.CreateAndDispatch(ctx, id, "matches/"+id.String()+"/game.mp4", "game.mp4")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("GetStatus reports the lifecycle state", func() {
			status, processedAt, err := orch.GetStatus(ctx, id)
			convey.So(err, convey.ShouldBeNil)
			convey.So(status, convey.ShouldEqual, models.MatchStatusProcessing)
			convey.So(processedAt, convey.ShouldBeNil)
		})

		convey.Convey("GetStatus on an unknown id is ErrNotFound", func() {
			_, _, err := orch.GetStatus(ctx, uuid.New())
			convey.So(errors.Is(err, ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("GetStatuses drops unknown ids instead of failing", func() {
			matches, err := orch.GetStatuses(ctx, []uuid.UUID{id, uuid.New()})
			convey.So(err, convey.ShouldBeNil)
			convey.So(matches, convey.ShouldHaveLength, 1)
			convey.So(matches[0].ID, convey.ShouldEqual, id)
		})

		convey.Convey("Delete removes the record and releases video objects", func() {
			convey.So(orch.Delete(ctx, id), convey.ShouldBeNil)
			convey.So(releaser.released, convey.ShouldResemble, []string{id.String()})

			_, err := orch.GetMatch(ctx, id)
			convey.So(errors.Is(err, ErrNotFound), convey.ShouldBeTrue)
		})

		convey.Convey("Deleting twice is ErrNotFound the second time", func() {
			convey.So(orch.Delete(ctx, id), convey.ShouldBeNil)
			convey.So(errors.Is(orch.Delete(ctx, id), ErrNotFound), convey.ShouldBeTrue)
		})
	})
}
