package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/rallyscope/internal/config"
	"github.com/your-org/rallyscope/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(cfg config.DatabaseConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateMatch inserts a fresh match record. The caller sets ID and status;
// created_at comes from the database clock.
func (s *PostgresStore) CreateMatch(ctx context.Context, m *models.Match) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO matches (id, status, video_key, original_filename)
		 VALUES ($1, $2, $3, $4) RETURNING created_at`,
		m.ID, m.Status, m.VideoKey, m.OriginalFilename,
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m := &models.Match{}
	var stats, shots, events, highlights []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, created_at, processed_at, duration_seconds, video_key,
		        original_filename, failure_reason, statistics, shots, events, highlights
		 FROM matches WHERE id = $1`, id,
	).Scan(&m.ID, &m.Status, &m.CreatedAt, &m.ProcessedAt, &m.DurationSeconds,
		&m.VideoKey, &m.OriginalFilename, &m.FailureReason,
		&stats, &shots, &events, &highlights)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get match: %w", err)
	}
	if err := unmarshalResult(m, stats, shots, events, highlights); err != nil {
		return nil, err
	}
	return m, nil
}

// ListMatches returns match summaries, newest first. Result payloads are not
// loaded; clients fetch the full record per match.
func (s *PostgresStore) ListMatches(ctx context.Context) ([]models.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, created_at, processed_at, duration_seconds, original_filename, failure_reason
		 FROM matches ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.Status, &m.CreatedAt, &m.ProcessedAt,
			&m.DurationSeconds, &m.OriginalFilename, &m.FailureReason); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// GetStatuses returns the lifecycle state of each known id among ids.
// Unknown ids are simply absent from the result.
func (s *PostgresStore) GetStatuses(ctx context.Context, ids []uuid.UUID) ([]models.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, created_at, processed_at FROM matches WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get statuses: %w", err)
	}
	defer rows.Close()

	var matches []models.Match
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.Status, &m.CreatedAt, &m.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// SetProcessing moves an UPLOADED match to PROCESSING. Returns false when the
// match is missing or already past UPLOADED.
func (s *PostgresStore) SetProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE matches SET status = $1 WHERE id = $2 AND status = $3`,
		models.MatchStatusProcessing, id, models.MatchStatusUploaded)
	if err != nil {
		return false, fmt.Errorf("set processing: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteMatch writes the analysis result and moves the match to COMPLETE.
// The WHERE clause makes the terminal transition conditional, so a retried
// delivery is a no-op and the first write stays untouched.
func (s *PostgresStore) CompleteMatch(ctx context.Context, id uuid.UUID, result *models.AnalysisResult, processedAt time.Time) (bool, error) {
	stats, err := json.Marshal(result.Statistics)
	if err != nil {
		return false, fmt.Errorf("marshal statistics: %w", err)
	}
	shots, err := json.Marshal(result.Shots)
	if err != nil {
		return false, fmt.Errorf("marshal shots: %w", err)
	}
	events, err := json.Marshal(result.Events)
	if err != nil {
		return false, fmt.Errorf("marshal events: %w", err)
	}
	highlights, err := json.Marshal(result.Highlights)
	if err != nil {
		return false, fmt.Errorf("marshal highlights: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE matches
		 SET status = $1, processed_at = $2, duration_seconds = $3,
		     statistics = $4, shots = $5, events = $6, highlights = $7
		 WHERE id = $8 AND status = $9`,
		models.MatchStatusComplete, processedAt, result.DurationSeconds,
		stats, shots, events, highlights,
		id, models.MatchStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("complete match: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FailMatch moves the match to FAILED without writing any partial result.
// processed_at stays unset for failed matches.
func (s *PostgresStore) FailMatch(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE matches SET status = $1, failure_reason = $2 WHERE id = $3 AND status = $4`,
		models.MatchStatusFailed, reason, id, models.MatchStatusProcessing)
	if err != nil {
		return false, fmt.Errorf("fail match: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteMatch removes the record. Returns false when the id is unknown.
func (s *PostgresStore) DeleteMatch(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete match: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func unmarshalResult(m *models.Match, stats, shots, events, highlights []byte) error {
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &m.Statistics); err != nil {
			return fmt.Errorf("unmarshal statistics: %w", err)
		}
	}
	if len(shots) > 0 {
		if err := json.Unmarshal(shots, &m.Shots); err != nil {
			return fmt.Errorf("unmarshal shots: %w", err)
		}
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &m.Events); err != nil {
			return fmt.Errorf("unmarshal events: %w", err)
		}
	}
	if len(highlights) > 0 {
		if err := json.Unmarshal(highlights, &m.Highlights); err != nil {
			return fmt.Errorf("unmarshal highlights: %w", err)
		}
	}
	return nil
}
