package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"hn_syncer/internal/domain"
)

type SyncLogStore struct {
	db *sqlx.DB
}

func NewSyncLogStore(db *sqlx.DB) *SyncLogStore {
	return &SyncLogStore{db: db}
}

// Create inserts a new run record with status running and returns its id.
func (s *SyncLogStore) Create(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO sync_log (started_at, status) VALUES ($1, $2) RETURNING id`,
		time.Now(), domain.SyncStatusRunning,
	).Scan(&id)
	return id, err
}

func (s *SyncLogStore) MarkCompleted(ctx context.Context, id int64, storiesCount, commentsCount int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_log
		SET completed_at = $1, stories_count = $2, comments_count = $3, status = $4
		WHERE id = $5`,
		time.Now(), storiesCount, commentsCount, domain.SyncStatusCompleted, id,
	)
	return err
}

func (s *SyncLogStore) MarkFailed(ctx context.Context, id int64, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_log
		SET completed_at = $1, status = $2, error = $3
		WHERE id = $4`,
		time.Now(), domain.SyncStatusFailed, message, id,
	)
	return err
}

// LastCompleted returns the most recent successfully completed run, or
// nil when no run has ever completed.
func (s *SyncLogStore) LastCompleted(ctx context.Context) (*domain.SyncLog, error) {
	var log domain.SyncLog
	query := `
		SELECT id, started_at, completed_at, stories_count, comments_count, status, error
		FROM sync_log
		WHERE status = $1
		ORDER BY completed_at DESC
		LIMIT 1`

	err := s.db.GetContext(ctx, &log, query, domain.SyncStatusCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}
