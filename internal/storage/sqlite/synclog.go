package sqlite

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
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_log (started_at, status) VALUES (?, ?)`,
		time.Now(), domain.SyncStatusRunning,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SyncLogStore) MarkCompleted(ctx context.Context, id int64, storiesCount, commentsCount int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_log
		SET completed_at = ?, stories_count = ?, comments_count = ?, status = ?
		WHERE id = ?`,
		time.Now(), storiesCount, commentsCount, domain.SyncStatusCompleted, id,
	)
	return err
}

func (s *SyncLogStore) MarkFailed(ctx context.Context, id int64, message string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sync_log
		SET completed_at = ?, status = ?, error = ?
		WHERE id = ?`,
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
		WHERE status = ?
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
