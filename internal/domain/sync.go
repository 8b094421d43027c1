package domain

import "time"

// Sync log statuses.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncLog is the audit record of one sync run. A row is inserted with
// status running when the run starts and receives exactly one terminal
// update (completed or failed) before the run returns.
type SyncLog struct {
	ID            int64      `db:"id"`
	StartedAt     time.Time  `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	StoriesCount  int        `db:"stories_count"`
	CommentsCount int        `db:"comments_count"`
	Status        string     `db:"status"`
	Error         *string    `db:"error"`
}

// SyncResult holds the outcome of a completed sync run.
type SyncResult struct {
	StoriesCount  int
	CommentsCount int
	Published     int
	Duration      time.Duration
}
