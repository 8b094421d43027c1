package domain

import "time"

// Story is a top-level item ingested from the remote source. The ID is
// assigned by the source and is the only key; re-syncing an existing ID
// updates the row in place.
type Story struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	URL         *string   `db:"url" json:"url"`
	Text        *string   `db:"text" json:"text"`
	By          string    `db:"by" json:"by"`
	Score       int       `db:"score" json:"score"`
	Descendants int       `db:"descendants" json:"descendants"`
	Time        int64     `db:"time" json:"time"` // unix seconds, from the source
	Type        string    `db:"type" json:"type"` // story, job, poll
	SyncedAt    time.Time `db:"synced_at" json:"syncedAt"`
}

// Comment is a reply attached to a Story. ParentID is nil for direct
// replies to the story itself.
type Comment struct {
	ID       int64     `db:"id" json:"id"`
	StoryID  int64     `db:"story_id" json:"storyId"`
	ParentID *int64    `db:"parent_id" json:"parentId"`
	By       *string   `db:"by" json:"by"`
	Text     string    `db:"text" json:"text"`
	Time     *int64    `db:"time" json:"time"`
	SyncedAt time.Time `db:"synced_at" json:"syncedAt"`
}
