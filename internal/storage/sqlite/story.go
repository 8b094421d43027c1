package sqlite

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"hn_syncer/internal/domain"
)

type StoryStore struct {
	db *sqlx.DB
}

func NewStoryStore(db *sqlx.DB) *StoryStore {
	return &StoryStore{db: db}
}

// UpsertBatch writes all stories in one multi-row statement; conflicting
// ids get their mutable fields overwritten.
func (s *StoryStore) UpsertBatch(ctx context.Context, stories []domain.Story) error {
	if len(stories) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO stories (id, title, url, "text", "by", score, descendants, "time", "type", synced_at) VALUES `)
	args := make([]interface{}, 0, len(stories)*10)

	for i, story := range stories {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			story.ID, story.Title, story.URL, story.Text, story.By,
			story.Score, story.Descendants, story.Time, story.Type, story.SyncedAt,
		)
	}

	sb.WriteString(` ON CONFLICT (id) DO UPDATE SET
		title = excluded.title,
		url = excluded.url,
		"text" = excluded."text",
		score = excluded.score,
		descendants = excluded.descendants,
		synced_at = excluded.synced_at`)

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...)
	return err
}

// ListTop returns stories ordered by score, optionally restricted to
// those created at or after since (unix seconds; 0 means no window).
func (s *StoryStore) ListTop(ctx context.Context, since int64, limit int) ([]domain.Story, error) {
	stories := []domain.Story{}

	if since > 0 {
		query := `
			SELECT id, title, url, "text", "by", score, descendants, "time", "type", synced_at
			FROM stories
			WHERE "time" >= ?
			ORDER BY score DESC
			LIMIT ?`
		if err := s.db.SelectContext(ctx, &stories, query, since, limit); err != nil {
			return nil, err
		}
		return stories, nil
	}

	query := `
		SELECT id, title, url, "text", "by", score, descendants, "time", "type", synced_at
		FROM stories
		ORDER BY score DESC
		LIMIT ?`
	if err := s.db.SelectContext(ctx, &stories, query, limit); err != nil {
		return nil, err
	}
	return stories, nil
}

func (s *StoryStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM stories")
	return count, err
}
