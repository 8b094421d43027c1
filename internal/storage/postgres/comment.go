package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"hn_syncer/internal/domain"
)

type CommentStore struct {
	db *sqlx.DB
}

func NewCommentStore(db *sqlx.DB) *CommentStore {
	return &CommentStore{db: db}
}

// UpsertBatch writes all comments in one multi-row statement. The id
// and the owning story reference are never altered on conflict.
func (s *CommentStore) UpsertBatch(ctx context.Context, comments []domain.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO comments (id, story_id, parent_id, "by", "text", "time", synced_at) VALUES `)
	args := make([]interface{}, 0, len(comments)*7)

	for i, comment := range comments {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < 7; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$")
			sb.WriteString(strconv.Itoa(i*7 + j + 1))
		}
		sb.WriteString(")")
		args = append(args,
			comment.ID, comment.StoryID, comment.ParentID, comment.By,
			comment.Text, comment.Time, comment.SyncedAt,
		)
	}

	sb.WriteString(` ON CONFLICT (id) DO UPDATE SET
		"by" = EXCLUDED."by",
		"text" = EXCLUDED."text",
		synced_at = EXCLUDED.synced_at`)

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, sb.String(), args...)
	return err
}

func (s *CommentStore) ListByStory(ctx context.Context, storyID int64) ([]domain.Comment, error) {
	query := `
		SELECT id, story_id, parent_id, "by", "text", "time", synced_at
		FROM comments
		WHERE story_id = $1
		ORDER BY id`

	comments := []domain.Comment{}
	err := s.db.SelectContext(ctx, &comments, query, storyID)
	return comments, err
}
