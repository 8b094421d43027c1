package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"hn_syncer/internal/domain"
	"hn_syncer/internal/source/hackernews"
)

type Source interface {
	ID() string
	Name() string
	TopStories(ctx context.Context) ([]int64, error)
	// Item reports failure as nil, not as an error.
	Item(ctx context.Context, id int64) *hackernews.Item
}

type StoryStore interface {
	UpsertBatch(ctx context.Context, stories []domain.Story) error
}

type CommentStore interface {
	UpsertBatch(ctx context.Context, comments []domain.Comment) error
}

type SyncLogStore interface {
	Create(ctx context.Context) (int64, error)
	MarkCompleted(ctx context.Context, id int64, storiesCount, commentsCount int) error
	MarkFailed(ctx context.Context, id int64, message string) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, story *domain.Story) error
	Close() error
}
