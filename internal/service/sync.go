package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hn_syncer/internal/config"
	"hn_syncer/internal/domain"
	"hn_syncer/internal/pool"
	"hn_syncer/internal/source/hackernews"
)

// SyncService drives one end-to-end sync run: resolve the ranked ID
// list, fetch stories and their comments through a bounded pool, upsert
// the batches, and record the outcome in the sync log.
type SyncService struct {
	source    Source
	stories   StoryStore
	comments  CommentStore
	syncLog   SyncLogStore
	txManager TransactionManager
	publisher Publisher // may be nil
	logger    *slog.Logger
	config    config.SyncConfig
}

func NewSyncService(
	source Source,
	stories StoryStore,
	comments CommentStore,
	syncLog SyncLogStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:    source,
		stories:   stories,
		comments:  comments,
		syncLog:   syncLog,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
		config:    cfg,
	}
}

// Sync runs one full sync. It fails only when the ID-list fetch or a
// storage write fails; individual item fetch failures shrink the batch
// instead. Whatever happens, the sync log row created at the start gets
// exactly one terminal update before Sync returns.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncResult, error) {
	startTime := time.Now()
	s.logger.Info("starting sync",
		"source_name", s.source.Name(),
		"top_stories", s.config.TopStories,
		"comments_per_story", s.config.CommentsPerStory,
		"fetch_concurrency", s.config.FetchConcurrency,
	)

	runID, err := s.syncLog.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create sync log: %w", err)
	}

	result, err := s.sync(ctx)
	if err != nil {
		if logErr := s.syncLog.MarkFailed(ctx, runID, err.Error()); logErr != nil {
			s.logger.Error("failed to record sync failure", "run_id", runID, "error", logErr)
		}
		return nil, err
	}

	if err := s.syncLog.MarkCompleted(ctx, runID, result.StoriesCount, result.CommentsCount); err != nil {
		if logErr := s.syncLog.MarkFailed(ctx, runID, err.Error()); logErr != nil {
			s.logger.Error("failed to record sync failure", "run_id", runID, "error", logErr)
		}
		return nil, fmt.Errorf("complete sync log: %w", err)
	}

	result.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"stories", result.StoriesCount,
		"comments", result.CommentsCount,
		"published", result.Published,
		"duration", result.Duration,
	)

	return result, nil
}

func (s *SyncService) sync(ctx context.Context) (*domain.SyncResult, error) {
	ids, err := s.source.TopStories(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) > s.config.TopStories {
		ids = ids[:s.config.TopStories]
	}

	items := s.fetchStories(ctx, ids)
	s.logger.Debug("fetched stories", "requested", len(ids), "resolved", len(items))

	comments := s.fetchComments(ctx, items)
	s.logger.Debug("fetched comments", "resolved", len(comments))

	now := time.Now()
	stories := make([]domain.Story, 0, len(items))
	for _, item := range items {
		stories = append(stories, storyFromItem(item, now))
	}

	// Stories before comments inside one transaction, so a comment can
	// never land without its story.
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.stories.UpsertBatch(txCtx, stories); err != nil {
			return fmt.Errorf("upsert stories: %w", err)
		}
		if err := s.comments.UpsertBatch(txCtx, comments); err != nil {
			return fmt.Errorf("upsert comments: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &domain.SyncResult{
		StoriesCount:  len(stories),
		CommentsCount: len(comments),
	}

	if s.publisher != nil {
		for i := range stories {
			if err := s.publisher.Publish(ctx, &stories[i]); err != nil {
				s.logger.Warn("failed to publish story", "id", stories[i].ID, "error", err)
				continue
			}
			result.Published++
		}
	}

	return result, nil
}

func (s *SyncService) fetchStories(ctx context.Context, ids []int64) []*hackernews.Item {
	tasks := make([]func(context.Context) *hackernews.Item, len(ids))
	for i, id := range ids {
		tasks[i] = func(ctx context.Context) *hackernews.Item {
			return s.source.Item(ctx, id)
		}
	}

	results := pool.Run(ctx, tasks, s.config.FetchConcurrency)

	items := make([]*hackernews.Item, 0, len(results))
	for _, item := range results {
		// Absent items and title-less records (removed or non-story
		// entries) are skipped, not errors.
		if item == nil || item.Title == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// commentFetch pairs a kid ID with the story that owns it, so a fetch
// result correlates to its story without positional bookkeeping.
type commentFetch struct {
	storyID int64
	kidID   int64
}

func (s *SyncService) fetchComments(ctx context.Context, items []*hackernews.Item) []domain.Comment {
	// One flattened task list spanning all stories shares a single pool
	// run, keeping the concurrency ceiling fully utilized across the
	// whole batch.
	var fetches []commentFetch
	for _, item := range items {
		kids := item.Kids
		if len(kids) > s.config.CommentsPerStory {
			kids = kids[:s.config.CommentsPerStory]
		}
		for _, kid := range kids {
			fetches = append(fetches, commentFetch{storyID: item.ID, kidID: kid})
		}
	}

	now := time.Now()
	tasks := make([]func(context.Context) *domain.Comment, len(fetches))
	for i, f := range fetches {
		tasks[i] = func(ctx context.Context) *domain.Comment {
			item := s.source.Item(ctx, f.kidID)
			if item == nil || item.Deleted || item.Dead || item.Text == "" {
				return nil
			}
			return commentFromItem(item, f.storyID, now)
		}
	}

	results := pool.Run(ctx, tasks, s.config.FetchConcurrency)

	comments := make([]domain.Comment, 0, len(results))
	for _, c := range results {
		if c != nil {
			comments = append(comments, *c)
		}
	}
	return comments
}

func storyFromItem(item *hackernews.Item, now time.Time) domain.Story {
	story := domain.Story{
		ID:          item.ID,
		Title:       item.Title,
		By:          item.By,
		Score:       item.Score,
		Descendants: item.Descendants,
		Time:        item.Time,
		Type:        item.Type,
		SyncedAt:    now,
	}
	if item.URL != "" {
		story.URL = &item.URL
	}
	if item.Text != "" {
		story.Text = &item.Text
	}
	if story.By == "" {
		story.By = "unknown"
	}
	if story.Type == "" {
		story.Type = "story"
	}
	if story.Time == 0 {
		story.Time = now.Unix()
	}
	return story
}

func commentFromItem(item *hackernews.Item, storyID int64, now time.Time) *domain.Comment {
	c := &domain.Comment{
		ID:       item.ID,
		StoryID:  storyID,
		Text:     item.Text,
		SyncedAt: now,
	}
	// The source sets parent to the story's own ID for direct replies;
	// those are stored with a NULL parent.
	if item.Parent != 0 && item.Parent != storyID {
		c.ParentID = &item.Parent
	}
	if item.By != "" {
		c.By = &item.By
	}
	if item.Time != 0 {
		c.Time = &item.Time
	}
	return c
}
