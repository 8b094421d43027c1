// Package httpapi is the thin HTTP glue over the sync core: a manual
// trigger, a freshness probe, and a read surface for synced stories.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hn_syncer/internal/domain"
)

type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncResult, error)
}

type StoryReader interface {
	ListTop(ctx context.Context, since int64, limit int) ([]domain.Story, error)
	Count(ctx context.Context) (int, error)
}

type CommentReader interface {
	ListByStory(ctx context.Context, storyID int64) ([]domain.Comment, error)
}

type SyncLogReader interface {
	LastCompleted(ctx context.Context) (*domain.SyncLog, error)
}

type Server struct {
	syncer     Syncer
	stories    StoryReader
	comments   CommentReader
	syncLog    SyncLogReader
	staleAfter time.Duration
	logger     *slog.Logger
}

func NewServer(
	syncer Syncer,
	stories StoryReader,
	comments CommentReader,
	syncLog SyncLogReader,
	staleAfter time.Duration,
	logger *slog.Logger,
) *Server {
	return &Server{
		syncer:     syncer,
		stories:    stories,
		comments:   comments,
		syncLog:    syncLog,
		staleAfter: staleAfter,
		logger:     logger.With("component", "httpapi"),
	}
}

// Router constructs a Gin engine with registered routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/sync", s.handleSync)
	api.GET("/sync/status", s.handleSyncStatus)
	api.GET("/stories", s.handleStories)

	return r
}

func (s *Server) handleSync(c *gin.Context) {
	result, err := s.syncer.Sync(c.Request.Context())
	if err != nil {
		s.logger.Error("sync failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"storiesCount":  result.StoriesCount,
		"commentsCount": result.CommentsCount,
		"syncedAt":      time.Now().UTC(),
	})
}

func (s *Server) handleSyncStatus(c *gin.Context) {
	ctx := c.Request.Context()

	last, err := s.syncLog.LastCompleted(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	count, err := s.stories.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var lastSyncedAt *time.Time
	if last != nil {
		lastSyncedAt = last.CompletedAt
	}

	// Empty data is always stale.
	isStale := count == 0 || lastSyncedAt == nil || time.Since(*lastSyncedAt) > s.staleAfter

	c.JSON(http.StatusOK, gin.H{
		"lastSyncedAt": lastSyncedAt,
		"storyCount":   count,
		"isStale":      isStale,
	})
}

type storyWithComments struct {
	domain.Story
	Comments []domain.Comment `json:"comments"`
}

func (s *Server) handleStories(c *gin.Context) {
	ctx := c.Request.Context()

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	period := c.DefaultQuery("period", "today")
	var since int64
	switch period {
	case "today":
		since = time.Now().Add(-24 * time.Hour).Unix()
	case "week":
		since = time.Now().Add(-7 * 24 * time.Hour).Unix()
	case "all":
		since = 0
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period"})
		return
	}

	stories, err := s.stories.ListTop(ctx, since, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]storyWithComments, 0, len(stories))
	for _, story := range stories {
		comments, err := s.comments.ListByStory(ctx, story.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		out = append(out, storyWithComments{Story: story, Comments: comments})
	}

	c.JSON(http.StatusOK, gin.H{
		"stories": out,
		"total":   len(out),
		"period":  period,
	})
}
