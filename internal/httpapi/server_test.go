package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"hn_syncer/internal/domain"
)

type stubSyncer struct {
	result *domain.SyncResult
	err    error
}

func (s *stubSyncer) Sync(context.Context) (*domain.SyncResult, error) {
	return s.result, s.err
}

type stubStoryReader struct {
	stories []domain.Story
	count   int
	since   int64
	limit   int
}

func (s *stubStoryReader) ListTop(_ context.Context, since int64, limit int) ([]domain.Story, error) {
	s.since = since
	s.limit = limit
	return s.stories, nil
}

func (s *stubStoryReader) Count(context.Context) (int, error) {
	return s.count, nil
}

type stubCommentReader struct {
	byStory map[int64][]domain.Comment
}

func (s *stubCommentReader) ListByStory(_ context.Context, storyID int64) ([]domain.Comment, error) {
	return s.byStory[storyID], nil
}

type stubSyncLogReader struct {
	last *domain.SyncLog
}

func (s *stubSyncLogReader) LastCompleted(context.Context) (*domain.SyncLog, error) {
	return s.last, nil
}

func newTestServer(syncer Syncer, stories StoryReader, comments CommentReader, syncLog SyncLogReader) *Server {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewServer(syncer, stories, comments, syncLog, time.Hour, logger)
}

func doRequest(t *testing.T, srv *Server, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	srv.Router().ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandleSync_Success(t *testing.T) {
	syncer := &stubSyncer{result: &domain.SyncResult{StoriesCount: 30, CommentsCount: 120}}
	srv := newTestServer(syncer, &stubStoryReader{}, &stubCommentReader{}, &stubSyncLogReader{})

	w, body := doRequest(t, srv, http.MethodPost, "/api/sync")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, body["success"])
	require.EqualValues(t, 30, body["storiesCount"])
	require.EqualValues(t, 120, body["commentsCount"])
}

func TestHandleSync_Failure(t *testing.T) {
	syncer := &stubSyncer{err: errors.New("fetch top stories: timeout")}
	srv := newTestServer(syncer, &stubStoryReader{}, &stubCommentReader{}, &stubSyncLogReader{})

	w, body := doRequest(t, srv, http.MethodPost, "/api/sync")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, false, body["success"])
	require.Contains(t, body["error"], "fetch top stories")
}

func TestHandleSyncStatus_Fresh(t *testing.T) {
	completed := time.Now().Add(-10 * time.Minute)
	syncLog := &stubSyncLogReader{last: &domain.SyncLog{
		ID:          1,
		CompletedAt: &completed,
		Status:      domain.SyncStatusCompleted,
	}}
	srv := newTestServer(&stubSyncer{}, &stubStoryReader{count: 30}, &stubCommentReader{}, syncLog)

	w, body := doRequest(t, srv, http.MethodGet, "/api/sync/status")

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, false, body["isStale"])
	require.EqualValues(t, 30, body["storyCount"])
}

func TestHandleSyncStatus_Stale(t *testing.T) {
	tests := []struct {
		name    string
		last    *domain.SyncLog
		count   int
	}{
		{name: "no completed run", last: nil, count: 30},
		{
			name: "old run",
			last: func() *domain.SyncLog {
				completed := time.Now().Add(-2 * time.Hour)
				return &domain.SyncLog{ID: 1, CompletedAt: &completed, Status: domain.SyncStatusCompleted}
			}(),
			count: 30,
		},
		{
			name: "empty data",
			last: func() *domain.SyncLog {
				completed := time.Now()
				return &domain.SyncLog{ID: 1, CompletedAt: &completed, Status: domain.SyncStatusCompleted}
			}(),
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&stubSyncer{}, &stubStoryReader{count: tt.count}, &stubCommentReader{}, &stubSyncLogReader{last: tt.last})

			w, body := doRequest(t, srv, http.MethodGet, "/api/sync/status")

			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, true, body["isStale"])
		})
	}
}

func TestHandleStories(t *testing.T) {
	stories := &stubStoryReader{stories: []domain.Story{
		{ID: 1, Title: "first", By: "alice", Score: 100},
		{ID: 2, Title: "second", By: "bob", Score: 50},
	}}
	comments := &stubCommentReader{byStory: map[int64][]domain.Comment{
		1: {{ID: 10, StoryID: 1, Text: "hi"}},
	}}
	srv := newTestServer(&stubSyncer{}, stories, comments, &stubSyncLogReader{})

	w, body := doRequest(t, srv, http.MethodGet, "/api/stories?period=all&limit=10")

	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 2, body["total"])
	require.Equal(t, "all", body["period"])
	require.Equal(t, int64(0), stories.since)
	require.Equal(t, 10, stories.limit)

	list := body["stories"].([]any)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	require.EqualValues(t, 1, first["id"])
	require.Len(t, first["comments"], 1)
}

func TestHandleStories_PeriodWindow(t *testing.T) {
	stories := &stubStoryReader{}
	srv := newTestServer(&stubSyncer{}, stories, &stubCommentReader{}, &stubSyncLogReader{})

	w, _ := doRequest(t, srv, http.MethodGet, "/api/stories?period=week")

	require.Equal(t, http.StatusOK, w.Code)
	wantSince := time.Now().Add(-7 * 24 * time.Hour).Unix()
	require.InDelta(t, wantSince, stories.since, 5)
	require.Equal(t, 30, stories.limit) // default limit
}

func TestHandleStories_BadParams(t *testing.T) {
	srv := newTestServer(&stubSyncer{}, &stubStoryReader{}, &stubCommentReader{}, &stubSyncLogReader{})

	w, _ := doRequest(t, srv, http.MethodGet, "/api/stories?period=fortnight")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doRequest(t, srv, http.MethodGet, "/api/stories?limit=abc")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
