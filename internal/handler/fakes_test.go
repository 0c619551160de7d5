package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/require"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// memReactions keeps reaction rows in memory.
type memReactions struct {
	mu   sync.Mutex
	rows map[string]map[model.ReactionKind]map[string]bool // target -> kind -> viewer
	fail bool
}

func newMemReactions() *memReactions {
	return &memReactions{rows: make(map[string]map[model.ReactionKind]map[string]bool)}
}

func (m *memReactions) FetchReactionAggregate(ctx context.Context, target model.ReactionTarget) (model.ReactionAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.ReactionAggregate{
		Likes:    int64(len(m.rows[target.ID][model.ReactionLike])),
		Dislikes: int64(len(m.rows[target.ID][model.ReactionDislike])),
	}, nil
}

func (m *memReactions) FetchViewerReaction(ctx context.Context, target model.ReactionTarget, viewerID string) (*model.ViewerReaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &model.ViewerReaction{
		Liked:    m.rows[target.ID][model.ReactionLike][viewerID],
		Disliked: m.rows[target.ID][model.ReactionDislike][viewerID],
	}
	if !r.Liked && !r.Disliked {
		return nil, nil
	}
	return r, nil
}

func (m *memReactions) UpsertReaction(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return io.ErrUnexpectedEOF
	}
	if m.rows[target.ID] == nil {
		m.rows[target.ID] = make(map[model.ReactionKind]map[string]bool)
	}
	if m.rows[target.ID][kind] == nil {
		m.rows[target.ID][kind] = make(map[string]bool)
	}
	m.rows[target.ID][kind][viewerID] = true
	return nil
}

func (m *memReactions) DeleteReaction(ctx context.Context, target model.ReactionTarget, viewerID string, kind model.ReactionKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows[target.ID][kind], viewerID)
	return nil
}

// memComments keeps comments in memory, newest first.
type memComments struct {
	mu   sync.Mutex
	rows []model.CommentRow
	next int
}

func (m *memComments) FetchTopLevelComments(ctx context.Context, videoID string, sort model.CommentSort, limit int) ([]model.CommentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CommentRow
	for _, r := range m.rows {
		if r.VideoID == videoID && r.ParentID == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memComments) FetchReplies(ctx context.Context, videoID string, parentIDs []string) ([]model.CommentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CommentRow
	for i := len(m.rows) - 1; i >= 0; i-- {
		if r := m.rows[i]; r.VideoID == videoID && r.ParentID != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memComments) FetchViewerCommentReactions(ctx context.Context, viewerID string, commentIDs []string) (model.ViewerCommentReactions, error) {
	return model.ViewerCommentReactions{}, nil
}

func (m *memComments) CreateComment(ctx context.Context, videoID, viewerID, text string, parentID *string) (model.CommentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	r := model.CommentRow{
		ID:             "c" + strconv.Itoa(m.next),
		VideoID:        videoID,
		AuthorID:       viewerID,
		AuthorUsername: viewerID,
		Text:           text,
		CreatedAt:      time.Now(),
		ParentID:       parentID,
	}
	m.rows = append([]model.CommentRow{r}, m.rows...)
	return r, nil
}

func (m *memComments) EditComment(ctx context.Context, commentID, viewerID, text string) error {
	return nil
}

func (m *memComments) DeleteComment(ctx context.Context, commentID, viewerID string) error {
	return nil
}

type memViews struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memViews) FetchViewCount(ctx context.Context, videoID string) (*int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.counts[videoID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *memViews) IncrementViewCount(ctx context.Context, videoID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[videoID]++
	return m.counts[videoID], nil
}

// do sends a request through app and decodes the JSON response into out
// (when out is non-nil).
func do(t *testing.T, app *fiber.App, method, path, user string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
