package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// CommentPageSize bounds the number of top-level comments fetched per load.
const CommentPageSize = 20

// CommentAssembler builds two-level comment threads from the remote API.
type CommentAssembler struct {
	api      CommentAPI
	pageSize int
}

func NewCommentAssembler(api CommentAPI) *CommentAssembler {
	return &CommentAssembler{api: api, pageSize: CommentPageSize}
}

// LoadThread fetches one page of top-level comments in the requested order,
// attaches their replies (always oldest first) and, for a signed-in viewer,
// stamps the viewer's like/dislike flags using two bulk lookups.
func (a *CommentAssembler) LoadThread(ctx context.Context, videoID string, sort model.CommentSort, viewerID string) ([]model.CommentNode, error) {
	if !sort.Valid() {
		return nil, &ValidationError{Field: "sort", Reason: "must be top or newest"}
	}

	top, err := a.api.FetchTopLevelComments(ctx, videoID, sort, a.pageSize)
	if err != nil {
		return nil, classify("fetch comments", err)
	}
	nodes := make([]model.CommentNode, len(top))
	parentIDs := make([]string, len(top))
	for i, r := range top {
		nodes[i] = model.NodeFromRow(r)
		parentIDs[i] = r.ID
	}
	if len(nodes) == 0 {
		return nodes, nil
	}

	replies, err := a.api.FetchReplies(ctx, videoID, parentIDs)
	if err != nil {
		return nil, classify("fetch replies", err)
	}
	byParent := groupReplies(replies)
	for i := range nodes {
		if rs, ok := byParent[nodes[i].ID]; ok {
			nodes[i].Replies = rs
		}
	}

	if viewerID == "" {
		return nodes, nil
	}

	ids := make([]string, 0, len(top)+len(replies))
	ids = append(ids, parentIDs...)
	for _, r := range replies {
		ids = append(ids, r.ID)
	}
	mine, err := a.api.FetchViewerCommentReactions(ctx, viewerID, ids)
	if err != nil {
		return nil, classify("fetch viewer comment reactions", err)
	}
	stampReactions(nodes, toSet(mine.Liked), toSet(mine.Disliked))
	return nodes, nil
}

// groupReplies buckets reply rows by parent id, preserving row order.
func groupReplies(rows []model.CommentRow) map[string][]model.CommentNode {
	out := make(map[string][]model.CommentNode)
	for _, r := range rows {
		if r.ParentID == nil {
			continue
		}
		out[*r.ParentID] = append(out[*r.ParentID], model.NodeFromRow(r))
	}
	return out
}

func stampReactions(nodes []model.CommentNode, liked, disliked map[string]struct{}) {
	for i := range nodes {
		stamp(&nodes[i], liked, disliked)
		for j := range nodes[i].Replies {
			stamp(&nodes[i].Replies[j], liked, disliked)
		}
	}
}

func stamp(n *model.CommentNode, liked, disliked map[string]struct{}) {
	_, n.Liked = liked[n.ID]
	_, isDisliked := disliked[n.ID]
	n.Disliked = isDisliked && !n.Liked
}

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

// CommentThread is the live comment tree of one active video. Loads carry a
// guard token (sequence number plus sort mode); a response whose token no
// longer matches is dropped.
type CommentThread struct {
	assembler *CommentAssembler
	api       CommentAPI
	reactions *ReactionStore
	videoID   string
	viewerID  string
	log       zerolog.Logger
	notify    func()

	mu    sync.Mutex
	sort  model.CommentSort
	seq   uint64
	nodes []model.CommentNode
}

// NewCommentThread binds a thread to videoID. Comment reaction flags are
// seeded into reactions so toggles on comments share the reaction rules.
func NewCommentThread(api CommentAPI, reactions *ReactionStore, videoID, viewerID string, sort model.CommentSort, logger zerolog.Logger, notify func()) *CommentThread {
	if notify == nil {
		notify = func() {}
	}
	if !sort.Valid() {
		sort = model.SortTop
	}
	return &CommentThread{
		assembler: NewCommentAssembler(api),
		api:       api,
		reactions: reactions,
		videoID:   videoID,
		viewerID:  viewerID,
		log:       logger.With().Str("component", "comments").Str("video_id", videoID).Logger(),
		notify:    notify,
		sort:      sort,
		nodes:     []model.CommentNode{},
	}
}

// Sort returns the current sort mode.
func (t *CommentThread) Sort() model.CommentSort {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sort
}

// Load (re)fetches the thread with the current sort mode.
func (t *CommentThread) Load(ctx context.Context) error {
	t.mu.Lock()
	t.seq++
	token, sort := t.seq, t.sort
	t.mu.Unlock()
	return t.load(ctx, token, sort)
}

// SetSort switches the sort mode and re-runs the full fetch; "top" depends on
// counts that may have changed, so the loaded list is never re-sorted locally.
func (t *CommentThread) SetSort(ctx context.Context, sort model.CommentSort) error {
	if !sort.Valid() {
		return &ValidationError{Field: "sort", Reason: "must be top or newest"}
	}
	t.mu.Lock()
	t.sort = sort
	t.seq++
	token := t.seq
	t.mu.Unlock()
	t.notify()
	return t.load(ctx, token, sort)
}

func (t *CommentThread) load(ctx context.Context, token uint64, sort model.CommentSort) error {
	nodes, err := t.assembler.LoadThread(ctx, t.videoID, sort, t.viewerID)

	t.mu.Lock()
	if token != t.seq || sort != t.sort {
		t.mu.Unlock()
		metrics.StaleDiscards.WithLabelValues("comments").Inc()
		t.log.Debug().Str("sort", string(sort)).Msg("discarding stale comment load")
		return nil
	}
	if err != nil {
		t.nodes = []model.CommentNode{}
		t.mu.Unlock()
		t.notify()
		return err
	}
	t.nodes = nodes
	t.mu.Unlock()

	for _, n := range nodes {
		t.seed(n)
		for _, r := range n.Replies {
			t.seed(r)
		}
	}
	t.notify()
	return nil
}

func (t *CommentThread) seed(n model.CommentNode) {
	t.reactions.Seed(model.ReactionState{
		Target:       model.CommentTarget(n.ID),
		Liked:        n.Liked,
		Disliked:     n.Disliked,
		LikeCount:    n.LikeCount,
		DislikeCount: n.DislikeCount,
	})
}

// Nodes returns a deep copy of the tree with reaction flags and counts taken
// from the reaction store.
func (t *CommentThread) Nodes() []model.CommentNode {
	t.mu.Lock()
	out := make([]model.CommentNode, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = n.Clone()
	}
	t.mu.Unlock()

	for i := range out {
		t.overlay(&out[i])
		for j := range out[i].Replies {
			t.overlay(&out[i].Replies[j])
		}
	}
	return out
}

func (t *CommentThread) overlay(n *model.CommentNode) {
	st, ok := t.reactions.State(model.CommentTarget(n.ID))
	if !ok {
		return
	}
	n.Liked = st.Liked
	n.Disliked = st.Disliked
	n.LikeCount = st.LikeCount
	n.DislikeCount = st.DislikeCount
}

// ReplyPrefill returns the top-level comment a reply to commentID is stored
// under, and the "@username " text placed in the compose box.
func (t *CommentThread) ReplyPrefill(commentID string) (parentID, text string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ti, ri, ok := locate(t.nodes, commentID)
	if !ok {
		return "", "", ErrNotFound
	}
	target := t.nodes[ti]
	if ri >= 0 {
		target = t.nodes[ti].Replies[ri]
	}
	return t.nodes[ti].ID, "@" + target.AuthorUsername + " ", nil
}

// Submit creates a comment, or a reply when replyTo is set. Replies to replies
// are re-parented to the top-level ancestor. On success the new node is merged
// into the local tree without refetching.
func (t *CommentThread) Submit(ctx context.Context, text, replyTo string) (model.CommentNode, error) {
	if t.viewerID == "" {
		return model.CommentNode{}, ErrAuthRequired
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.CommentNode{}, &ValidationError{Field: "text", Reason: "must not be empty"}
	}

	var parentID *string
	if replyTo != "" {
		t.mu.Lock()
		ti, _, ok := locate(t.nodes, replyTo)
		if ok {
			id := t.nodes[ti].ID
			parentID = &id
		}
		t.mu.Unlock()
		if !ok {
			return model.CommentNode{}, ErrNotFound
		}
	}

	row, err := t.api.CreateComment(ctx, t.videoID, t.viewerID, text, parentID)
	if err != nil {
		return model.CommentNode{}, classify("create comment", err)
	}
	if row.AuthorID == "" {
		row.AuthorID = t.viewerID
	}
	if row.ParentID == nil {
		row.ParentID = parentID
	}
	node := model.NodeFromRow(row)

	t.mu.Lock()
	if node.ParentID == nil {
		t.nodes = append([]model.CommentNode{node}, t.nodes...)
	} else if ti, ri, ok := locate(t.nodes, *node.ParentID); ok && ri < 0 {
		t.nodes[ti].Replies = append(t.nodes[ti].Replies, node)
	}
	t.mu.Unlock()

	t.seed(node)
	t.notify()
	return node.Clone(), nil
}

// Edit changes the text of the viewer's own comment. Local state is patched
// only after the server confirms the write.
func (t *CommentThread) Edit(ctx context.Context, commentID, text string) error {
	if err := t.authorize(commentID); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}

	if err := t.api.EditComment(ctx, commentID, t.viewerID, text); err != nil {
		return classify("edit comment", err)
	}

	t.mu.Lock()
	if ti, ri, ok := locate(t.nodes, commentID); ok {
		if ri < 0 {
			t.nodes[ti].Text = text
		} else {
			t.nodes[ti].Replies[ri].Text = text
		}
	}
	t.mu.Unlock()
	t.notify()
	return nil
}

// Delete removes the viewer's own comment (and, for a top-level comment, its
// replies) after the server confirms the write.
func (t *CommentThread) Delete(ctx context.Context, commentID string) error {
	if err := t.authorize(commentID); err != nil {
		return err
	}

	if err := t.api.DeleteComment(ctx, commentID, t.viewerID); err != nil {
		return classify("delete comment", err)
	}

	var removed []string
	t.mu.Lock()
	if ti, ri, ok := locate(t.nodes, commentID); ok {
		if ri < 0 {
			removed = append(removed, t.nodes[ti].ID)
			for _, r := range t.nodes[ti].Replies {
				removed = append(removed, r.ID)
			}
			t.nodes = append(t.nodes[:ti:ti], t.nodes[ti+1:]...)
		} else {
			removed = append(removed, commentID)
			rs := t.nodes[ti].Replies
			t.nodes[ti].Replies = append(rs[:ri:ri], rs[ri+1:]...)
		}
	}
	t.mu.Unlock()

	for _, id := range removed {
		t.reactions.Forget(model.CommentTarget(id))
	}
	t.notify()
	return nil
}

func (t *CommentThread) authorize(commentID string) error {
	if t.viewerID == "" {
		return ErrAuthRequired
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ti, ri, ok := locate(t.nodes, commentID)
	if !ok {
		return ErrNotFound
	}
	author := t.nodes[ti].AuthorID
	if ri >= 0 {
		author = t.nodes[ti].Replies[ri].AuthorID
	}
	if author != t.viewerID {
		return ErrForbidden
	}
	return nil
}

// Contains reports whether commentID is in the loaded tree.
func (t *CommentThread) Contains(commentID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _, ok := locate(t.nodes, commentID)
	return ok
}

// locate finds id among top-level nodes and their replies. replyIdx is -1
// for a top-level match.
func locate(nodes []model.CommentNode, id string) (topIdx, replyIdx int, ok bool) {
	for i := range nodes {
		if nodes[i].ID == id {
			return i, -1, true
		}
		for j := range nodes[i].Replies {
			if nodes[i].Replies[j].ID == id {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}
