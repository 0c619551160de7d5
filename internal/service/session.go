package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// DefaultRemoteTimeout bounds every remote call a session makes. The remote
// API has no timeouts of its own, so without this a hung request would leave
// the session loading forever.
const DefaultRemoteTimeout = 10 * time.Second

// Snapshot error keys, one per component.
const (
	componentReaction = "reaction"
	componentComments = "comments"
	componentViews    = "views"
	componentFeed     = "feed"
)

// SessionDeps are the collaborators shared by every session.
type SessionDeps struct {
	Reactions   ReactionAPI
	Comments    CommentAPI
	ViewSources []ViewCountSource
	Views       ViewIncrementer
	Feed        *FeedService
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// Session coordinates the engine components for one player. It is bound to
// at most one video at a time; every activation builds fresh components and
// bumps a generation counter, and results tagged with an older generation
// are dropped on arrival. There is no request cancellation.
type Session struct {
	deps     SessionDeps
	viewerID string
	log      zerolog.Logger

	mu        sync.Mutex
	gen       uint64
	phase     model.Phase
	targetID  string
	sort      model.CommentSort
	reactions *ReactionStore
	comments  *CommentThread
	views     *ViewTracker
	mutating  int
	errs      map[string]string
	feedSeq   uint64
	feedOwner string
	feed      []model.ContentItem
	closed    bool

	subMu sync.Mutex
	subs  map[chan model.Snapshot]struct{}
}

// components is the set bound to one activation.
type components struct {
	gen       uint64
	targetID  string
	reactions *ReactionStore
	comments  *CommentThread
	views     *ViewTracker
}

// NewSession creates an inactive session for viewerID (empty when signed out).
func NewSession(deps SessionDeps, viewerID string) *Session {
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultRemoteTimeout
	}
	return &Session{
		deps:     deps,
		viewerID: viewerID,
		log:      deps.Logger.With().Str("component", "session").Logger(),
		phase:    model.PhaseInactive,
		sort:     model.SortTop,
		errs:     make(map[string]string),
		feed:     []model.ContentItem{},
		subs:     make(map[chan model.Snapshot]struct{}),
	}
}

// ViewerID returns the viewer the session was opened for.
func (s *Session) ViewerID() string {
	return s.viewerID
}

// Activate binds the session to videoID and hydrates reactions, the view
// count and the comment thread concurrently. Read failures do not fail the
// activation: the affected part stays empty and its error is listed in the
// snapshot. The joined read errors are returned for logging.
func (s *Session) Activate(ctx context.Context, videoID string) error {
	if videoID == "" {
		return &ValidationError{Field: "videoId", Reason: "is required"}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.gen++
	gen := s.gen
	notify := s.notifier(gen)
	c := components{
		gen:       gen,
		targetID:  videoID,
		reactions: NewReactionStore(s.deps.Reactions, s.viewerID, s.deps.Logger, notify),
		views:     NewViewTracker(s.deps.Views, s.deps.Logger, notify, s.deps.ViewSources...),
	}
	c.comments = NewCommentThread(s.deps.Comments, c.reactions, videoID, s.viewerID, s.sort, s.deps.Logger, notify)
	oldViews := s.views
	s.phase = model.PhaseLoading
	s.targetID = videoID
	s.reactions, s.comments, s.views = c.reactions, c.comments, c.views
	s.mutating = 0
	s.errs = make(map[string]string)
	s.mu.Unlock()
	if oldViews != nil {
		oldViews.Deactivate()
	}
	s.publish()

	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()

	var reactErr, viewErr, commentErr error
	var g errgroup.Group
	g.Go(func() error {
		_, reactErr = c.reactions.Hydrate(ctx, model.VideoTarget(videoID))
		return nil
	})
	g.Go(func() error {
		viewErr = c.views.Activate(ctx, videoID)
		return nil
	})
	g.Go(func() error {
		commentErr = c.comments.Load(ctx)
		return nil
	})
	_ = g.Wait()

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		metrics.StaleDiscards.WithLabelValues("session").Inc()
		s.log.Debug().Str("video_id", videoID).Msg("discarding stale activation")
		return nil
	}
	setErr(s.errs, componentReaction, reactErr)
	setErr(s.errs, componentViews, viewErr)
	setErr(s.errs, componentComments, commentErr)
	s.phase = model.PhaseReady
	s.mu.Unlock()
	s.publish()

	err := errors.Join(reactErr, viewErr, commentErr)
	if err != nil {
		s.log.Warn().Err(err).Str("video_id", videoID).Msg("activation degraded")
	}
	return err
}

// Refresh re-runs hydration for the active video (the retry affordance for
// degraded reads).
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	target := s.targetID
	s.mu.Unlock()
	if target == "" {
		return ErrInactive
	}
	return s.Activate(ctx, target)
}

// Deactivate drops all state of the active video. Calls still in flight
// complete against the dropped components and are never published.
func (s *Session) Deactivate() {
	s.mu.Lock()
	s.gen++
	views := s.views
	s.phase = model.PhaseInactive
	s.targetID = ""
	s.reactions, s.comments, s.views = nil, nil, nil
	s.mutating = 0
	s.errs = make(map[string]string)
	s.mu.Unlock()
	if views != nil {
		views.Deactivate()
	}
	s.publish()
}

// Close deactivates the session and closes every subscription.
func (s *Session) Close() {
	s.Deactivate()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.subMu.Lock()
	for ch := range s.subs {
		close(ch)
	}
	s.subs = make(map[chan model.Snapshot]struct{})
	s.subMu.Unlock()
}

// ToggleLike flips the viewer's like on the active video.
func (s *Session) ToggleLike(ctx context.Context) (model.ReactionState, error) {
	var st model.ReactionState
	err := s.mutate(ctx, componentReaction, func(ctx context.Context, c components) error {
		var err error
		st, err = c.reactions.ToggleLike(ctx, model.VideoTarget(c.targetID))
		return err
	})
	return st, err
}

// ToggleDislike flips the viewer's dislike on the active video.
func (s *Session) ToggleDislike(ctx context.Context) (model.ReactionState, error) {
	var st model.ReactionState
	err := s.mutate(ctx, componentReaction, func(ctx context.Context, c components) error {
		var err error
		st, err = c.reactions.ToggleDislike(ctx, model.VideoTarget(c.targetID))
		return err
	})
	return st, err
}

// ToggleCommentLike flips the viewer's like on a loaded comment.
func (s *Session) ToggleCommentLike(ctx context.Context, commentID string) (model.ReactionState, error) {
	return s.toggleComment(ctx, commentID, model.ReactionLike)
}

// ToggleCommentDislike flips the viewer's dislike on a loaded comment.
func (s *Session) ToggleCommentDislike(ctx context.Context, commentID string) (model.ReactionState, error) {
	return s.toggleComment(ctx, commentID, model.ReactionDislike)
}

func (s *Session) toggleComment(ctx context.Context, commentID string, kind model.ReactionKind) (model.ReactionState, error) {
	var st model.ReactionState
	err := s.mutate(ctx, componentComments, func(ctx context.Context, c components) error {
		if !c.comments.Contains(commentID) {
			return ErrNotFound
		}
		var err error
		if kind == model.ReactionLike {
			st, err = c.reactions.ToggleLike(ctx, model.CommentTarget(commentID))
		} else {
			st, err = c.reactions.ToggleDislike(ctx, model.CommentTarget(commentID))
		}
		return err
	})
	return st, err
}

// SubmitComment posts a comment, or a reply when replyTo is set.
func (s *Session) SubmitComment(ctx context.Context, text, replyTo string) (model.CommentNode, error) {
	var node model.CommentNode
	err := s.mutate(ctx, componentComments, func(ctx context.Context, c components) error {
		var err error
		node, err = c.comments.Submit(ctx, text, replyTo)
		return err
	})
	return node, err
}

// EditComment edits one of the viewer's comments.
func (s *Session) EditComment(ctx context.Context, commentID, text string) error {
	return s.mutate(ctx, componentComments, func(ctx context.Context, c components) error {
		return c.comments.Edit(ctx, commentID, text)
	})
}

// DeleteComment deletes one of the viewer's comments.
func (s *Session) DeleteComment(ctx context.Context, commentID string) error {
	return s.mutate(ctx, componentComments, func(ctx context.Context, c components) error {
		return c.comments.Delete(ctx, commentID)
	})
}

// SetCommentSort reloads the thread in a new order. The mode is kept for
// later activations.
func (s *Session) SetCommentSort(ctx context.Context, sort model.CommentSort) error {
	if !sort.Valid() {
		return &ValidationError{Field: "sort", Reason: "must be top or newest"}
	}
	return s.mutate(ctx, componentComments, func(ctx context.Context, c components) error {
		s.mu.Lock()
		s.sort = sort
		s.mu.Unlock()
		return c.comments.SetSort(ctx, sort)
	})
}

// ReplyPrefill returns the parent id and compose text for replying to commentID.
func (s *Session) ReplyPrefill(commentID string) (parentID, text string, err error) {
	c, ok := s.current()
	if !ok {
		return "", "", ErrInactive
	}
	return c.comments.ReplyPrefill(commentID)
}

// PlaybackStarted records a playback start of the active video.
func (s *Session) PlaybackStarted(ctx context.Context) error {
	return s.mutate(ctx, componentViews, func(ctx context.Context, c components) error {
		return c.views.RegisterPlaybackStart(ctx, c.targetID)
	})
}

// LoadFeed loads the merged content feed of ownerID into the snapshot. Feed
// loads carry their own guard token, so only the latest request is applied.
func (s *Session) LoadFeed(ctx context.Context, ownerID string) (FeedResult, error) {
	if s.deps.Feed == nil {
		return FeedResult{}, ErrNotFound
	}
	if ownerID == "" {
		return FeedResult{}, &ValidationError{Field: "ownerId", Reason: "is required"}
	}
	s.mu.Lock()
	s.feedSeq++
	seq := s.feedSeq
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	res, err := s.deps.Feed.Feed(ctx, ownerID)

	s.mu.Lock()
	if seq != s.feedSeq {
		s.mu.Unlock()
		metrics.StaleDiscards.WithLabelValues("feed").Inc()
		return res, err
	}
	s.feedOwner = ownerID
	s.feed = res.Items
	if s.feed == nil {
		s.feed = []model.ContentItem{}
	}
	setErr(s.errs, componentFeed, err)
	s.mu.Unlock()
	s.publish()
	return res, err
}

// mutate runs fn against the active components. The session only tracks the
// phase; each component applies and reverts its own optimistic state.
func (s *Session) mutate(ctx context.Context, component string, fn func(context.Context, components) error) error {
	s.mu.Lock()
	if s.targetID == "" || s.comments == nil {
		s.mu.Unlock()
		return ErrInactive
	}
	c := components{
		gen:       s.gen,
		targetID:  s.targetID,
		reactions: s.reactions,
		comments:  s.comments,
		views:     s.views,
	}
	s.mutating++
	if s.phase != model.PhaseLoading {
		s.phase = model.PhaseMutating
	}
	s.mu.Unlock()
	s.publish()

	ctx, cancel := context.WithTimeout(ctx, s.deps.Timeout)
	defer cancel()
	err := fn(ctx, c)

	s.mu.Lock()
	if s.gen != c.gen {
		s.mu.Unlock()
		return err
	}
	s.mutating--
	failed := err != nil && !rejectedLocally(err)
	if err == nil || failed {
		setErr(s.errs, component, err)
	}
	if s.phase != model.PhaseLoading {
		switch {
		case failed:
			s.phase = model.PhaseError
		case s.mutating > 0:
			s.phase = model.PhaseMutating
		default:
			s.phase = model.PhaseReady
		}
	}
	s.mu.Unlock()
	s.publish()
	return err
}

// rejectedLocally reports errors raised before any remote write was sent.
// They leave the session ready.
func rejectedLocally(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAuthRequired) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInactive)
}

func (s *Session) current() (components, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.targetID == "" || s.comments == nil {
		return components{}, false
	}
	return components{
		gen:       s.gen,
		targetID:  s.targetID,
		reactions: s.reactions,
		comments:  s.comments,
		views:     s.views,
	}, true
}

// Snapshot returns a copy of the current read model.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	snap := model.Snapshot{
		Generation:  s.gen,
		Phase:       s.phase,
		TargetID:    s.targetID,
		CommentSort: s.sort,
		FeedOwnerID: s.feedOwner,
		Feed:        append([]model.ContentItem(nil), s.feed...),
		Comments:    []model.CommentNode{},
	}
	if len(s.errs) > 0 {
		snap.Errors = make(map[string]string, len(s.errs))
		for k, v := range s.errs {
			snap.Errors[k] = v
		}
	}
	reactions, comments, views := s.reactions, s.comments, s.views
	s.mu.Unlock()

	if snap.Feed == nil {
		snap.Feed = []model.ContentItem{}
	}
	if snap.TargetID == "" {
		return snap
	}
	if st, ok := reactions.State(model.VideoTarget(snap.TargetID)); ok {
		snap.Reaction = &st
	}
	snap.Comments = comments.Nodes()
	snap.CommentSort = comments.Sort()
	snap.ViewCount = views.Count(snap.TargetID)
	return snap
}

// Subscribe returns a channel that always holds the latest snapshot. Slow
// readers miss intermediate snapshots, never the newest one. The returned
// func cancels the subscription.
func (s *Session) Subscribe() (<-chan model.Snapshot, func()) {
	ch := make(chan model.Snapshot, 1)
	ch <- s.Snapshot()

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

func (s *Session) publish() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// notifier returns the change callback handed to the components of one
// activation; it goes quiet once the session moves on.
func (s *Session) notifier(gen uint64) func() {
	return func() {
		s.mu.Lock()
		live := s.gen == gen
		s.mu.Unlock()
		if live {
			s.publish()
		}
	}
}

func setErr(errs map[string]string, component string, err error) {
	if err == nil {
		delete(errs, component)
		return
	}
	errs[component] = err.Error()
}
