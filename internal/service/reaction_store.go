package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/model"
)

// ReactionStore holds the viewer's like/dislike state for every target of one
// active video (the video itself and its comments). Toggles are applied
// optimistically and reverted if the remote write fails.
type ReactionStore struct {
	api      ReactionAPI
	viewerID string
	log      zerolog.Logger
	notify   func()

	mu     sync.Mutex
	states map[model.ReactionTarget]*reactionEntry
}

type reactionEntry struct {
	state    model.ReactionState
	inflight int
	// toggles counts toggles ever started on the target; hydration compares
	// it to detect local changes made while its reads were outstanding.
	toggles uint64
}

// NewReactionStore creates a store for viewerID. An empty viewerID means the
// viewer is signed out: hydration still works, toggles return ErrAuthRequired.
func NewReactionStore(api ReactionAPI, viewerID string, logger zerolog.Logger, notify func()) *ReactionStore {
	if notify == nil {
		notify = func() {}
	}
	return &ReactionStore{
		api:      api,
		viewerID: viewerID,
		log:      logger.With().Str("component", "reactions").Logger(),
		notify:   notify,
		states:   make(map[model.ReactionTarget]*reactionEntry),
	}
}

// Hydrate loads the aggregate counts and, for a signed-in viewer, the
// viewer's own reaction. The two reads are independent and may race with
// other viewers' writes. On failure the target is initialized to zero values
// and the classified error is returned.
//
// A toggle that starts or is pending while the reads are outstanding wins:
// its flags are kept and its count change is applied on top of the fetched
// aggregate.
func (s *ReactionStore) Hydrate(ctx context.Context, target model.ReactionTarget) (model.ReactionState, error) {
	var (
		agg  model.ReactionAggregate
		mine *model.ViewerReaction
	)

	s.mu.Lock()
	var (
		base    model.ReactionState
		toggles uint64
	)
	if e, ok := s.states[target]; ok {
		base, toggles = e.state, e.toggles
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.api.FetchReactionAggregate(gctx, target)
		if err != nil {
			return classify("fetch reaction aggregate", err)
		}
		agg = a
		return nil
	})
	if s.viewerID != "" {
		g.Go(func() error {
			r, err := s.api.FetchViewerReaction(gctx, target, s.viewerID)
			if err != nil {
				return classify("fetch viewer reaction", err)
			}
			mine = r
			return nil
		})
	}
	err := g.Wait()

	s.mu.Lock()
	e := s.entryLocked(target)
	switch {
	case e.toggles != toggles || e.inflight > 0:
		if err == nil {
			e.state.LikeCount = max(agg.Likes+e.state.LikeCount-base.LikeCount, 0)
			e.state.DislikeCount = max(agg.Dislikes+e.state.DislikeCount-base.DislikeCount, 0)
		}
	default:
		e.state = model.ReactionState{Target: target, Status: model.StatusIdle}
		if err == nil {
			e.state.LikeCount = agg.Likes
			e.state.DislikeCount = agg.Dislikes
			if mine != nil {
				e.state.Liked = mine.Liked
				// A stray double row never hydrates into both flags.
				e.state.Disliked = mine.Disliked && !mine.Liked
			}
		}
	}
	state := e.state
	s.mu.Unlock()

	s.notify()
	return state, err
}

// Seed installs a state that was assembled elsewhere (comment threads load
// their reaction flags in bulk). Targets with a toggle in flight are left alone.
func (s *ReactionStore) Seed(state model.ReactionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(state.Target)
	if e.inflight > 0 {
		return
	}
	if state.Status == "" {
		state.Status = model.StatusIdle
	}
	e.state = state
}

// State returns a copy of the state for target.
func (s *ReactionStore) State(target model.ReactionTarget) (model.ReactionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.states[target]
	if !ok {
		return model.ReactionState{}, false
	}
	return e.state, true
}

// Forget drops the state for target.
func (s *ReactionStore) Forget(target model.ReactionTarget) {
	s.mu.Lock()
	delete(s.states, target)
	s.mu.Unlock()
}

// ToggleLike flips the viewer's like on target.
func (s *ReactionStore) ToggleLike(ctx context.Context, target model.ReactionTarget) (model.ReactionState, error) {
	return s.toggle(ctx, target, model.ReactionLike)
}

// ToggleDislike flips the viewer's dislike on target.
func (s *ReactionStore) ToggleDislike(ctx context.Context, target model.ReactionTarget) (model.ReactionState, error) {
	return s.toggle(ctx, target, model.ReactionDislike)
}

func (s *ReactionStore) toggle(ctx context.Context, target model.ReactionTarget, kind model.ReactionKind) (model.ReactionState, error) {
	if s.viewerID == "" {
		return model.ReactionState{}, ErrAuthRequired
	}

	s.mu.Lock()
	e := s.entryLocked(target)
	d := applyToggle(&e.state, kind)
	e.inflight++
	e.toggles++
	e.state.Status = model.StatusPending
	e.state.Error = ""
	s.mu.Unlock()
	s.notify()

	err := s.write(ctx, target, kind, d.active)

	s.mu.Lock()
	e.inflight--
	if err != nil {
		d.revert(&e.state)
		e.state.Status = model.StatusError
		e.state.Error = err.Error()
	} else if e.inflight == 0 {
		e.state.Status = model.StatusIdle
	}
	state := e.state
	s.mu.Unlock()
	s.notify()

	outcome := "ok"
	if err != nil {
		outcome = "error"
		metrics.Rollbacks.WithLabelValues("reactions").Inc()
		s.log.Warn().Err(err).
			Str("target", target.ID).
			Str("kind", string(target.Kind)).
			Str("reaction", string(kind)).
			Msg("reaction write failed, reverted")
	}
	metrics.ReactionToggles.WithLabelValues(string(target.Kind), string(kind), outcome).Inc()

	return state, err
}

// write issues the remote mutation for a toggle. Turning a reaction on clears
// the opposite row first; both writes are always attempted.
func (s *ReactionStore) write(ctx context.Context, target model.ReactionTarget, kind model.ReactionKind, active bool) error {
	if !active {
		return classify("delete "+string(kind), s.api.DeleteReaction(ctx, target, s.viewerID, kind))
	}
	opposite := kind.Opposite()
	delErr := classify("delete "+string(opposite), s.api.DeleteReaction(ctx, target, s.viewerID, opposite))
	upErr := classify("upsert "+string(kind), s.api.UpsertReaction(ctx, target, s.viewerID, kind))
	return errors.Join(delErr, upErr)
}

func (s *ReactionStore) entryLocked(target model.ReactionTarget) *reactionEntry {
	e, ok := s.states[target]
	if !ok {
		e = &reactionEntry{state: model.ReactionState{Target: target, Status: model.StatusIdle}}
		s.states[target] = e
	}
	return e
}

// toggleDelta is the exact change applyToggle made, so a failed write can
// undo only its own effect.
type toggleDelta struct {
	active       bool
	wasLiked     bool
	wasDisliked  bool
	likeDelta    int64
	dislikeDelta int64
}

// applyToggle flips kind on st and enforces mutual exclusivity. Counts never
// go below zero; the recorded delta is what was actually applied.
func applyToggle(st *model.ReactionState, kind model.ReactionKind) toggleDelta {
	d := toggleDelta{wasLiked: st.Liked, wasDisliked: st.Disliked}

	own, other := &st.Liked, &st.Disliked
	ownCount, otherCount := &st.LikeCount, &st.DislikeCount
	ownDelta, otherDelta := &d.likeDelta, &d.dislikeDelta
	if kind == model.ReactionDislike {
		own, other = other, own
		ownCount, otherCount = otherCount, ownCount
		ownDelta, otherDelta = otherDelta, ownDelta
	}

	if !*own {
		*own = true
		d.active = true
		*ownDelta = bump(ownCount, 1)
		if *other {
			*other = false
			*otherDelta = bump(otherCount, -1)
		}
		return d
	}
	*own = false
	*ownDelta = bump(ownCount, -1)
	return d
}

func (d toggleDelta) revert(st *model.ReactionState) {
	st.Liked = d.wasLiked
	st.Disliked = d.wasDisliked
	st.LikeCount = max(st.LikeCount-d.likeDelta, 0)
	st.DislikeCount = max(st.DislikeCount-d.dislikeDelta, 0)
}

func bump(n *int64, by int64) int64 {
	if *n+by < 0 {
		return 0
	}
	*n += by
	return by
}
