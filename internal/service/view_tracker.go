package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
)

// ViewTracker counts at most one view per activation of a video.
type ViewTracker struct {
	sources []ViewCountSource
	inc     ViewIncrementer
	log     zerolog.Logger
	notify  func()

	mu      sync.Mutex
	session *viewSession
}

// viewSession lives from Activate until the target changes or Deactivate.
type viewSession struct {
	targetID string
	counted  bool
	count    int64
	pending  int
	// reconciled is set once the server returned a count after an increment;
	// a probe answering later is older than that value.
	reconciled bool
}

// NewViewTracker probes sources in order (primary first) when a video is
// activated; the first one with a row owns the count.
func NewViewTracker(inc ViewIncrementer, logger zerolog.Logger, notify func(), sources ...ViewCountSource) *ViewTracker {
	if notify == nil {
		notify = func() {}
	}
	return &ViewTracker{
		sources: sources,
		inc:     inc,
		log:     logger.With().Str("component", "views").Logger(),
		notify:  notify,
	}
}

// Activate starts a new session for targetID and loads its current count.
// A failed probe leaves the count at zero and returns the error.
func (t *ViewTracker) Activate(ctx context.Context, targetID string) error {
	sess := &viewSession{targetID: targetID}
	t.mu.Lock()
	t.session = sess
	t.mu.Unlock()
	t.notify()

	count, err := t.probe(ctx, targetID)

	t.mu.Lock()
	if t.session != sess {
		t.mu.Unlock()
		metrics.StaleDiscards.WithLabelValues("views").Inc()
		return nil
	}
	if err == nil && !sess.reconciled {
		// Keep any optimistic +1 from a playback start that raced the probe.
		sess.count = count + int64(sess.pending)
	}
	t.mu.Unlock()
	t.notify()
	return err
}

func (t *ViewTracker) probe(ctx context.Context, targetID string) (int64, error) {
	for _, src := range t.sources {
		n, err := src.FetchViewCount(ctx, targetID)
		if err != nil {
			return 0, classify("fetch view count", err)
		}
		if n != nil {
			return *n, nil
		}
	}
	return 0, nil
}

// RegisterPlaybackStart sends the single increment for the active session.
// Repeated starts, starts for a target that is not active, and starts while
// the first request is still in flight are no-ops. A failed increment reverts
// the optimistic +1 and re-arms the session so a later start can retry.
func (t *ViewTracker) RegisterPlaybackStart(ctx context.Context, targetID string) error {
	t.mu.Lock()
	sess := t.session
	if sess == nil || sess.targetID != targetID || sess.counted {
		t.mu.Unlock()
		return nil
	}
	sess.counted = true
	sess.count++
	sess.pending++
	t.mu.Unlock()
	t.notify()

	n, err := t.inc.IncrementViewCount(ctx, targetID)
	err = classify("increment view count", err)

	t.mu.Lock()
	sess.pending--
	if err != nil {
		sess.count = max(sess.count-1, 0)
		sess.counted = false
	} else {
		sess.count = n
		sess.reconciled = true
	}
	stale := t.session != sess
	t.mu.Unlock()

	if err != nil {
		metrics.ViewIncrements.WithLabelValues("error").Inc()
		metrics.Rollbacks.WithLabelValues("views").Inc()
		t.log.Warn().Err(err).Str("video_id", targetID).Msg("view increment failed, reverted")
	} else {
		metrics.ViewIncrements.WithLabelValues("ok").Inc()
	}
	if stale {
		metrics.StaleDiscards.WithLabelValues("views").Inc()
		return nil
	}
	t.notify()
	return err
}

// Count returns the displayed count for targetID, or zero if it is not active.
func (t *ViewTracker) Count(targetID string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil || t.session.targetID != targetID {
		return 0
	}
	return t.session.count
}

// Counted reports whether the active session has already sent its increment.
func (t *ViewTracker) Counted(targetID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil && t.session.targetID == targetID && t.session.counted
}

// Deactivate drops the session; results still in flight are discarded.
func (t *ViewTracker) Deactivate() {
	t.mu.Lock()
	t.session = nil
	t.mu.Unlock()
}
