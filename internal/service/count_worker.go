package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/repository"
)

// CountRecalculator rewrites comment counters for a batch of comment ids.
type CountRecalculator interface {
	RecalculateCommentCounts(ctx context.Context, commentIDs []string) (int64, error)
}

// CountWorker listens for NOTIFY on comment_reaction_changes and batches
// counter recalculations. A burst of toggles on one comment inside the batch
// window costs a single UPDATE.
type CountWorker struct {
	pool   *pgxpool.Pool
	recalc CountRecalculator
	window time.Duration
	log    zerolog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewCountWorker creates a worker flushing every window.
func NewCountWorker(pool *pgxpool.Pool, recalc CountRecalculator, window time.Duration, logger zerolog.Logger) *CountWorker {
	if window <= 0 {
		window = 5 * time.Second
	}
	return &CountWorker{
		pool:    pool,
		recalc:  recalc,
		window:  window,
		log:     logger.With().Str("component", "count-worker").Logger(),
		pending: make(map[string]struct{}),
	}
}

// Start listens and processes batches until ctx is cancelled, reconnecting
// after listen errors.
func (w *CountWorker) Start(ctx context.Context) {
	w.log.Info().Dur("batch_window", w.window).Msg("starting")

	for {
		if err := w.listenLoop(ctx); err != nil {
			if ctx.Err() != nil {
				w.log.Info().Msg("stopping (context cancelled)")
				return
			}
			w.log.Warn().Err(err).Msg("listen error, reconnecting in 5s")
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				w.log.Info().Msg("stopping (context cancelled)")
				return
			}
		}
	}
}

// listenLoop holds a dedicated connection for LISTEN and feeds the pending set.
func (w *CountWorker) listenLoop(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+repository.CommentReactionChannel); err != nil {
		return err
	}
	w.log.Info().Str("channel", repository.CommentReactionChannel).Msg("listening")

	flushCtx, flushCancel := context.WithCancel(ctx)
	defer flushCancel()
	go w.flushLoop(flushCtx)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		w.enqueue(n.Payload)
	}
}

func (w *CountWorker) enqueue(commentID string) {
	if commentID == "" {
		return
	}
	w.mu.Lock()
	w.pending[commentID] = struct{}{}
	w.mu.Unlock()
}

// drain swaps out the pending set and returns its ids sorted, so concurrent
// flushes lock rows in the same order.
func (w *CountWorker) drain() []string {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *CountWorker) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(w.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush(ctx)
		case <-ctx.Done():
			// Final flush before exit
			w.flush(context.WithoutCancel(ctx))
			return
		}
	}
}

func (w *CountWorker) flush(ctx context.Context) {
	ids := w.drain()
	if len(ids) == 0 {
		return
	}
	n, err := w.recalc.RecalculateCommentCounts(ctx, ids)
	if err != nil {
		w.log.Error().Err(err).Int("comments", len(ids)).Msg("recalculate failed")
		// Put the batch back so the next tick retries it.
		for _, id := range ids {
			w.enqueue(id)
		}
		return
	}
	w.log.Debug().Int64("updated", n).Int("notified", len(ids)).Msg("batch complete")
}
