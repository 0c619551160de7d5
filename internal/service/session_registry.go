package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/LiveStak-Brad/mylivelinks-sub002/internal/metrics"
)

// DefaultSessionIdleTTL is how long a session survives without requests.
const DefaultSessionIdleTTL = 30 * time.Minute

// SessionRegistry holds the open sessions of the HTTP surface, keyed by a
// random id. Sessions idle longer than the TTL are closed by a background
// sweep.
type SessionRegistry struct {
	deps SessionDeps
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*registeredSession
}

type registeredSession struct {
	session  *Session
	lastSeen time.Time
}

// NewSessionRegistry creates an empty registry. Call Run to start expiry.
func NewSessionRegistry(deps SessionDeps, ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionIdleTTL
	}
	return &SessionRegistry{
		deps:     deps,
		ttl:      ttl,
		now:      time.Now,
		log:      deps.Logger.With().Str("component", "sessions").Logger(),
		sessions: make(map[string]*registeredSession),
	}
}

// Create opens a session for viewerID and returns its id.
func (r *SessionRegistry) Create(viewerID string) (string, *Session) {
	id := uuid.NewString()
	s := NewSession(r.deps, viewerID)

	r.mu.Lock()
	r.sessions[id] = &registeredSession{session: s, lastSeen: r.now()}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	r.log.Debug().Str("session_id", id).Bool("signed_in", viewerID != "").Msg("session opened")
	return id, s
}

// Get returns the session with id and marks it as used. Sessions belong to
// the viewer that opened them; a different viewer gets ErrNotFound.
func (r *SessionRegistry) Get(id, viewerID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rs, ok := r.sessions[id]
	if !ok || rs.session.ViewerID() != viewerID {
		return nil, ErrNotFound
	}
	rs.lastSeen = r.now()
	return rs.session, nil
}

// Close closes and removes the session with id.
func (r *SessionRegistry) Close(id, viewerID string) error {
	r.mu.Lock()
	rs, ok := r.sessions[id]
	if !ok || rs.session.ViewerID() != viewerID {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	rs.session.Close()
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Run sweeps idle sessions every interval until ctx is done, then closes
// everything that is still open.
func (r *SessionRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.sweep(); n > 0 {
				r.log.Info().Int("expired", n).Msg("expired idle sessions")
			}
		case <-ctx.Done():
			r.closeAll()
			return
		}
	}
}

func (r *SessionRegistry) sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.ttl)
	var expired []*Session
	for id, rs := range r.sessions {
		if rs.lastSeen.Before(cutoff) {
			expired = append(expired, rs.session)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	metrics.ActiveSessions.Set(float64(n))
	return len(expired)
}

func (r *SessionRegistry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*registeredSession)
	r.mu.Unlock()
	for _, rs := range all {
		rs.session.Close()
	}
	metrics.ActiveSessions.Set(0)
}
