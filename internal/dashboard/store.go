package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/metrics"
	"github.com/paces/backend/pkg/logger"
)

// SessionStore keeps one Session per browser and forgets sessions idle for
// longer than the idle timeout.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	data     *Dataset
	palette  Palette
	idle     time.Duration
	now      func() time.Time
}

func NewSessionStore(data *Dataset, palette Palette, idle time.Duration) *SessionStore {
	if idle <= 0 {
		idle = time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		data:     data,
		palette:  palette,
		idle:     idle,
		now:      time.Now,
	}
}

func (st *SessionStore) Create() *Session {
	s := NewSession(uuid.New().String(), st.data, st.palette)
	s.touch(st.now())

	st.mu.Lock()
	st.sessions[s.ID] = s
	n := len(st.sessions)
	st.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	logger.Debug("Dashboard session created", zap.String("session_id", s.ID))
	return s
}

// Get returns a live session and marks it used.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(st.now())
	return s, true
}

// GetOrCreate returns the session for id, or a fresh one when id is unknown or
// expired.
func (st *SessionStore) GetOrCreate(id string) *Session {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s
		}
	}
	return st.Create()
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than the timeout and returns how many.
func (st *SessionStore) Sweep() int {
	cutoff := st.now().Add(-st.idle)

	st.mu.Lock()
	removed := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	if removed > 0 {
		logger.Info("Expired dashboard sessions", zap.Int("removed", removed), zap.Int("active", n))
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (st *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
