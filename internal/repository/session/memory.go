package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/logger"
)

// Repository defines storage operations for sessions.
type Repository interface {
	Create(ctx context.Context) (string, *build.Session)
	Load(ctx context.Context, id string) (*build.Session, error)
	Save(ctx context.Context, id string, session *build.Session) error
}

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// entry is a stored session with its last access time.
type entry struct {
	session  *build.Session
	accessed time.Time
}

// MemoryRepository stores sessions in a map guarded by a mutex.
type MemoryRepository struct {
	// ttl is the idle time after which a session is evicted.
	ttl time.Duration
	// now is the clock, replaceable in tests.
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

// NewMemoryRepository creates a repository with the given idle TTL.
func NewMemoryRepository(ttl time.Duration) *MemoryRepository {
	return &MemoryRepository{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Create starts a new session with default settings.
func (r *MemoryRepository) Create(ctx context.Context) (string, *build.Session) {
	id := uuid.NewString()
	session := build.NewSession()

	r.mu.Lock()
	r.entries[id] = &entry{session: session, accessed: r.now()}
	r.mu.Unlock()

	logger.DebugKV(ctx, "Session created", "session", id)

	return id, session.Clone()
}

// Load returns a copy of the session and refreshes its access time.
func (r *MemoryRepository) Load(_ context.Context, id string) (*build.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || r.expired(e) {
		delete(r.entries, id)

		return nil, ErrNotFound
	}

	e.accessed = r.now()

	return e.session.Clone(), nil
}

// Save replaces the stored session. Unknown ids are rejected so an expired
// session is never resurrected by a late write.
func (r *MemoryRepository) Save(_ context.Context, id string, session *build.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return ErrNotFound
	}

	e.session = session.Clone()
	e.accessed = r.now()

	return nil
}

// Len returns the number of stored sessions.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Evict removes expired sessions and returns how many were dropped.
func (r *MemoryRepository) Evict() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0

	for id, e := range r.entries {
		if r.expired(e) {
			delete(r.entries, id)

			evicted++
		}
	}

	return evicted
}

// RunJanitor evicts expired sessions every interval until ctx is done.
func (r *MemoryRepository) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := r.Evict(); evicted > 0 {
				logger.InfoKV(ctx, "Idle sessions evicted", "evicted", evicted, "remaining", r.Len())
			}
		}
	}
}

// expired must be called with mu held.
func (r *MemoryRepository) expired(e *entry) bool {
	return r.ttl > 0 && r.now().Sub(e.accessed) > r.ttl
}
