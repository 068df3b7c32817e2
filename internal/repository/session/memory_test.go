package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/exe-builder/internal/domain/build"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func newRepository(ttl time.Duration) (*MemoryRepository, *fakeClock) {
	clock := &fakeClock{current: time.Unix(1_700_000_000, 0)}

	repo := NewMemoryRepository(ttl)
	repo.now = clock.now

	return repo, clock
}

// TestMemoryRepository_NotFound verifies Load and Save reject unknown ids.
func TestMemoryRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo, _ := newRepository(time.Minute)

	s, err := repo.Load(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, s)

	require.ErrorIs(t, repo.Save(context.Background(), "missing", build.NewSession()), ErrNotFound)
}

// TestMemoryRepository_SaveLoad ensures saved sessions are returned as copies.
func TestMemoryRepository_SaveLoad(t *testing.T) {
	t.Parallel()

	repo, _ := newRepository(time.Minute)

	id, created := repo.Create(context.Background())
	require.NotEmpty(t, id)
	require.Equal(t, build.DefaultAppName, created.Config.AppName)

	cfg := created.Config
	cfg.SetAppName("Calc")
	require.NoError(t, repo.Save(context.Background(), id, build.WithConfig(created, cfg)))

	loaded, err := repo.Load(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Calc", loaded.Config.AppName)

	// Mutating the copy does not leak into the store.
	loaded.Config.AppName = "Changed"

	again, err := repo.Load(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "Calc", again.Config.AppName)
}

// TestMemoryRepository_Expiry drops sessions idle for longer than the TTL.
func TestMemoryRepository_Expiry(t *testing.T) {
	t.Parallel()

	repo, clock := newRepository(time.Minute)

	idleID, _ := repo.Create(context.Background())
	activeID, _ := repo.Create(context.Background())

	clock.current = clock.current.Add(45 * time.Second)

	_, err := repo.Load(context.Background(), activeID)
	require.NoError(t, err)

	clock.current = clock.current.Add(30 * time.Second)

	require.Equal(t, 1, repo.Evict())
	require.Equal(t, 1, repo.Len())

	_, err = repo.Load(context.Background(), idleID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Load(context.Background(), activeID)
	require.NoError(t, err)
}

// TestMemoryRepository_RunJanitor stops when the context is canceled.
func TestMemoryRepository_RunJanitor(t *testing.T) {
	t.Parallel()

	repo := NewMemoryRepository(time.Nanosecond)
	repo.Create(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		repo.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return repo.Len() == 0 }, time.Second, time.Millisecond)

	cancel()
	<-done
}
