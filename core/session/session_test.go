package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	sessions map[string]Session
	touches  int
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]Session)}
}

func (s *memStore) CreateSession(_ context.Context, sess Session) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *memStore) GetSession(_ context.Context, id string) (Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *memStore) TouchSession(_ context.Context, id string, expiresAt, updatedAt time.Time) error {
	sess := s.sessions[id]
	sess.ExpiresAt, sess.UpdatedAt = expiresAt, updatedAt
	s.sessions[id] = sess
	s.touches++
	return nil
}

func (s *memStore) DestroySession(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *memStore) DestroyUserSessions(_ context.Context, userID string) error {
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *memStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// newTestManager returns a manager whose clock is moved with the returned function.
func newTestManager(ttl time.Duration) (*Manager, *memStore, func(time.Duration)) {
	store := newMemStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(store, ttl)
	m.now = func() time.Time { return now }
	return m, store, func(d time.Duration) { now = now.Add(d) }
}

func TestManager_Resolve(t *testing.T) {
	ctx := context.Background()
	ttl := 7 * 24 * time.Hour

	t.Run("unknown session", func(t *testing.T) {
		m, _, _ := newTestManager(ttl)
		_, _, err := m.Resolve(ctx, "nope")
		assert.Equal(t, ErrNotFound, err)
	})

	t.Run("fresh session is not touched", func(t *testing.T) {
		m, store, advance := newTestManager(ttl)
		sess, err := m.Start(ctx, "user-1")
		require.NoError(t, err)

		advance(10 * time.Minute)
		got, touched, err := m.Resolve(ctx, sess.ID)
		require.NoError(t, err)
		assert.False(t, touched)
		assert.Equal(t, sess.ExpiresAt, got.ExpiresAt)
		assert.Zero(t, store.touches)
	})

	t.Run("active session is extended once per interval", func(t *testing.T) {
		m, store, advance := newTestManager(ttl)
		sess, err := m.Start(ctx, "user-1")
		require.NoError(t, err)

		advance(2 * time.Hour)
		got, touched, err := m.Resolve(ctx, sess.ID)
		require.NoError(t, err)
		assert.True(t, touched)
		assert.Equal(t, sess.ExpiresAt.Add(2*time.Hour), got.ExpiresAt)

		advance(time.Minute)
		_, touched, err = m.Resolve(ctx, sess.ID)
		require.NoError(t, err)
		assert.False(t, touched)
		assert.Equal(t, 1, store.touches)
	})

	t.Run("expired session is destroyed", func(t *testing.T) {
		m, store, advance := newTestManager(ttl)
		sess, err := m.Start(ctx, "user-1")
		require.NoError(t, err)

		advance(ttl)
		_, _, err = m.Resolve(ctx, sess.ID)
		assert.Equal(t, ErrNotFound, err)
		assert.Empty(t, store.sessions)
	})
}

func TestManager_EndAllAndPurge(t *testing.T) {
	ctx := context.Background()
	m, store, advance := newTestManager(time.Hour)

	a, err := m.Start(ctx, "user-1")
	require.NoError(t, err)
	_, err = m.Start(ctx, "user-1")
	require.NoError(t, err)
	other, err := m.Start(ctx, "user-2")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, other.ID)

	require.NoError(t, m.EndAll(ctx, "user-1"))
	assert.Len(t, store.sessions, 1)

	advance(2 * time.Hour)
	n, err := m.Purge(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, store.sessions)
}
