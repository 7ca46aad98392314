package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/sejali/core/session"
)

type sessionStore struct {
	db *DB
}

var _ session.Store = (*sessionStore)(nil) // interface compliance check

func NewSessionStore(db *DB) *sessionStore {
	return &sessionStore{db: db}
}

func (store *sessionStore) CreateSession(_ context.Context, sess session.Session) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()
	store.db.sessions[sess.ID] = &sess
	return nil
}

func (store *sessionStore) GetSession(_ context.Context, id string) (session.Session, error) {
	store.db.mutex.RLock()
	defer store.db.mutex.RUnlock()

	if sess, ok := store.db.sessions[id]; ok {
		return *sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (store *sessionStore) TouchSession(_ context.Context, id string, expiresAt, updatedAt time.Time) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	sess, ok := store.db.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	sess.ExpiresAt = expiresAt
	sess.UpdatedAt = updatedAt
	return nil
}

func (store *sessionStore) DestroySession(_ context.Context, id string) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()
	delete(store.db.sessions, id)
	return nil
}

func (store *sessionStore) DestroyUserSessions(_ context.Context, userID string) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	for id, sess := range store.db.sessions {
		if sess.UserID == userID {
			delete(store.db.sessions, id)
		}
	}
	return nil
}

func (store *sessionStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	var n int64
	for id, sess := range store.db.sessions {
		if sess.Expired(now) {
			delete(store.db.sessions, id)
			n++
		}
	}
	return n, nil
}
