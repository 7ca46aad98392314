package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("session not found")

	// touchInterval throttles the expiry refresh of an active session.
	touchInterval = time.Hour
)

// Session is the server-side state of a logged in user. The client only holds its ID.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type (
	Store interface {
		CreateSession(ctx context.Context, sess Session) error
		// GetSession returns ErrNotFound when no session has this id.
		GetSession(ctx context.Context, id string) (Session, error)
		TouchSession(ctx context.Context, id string, expiresAt, updatedAt time.Time) error
		DestroySession(ctx context.Context, id string) error
		DestroyUserSessions(ctx context.Context, userID string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	}

	// Manager issues and resolves sessions with a fixed TTL counted from the last write.
	Manager struct {
		store Store
		ttl   time.Duration
		now   func() time.Time
	}
)

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

func newID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (m *Manager) Start(ctx context.Context, userID string) (Session, error) {
	id, err := newID()
	if err != nil {
		return Session{}, errors.Wrap(err, "generating session id")
	}
	now := m.now().UTC()
	sess := Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err = m.store.CreateSession(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

// Resolve returns the live session with this id. touched reports whether its expiry was pushed back.
func (m *Manager) Resolve(ctx context.Context, id string) (sess Session, touched bool, err error) {
	sess, err = m.store.GetSession(ctx, id)
	if err != nil {
		return Session{}, false, err
	}

	now := m.now().UTC()
	if sess.Expired(now) {
		if err = m.store.DestroySession(ctx, id); err != nil {
			return Session{}, false, errors.Wrap(err, "destroying expired session")
		}
		return Session{}, false, ErrNotFound
	}

	if now.Sub(sess.UpdatedAt) >= touchInterval {
		sess.ExpiresAt = now.Add(m.ttl)
		sess.UpdatedAt = now
		if err = m.store.TouchSession(ctx, id, sess.ExpiresAt, sess.UpdatedAt); err != nil {
			return Session{}, false, errors.Wrap(err, "touching session")
		}
		touched = true
	}
	return sess, touched, nil
}

func (m *Manager) End(ctx context.Context, id string) error {
	return errors.Wrap(m.store.DestroySession(ctx, id), "destroying session")
}

func (m *Manager) EndAll(ctx context.Context, userID string) error {
	return errors.Wrap(m.store.DestroyUserSessions(ctx, userID), "destroying user sessions")
}

// Purge removes expired sessions and returns how many were removed.
func (m *Manager) Purge(ctx context.Context) (int64, error) {
	n, err := m.store.DeleteExpiredSessions(ctx, m.now().UTC())
	return n, errors.Wrap(err, "deleting expired sessions")
}
