package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/session"
)

type sessionStore struct {
	exec core.DBExecutor
}

var _ session.Store = (*sessionStore)(nil) // interface compliance check

func NewSessionStore(exec core.DBExecutor) *sessionStore {
	return &sessionStore{exec: exec}
}

type sessionRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (store *sessionStore) CreateSession(ctx context.Context, sess session.Session) error {
	_, err := store.exec.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		sess.ID, sess.UserID, sess.ExpiresAt, sess.CreatedAt, sess.UpdatedAt)
	return errors.Wrap(err, "inserting session")
}

func (store *sessionStore) GetSession(ctx context.Context, id string) (session.Session, error) {
	var row sessionRow
	err := store.exec.GetContext(ctx, &row,
		`SELECT id, user_id, expires_at, created_at, updated_at FROM sessions WHERE id = $1`, id)
	if err != nil {
		return session.Session{}, trapNoRowsErr(err, session.ErrNotFound, "getting session")
	}
	return session.Session{
		ID:        row.ID,
		UserID:    row.UserID,
		ExpiresAt: row.ExpiresAt.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func (store *sessionStore) TouchSession(ctx context.Context, id string, expiresAt, updatedAt time.Time) error {
	_, err := store.exec.ExecContext(ctx,
		`UPDATE sessions SET expires_at = $2, updated_at = $3 WHERE id = $1`, id, expiresAt, updatedAt)
	return errors.Wrap(err, "touching session")
}

func (store *sessionStore) DestroySession(ctx context.Context, id string) error {
	_, err := store.exec.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return errors.Wrap(err, "deleting session")
}

func (store *sessionStore) DestroyUserSessions(ctx context.Context, userID string) error {
	_, err := store.exec.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return errors.Wrap(err, "deleting user sessions")
}

func (store *sessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := store.exec.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired sessions")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "counting deleted sessions")
}
