package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/audit"
)

type auditRepository struct {
	exec core.DBExecutor
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(exec core.DBExecutor) *auditRepository {
	return &auditRepository{exec: exec}
}

type auditRow struct {
	ID          string      `db:"id"`
	ActorUserID string      `db:"actor_user_id"`
	Action      string      `db:"action"`
	EntityType  string      `db:"entity_type"`
	EntityID    string      `db:"entity_id"`
	Details     null.JSON   `db:"details"`
	CreatedAt   time.Time   `db:"created_at"`
	FirstName   null.String `db:"first_name"`
	LastName    null.String `db:"last_name"`
}

func (repo *auditRepository) CreateEntry(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	details, err := jsonValue(entry.Details)
	if err != nil {
		return audit.Entry{}, err
	}
	_, err = repo.exec.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_user_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.ActorUserID, entry.Action, entry.EntityType, entry.EntityID, details, entry.CreatedAt)
	if err != nil {
		return audit.Entry{}, errors.Wrap(err, "inserting audit entry")
	}
	return entry, nil
}

func (repo *auditRepository) QueryRecentEntries(ctx context.Context, limit int) ([]audit.Entry, error) {
	var rows []auditRow
	err := repo.exec.SelectContext(ctx, &rows, `
		SELECT a.id, a.actor_user_id, a.action, a.entity_type, a.entity_id, a.details, a.created_at,
			u.first_name, u.last_name
		FROM audit_logs a
		LEFT JOIN users u ON u.id = a.actor_user_id
		ORDER BY a.created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying audit entries")
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, r := range rows {
		details := make(audit.Details)
		if r.Details.Valid {
			if err = r.Details.Unmarshal(&details); err != nil {
				return nil, errors.Wrap(err, "decoding audit details")
			}
		}
		entries = append(entries, audit.Entry{
			ID:          r.ID,
			ActorUserID: r.ActorUserID,
			Action:      r.Action,
			EntityType:  r.EntityType,
			EntityID:    r.EntityID,
			Details:     details,
			CreatedAt:   r.CreatedAt.UTC(),
			ActorName:   core.FullName(r.FirstName.String, r.LastName.String),
		})
	}
	return entries, nil
}
