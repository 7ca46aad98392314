package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/sejali/core/audit"
)

type auditRepository struct {
	db *DB
}

var _ audit.Repository = (*auditRepository)(nil) // interface compliance check

func NewAuditRepository(db *DB) *auditRepository {
	return &auditRepository{db: db}
}

func (repo *auditRepository) CreateEntry(_ context.Context, entry audit.Entry) (audit.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.auditLog = append(repo.db.auditLog, &entry)
	return entry, nil
}

func (repo *auditRepository) QueryRecentEntries(_ context.Context, limit int) ([]audit.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := newestFirst(repo.db.auditLog, func(e *audit.Entry) time.Time { return e.CreatedAt })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].ActorName = repo.db.userName(entries[i].ActorUserID)
	}
	return entries, nil
}
