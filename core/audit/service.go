package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
)

var recordTimeout = 5 * time.Second

type (
	Repository interface {
		CreateEntry(ctx context.Context, entry Entry) (Entry, error)
		QueryRecentEntries(ctx context.Context, limit int) ([]Entry, error)
	}

	// Recorder appends audit entries without ever failing the caller.
	Recorder interface {
		Record(actorID, action, entityType, entityID string, details Details)
	}

	Service struct {
		repo   Repository
		logger core.Logger
		sync   bool
	}
)

var _ Recorder = (*Service)(nil)

func NewService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// NewSyncService records synchronously. Tests and short-lived commands use it so no entry is lost.
func NewSyncService(repo Repository, logger core.Logger) *Service {
	return &Service{repo: repo, logger: logger, sync: true}
}

// Record writes the entry in the background, detached from the request context.
// Write failures are logged and dropped.
func (svc *Service) Record(actorID, action, entityType, entityID string, details Details) {
	entry := Entry{
		ID:          uuid.NewString(),
		ActorUserID: actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Details:     details,
		CreatedAt:   time.Now().UTC(),
	}
	if entry.Details == nil {
		entry.Details = Details{}
	}

	write := func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if _, err := svc.repo.CreateEntry(ctx, entry); err != nil {
			svc.logger.Warn(fmt.Sprintf("audit: recording %q failed", action), errors.Wrap(err, "creating audit entry"))
		}
	}
	if svc.sync {
		write()
		return
	}
	go write()
}

func (svc *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	entries, err := svc.repo.QueryRecentEntries(ctx, limit)
	return entries, errors.Wrap(err, "querying audit entries")
}
