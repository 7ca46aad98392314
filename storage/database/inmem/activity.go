package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/activity"
)

type activityRepository struct {
	db *DB
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(db *DB) *activityRepository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) withOwner(a activity.Activity) activity.Activity {
	if u := repo.db.findUser(a.UserID); u != nil {
		a.UserName, a.UserEmail = u.Name(), u.Email
	}
	return a
}

func (repo *activityRepository) find(id string) *activity.Activity {
	for _, a := range repo.db.activities {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (repo *activityRepository) CreateActivity(_ context.Context, act activity.Activity) (activity.Activity, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	act.EndDate = copyTime(act.EndDate)
	repo.db.activities = append(repo.db.activities, &act)
	return act, nil
}

func (repo *activityRepository) GetActivity(_ context.Context, id string) (activity.Activity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a := repo.find(id); a != nil {
		return repo.withOwner(*a), nil
	}
	return activity.Activity{}, activity.ErrNotFound
}

func (repo *activityRepository) QueryUserActivities(_ context.Context, userID string) ([]activity.Activity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	acts := make([]activity.Activity, 0)
	for _, a := range newestFirst(repo.db.activities, func(a *activity.Activity) time.Time { return a.CreatedAt }) {
		if a.UserID == userID {
			acts = append(acts, a)
		}
	}
	return acts, nil
}

func (repo *activityRepository) QueryActivities(_ context.Context, filter activity.QueryFilter, ordering []core.DBOrdering) ([]activity.Activity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	acts := make([]activity.Activity, 0)
	for _, a := range newestFirst(repo.db.activities, func(a *activity.Activity) time.Time { return a.CreatedAt }) {
		if (filter.Status != "" && a.Status != filter.Status) ||
			(filter.Type != "" && a.Type != filter.Type) ||
			(filter.UserID != "" && a.UserID != filter.UserID) {
			continue
		}
		acts = append(acts, repo.withOwner(a))
	}

	if len(ordering) > 0 {
		sort.SliceStable(acts, func(i, j int) bool {
			for _, ord := range ordering {
				c := compareActivities(acts[i], acts[j], ord.Field)
				if c == 0 {
					continue
				}
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	return acts, nil
}

func compareActivities(a, b activity.Activity, field string) int {
	var x, y int64
	switch field {
	case "hours":
		x, y = int64(a.Hours), int64(b.Hours)
	case "startDate":
		x, y = a.StartDate.UnixNano(), b.StartDate.UnixNano()
	default:
		x, y = a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano()
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func (repo *activityRepository) ReviewActivity(_ context.Context, id string, status activity.Status, reviewerID, reason string, at time.Time) (activity.Activity, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a := repo.find(id)
	if a == nil {
		return activity.Activity{}, activity.ErrNotFound
	}
	if a.Status != activity.StatusSubmitted {
		return activity.Activity{}, activity.ErrAlreadyReviewed
	}
	a.Status = status
	a.RejectionReason = reason
	a.ReviewedBy = reviewerID
	a.ReviewedAt = &at
	return repo.withOwner(*a), nil
}
