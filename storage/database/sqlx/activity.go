package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/activity"
)

type activityRepository struct {
	exec core.DBExecutor
}

var _ activity.Repository = (*activityRepository)(nil) // interface compliance check

func NewActivityRepository(exec core.DBExecutor) *activityRepository {
	return &activityRepository{exec: exec}
}

type activityRow struct {
	ID              string      `db:"id"`
	UserID          string      `db:"user_id"`
	Type            string      `db:"type"`
	NameAr          string      `db:"name_ar"`
	NameEn          null.String `db:"name_en"`
	Organization    string      `db:"organization"`
	Hours           int         `db:"hours"`
	StartDate       time.Time   `db:"start_date"`
	EndDate         null.Time   `db:"end_date"`
	DescriptionAr   null.String `db:"description_ar"`
	DescriptionEn   null.String `db:"description_en"`
	CertificateURL  null.String `db:"certificate_url"`
	Status          string      `db:"status"`
	RejectionReason null.String `db:"rejection_reason"`
	ReviewedBy      null.String `db:"reviewed_by"`
	ReviewedAt      null.Time   `db:"reviewed_at"`
	CreatedAt       time.Time   `db:"created_at"`
	FirstName       null.String `db:"first_name"`
	LastName        null.String `db:"last_name"`
	Email           null.String `db:"email"`
}

const activityColumns = `a.id, a.user_id, a.type, a.name_ar, a.name_en, a.organization, a.hours, a.start_date,
	a.end_date, a.description_ar, a.description_en, a.certificate_url, a.status, a.rejection_reason,
	a.reviewed_by, a.reviewed_at, a.created_at`

const selectActivitiesWithOwner = `SELECT ` + activityColumns + `, u.first_name, u.last_name, u.email
	FROM activities a
	LEFT JOIN users u ON u.id = a.user_id`

func (r activityRow) toActivity() activity.Activity {
	act := activity.Activity{
		ID:              r.ID,
		UserID:          r.UserID,
		Type:            activity.Type(r.Type),
		NameAr:          r.NameAr,
		NameEn:          r.NameEn.String,
		Organization:    r.Organization,
		Hours:           r.Hours,
		StartDate:       r.StartDate.UTC(),
		DescriptionAr:   r.DescriptionAr.String,
		DescriptionEn:   r.DescriptionEn.String,
		CertificateURL:  r.CertificateURL.String,
		Status:          activity.Status(r.Status),
		RejectionReason: r.RejectionReason.String,
		ReviewedBy:      r.ReviewedBy.String,
		CreatedAt:       r.CreatedAt.UTC(),
		UserName:        core.FullName(r.FirstName.String, r.LastName.String),
		UserEmail:       r.Email.String,
	}
	if r.EndDate.Valid {
		t := r.EndDate.Time.UTC()
		act.EndDate = &t
	}
	if r.ReviewedAt.Valid {
		t := r.ReviewedAt.Time.UTC()
		act.ReviewedAt = &t
	}
	return act
}

func (repo *activityRepository) CreateActivity(ctx context.Context, act activity.Activity) (activity.Activity, error) {
	_, err := repo.exec.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, type, name_ar, name_en, organization, hours, start_date, end_date,
			description_ar, description_en, certificate_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		act.ID, act.UserID, string(act.Type), act.NameAr, nullString(act.NameEn), act.Organization, act.Hours,
		act.StartDate, nullTime(act.EndDate), nullString(act.DescriptionAr), nullString(act.DescriptionEn),
		nullString(act.CertificateURL), string(act.Status), act.CreatedAt)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "inserting activity")
	}
	return act, nil
}

func (repo *activityRepository) GetActivity(ctx context.Context, id string) (activity.Activity, error) {
	var row activityRow
	if err := repo.exec.GetContext(ctx, &row, selectActivitiesWithOwner+` WHERE a.id = $1`, id); err != nil {
		return activity.Activity{}, trapNoRowsErr(err, activity.ErrNotFound, "getting activity")
	}
	return row.toActivity(), nil
}

func (repo *activityRepository) selectActivities(ctx context.Context, query string, args ...interface{}) ([]activity.Activity, error) {
	var rows []activityRow
	if err := repo.exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying activities")
	}
	acts := make([]activity.Activity, 0, len(rows))
	for _, r := range rows {
		acts = append(acts, r.toActivity())
	}
	return acts, nil
}

func (repo *activityRepository) QueryUserActivities(ctx context.Context, userID string) ([]activity.Activity, error) {
	acts, err := repo.selectActivities(ctx,
		selectActivitiesWithOwner+` WHERE a.user_id = $1 ORDER BY a.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	// owners only see their own records
	for i := range acts {
		acts[i].UserName, acts[i].UserEmail = "", ""
	}
	return acts, nil
}

func (repo *activityRepository) QueryActivities(ctx context.Context, filter activity.QueryFilter, ordering []core.DBOrdering) ([]activity.Activity, error) {
	var (
		where []string
		args  []interface{}
	)
	addFilter := func(col string, val string) {
		if val != "" {
			args = append(args, val)
			where = append(where, col+" = ?")
		}
	}
	addFilter("a.status", string(filter.Status))
	addFilter("a.type", string(filter.Type))
	addFilter("a.user_id", filter.UserID)

	q := selectActivitiesWithOwner
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	orderBy := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := activity.OrderingFields[ord.Field]; ok {
			orderBy = append(orderBy, core.DBOrdering{Field: "a." + col, Ascending: ord.Ascending}.String())
		}
	}
	orderBy = append(orderBy, "a.created_at DESC")
	q += " ORDER BY " + strings.Join(orderBy, ", ")

	return repo.selectActivities(ctx, repo.exec.Rebind(q), args...)
}

func (repo *activityRepository) ReviewActivity(ctx context.Context, id string, status activity.Status, reviewerID, reason string, at time.Time) (activity.Activity, error) {
	res, err := repo.exec.ExecContext(ctx, `
		UPDATE activities SET status = $2, rejection_reason = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1 AND status = 'submitted'`,
		id, string(status), nullString(reason), reviewerID, at)
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "reviewing activity")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return activity.Activity{}, errors.Wrap(err, "reviewing activity")
	}

	act, err := repo.GetActivity(ctx, id)
	if err != nil {
		return activity.Activity{}, err
	}
	if n == 0 {
		return activity.Activity{}, activity.ErrAlreadyReviewed
	}
	return act, nil
}
