package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/enrollment"
)

type enrollmentRepository struct {
	exec core.DBExecutor
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{exec: exec}
}

type (
	enrollmentRow struct {
		ID               string         `db:"id"`
		UserID           string         `db:"user_id"`
		CourseID         string         `db:"course_id"`
		Progress         int            `db:"progress"`
		CompletedLessons pq.StringArray `db:"completed_lessons"`
		IsCompleted      bool           `db:"is_completed"`
		CompletedAt      null.Time      `db:"completed_at"`
		EnrolledAt       time.Time      `db:"enrolled_at"`
	}

	lessonProgressRow struct {
		ID          string    `db:"id"`
		UserID      string    `db:"user_id"`
		LessonID    string    `db:"lesson_id"`
		Completed   bool      `db:"completed"`
		CompletedAt null.Time `db:"completed_at"`
	}
)

const (
	enrollmentColumns     = `id, user_id, course_id, progress, completed_lessons, is_completed, completed_at, enrolled_at`
	lessonProgressColumns = `id, user_id, lesson_id, completed, completed_at`
)

func (r enrollmentRow) toEnrollment() enrollment.Enrollment {
	e := enrollment.Enrollment{
		ID:               r.ID,
		UserID:           r.UserID,
		CourseID:         r.CourseID,
		Progress:         r.Progress,
		CompletedLessons: []string(r.CompletedLessons),
		IsCompleted:      r.IsCompleted,
		EnrolledAt:       r.EnrolledAt.UTC(),
	}
	if e.CompletedLessons == nil {
		e.CompletedLessons = make([]string, 0)
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time.UTC()
		e.CompletedAt = &t
	}
	return e
}

func (r lessonProgressRow) toLessonProgress() enrollment.LessonProgress {
	lp := enrollment.LessonProgress{
		ID:        r.ID,
		UserID:    r.UserID,
		LessonID:  r.LessonID,
		Completed: r.Completed,
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time.UTC()
		lp.CompletedAt = &t
	}
	return lp
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	lessons := e.CompletedLessons
	if lessons == nil {
		lessons = make([]string, 0)
	}
	_, err := repo.exec.ExecContext(ctx, `INSERT INTO course_enrollments (`+enrollmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.CourseID, e.Progress, pq.StringArray(lessons), e.IsCompleted, nullTime(e.CompletedAt),
		e.EnrolledAt)
	if err != nil {
		if isUniqueViolation(err) {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	e.CompletedLessons = lessons
	return e, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, userID, courseID string) (enrollment.Enrollment, error) {
	var row enrollmentRow
	err := repo.exec.GetContext(ctx, &row,
		`SELECT `+enrollmentColumns+` FROM course_enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "getting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollmentRepository) QueryUserEnrollments(ctx context.Context, userID string) ([]enrollment.Enrollment, error) {
	var rows []enrollmentRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT `+enrollmentColumns+` FROM course_enrollments WHERE user_id = $1 ORDER BY enrolled_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]enrollment.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, r.toEnrollment())
	}
	return enrs, nil
}

func (repo *enrollmentRepository) UpdateEnrollmentProgress(ctx context.Context, id string, completedLessons []string, progress int) (enrollment.Enrollment, error) {
	if completedLessons == nil {
		completedLessons = make([]string, 0)
	}
	var row enrollmentRow
	err := repo.exec.GetContext(ctx, &row, `
		UPDATE course_enrollments SET completed_lessons = $2, progress = $3
		WHERE id = $1
		RETURNING `+enrollmentColumns, id, pq.StringArray(completedLessons), progress)
	if err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "updating enrollment progress")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollmentRepository) CompleteEnrollment(ctx context.Context, id string, at time.Time) (enrollment.Enrollment, error) {
	var row enrollmentRow
	err := repo.exec.GetContext(ctx, &row, `
		UPDATE course_enrollments SET is_completed = true, progress = 100, completed_at = $2
		WHERE id = $1 AND is_completed = false
		RETURNING `+enrollmentColumns, id, at)
	if err == nil {
		return row.toEnrollment(), nil
	}
	if errors.Cause(err) != sql.ErrNoRows {
		return enrollment.Enrollment{}, errors.Wrap(err, "completing enrollment")
	}

	// nothing updated: either the enrollment is gone or another call completed it first
	var exists bool
	if err := repo.exec.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM course_enrollments WHERE id = $1)`, id); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "checking enrollment")
	}
	if !exists {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return enrollment.Enrollment{}, enrollment.ErrAlreadyCompleted
}

func (repo *enrollmentRepository) ReopenEnrollment(ctx context.Context, id string, progress int) error {
	res, err := repo.exec.ExecContext(ctx, `
		UPDATE course_enrollments SET is_completed = false, progress = $2, completed_at = NULL
		WHERE id = $1 AND is_completed = true`, id, progress)
	if err != nil {
		return errors.Wrap(err, "reopening enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}

func (repo *enrollmentRepository) UpsertLessonProgress(ctx context.Context, lp enrollment.LessonProgress) (enrollment.LessonProgress, error) {
	if lp.ID == "" {
		lp.ID = uuid.NewString()
	}
	var row lessonProgressRow
	err := repo.exec.GetContext(ctx, &row, `
		INSERT INTO lesson_progress (`+lessonProgressColumns+`)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET completed = EXCLUDED.completed, completed_at = EXCLUDED.completed_at
		RETURNING `+lessonProgressColumns,
		lp.ID, lp.UserID, lp.LessonID, lp.Completed, nullTime(lp.CompletedAt))
	if err != nil {
		return enrollment.LessonProgress{}, errors.Wrap(err, "upserting lesson progress")
	}
	return row.toLessonProgress(), nil
}

func (repo *enrollmentRepository) QueryLessonProgress(ctx context.Context, userID, courseID string) ([]enrollment.LessonProgress, error) {
	var rows []lessonProgressRow
	err := repo.exec.SelectContext(ctx, &rows, `
		SELECT lp.id, lp.user_id, lp.lesson_id, lp.completed, lp.completed_at
		FROM lesson_progress lp
		JOIN lessons l ON l.id = lp.lesson_id
		WHERE lp.user_id = $1 AND l.course_id = $2
		ORDER BY l.order_index, l.id`, userID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying lesson progress")
	}
	progress := make([]enrollment.LessonProgress, 0, len(rows))
	for _, r := range rows {
		progress = append(progress, r.toLessonProgress())
	}
	return progress, nil
}
