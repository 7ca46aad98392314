package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/report"
)

type reportRepository struct {
	exec core.DBExecutor
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(exec core.DBExecutor) *reportRepository {
	return &reportRepository{exec: exec}
}

func (repo *reportRepository) GetStats(ctx context.Context) (report.Stats, error) {
	var stats report.Stats
	err := repo.exec.QueryRowxContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM student_profiles WHERE role = 'student'),
			(SELECT COUNT(*) FROM activities),
			(SELECT COUNT(*) FROM activities WHERE status = 'approved'),
			(SELECT COUNT(*) FROM courses)`).
		Scan(&stats.TotalStudents, &stats.TotalActivities, &stats.TotalApproved, &stats.TotalCourses)
	if err != nil {
		return report.Stats{}, errors.Wrap(err, "getting stats")
	}
	return stats, nil
}

func (repo *reportRepository) QueryHoursByStudent(ctx context.Context) ([]report.StudentHours, error) {
	var rows []struct {
		UserID             string      `db:"user_id"`
		FirstName          null.String `db:"first_name"`
		LastName           null.String `db:"last_name"`
		Major              null.String `db:"major"`
		TotalHours         int         `db:"total_hours"`
		ApprovedActivities int         `db:"approved_activities"`
	}
	err := repo.exec.SelectContext(ctx, &rows, `
		SELECT p.user_id, u.first_name, u.last_name, p.major,
			COALESCE(SUM(a.hours), 0) AS total_hours, COUNT(a.id) AS approved_activities
		FROM student_profiles p
		LEFT JOIN users u ON u.id = p.user_id
		LEFT JOIN activities a ON a.user_id = p.user_id AND a.status = 'approved'
		GROUP BY p.user_id, u.first_name, u.last_name, p.major, p.created_at
		ORDER BY p.created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying hours by student")
	}
	hours := make([]report.StudentHours, 0, len(rows))
	for _, r := range rows {
		hours = append(hours, report.StudentHours{
			UserID:             r.UserID,
			UserName:           core.FullName(r.FirstName.String, r.LastName.String),
			Major:              r.Major.String,
			TotalHours:         r.TotalHours,
			ApprovedActivities: r.ApprovedActivities,
		})
	}
	return hours, nil
}

func (repo *reportRepository) QueryStudentsByMajor(ctx context.Context) ([]report.MajorCount, error) {
	var rows []struct {
		Major null.String `db:"major"`
		Count int         `db:"count"`
	}
	err := repo.exec.SelectContext(ctx, &rows, `
		SELECT major, COUNT(*) AS count
		FROM student_profiles
		GROUP BY major
		ORDER BY MIN(created_at)`)
	if err != nil {
		return nil, errors.Wrap(err, "querying students by major")
	}
	counts := make([]report.MajorCount, 0, len(rows))
	for _, r := range rows {
		counts = append(counts, report.MajorCount{Major: r.Major.String, Count: r.Count})
	}
	return counts, nil
}

func (repo *reportRepository) QueryCompletedCourses(ctx context.Context) ([]report.CourseCompletions, error) {
	var rows []struct {
		CourseID       string `db:"course_id"`
		CourseName     string `db:"course_name"`
		CompletedCount int    `db:"completed_count"`
	}
	err := repo.exec.SelectContext(ctx, &rows, `
		SELECT c.id AS course_id, c.title_ar AS course_name,
			COUNT(e.id) FILTER (WHERE e.is_completed) AS completed_count
		FROM courses c
		LEFT JOIN course_enrollments e ON e.course_id = c.id
		GROUP BY c.id, c.title_ar, c.created_at
		ORDER BY c.created_at`)
	if err != nil {
		return nil, errors.Wrap(err, "querying completed courses")
	}
	completions := make([]report.CourseCompletions, 0, len(rows))
	for _, r := range rows {
		completions = append(completions, report.CourseCompletions(r))
	}
	return completions, nil
}

func (repo *reportRepository) QueryApprovedActivities(ctx context.Context) ([]report.ActivityTypeTotals, error) {
	var rows []struct {
		Type       string `db:"type"`
		Count      int    `db:"count"`
		TotalHours int    `db:"total_hours"`
	}
	err := repo.exec.SelectContext(ctx, &rows, `
		SELECT type, COUNT(*) AS count, COALESCE(SUM(hours), 0) AS total_hours
		FROM activities
		WHERE status = 'approved'
		GROUP BY type
		ORDER BY MIN(created_at)`)
	if err != nil {
		return nil, errors.Wrap(err, "querying approved activities")
	}
	totals := make([]report.ActivityTypeTotals, 0, len(rows))
	for _, r := range rows {
		totals = append(totals, report.ActivityTypeTotals{Type: r.Type, Count: r.Count, TotalHours: r.TotalHours})
	}
	return totals, nil
}
