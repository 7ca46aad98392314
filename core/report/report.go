// Package report provides the read-only aggregates shown to supervisors.
package report

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
)

// Placeholder replaces a missing name or major in report rows.
const Placeholder = "—"

type (
	Stats struct {
		TotalStudents   int `json:"totalStudents"`
		TotalActivities int `json:"totalActivities"`
		TotalApproved   int `json:"totalApproved"`
		TotalCourses    int `json:"totalCourses"`
	}

	StudentHours struct {
		UserID             string `json:"userId"`
		UserName           string `json:"userName"`
		Major              string `json:"major"`
		TotalHours         int    `json:"totalHours"`
		ApprovedActivities int    `json:"approvedActivities"`
	}

	MajorCount struct {
		Major string `json:"major"`
		Count int    `json:"count"`
	}

	CourseCompletions struct {
		CourseID       string `json:"courseId"`
		CourseName     string `json:"courseName"`
		CompletedCount int    `json:"completedCount"`
	}

	ActivityTypeTotals struct {
		Type       string `json:"type"`
		Count      int    `json:"count"`
		TotalHours int    `json:"totalHours"`
	}
)

type (
	Repository interface {
		GetStats(ctx context.Context) (Stats, error)
		// QueryHoursByStudent covers every profile. Only approved activities are counted.
		QueryHoursByStudent(ctx context.Context) ([]StudentHours, error)
		QueryStudentsByMajor(ctx context.Context) ([]MajorCount, error)
		// QueryCompletedCourses covers every course, named by its Arabic title.
		QueryCompletedCourses(ctx context.Context) ([]CourseCompletions, error)
		QueryApprovedActivities(ctx context.Context) ([]ActivityTypeTotals, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func orPlaceholder(s string) string {
	if s = core.CleanString(s); s == "" {
		return Placeholder
	}
	return s
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	stats, err := svc.repo.GetStats(ctx)
	return stats, errors.Wrap(err, "getting stats")
}

func (svc *Service) HoursByStudent(ctx context.Context) ([]StudentHours, error) {
	rows, err := svc.repo.QueryHoursByStudent(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying hours by student")
	}
	for i := range rows {
		rows[i].UserName = orPlaceholder(rows[i].UserName)
		rows[i].Major = orPlaceholder(rows[i].Major)
	}
	return rows, nil
}

// StudentsByMajor merges the profiles without a major into a single placeholder row.
func (svc *Service) StudentsByMajor(ctx context.Context) ([]MajorCount, error) {
	rows, err := svc.repo.QueryStudentsByMajor(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying students by major")
	}
	merged := make([]MajorCount, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, r := range rows {
		r.Major = orPlaceholder(r.Major)
		if i, ok := index[r.Major]; ok {
			merged[i].Count += r.Count
			continue
		}
		index[r.Major] = len(merged)
		merged = append(merged, r)
	}
	return merged, nil
}

func (svc *Service) CompletedCourses(ctx context.Context) ([]CourseCompletions, error) {
	rows, err := svc.repo.QueryCompletedCourses(ctx)
	return rows, errors.Wrap(err, "querying completed courses")
}

func (svc *Service) ApprovedActivities(ctx context.Context) ([]ActivityTypeTotals, error) {
	rows, err := svc.repo.QueryApprovedActivities(ctx)
	return rows, errors.Wrap(err, "querying approved activities")
}
