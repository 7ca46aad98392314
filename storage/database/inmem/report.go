package inmemdb

import (
	"context"

	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/report"
	"github.com/trezcool/sejali/core/user"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) GetStats(_ context.Context) (report.Stats, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var stats report.Stats
	for _, p := range repo.db.profiles {
		if p.Role == user.RoleStudent {
			stats.TotalStudents++
		}
	}
	stats.TotalActivities = len(repo.db.activities)
	for _, a := range repo.db.activities {
		if a.Status == activity.StatusApproved {
			stats.TotalApproved++
		}
	}
	stats.TotalCourses = len(repo.db.courses)
	return stats, nil
}

func (repo *reportRepository) QueryHoursByStudent(_ context.Context) ([]report.StudentHours, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]report.StudentHours, 0, len(repo.db.profiles))
	for _, p := range repo.db.profiles {
		row := report.StudentHours{UserID: p.UserID, UserName: repo.db.userName(p.UserID), Major: p.Major}
		for _, a := range repo.db.activities {
			if a.UserID == p.UserID && a.Status == activity.StatusApproved {
				row.TotalHours += a.Hours
				row.ApprovedActivities++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (repo *reportRepository) QueryStudentsByMajor(_ context.Context) ([]report.MajorCount, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]report.MajorCount, 0)
	index := make(map[string]int)
	for _, p := range repo.db.profiles {
		if i, ok := index[p.Major]; ok {
			rows[i].Count++
			continue
		}
		index[p.Major] = len(rows)
		rows = append(rows, report.MajorCount{Major: p.Major, Count: 1})
	}
	return rows, nil
}

func (repo *reportRepository) QueryCompletedCourses(_ context.Context) ([]report.CourseCompletions, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]report.CourseCompletions, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		row := report.CourseCompletions{CourseID: c.ID, CourseName: c.TitleAr}
		for _, e := range repo.db.enrollments {
			if e.CourseID == c.ID && e.IsCompleted {
				row.CompletedCount++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (repo *reportRepository) QueryApprovedActivities(_ context.Context) ([]report.ActivityTypeTotals, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]report.ActivityTypeTotals, 0)
	index := make(map[activity.Type]int)
	for _, a := range repo.db.activities {
		if a.Status != activity.StatusApproved {
			continue
		}
		i, ok := index[a.Type]
		if !ok {
			i = len(rows)
			index[a.Type] = i
			rows = append(rows, report.ActivityTypeTotals{Type: string(a.Type)})
		}
		rows[i].Count++
		rows[i].TotalHours += a.Hours
	}
	return rows, nil
}
