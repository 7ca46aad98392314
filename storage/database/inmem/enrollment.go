package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/sejali/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func copyEnrollment(e enrollment.Enrollment) enrollment.Enrollment {
	e.CompletedLessons = copyStrings(e.CompletedLessons)
	e.CompletedAt = copyTime(e.CompletedAt)
	return e
}

func copyLessonProgress(lp enrollment.LessonProgress) enrollment.LessonProgress {
	lp.CompletedAt = copyTime(lp.CompletedAt)
	return lp
}

func (repo *enrollmentRepository) find(id string) *enrollment.Enrollment {
	for _, e := range repo.db.enrollments {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, ex := range repo.db.enrollments {
		if ex.UserID == e.UserID && ex.CourseID == e.CourseID {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
	}
	e = copyEnrollment(e)
	repo.db.enrollments = append(repo.db.enrollments, &e)
	return copyEnrollment(e), nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, userID, courseID string) (enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, e := range repo.db.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return copyEnrollment(*e), nil
		}
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) QueryUserEnrollments(_ context.Context, userID string) ([]enrollment.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrs := make([]enrollment.Enrollment, 0)
	for _, e := range newestFirst(repo.db.enrollments, func(e *enrollment.Enrollment) time.Time { return e.EnrolledAt }) {
		if e.UserID == userID {
			enrs = append(enrs, copyEnrollment(e))
		}
	}
	return enrs, nil
}

func (repo *enrollmentRepository) UpdateEnrollmentProgress(_ context.Context, id string, completedLessons []string, progress int) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e := repo.find(id)
	if e == nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	e.CompletedLessons = copyStrings(completedLessons)
	e.Progress = progress
	return copyEnrollment(*e), nil
}

func (repo *enrollmentRepository) CompleteEnrollment(_ context.Context, id string, at time.Time) (enrollment.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e := repo.find(id)
	if e == nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	if e.IsCompleted {
		return enrollment.Enrollment{}, enrollment.ErrAlreadyCompleted
	}
	e.IsCompleted = true
	e.Progress = 100
	e.CompletedAt = &at
	return copyEnrollment(*e), nil
}

func (repo *enrollmentRepository) ReopenEnrollment(_ context.Context, id string, progress int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e := repo.find(id)
	if e == nil {
		return enrollment.ErrNotFound
	}
	e.IsCompleted = false
	e.Progress = progress
	e.CompletedAt = nil
	return nil
}

func (repo *enrollmentRepository) UpsertLessonProgress(_ context.Context, lp enrollment.LessonProgress) (enrollment.LessonProgress, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	lp.CompletedAt = copyTime(lp.CompletedAt)
	for _, ex := range repo.db.progress {
		if ex.UserID == lp.UserID && ex.LessonID == lp.LessonID {
			ex.Completed = lp.Completed
			ex.CompletedAt = lp.CompletedAt
			return copyLessonProgress(*ex), nil
		}
	}
	repo.db.progress = append(repo.db.progress, &lp)
	return copyLessonProgress(lp), nil
}

func (repo *enrollmentRepository) QueryLessonProgress(_ context.Context, userID, courseID string) ([]enrollment.LessonProgress, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	lessonIDs := make(map[string]bool)
	for _, l := range repo.db.lessons {
		if l.CourseID == courseID {
			lessonIDs[l.ID] = true
		}
	}
	rows := make([]enrollment.LessonProgress, 0)
	for _, lp := range repo.db.progress {
		if lp.UserID == userID && lessonIDs[lp.LessonID] {
			rows = append(rows, copyLessonProgress(*lp))
		}
	}
	return rows, nil
}
