package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
)

var (
	// errors
	ErrNotFound         = errors.New("not enrolled")
	ErrAlreadyEnrolled  = errors.New("already enrolled")
	ErrAlreadyCompleted = errors.New("already completed")
)

type (
	Repository interface {
		// CreateEnrollment returns ErrAlreadyEnrolled when the user is already enrolled in the course.
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		QueryUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error)
		UpdateEnrollmentProgress(ctx context.Context, id string, completedLessons []string, progress int) (Enrollment, error)
		// CompleteEnrollment marks the enrollment completed only if it is not already.
		// Returns ErrAlreadyCompleted when another call won.
		CompleteEnrollment(ctx context.Context, id string, at time.Time) (Enrollment, error)
		// ReopenEnrollment undoes a completion, restoring the progress it had before.
		ReopenEnrollment(ctx context.Context, id string, progress int) error

		// UpsertLessonProgress marks the lesson completed for the user, refreshing completedAt.
		UpsertLessonProgress(ctx context.Context, lp LessonProgress) (LessonProgress, error)
		// QueryLessonProgress returns the user's progress rows for the lessons of a course.
		QueryLessonProgress(ctx context.Context, userID, courseID string) ([]LessonProgress, error)
	}

	CourseService interface {
		Find(ctx context.Context, id string) (course.Course, error)
		GetLesson(ctx context.Context, id string) (course.Lesson, error)
		QueryLessons(ctx context.Context, courseID string) ([]course.Lesson, error)
	}

	Issuer interface {
		Issue(ctx context.Context, nc certificate.NewCertificate) (certificate.Certificate, error)
	}

	Service struct {
		repo    Repository
		courses CourseService
		issuer  Issuer
		audit   audit.Recorder
	}
)

func NewService(repo Repository, courses CourseService, issuer Issuer, recorder audit.Recorder) *Service {
	return &Service{repo: repo, courses: courses, issuer: issuer, audit: recorder}
}

func (svc *Service) QueryByUser(ctx context.Context, userID string) ([]Enrollment, error) {
	return svc.repo.QueryUserEnrollments(ctx, userID)
}

func (svc *Service) Enroll(ctx context.Context, userID string, ne NewEnrollment) (Enrollment, error) {
	if _, err := svc.courses.Find(ctx, ne.CourseID); err != nil {
		return Enrollment{}, err
	}
	if _, err := svc.repo.GetEnrollment(ctx, userID, ne.CourseID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if errors.Cause(err) != ErrNotFound {
		return Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		ID:               uuid.NewString(),
		UserID:           userID,
		CourseID:         ne.CourseID,
		CompletedLessons: []string{},
		EnrolledAt:       time.Now().UTC(),
	})
}

// CompleteLesson records the lesson as completed. When the user is enrolled in its course,
// the enrollment progress follows.
func (svc *Service) CompleteLesson(ctx context.Context, userID, lessonID string) (LessonProgress, error) {
	lesson, err := svc.courses.GetLesson(ctx, lessonID)
	if err != nil {
		return LessonProgress{}, err
	}

	now := time.Now().UTC()
	lp, err := svc.repo.UpsertLessonProgress(ctx, LessonProgress{
		ID:          uuid.NewString(),
		UserID:      userID,
		LessonID:    lesson.ID,
		Completed:   true,
		CompletedAt: &now,
	})
	if err != nil {
		return LessonProgress{}, errors.Wrap(err, "upserting lesson progress")
	}

	enr, err := svc.repo.GetEnrollment(ctx, userID, lesson.CourseID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return lp, nil
		}
		return LessonProgress{}, errors.Wrap(err, "getting enrollment")
	}
	if enr.IsCompleted || enr.HasCompletedLesson(lesson.ID) {
		return lp, nil
	}

	lessons, err := svc.courses.QueryLessons(ctx, lesson.CourseID)
	if err != nil {
		return LessonProgress{}, errors.Wrap(err, "querying lessons")
	}
	completed := append(append([]string{}, enr.CompletedLessons...), lesson.ID)
	if _, err = svc.repo.UpdateEnrollmentProgress(ctx, enr.ID, completed, lessonProgress(len(completed), len(lessons))); err != nil {
		return LessonProgress{}, errors.Wrap(err, "updating enrollment progress")
	}
	return lp, nil
}

func (svc *Service) Progress(ctx context.Context, userID, courseID string) ([]LessonProgress, error) {
	return svc.repo.QueryLessonProgress(ctx, userID, courseID)
}

// CompleteCourse completes the user's enrollment and issues its certificate.
// Concurrent calls complete the enrollment once; the losers get ErrAlreadyCompleted and issue nothing.
// A failed issuance reopens the enrollment.
func (svc *Service) CompleteCourse(ctx context.Context, userID, courseID string) (Completion, error) {
	enr, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return Completion{}, err
	}
	if enr.IsCompleted {
		return Completion{}, ErrAlreadyCompleted
	}
	c, err := svc.courses.Find(ctx, courseID)
	if err != nil {
		return Completion{}, err
	}

	prevProgress := enr.Progress
	enr, err = svc.repo.CompleteEnrollment(ctx, enr.ID, time.Now().UTC())
	if err != nil {
		return Completion{}, err
	}

	titleAr, titleEn := certificate.CompletionTitles(c.TitleAr, c.TitleEn)
	cert, err := svc.issuer.Issue(ctx, certificate.NewCertificate{
		UserID:   userID,
		CourseID: c.ID,
		Type:     certificate.TypeCourseCompletion,
		TitleAr:  titleAr,
		TitleEn:  titleEn,
	})
	if err != nil {
		// the completion only stands with its certificate, so the caller can retry
		if rerr := svc.repo.ReopenEnrollment(context.Background(), enr.ID, prevProgress); rerr != nil {
			return Completion{}, errors.Wrapf(err, "issuing certificate (reopening enrollment: %v)", rerr)
		}
		return Completion{}, errors.Wrap(err, "issuing certificate")
	}

	svc.audit.Record(userID, audit.ActionCourseCompleted, audit.EntityCourse, c.ID,
		audit.Details{"certificateId": cert.ID})
	svc.audit.Record(userID, audit.ActionCertificateIssued, audit.EntityCertificate, cert.ID,
		audit.Details{"courseId": c.ID, "type": cert.Type})
	return Completion{Enrollment: enr, Certificate: cert}, nil
}
