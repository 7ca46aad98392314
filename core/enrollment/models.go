package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/certificate"
)

type Enrollment struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	CourseID         string     `json:"courseId"`
	Progress         int        `json:"progress"`
	CompletedLessons []string   `json:"completedLessons"`
	IsCompleted      bool       `json:"isCompleted"`
	CompletedAt      *time.Time `json:"completedAt"`
	EnrolledAt       time.Time  `json:"enrolledAt"`
}

// HasCompletedLesson reports whether the lesson is already counted in the enrollment's progress.
func (e Enrollment) HasCompletedLesson(lessonID string) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

type LessonProgress struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	LessonID    string     `json:"lessonId"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
}

type NewEnrollment struct {
	CourseID string `json:"courseId" validate:"required"`
}

func (ne *NewEnrollment) Validate(validate *validator.Validate) error {
	ne.CourseID = core.CleanString(ne.CourseID)
	return validate.Struct(ne)
}

// Completion is the outcome of completing a course.
type Completion struct {
	Enrollment  Enrollment              `json:"enrollment"`
	Certificate certificate.Certificate `json:"certificate"`
}

// maxProgressBeforeCompletion keeps an enrollment below 100% until the course is explicitly completed.
const maxProgressBeforeCompletion = 99

func lessonProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	p := (completed*100 + total/2) / total
	if p > maxProgressBeforeCompletion {
		p = maxProgressBeforeCompletion
	}
	return p
}
