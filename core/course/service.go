package course

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrSubmissionNotFound = errors.New("project not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses returns the courses newest first.
		QueryCourses(ctx context.Context, publishedOnly bool) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// DeleteCourse removes the course and everything that hangs off it in one transaction.
		// Certificates of the course are kept, detached from it.
		DeleteCourse(ctx context.Context, id string) error

		CreateLesson(ctx context.Context, l Lesson) (Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		// QueryLessons returns the lessons of a course by (orderIndex, id).
		QueryLessons(ctx context.Context, courseID string) ([]Lesson, error)
		// DeleteLesson removes the lesson with its progress rows and strips it from the enrollments.
		DeleteLesson(ctx context.Context, id string) error

		CreateQuiz(ctx context.Context, q Quiz) (Quiz, error)
		GetQuiz(ctx context.Context, id string) (Quiz, error)
		QueryQuizzes(ctx context.Context, courseID string) ([]Quiz, error)

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		// QueryQuestions returns the questions of a quiz by (orderIndex, id).
		// Attempts are scored against this order, so it must be stable.
		QueryQuestions(ctx context.Context, quizID string) ([]Question, error)

		CreateAttempt(ctx context.Context, a Attempt) (Attempt, error)
		// QueryUserAttempts returns the attempts newest first.
		QueryUserAttempts(ctx context.Context, quizID, userID string) ([]Attempt, error)

		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		// QuerySubmissions returns the submissions of a course with the submitter's name, newest first.
		QuerySubmissions(ctx context.Context, courseID string) ([]Submission, error)
		GradeSubmission(ctx context.Context, id string, grade int, feedback, reviewerID string, at time.Time) (Submission, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Score grades answers against questions by position. Extra answers are ignored and missing ones are wrong.
// A quiz without questions scores 0.
func Score(questions []Question, answers []int, passingScore int) (score int, passed bool) {
	if len(questions) == 0 {
		return 0, passingScore <= 0
	}
	var correct int
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectAnswer {
			correct++
		}
	}
	score = int(math.Round(float64(correct) / float64(len(questions)) * 100))
	return score, score >= passingScore
}

// Courses

func (svc *Service) QueryPublished(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, true)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, false)
}

// Get returns the course. Unpublished courses only exist for trainers.
func (svc *Service) Get(ctx context.Context, caps user.Capabilities, id string) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !c.IsPublished && !caps.IsTrainer() {
		return Course{}, ErrNotFound
	}
	return c, nil
}

// Find returns the course regardless of its publication.
func (svc *Service) Find(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Create(ctx context.Context, instructorID string, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	c := Course{
		ID:            uuid.NewString(),
		TitleAr:       nc.TitleAr,
		TitleEn:       nc.TitleEn,
		DescriptionAr: nc.DescriptionAr,
		DescriptionEn: nc.DescriptionEn,
		Category:      nc.Category,
		Duration:      nc.Duration,
		InstructorID:  instructorID,
		ImageURL:      nc.ImageURL,
		IsPublished:   true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if nc.IsPublished != nil {
		c.IsPublished = *nc.IsPublished
	}
	return svc.repo.CreateCourse(ctx, c)
}

func (svc *Service) Update(ctx context.Context, id string, cu CourseUpdate) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	cu.apply(&c)
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetCourse(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteCourse(ctx, id), "deleting course")
}

// Lessons

func (svc *Service) QueryLessons(ctx context.Context, courseID string) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, courseID)
}

func (svc *Service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

func (svc *Service) CreateLesson(ctx context.Context, courseID string, nl NewLesson) (Lesson, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Lesson{}, err
	}
	return svc.repo.CreateLesson(ctx, Lesson{
		ID:              uuid.NewString(),
		CourseID:        courseID,
		TitleAr:         nl.TitleAr,
		TitleEn:         nl.TitleEn,
		ContentAr:       nl.ContentAr,
		ContentEn:       nl.ContentEn,
		VideoURL:        nl.VideoURL,
		OrderIndex:      nl.OrderIndex,
		DurationMinutes: nl.DurationMinutes,
		CreatedAt:       time.Now().UTC(),
	})
}

func (svc *Service) DeleteLesson(ctx context.Context, id string) error {
	if _, err := svc.repo.GetLesson(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteLesson(ctx, id), "deleting lesson")
}

// Quizzes

func (svc *Service) QueryQuizzes(ctx context.Context, courseID string) ([]Quiz, error) {
	return svc.repo.QueryQuizzes(ctx, courseID)
}

func (svc *Service) CreateQuiz(ctx context.Context, courseID string, nq NewQuiz) (Quiz, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Quiz{}, err
	}
	if nq.Type == "" {
		nq.Type = QuizIntermediate
	}
	if nq.PassingScore == 0 {
		nq.PassingScore = DefaultPassingScore
	}
	return svc.repo.CreateQuiz(ctx, Quiz{
		ID:           uuid.NewString(),
		CourseID:     courseID,
		TitleAr:      nq.TitleAr,
		TitleEn:      nq.TitleEn,
		Type:         nq.Type,
		PassingScore: nq.PassingScore,
		OrderIndex:   nq.OrderIndex,
		CreatedAt:    time.Now().UTC(),
	})
}

func (svc *Service) QueryQuestions(ctx context.Context, quizID string) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, quizID)
}

func (svc *Service) CreateQuestion(ctx context.Context, quizID string, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetQuiz(ctx, quizID); err != nil {
		return Question{}, err
	}
	return svc.repo.CreateQuestion(ctx, Question{
		ID:            uuid.NewString(),
		QuizID:        quizID,
		QuestionAr:    nq.QuestionAr,
		QuestionEn:    nq.QuestionEn,
		Options:       nq.Options,
		CorrectAnswer: nq.CorrectAnswer,
		OrderIndex:    nq.OrderIndex,
	})
}

// Attempt scores the answers and stores the attempt. Every call creates a new attempt.
func (svc *Service) Attempt(ctx context.Context, userID, quizID string, na NewAttempt) (Attempt, error) {
	quiz, err := svc.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return Attempt{}, err
	}
	questions, err := svc.repo.QueryQuestions(ctx, quiz.ID)
	if err != nil {
		return Attempt{}, errors.Wrap(err, "querying questions")
	}

	answers := na.Answers
	if answers == nil {
		answers = []int{}
	}
	score, passed := Score(questions, answers, quiz.PassingScore)
	return svc.repo.CreateAttempt(ctx, Attempt{
		ID:          uuid.NewString(),
		QuizID:      quiz.ID,
		UserID:      userID,
		Score:       score,
		Passed:      passed,
		Answers:     answers,
		CompletedAt: time.Now().UTC(),
	})
}

func (svc *Service) QueryAttempts(ctx context.Context, userID, quizID string) ([]Attempt, error) {
	return svc.repo.QueryUserAttempts(ctx, quizID, userID)
}

// Projects

func (svc *Service) QuerySubmissions(ctx context.Context, courseID string) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, courseID)
}

func (svc *Service) Submit(ctx context.Context, userID, courseID string, ns NewSubmission, fileURL string) (Submission, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Submission{}, err
	}
	return svc.repo.CreateSubmission(ctx, Submission{
		ID:            uuid.NewString(),
		CourseID:      courseID,
		UserID:        userID,
		TitleAr:       ns.TitleAr,
		TitleEn:       ns.TitleEn,
		DescriptionAr: ns.DescriptionAr,
		DescriptionEn: ns.DescriptionEn,
		FileURL:       fileURL,
		CreatedAt:     time.Now().UTC(),
	})
}

func (svc *Service) GradeSubmission(ctx context.Context, reviewerID, id string, g Grade) (Submission, error) {
	if g.Grade == nil {
		return Submission{}, errors.New("grade is required")
	}
	return svc.repo.GradeSubmission(ctx, id, *g.Grade, g.Feedback, reviewerID, time.Now().UTC())
}
