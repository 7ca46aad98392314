package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// filterRows keeps the rows for which keep returns true, in place.
func filterRows[T any](rows []*T, keep func(*T) bool) []*T {
	kept := rows[:0]
	for _, r := range rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	for i := len(kept); i < len(rows); i++ {
		rows[i] = nil
	}
	return kept
}

func (repo *courseRepository) findCourse(id string) *course.Course {
	for _, c := range repo.db.courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (repo *courseRepository) findLesson(id string) *course.Lesson {
	for _, l := range repo.db.lessons {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (repo *courseRepository) findQuiz(id string) *course.Quiz {
	for _, q := range repo.db.quizzes {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// Courses

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.courses = append(repo.db.courses, &c)
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c := repo.findCourse(id); c != nil {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, publishedOnly bool) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range newestFirst(repo.db.courses, func(c *course.Course) time.Time { return c.CreatedAt }) {
		if !publishedOnly || c.IsPublished {
			courses = append(courses, c)
		}
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig := repo.findCourse(c.ID)
	if orig == nil {
		return course.Course{}, course.ErrNotFound
	}
	c.CreatedAt = orig.CreatedAt
	*orig = c
	return c, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.findCourse(id) == nil {
		return course.ErrNotFound
	}
	db := repo.db

	lessonIDs := make(map[string]bool)
	for _, l := range db.lessons {
		if l.CourseID == id {
			lessonIDs[l.ID] = true
		}
	}
	quizIDs := make(map[string]bool)
	for _, q := range db.quizzes {
		if q.CourseID == id {
			quizIDs[q.ID] = true
		}
	}

	db.progress = filterRows(db.progress, func(lp *enrollment.LessonProgress) bool { return !lessonIDs[lp.LessonID] })
	db.lessons = filterRows(db.lessons, func(l *course.Lesson) bool { return l.CourseID != id })
	db.attempts = filterRows(db.attempts, func(a *course.Attempt) bool { return !quizIDs[a.QuizID] })
	db.questions = filterRows(db.questions, func(q *course.Question) bool { return !quizIDs[q.QuizID] })
	db.quizzes = filterRows(db.quizzes, func(q *course.Quiz) bool { return q.CourseID != id })
	db.submissions = filterRows(db.submissions, func(s *course.Submission) bool { return s.CourseID != id })
	db.enrollments = filterRows(db.enrollments, func(e *enrollment.Enrollment) bool { return e.CourseID != id })
	db.courses = filterRows(db.courses, func(c *course.Course) bool { return c.ID != id })

	for _, cert := range db.certificates {
		if cert.CourseID != nil && *cert.CourseID == id {
			cert.CourseID = nil
		}
	}
	return nil
}

// Lessons

func sortLessons(lessons []course.Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].OrderIndex != lessons[j].OrderIndex {
			return lessons[i].OrderIndex < lessons[j].OrderIndex
		}
		return lessons[i].ID < lessons[j].ID
	})
}

func (repo *courseRepository) CreateLesson(_ context.Context, l course.Lesson) (course.Lesson, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.findCourse(l.CourseID) == nil {
		return course.Lesson{}, course.ErrNotFound
	}
	repo.db.lessons = append(repo.db.lessons, &l)
	return l, nil
}

func (repo *courseRepository) GetLesson(_ context.Context, id string) (course.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if l := repo.findLesson(id); l != nil {
		return *l, nil
	}
	return course.Lesson{}, course.ErrLessonNotFound
}

func (repo *courseRepository) QueryLessons(_ context.Context, courseID string) ([]course.Lesson, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	lessons := make([]course.Lesson, 0)
	for _, l := range repo.db.lessons {
		if l.CourseID == courseID {
			lessons = append(lessons, *l)
		}
	}
	sortLessons(lessons)
	return lessons, nil
}

func (repo *courseRepository) DeleteLesson(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.findLesson(id) == nil {
		return course.ErrLessonNotFound
	}
	db := repo.db
	db.progress = filterRows(db.progress, func(lp *enrollment.LessonProgress) bool { return lp.LessonID != id })
	for _, e := range db.enrollments {
		e.CompletedLessons = filterStrings(e.CompletedLessons, id)
	}
	db.lessons = filterRows(db.lessons, func(l *course.Lesson) bool { return l.ID != id })
	return nil
}

func filterStrings(ss []string, drop string) []string {
	kept := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != drop {
			kept = append(kept, s)
		}
	}
	return kept
}

// Quizzes

func (repo *courseRepository) CreateQuiz(_ context.Context, q course.Quiz) (course.Quiz, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.findCourse(q.CourseID) == nil {
		return course.Quiz{}, course.ErrNotFound
	}
	repo.db.quizzes = append(repo.db.quizzes, &q)
	return q, nil
}

func (repo *courseRepository) GetQuiz(_ context.Context, id string) (course.Quiz, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if q := repo.findQuiz(id); q != nil {
		return *q, nil
	}
	return course.Quiz{}, course.ErrQuizNotFound
}

func (repo *courseRepository) QueryQuizzes(_ context.Context, courseID string) ([]course.Quiz, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	quizzes := make([]course.Quiz, 0)
	for _, q := range repo.db.quizzes {
		if q.CourseID == courseID {
			quizzes = append(quizzes, *q)
		}
	}
	sort.SliceStable(quizzes, func(i, j int) bool {
		if quizzes[i].OrderIndex != quizzes[j].OrderIndex {
			return quizzes[i].OrderIndex < quizzes[j].OrderIndex
		}
		return quizzes[i].ID < quizzes[j].ID
	})
	return quizzes, nil
}

func (repo *courseRepository) CreateQuestion(_ context.Context, q course.Question) (course.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.findQuiz(q.QuizID) == nil {
		return course.Question{}, course.ErrQuizNotFound
	}
	q.Options = append(make([]course.Option, 0, len(q.Options)), q.Options...)
	repo.db.questions = append(repo.db.questions, &q)
	return q, nil
}

func (repo *courseRepository) QueryQuestions(_ context.Context, quizID string) ([]course.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	questions := make([]course.Question, 0)
	for _, q := range repo.db.questions {
		if q.QuizID == quizID {
			questions = append(questions, *q)
		}
	}
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].OrderIndex != questions[j].OrderIndex {
			return questions[i].OrderIndex < questions[j].OrderIndex
		}
		return questions[i].ID < questions[j].ID
	})
	return questions, nil
}

func (repo *courseRepository) CreateAttempt(_ context.Context, a course.Attempt) (course.Attempt, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.Answers = append(make([]int, 0, len(a.Answers)), a.Answers...)
	repo.db.attempts = append(repo.db.attempts, &a)
	return a, nil
}

func (repo *courseRepository) QueryUserAttempts(_ context.Context, quizID, userID string) ([]course.Attempt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	attempts := make([]course.Attempt, 0)
	for _, a := range newestFirst(repo.db.attempts, func(a *course.Attempt) time.Time { return a.CompletedAt }) {
		if a.QuizID == quizID && a.UserID == userID {
			attempts = append(attempts, a)
		}
	}
	return attempts, nil
}

// Projects

func (repo *courseRepository) CreateSubmission(_ context.Context, s course.Submission) (course.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.submissions = append(repo.db.submissions, &s)
	return s, nil
}

func (repo *courseRepository) QuerySubmissions(_ context.Context, courseID string) ([]course.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]course.Submission, 0)
	for _, s := range newestFirst(repo.db.submissions, func(s *course.Submission) time.Time { return s.CreatedAt }) {
		if s.CourseID == courseID {
			s.UserName = repo.db.userName(s.UserID)
			subs = append(subs, s)
		}
	}
	return subs, nil
}

func (repo *courseRepository) GradeSubmission(_ context.Context, id string, grade int, feedback, reviewerID string, at time.Time) (course.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.submissions {
		if s.ID == id {
			g := grade
			s.Grade = &g
			s.Feedback = feedback
			s.ReviewedBy = reviewerID
			s.ReviewedAt = &at
			sub := *s
			sub.UserName = repo.db.userName(sub.UserID)
			return sub, nil
		}
	}
	return course.Submission{}, course.ErrSubmissionNotFound
}
