package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/course"
)

type courseRepository struct {
	db core.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db core.DB) *courseRepository {
	return &courseRepository{db: db}
}

type (
	courseRow struct {
		ID            string      `db:"id"`
		TitleAr       string      `db:"title_ar"`
		TitleEn       null.String `db:"title_en"`
		DescriptionAr null.String `db:"description_ar"`
		DescriptionEn null.String `db:"description_en"`
		Category      string      `db:"category"`
		Duration      int         `db:"duration"`
		InstructorID  null.String `db:"instructor_id"`
		ImageURL      null.String `db:"image_url"`
		IsPublished   bool        `db:"is_published"`
		CreatedAt     time.Time   `db:"created_at"`
		UpdatedAt     time.Time   `db:"updated_at"`
	}

	lessonRow struct {
		ID              string      `db:"id"`
		CourseID        string      `db:"course_id"`
		TitleAr         string      `db:"title_ar"`
		TitleEn         null.String `db:"title_en"`
		ContentAr       null.String `db:"content_ar"`
		ContentEn       null.String `db:"content_en"`
		VideoURL        null.String `db:"video_url"`
		OrderIndex      int         `db:"order_index"`
		DurationMinutes int         `db:"duration_minutes"`
		CreatedAt       time.Time   `db:"created_at"`
	}

	quizRow struct {
		ID           string      `db:"id"`
		CourseID     string      `db:"course_id"`
		TitleAr      string      `db:"title_ar"`
		TitleEn      null.String `db:"title_en"`
		Type         string      `db:"type"`
		PassingScore int         `db:"passing_score"`
		OrderIndex   int         `db:"order_index"`
		CreatedAt    time.Time   `db:"created_at"`
	}

	questionRow struct {
		ID            string      `db:"id"`
		QuizID        string      `db:"quiz_id"`
		QuestionAr    string      `db:"question_ar"`
		QuestionEn    null.String `db:"question_en"`
		Options       null.JSON   `db:"options"`
		CorrectAnswer int         `db:"correct_answer"`
		OrderIndex    int         `db:"order_index"`
	}

	attemptRow struct {
		ID          string    `db:"id"`
		QuizID      string    `db:"quiz_id"`
		UserID      string    `db:"user_id"`
		Score       int       `db:"score"`
		Passed      bool      `db:"passed"`
		Answers     null.JSON `db:"answers"`
		CompletedAt time.Time `db:"completed_at"`
	}

	submissionRow struct {
		ID            string      `db:"id"`
		CourseID      string      `db:"course_id"`
		UserID        string      `db:"user_id"`
		TitleAr       string      `db:"title_ar"`
		TitleEn       null.String `db:"title_en"`
		DescriptionAr null.String `db:"description_ar"`
		DescriptionEn null.String `db:"description_en"`
		FileURL       null.String `db:"file_url"`
		Grade         null.Int    `db:"grade"`
		Feedback      null.String `db:"feedback"`
		ReviewedBy    null.String `db:"reviewed_by"`
		ReviewedAt    null.Time   `db:"reviewed_at"`
		CreatedAt     time.Time   `db:"created_at"`
		FirstName     null.String `db:"first_name"`
		LastName      null.String `db:"last_name"`
	}
)

const (
	courseColumns = `id, title_ar, title_en, description_ar, description_en, category, duration, instructor_id,
		image_url, is_published, created_at, updated_at`
	lessonColumns = `id, course_id, title_ar, title_en, content_ar, content_en, video_url, order_index,
		duration_minutes, created_at`
	quizColumns     = `id, course_id, title_ar, title_en, type, passing_score, order_index, created_at`
	questionColumns = `id, quiz_id, question_ar, question_en, options, correct_answer, order_index`
	attemptColumns  = `id, quiz_id, user_id, score, passed, answers, completed_at`
	submissionCols  = `s.id, s.course_id, s.user_id, s.title_ar, s.title_en, s.description_ar, s.description_en,
		s.file_url, s.grade, s.feedback, s.reviewed_by, s.reviewed_at, s.created_at, u.first_name, u.last_name`
)

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:            r.ID,
		TitleAr:       r.TitleAr,
		TitleEn:       r.TitleEn.String,
		DescriptionAr: r.DescriptionAr.String,
		DescriptionEn: r.DescriptionEn.String,
		Category:      r.Category,
		Duration:      r.Duration,
		InstructorID:  r.InstructorID.String,
		ImageURL:      r.ImageURL.String,
		IsPublished:   r.IsPublished,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

func (r lessonRow) toLesson() course.Lesson {
	return course.Lesson{
		ID:              r.ID,
		CourseID:        r.CourseID,
		TitleAr:         r.TitleAr,
		TitleEn:         r.TitleEn.String,
		ContentAr:       r.ContentAr.String,
		ContentEn:       r.ContentEn.String,
		VideoURL:        r.VideoURL.String,
		OrderIndex:      r.OrderIndex,
		DurationMinutes: r.DurationMinutes,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func (r quizRow) toQuiz() course.Quiz {
	return course.Quiz{
		ID:           r.ID,
		CourseID:     r.CourseID,
		TitleAr:      r.TitleAr,
		TitleEn:      r.TitleEn.String,
		Type:         course.QuizType(r.Type),
		PassingScore: r.PassingScore,
		OrderIndex:   r.OrderIndex,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (r questionRow) toQuestion() (course.Question, error) {
	opts := make([]course.Option, 0)
	if r.Options.Valid {
		if err := r.Options.Unmarshal(&opts); err != nil {
			return course.Question{}, errors.Wrap(err, "decoding options")
		}
	}
	return course.Question{
		ID:            r.ID,
		QuizID:        r.QuizID,
		QuestionAr:    r.QuestionAr,
		QuestionEn:    r.QuestionEn.String,
		Options:       opts,
		CorrectAnswer: r.CorrectAnswer,
		OrderIndex:    r.OrderIndex,
	}, nil
}

func (r attemptRow) toAttempt() (course.Attempt, error) {
	answers := make([]int, 0)
	if r.Answers.Valid {
		if err := r.Answers.Unmarshal(&answers); err != nil {
			return course.Attempt{}, errors.Wrap(err, "decoding answers")
		}
	}
	return course.Attempt{
		ID:          r.ID,
		QuizID:      r.QuizID,
		UserID:      r.UserID,
		Score:       r.Score,
		Passed:      r.Passed,
		Answers:     answers,
		CompletedAt: r.CompletedAt.UTC(),
	}, nil
}

func (r submissionRow) toSubmission() course.Submission {
	s := course.Submission{
		ID:            r.ID,
		CourseID:      r.CourseID,
		UserID:        r.UserID,
		TitleAr:       r.TitleAr,
		TitleEn:       r.TitleEn.String,
		DescriptionAr: r.DescriptionAr.String,
		DescriptionEn: r.DescriptionEn.String,
		FileURL:       r.FileURL.String,
		Feedback:      r.Feedback.String,
		ReviewedBy:    r.ReviewedBy.String,
		CreatedAt:     r.CreatedAt.UTC(),
		UserName:      core.FullName(r.FirstName.String, r.LastName.String),
	}
	if r.Grade.Valid {
		g := r.Grade.Int
		s.Grade = &g
	}
	if r.ReviewedAt.Valid {
		t := r.ReviewedAt.Time.UTC()
		s.ReviewedAt = &t
	}
	return s
}

// Courses

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	_, err := repo.db.ExecContext(ctx, `INSERT INTO courses (`+courseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.TitleAr, nullString(c.TitleEn), nullString(c.DescriptionAr), nullString(c.DescriptionEn),
		c.Category, c.Duration, nullString(c.InstructorID), nullString(c.ImageURL), c.IsPublished,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, publishedOnly bool) ([]course.Course, error) {
	q := `SELECT ` + courseColumns + ` FROM courses`
	if publishedOnly {
		q += ` WHERE is_published = true`
	}
	q += ` ORDER BY created_at DESC`

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE courses SET title_ar = $2, title_en = $3, description_ar = $4, description_en = $5, category = $6,
			duration = $7, image_url = $8, is_published = $9, updated_at = $10
		WHERE id = $1
		RETURNING `+courseColumns,
		c.ID, c.TitleAr, nullString(c.TitleEn), nullString(c.DescriptionAr), nullString(c.DescriptionEn),
		c.Category, c.Duration, nullString(c.ImageURL), c.IsPublished, c.UpdatedAt)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "updating course")
	}
	return row.toCourse(), nil
}

// courseCascade deletes the rows hanging off a course, children first.
var courseCascade = []struct{ name, query string }{
	{"lesson progress", `DELETE FROM lesson_progress WHERE lesson_id IN (SELECT id FROM lessons WHERE course_id = $1)`},
	{"lessons", `DELETE FROM lessons WHERE course_id = $1`},
	{"quiz attempts", `DELETE FROM quiz_attempts WHERE quiz_id IN (SELECT id FROM quizzes WHERE course_id = $1)`},
	{"quiz questions", `DELETE FROM quiz_questions WHERE quiz_id IN (SELECT id FROM quizzes WHERE course_id = $1)`},
	{"quizzes", `DELETE FROM quizzes WHERE course_id = $1`},
	{"project submissions", `DELETE FROM project_submissions WHERE course_id = $1`},
	{"enrollments", `DELETE FROM course_enrollments WHERE course_id = $1`},
	{"certificates", `UPDATE certificates SET course_id = NULL WHERE course_id = $1`},
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, step := range courseCascade {
			if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
				return errors.Wrapf(err, "deleting %s", step.name)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
		if err != nil {
			return errors.Wrap(err, "deleting course")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return course.ErrNotFound
		}
		return nil
	})
}

// Lessons

func (repo *courseRepository) CreateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	_, err := repo.db.ExecContext(ctx, `INSERT INTO lessons (`+lessonColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, l.CourseID, l.TitleAr, nullString(l.TitleEn), nullString(l.ContentAr), nullString(l.ContentEn),
		nullString(l.VideoURL), l.OrderIndex, l.DurationMinutes, l.CreatedAt)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return l, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (course.Lesson, error) {
	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id); err != nil {
		return course.Lesson{}, trapNoRowsErr(err, course.ErrLessonNotFound, "getting lesson")
	}
	return row.toLesson(), nil
}

func (repo *courseRepository) QueryLessons(ctx context.Context, courseID string) ([]course.Lesson, error) {
	var rows []lessonRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+lessonColumns+` FROM lessons WHERE course_id = $1 ORDER BY order_index, id`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lessons := make([]course.Lesson, 0, len(rows))
	for _, r := range rows {
		lessons = append(lessons, r.toLesson())
	}
	return lessons, nil
}

func (repo *courseRepository) DeleteLesson(ctx context.Context, id string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM lesson_progress WHERE lesson_id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting lesson progress")
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE course_enrollments SET completed_lessons = array_remove(completed_lessons, $1)
			WHERE $1 = ANY(completed_lessons)`, id)
		if err != nil {
			return errors.Wrap(err, "updating enrollments")
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
		if err != nil {
			return errors.Wrap(err, "deleting lesson")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return course.ErrLessonNotFound
		}
		return nil
	})
}

// Quizzes

func (repo *courseRepository) CreateQuiz(ctx context.Context, q course.Quiz) (course.Quiz, error) {
	_, err := repo.db.ExecContext(ctx, `INSERT INTO quizzes (`+quizColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		q.ID, q.CourseID, q.TitleAr, nullString(q.TitleEn), string(q.Type), q.PassingScore, q.OrderIndex, q.CreatedAt)
	if err != nil {
		return course.Quiz{}, errors.Wrap(err, "inserting quiz")
	}
	return q, nil
}

func (repo *courseRepository) GetQuiz(ctx context.Context, id string) (course.Quiz, error) {
	var row quizRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id); err != nil {
		return course.Quiz{}, trapNoRowsErr(err, course.ErrQuizNotFound, "getting quiz")
	}
	return row.toQuiz(), nil
}

func (repo *courseRepository) QueryQuizzes(ctx context.Context, courseID string) ([]course.Quiz, error) {
	var rows []quizRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+quizColumns+` FROM quizzes WHERE course_id = $1 ORDER BY order_index, id`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying quizzes")
	}
	quizzes := make([]course.Quiz, 0, len(rows))
	for _, r := range rows {
		quizzes = append(quizzes, r.toQuiz())
	}
	return quizzes, nil
}

func (repo *courseRepository) CreateQuestion(ctx context.Context, q course.Question) (course.Question, error) {
	opts, err := jsonValue(q.Options)
	if err != nil {
		return course.Question{}, err
	}
	_, err = repo.db.ExecContext(ctx, `INSERT INTO quiz_questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		q.ID, q.QuizID, q.QuestionAr, nullString(q.QuestionEn), opts, q.CorrectAnswer, q.OrderIndex)
	if err != nil {
		return course.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo *courseRepository) QueryQuestions(ctx context.Context, quizID string) ([]course.Question, error) {
	var rows []questionRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+questionColumns+` FROM quiz_questions WHERE quiz_id = $1 ORDER BY order_index, id`, quizID)
	if err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]course.Question, 0, len(rows))
	for _, r := range rows {
		q, err := r.toQuestion()
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (repo *courseRepository) CreateAttempt(ctx context.Context, a course.Attempt) (course.Attempt, error) {
	answers, err := jsonValue(a.Answers)
	if err != nil {
		return course.Attempt{}, err
	}
	_, err = repo.db.ExecContext(ctx, `INSERT INTO quiz_attempts (`+attemptColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.QuizID, a.UserID, a.Score, a.Passed, answers, a.CompletedAt)
	if err != nil {
		return course.Attempt{}, errors.Wrap(err, "inserting attempt")
	}
	return a, nil
}

func (repo *courseRepository) QueryUserAttempts(ctx context.Context, quizID, userID string) ([]course.Attempt, error) {
	var rows []attemptRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+attemptColumns+` FROM quiz_attempts WHERE quiz_id = $1 AND user_id = $2 ORDER BY completed_at DESC`,
		quizID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	attempts := make([]course.Attempt, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAttempt()
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}

// Projects

func (repo *courseRepository) CreateSubmission(ctx context.Context, s course.Submission) (course.Submission, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO project_submissions (id, course_id, user_id, title_ar, title_en, description_ar, description_en,
			file_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.CourseID, s.UserID, s.TitleAr, nullString(s.TitleEn), nullString(s.DescriptionAr),
		nullString(s.DescriptionEn), nullString(s.FileURL), s.CreatedAt)
	if err != nil {
		return course.Submission{}, errors.Wrap(err, "inserting project submission")
	}
	return s, nil
}

func (repo *courseRepository) QuerySubmissions(ctx context.Context, courseID string) ([]course.Submission, error) {
	var rows []submissionRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+submissionCols+`
		FROM project_submissions s
		LEFT JOIN users u ON u.id = s.user_id
		WHERE s.course_id = $1
		ORDER BY s.created_at DESC`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying project submissions")
	}
	subs := make([]course.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toSubmission())
	}
	return subs, nil
}

func (repo *courseRepository) GradeSubmission(ctx context.Context, id string, grade int, feedback, reviewerID string, at time.Time) (course.Submission, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE project_submissions SET grade = $2, feedback = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1`, id, grade, nullString(feedback), reviewerID, at)
	if err != nil {
		return course.Submission{}, errors.Wrap(err, "grading project submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Submission{}, course.ErrSubmissionNotFound
	}

	var row submissionRow
	err = repo.db.GetContext(ctx, &row, `
		SELECT `+submissionCols+`
		FROM project_submissions s
		LEFT JOIN users u ON u.id = s.user_id
		WHERE s.id = $1`, id)
	if err != nil {
		return course.Submission{}, trapNoRowsErr(err, course.ErrSubmissionNotFound, "getting project submission")
	}
	return row.toSubmission(), nil
}
