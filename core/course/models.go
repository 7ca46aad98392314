package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sejali/core"
)

type Course struct {
	ID            string    `json:"id"`
	TitleAr       string    `json:"titleAr"`
	TitleEn       string    `json:"titleEn"`
	DescriptionAr string    `json:"descriptionAr"`
	DescriptionEn string    `json:"descriptionEn"`
	Category      string    `json:"category"`
	Duration      int       `json:"duration"` // hours
	InstructorID  string    `json:"instructorId"`
	ImageURL      string    `json:"imageUrl"`
	IsPublished   bool      `json:"isPublished"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type NewCourse struct {
	TitleAr       string `json:"titleAr" validate:"required"`
	TitleEn       string `json:"titleEn"`
	DescriptionAr string `json:"descriptionAr"`
	DescriptionEn string `json:"descriptionEn"`
	Category      string `json:"category" validate:"required"`
	Duration      int    `json:"duration" validate:"required,min=1"`
	ImageURL      string `json:"imageUrl"`
	IsPublished   *bool  `json:"isPublished"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.TitleAr = core.CleanString(nc.TitleAr)
	nc.TitleEn = core.CleanString(nc.TitleEn)
	nc.Category = core.CleanString(nc.Category)
	return validate.Struct(nc)
}

// CourseUpdate defines what information may be provided to modify an existing Course.
// All fields are optional so clients can send just the fields they want changed.
type CourseUpdate struct {
	TitleAr       *string `json:"titleAr" validate:"omitempty,min=1"`
	TitleEn       *string `json:"titleEn"`
	DescriptionAr *string `json:"descriptionAr"`
	DescriptionEn *string `json:"descriptionEn"`
	Category      *string `json:"category" validate:"omitempty,min=1"`
	Duration      *int    `json:"duration" validate:"omitempty,min=1"`
	ImageURL      *string `json:"imageUrl"`
	IsPublished   *bool   `json:"isPublished"`
}

func (cu *CourseUpdate) Validate(validate *validator.Validate) error {
	for _, s := range []*string{cu.TitleAr, cu.TitleEn, cu.Category} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if cu.TitleAr != nil && *cu.TitleAr == "" {
		return core.NewFieldValidationError("titleAr", "this field is required")
	}
	if cu.Category != nil && *cu.Category == "" {
		return core.NewFieldValidationError("category", "this field is required")
	}
	return validate.Struct(cu)
}

func (cu CourseUpdate) apply(c *Course) {
	if cu.TitleAr != nil {
		c.TitleAr = *cu.TitleAr
	}
	if cu.TitleEn != nil {
		c.TitleEn = *cu.TitleEn
	}
	if cu.DescriptionAr != nil {
		c.DescriptionAr = *cu.DescriptionAr
	}
	if cu.DescriptionEn != nil {
		c.DescriptionEn = *cu.DescriptionEn
	}
	if cu.Category != nil {
		c.Category = *cu.Category
	}
	if cu.Duration != nil {
		c.Duration = *cu.Duration
	}
	if cu.ImageURL != nil {
		c.ImageURL = *cu.ImageURL
	}
	if cu.IsPublished != nil {
		c.IsPublished = *cu.IsPublished
	}
}

type Lesson struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"courseId"`
	TitleAr         string    `json:"titleAr"`
	TitleEn         string    `json:"titleEn"`
	ContentAr       string    `json:"contentAr"`
	ContentEn       string    `json:"contentEn"`
	VideoURL        string    `json:"videoUrl"`
	OrderIndex      int       `json:"orderIndex"`
	DurationMinutes int       `json:"durationMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
}

type NewLesson struct {
	TitleAr         string `json:"titleAr" validate:"required"`
	TitleEn         string `json:"titleEn"`
	ContentAr       string `json:"contentAr"`
	ContentEn       string `json:"contentEn"`
	VideoURL        string `json:"videoUrl"`
	OrderIndex      int    `json:"orderIndex" validate:"min=0"`
	DurationMinutes int    `json:"durationMinutes" validate:"min=0"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.TitleAr = core.CleanString(nl.TitleAr)
	nl.TitleEn = core.CleanString(nl.TitleEn)
	nl.VideoURL = core.CleanString(nl.VideoURL)
	return validate.Struct(nl)
}

type QuizType string

const (
	QuizIntermediate QuizType = "intermediate"
	QuizFinal        QuizType = "final"

	DefaultPassingScore = 60
)

type Quiz struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"courseId"`
	TitleAr      string    `json:"titleAr"`
	TitleEn      string    `json:"titleEn"`
	Type         QuizType  `json:"type"`
	PassingScore int       `json:"passingScore"`
	OrderIndex   int       `json:"orderIndex"`
	CreatedAt    time.Time `json:"createdAt"`
}

type NewQuiz struct {
	TitleAr      string   `json:"titleAr" validate:"required"`
	TitleEn      string   `json:"titleEn"`
	Type         QuizType `json:"type" validate:"omitempty,quiztype"`
	PassingScore int      `json:"passingScore" validate:"omitempty,min=1,max=100"`
	OrderIndex   int      `json:"orderIndex" validate:"min=0"`
}

func (nq *NewQuiz) Validate(validate *validator.Validate) error {
	nq.TitleAr = core.CleanString(nq.TitleAr)
	nq.TitleEn = core.CleanString(nq.TitleEn)
	if nq.Type == "" {
		nq.Type = QuizIntermediate
	}
	if nq.PassingScore == 0 {
		nq.PassingScore = DefaultPassingScore
	}
	return validate.Struct(nq)
}

type Option struct {
	TextAr string `json:"textAr" validate:"required"`
	TextEn string `json:"textEn"`
}

type Question struct {
	ID            string   `json:"id"`
	QuizID        string   `json:"quizId"`
	QuestionAr    string   `json:"questionAr"`
	QuestionEn    string   `json:"questionEn"`
	Options       []Option `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	OrderIndex    int      `json:"orderIndex"`
}

type NewQuestion struct {
	QuestionAr    string   `json:"questionAr" validate:"required"`
	QuestionEn    string   `json:"questionEn"`
	Options       []Option `json:"options" validate:"required,min=2,dive"`
	CorrectAnswer int      `json:"correctAnswer" validate:"min=0"`
	OrderIndex    int      `json:"orderIndex" validate:"min=0"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.QuestionAr = core.CleanString(nq.QuestionAr)
	nq.QuestionEn = core.CleanString(nq.QuestionEn)
	for i := range nq.Options {
		nq.Options[i].TextAr = core.CleanString(nq.Options[i].TextAr)
		nq.Options[i].TextEn = core.CleanString(nq.Options[i].TextEn)
	}
	if err := validate.Struct(nq); err != nil {
		return err
	}
	if nq.CorrectAnswer >= len(nq.Options) {
		return core.NewFieldValidationError("correctAnswer", "must be the index of one of the options")
	}
	return nil
}

// Attempt is an immutable scored submission of a quiz.
type Attempt struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	UserID      string    `json:"userId"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	Answers     []int     `json:"answers"`
	CompletedAt time.Time `json:"completedAt"`
}

type NewAttempt struct {
	Answers []int `json:"answers" validate:"required"`
}

func (na *NewAttempt) Validate(validate *validator.Validate) error {
	return validate.Struct(na)
}

type Submission struct {
	ID            string     `json:"id"`
	CourseID      string     `json:"courseId"`
	UserID        string     `json:"userId"`
	TitleAr       string     `json:"titleAr"`
	TitleEn       string     `json:"titleEn"`
	DescriptionAr string     `json:"descriptionAr"`
	DescriptionEn string     `json:"descriptionEn"`
	FileURL       string     `json:"fileUrl"`
	Grade         *int       `json:"grade"`
	Feedback      string     `json:"feedback"`
	ReviewedBy    string     `json:"reviewedBy"`
	ReviewedAt    *time.Time `json:"reviewedAt"`
	CreatedAt     time.Time  `json:"createdAt"`

	// read-only, joined from the submitter
	UserName string `json:"userName,omitempty"`
}

// NewSubmission is submitted as a multipart form with an optional `project` file.
type NewSubmission struct {
	TitleAr       string `json:"titleAr" form:"titleAr" validate:"required"`
	TitleEn       string `json:"titleEn" form:"titleEn"`
	DescriptionAr string `json:"descriptionAr" form:"descriptionAr"`
	DescriptionEn string `json:"descriptionEn" form:"descriptionEn"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.TitleAr = core.CleanString(ns.TitleAr)
	ns.TitleEn = core.CleanString(ns.TitleEn)
	return validate.Struct(ns)
}

type Grade struct {
	Grade    *int   `json:"grade" validate:"required,min=0,max=100"`
	Feedback string `json:"feedback"`
}

func (g *Grade) Validate(validate *validator.Validate) error {
	g.Feedback = core.CleanString(g.Feedback)
	return validate.Struct(g)
}
