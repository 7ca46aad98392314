package certificate

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sejali/core"
)

const TypeCourseCompletion = "course_completion"

type Certificate struct {
	ID                string    `json:"id"`
	UserID            string    `json:"userId"`
	CourseID          *string   `json:"courseId"`
	ActivityID        *string   `json:"activityId"`
	Type              string    `json:"type"`
	TitleAr           string    `json:"titleAr"`
	TitleEn           string    `json:"titleEn"`
	CertificateNumber int64     `json:"certificateNumber"`
	VerificationCode  string    `json:"verificationCode"`
	IssuedAt          time.Time `json:"issuedAt"`
}

// Verified is the public view of a certificate looked up by its verification code.
// The names are left out when the holder or the course is gone.
type Verified struct {
	Certificate
	HolderName string `json:"userName,omitempty"`
	CourseName string `json:"courseName,omitempty"`
}

// NewCertificate is what an issuer provides. The number and the verification code are assigned on issue.
type NewCertificate struct {
	UserID   string
	CourseID string
	Type     string
	TitleAr  string
	TitleEn  string
}

// ManualIssue is a supervisor request to issue a course certificate outside of course completion.
type ManualIssue struct {
	UserID   string `json:"userId" validate:"required"`
	CourseID string `json:"courseId" validate:"required"`
}

func (mi *ManualIssue) Validate(validate *validator.Validate) error {
	mi.UserID = core.CleanString(mi.UserID)
	mi.CourseID = core.CleanString(mi.CourseID)
	return validate.Struct(mi)
}

func CompletionTitles(courseTitleAr, courseTitleEn string) (ar, en string) {
	return "شهادة إتمام: " + courseTitleAr, "Completion Certificate: " + courseTitleEn
}

func AdminTitles(courseTitleAr, courseTitleEn string) (ar, en string) {
	return "شهادة إتمام (إصدار إداري): " + courseTitleAr, "Completion Certificate (Admin Issued): " + courseTitleEn
}
