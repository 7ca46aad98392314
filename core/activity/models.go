package activity

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sejali/core"
)

// Type is one of the eight fixed activity categories.
type Type string

const (
	TypeVolunteerWork        Type = "volunteer_work"
	TypeStudentEmployment    Type = "student_employment"
	TypeParticipation        Type = "participation"
	TypeSelfDevelopment      Type = "self_development"
	TypeAwards               Type = "awards"
	TypeStudentActivity      Type = "student_activity"
	TypeProfessionalActivity Type = "professional_activity"
	TypeLeadershipSkills     Type = "leadership_skills"
)

var (
	Types = []Type{
		TypeVolunteerWork,
		TypeStudentEmployment,
		TypeParticipation,
		TypeSelfDevelopment,
		TypeAwards,
		TypeStudentActivity,
		TypeProfessionalActivity,
		TypeLeadershipSkills,
	}

	// MinHours is the hours target of each category. Informational only: nothing is gated on it.
	MinHours = map[Type]int{
		TypeVolunteerWork:        25,
		TypeStudentEmployment:    10,
		TypeParticipation:        8,
		TypeSelfDevelopment:      3,
		TypeAwards:               1,
		TypeStudentActivity:      20,
		TypeProfessionalActivity: 5,
		TypeLeadershipSkills:     5,
	}
)

const MaxHours = 500

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

type Activity struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Type            Type       `json:"type"`
	NameAr          string     `json:"nameAr"`
	NameEn          string     `json:"nameEn"`
	Organization    string     `json:"organization"`
	Hours           int        `json:"hours"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         *time.Time `json:"endDate"`
	DescriptionAr   string     `json:"descriptionAr"`
	DescriptionEn   string     `json:"descriptionEn"`
	CertificateURL  string     `json:"certificateUrl"`
	Status          Status     `json:"status"`
	RejectionReason string     `json:"rejectionReason"`
	ReviewedBy      string     `json:"reviewedBy"`
	ReviewedAt      *time.Time `json:"reviewedAt"`
	CreatedAt       time.Time  `json:"createdAt"`

	// read-only, joined from the owner
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}

// NewActivity is submitted as a multipart form (with an optional evidence file) or as JSON.
type NewActivity struct {
	Type          Type   `json:"type" form:"type" validate:"required,activitytype"`
	NameAr        string `json:"nameAr" form:"nameAr" validate:"required"`
	NameEn        string `json:"nameEn" form:"nameEn"`
	Organization  string `json:"organization" form:"organization" validate:"required"`
	Hours         int    `json:"hours" form:"hours" validate:"required,min=1,max=500"`
	StartDate     string `json:"startDate" form:"startDate" validate:"required"`
	EndDate       string `json:"endDate" form:"endDate"`
	DescriptionAr string `json:"descriptionAr" form:"descriptionAr"`
	DescriptionEn string `json:"descriptionEn" form:"descriptionEn"`

	startDate time.Time
	endDate   *time.Time
}

func (na *NewActivity) Validate(validate *validator.Validate) error {
	na.NameAr = core.CleanString(na.NameAr)
	na.NameEn = core.CleanString(na.NameEn)
	na.Organization = core.CleanString(na.Organization)
	na.DescriptionAr = core.CleanString(na.DescriptionAr)
	na.DescriptionEn = core.CleanString(na.DescriptionEn)

	if err := validate.Struct(na); err != nil {
		return err
	}

	start, err := core.ParseDate(na.StartDate)
	if err != nil {
		return core.NewFieldValidationError("startDate", "invalid date")
	}
	na.startDate = start
	if core.CleanString(na.EndDate) != "" {
		end, err := core.ParseDate(na.EndDate)
		if err != nil {
			return core.NewFieldValidationError("endDate", "invalid date")
		}
		if end.Before(start) {
			return core.NewFieldValidationError("endDate", "must not be before startDate")
		}
		na.endDate = &end
	}
	return nil
}

type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
)

// Review is a supervisor decision. RejectionReason is optional, even when rejecting.
type Review struct {
	Action          ReviewAction `json:"action" validate:"required,oneof=approve reject"`
	RejectionReason string       `json:"rejectionReason"`
}

func (r *Review) Validate(validate *validator.Validate) error {
	r.RejectionReason = core.CleanString(r.RejectionReason)
	return validate.Struct(r)
}

func (r Review) status() Status {
	if r.Action == ReviewApprove {
		return StatusApproved
	}
	return StatusRejected
}

// QueryFilter narrows the supervisor's listing of all activities.
type QueryFilter struct {
	Status Status `query:"status"`
	Type   Type   `query:"type"`
	UserID string `query:"userId"`
}

// OrderingFields maps the accepted `ordering` query fields to their column names.
var OrderingFields = map[string]string{
	"createdAt": "created_at",
	"hours":     "hours",
	"startDate": "start_date",
}
