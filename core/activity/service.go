package activity

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/audit"
)

var (
	// errors
	ErrNotFound        = errors.New("activity not found")
	ErrAlreadyReviewed = errors.New("activity has already been reviewed")
)

type (
	Repository interface {
		CreateActivity(ctx context.Context, act Activity) (Activity, error)
		// GetActivity returns the activity with its owner's name and email.
		GetActivity(ctx context.Context, id string) (Activity, error)
		QueryUserActivities(ctx context.Context, userID string) ([]Activity, error)
		// QueryActivities returns the activities with their owner's name and email, newest first by default.
		QueryActivities(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Activity, error)
		// ReviewActivity moves a submitted activity to its final status in a single conditional update.
		// Returns ErrAlreadyReviewed when the activity is no longer submitted.
		ReviewActivity(ctx context.Context, id string, status Status, reviewerID, reason string, at time.Time) (Activity, error)
	}

	Service struct {
		repo   Repository
		audit  audit.Recorder
		mailer core.EmailService
	}
)

func NewService(repo Repository, recorder audit.Recorder, mailer core.EmailService) *Service {
	return &Service{repo: repo, audit: recorder, mailer: mailer}
}

// Create stores a validated activity of the user. evidenceURL may be empty.
func (svc *Service) Create(ctx context.Context, userID string, na NewActivity, evidenceURL string) (Activity, error) {
	act := Activity{
		ID:             uuid.NewString(),
		UserID:         userID,
		Type:           na.Type,
		NameAr:         na.NameAr,
		NameEn:         na.NameEn,
		Organization:   na.Organization,
		Hours:          na.Hours,
		StartDate:      na.startDate,
		EndDate:        na.endDate,
		DescriptionAr:  na.DescriptionAr,
		DescriptionEn:  na.DescriptionEn,
		CertificateURL: evidenceURL,
		Status:         StatusSubmitted,
		CreatedAt:      time.Now().UTC(),
	}
	if act.StartDate.IsZero() {
		start, err := core.ParseDate(na.StartDate)
		if err != nil {
			return Activity{}, core.NewFieldValidationError("startDate", "invalid date")
		}
		act.StartDate = start
	}
	if act.Hours < 1 || act.Hours > MaxHours {
		return Activity{}, core.NewFieldValidationError("hours", "must be between 1 and 500")
	}
	return svc.repo.CreateActivity(ctx, act)
}

func (svc *Service) QueryByUser(ctx context.Context, userID string) ([]Activity, error) {
	return svc.repo.QueryUserActivities(ctx, userID)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Activity, error) {
	valid := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if _, ok := OrderingFields[ord.Field]; ok {
			valid = append(valid, ord)
		}
	}
	return svc.repo.QueryActivities(ctx, filter, valid)
}

// Review applies a supervisor decision. submitted is the only state a review can leave.
func (svc *Service) Review(ctx context.Context, reviewerID, id string, r Review) (Activity, error) {
	reason := r.RejectionReason
	if r.Action == ReviewApprove {
		reason = ""
	}
	act, err := svc.repo.ReviewActivity(ctx, id, r.status(), reviewerID, reason, time.Now().UTC())
	if err != nil {
		return Activity{}, err
	}

	action := audit.ActionActivityApprove
	if r.Action == ReviewReject {
		action = audit.ActionActivityReject
	}
	svc.audit.Record(reviewerID, action, audit.EntityActivity, act.ID,
		audit.Details{"action": r.Action, "reason": r.RejectionReason})

	svc.sendReviewedEmail(act)
	return act, nil
}

func (svc *Service) sendReviewedEmail(act Activity) {
	if svc.mailer == nil || act.UserEmail == "" {
		return
	}
	svc.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: act.UserName, Address: act.UserEmail}},
		Subject:      "Your activity has been reviewed",
		TemplateName: "activity_reviewed",
		TemplateData: struct {
			Name, Activity, Status, Reason string
			Hours                          int
		}{act.UserName, act.NameAr, string(act.Status), act.RejectionReason, act.Hours},
	})
}

// Progress is the approved hours of one category against its target.
type Progress struct {
	Type      Type `json:"type"`
	Required  int  `json:"required"`
	Achieved  int  `json:"achieved"`
	Remaining int  `json:"remaining"`
}

// ApprovedHours sums the approved hours of each category.
func ApprovedHours(acts []Activity) map[Type]int {
	hours := make(map[Type]int, len(Types))
	for _, a := range acts {
		if a.Status == StatusApproved {
			hours[a.Type] += a.Hours
		}
	}
	return hours
}

// ProgressOf reports, in category order, how far the approved activities are from each target.
func ProgressOf(acts []Activity) []Progress {
	hours := ApprovedHours(acts)
	progress := make([]Progress, 0, len(Types))
	for _, t := range Types {
		p := Progress{Type: t, Required: MinHours[t], Achieved: hours[t]}
		if p.Remaining = p.Required - p.Achieved; p.Remaining < 0 {
			p.Remaining = 0
		}
		progress = append(progress, p)
	}
	return progress
}
