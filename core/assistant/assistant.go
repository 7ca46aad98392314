// Package assistant answers chat messages with a model that knows the caller's record on the platform.
package assistant

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/user"
)

var (
	// errors
	ErrNotConfigured = errors.New("AI service is not configured")
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Language string

const (
	Arabic  Language = "ar"
	English Language = "en"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message  string   `json:"message" validate:"required"`
	Language Language `json:"language" validate:"omitempty,oneof=ar en"`
}

func (cr *ChatRequest) Validate(validate *validator.Validate) error {
	cr.Message = core.CleanString(cr.Message)
	if cr.Language == "" {
		cr.Language = Arabic
	}
	return validate.Struct(cr)
}

// Streamer sends a conversation to a chat model and calls onChunk with each piece of the reply as it arrives.
// An error returned by onChunk aborts the stream.
type Streamer interface {
	Enabled() bool
	Stream(ctx context.Context, messages []Message, onChunk func(content string) error) error
}

type (
	UserReader interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		GetProfile(ctx context.Context, userID string) (user.Profile, error)
		QueryWithProfiles(ctx context.Context) ([]user.UserWithProfile, error)
	}

	ActivityReader interface {
		QueryByUser(ctx context.Context, userID string) ([]activity.Activity, error)
		Query(ctx context.Context, filter activity.QueryFilter, ordering []core.DBOrdering) ([]activity.Activity, error)
	}

	CourseReader interface {
		QueryPublished(ctx context.Context) ([]course.Course, error)
		QueryAll(ctx context.Context) ([]course.Course, error)
	}

	EnrollmentReader interface {
		QueryByUser(ctx context.Context, userID string) ([]enrollment.Enrollment, error)
	}

	CertificateReader interface {
		QueryByUser(ctx context.Context, userID string) ([]certificate.Certificate, error)
	}

	Service struct {
		streamer     Streamer
		users        UserReader
		activities   ActivityReader
		courses      CourseReader
		enrollments  EnrollmentReader
		certificates CertificateReader
	}
)

func NewService(
	streamer Streamer,
	users UserReader,
	activities ActivityReader,
	courses CourseReader,
	enrollments EnrollmentReader,
	certificates CertificateReader,
) *Service {
	return &Service{
		streamer:     streamer,
		users:        users,
		activities:   activities,
		courses:      courses,
		enrollments:  enrollments,
		certificates: certificates,
	}
}

func (svc *Service) Enabled() bool {
	return svc.streamer != nil && svc.streamer.Enabled()
}

// Chat streams the model's answer to the caller's message. The system prompt describes the caller's record.
func (svc *Service) Chat(ctx context.Context, caps user.Capabilities, userID string, cr ChatRequest, onChunk func(string) error) error {
	if !svc.Enabled() {
		return ErrNotConfigured
	}
	pc, err := svc.gatherContext(ctx, caps, userID)
	if err != nil {
		return err
	}
	messages := []Message{
		{Role: RoleSystem, Content: buildPrompt(cr.Language, pc)},
		{Role: RoleUser, Content: cr.Message},
	}
	return svc.streamer.Stream(ctx, messages, onChunk)
}

func (svc *Service) gatherContext(ctx context.Context, caps user.Capabilities, userID string) (promptContext, error) {
	pc := promptContext{role: caps.Role()}

	usr, err := svc.users.GetByID(ctx, userID)
	if err != nil {
		return pc, errors.Wrap(err, "getting user")
	}
	pc.user = usr
	if pc.profile, err = svc.users.GetProfile(ctx, userID); err != nil && errors.Cause(err) != user.ErrProfileNotFound {
		return pc, errors.Wrap(err, "getting profile")
	}
	if pc.activities, err = svc.activities.QueryByUser(ctx, userID); err != nil {
		return pc, errors.Wrap(err, "querying activities")
	}
	if pc.enrollments, err = svc.enrollments.QueryByUser(ctx, userID); err != nil {
		return pc, errors.Wrap(err, "querying enrollments")
	}
	if pc.certificates, err = svc.certificates.QueryByUser(ctx, userID); err != nil {
		return pc, errors.Wrap(err, "querying certificates")
	}
	if pc.published, err = svc.courses.QueryPublished(ctx); err != nil {
		return pc, errors.Wrap(err, "querying courses")
	}

	if caps.IsTrainer() {
		all, err := svc.courses.QueryAll(ctx)
		if err != nil {
			return pc, errors.Wrap(err, "querying all courses")
		}
		for _, c := range all {
			if caps.IsSupervisor() || c.InstructorID == userID {
				pc.taught = append(pc.taught, c)
			}
		}
	}
	if caps.IsSupervisor() {
		if pc.allActivities, err = svc.activities.Query(ctx, activity.QueryFilter{}, nil); err != nil {
			return pc, errors.Wrap(err, "querying all activities")
		}
		if pc.allUsers, err = svc.users.QueryWithProfiles(ctx); err != nil {
			return pc, errors.Wrap(err, "querying users")
		}
	}
	return pc, nil
}
