package certificate

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("certificate not found")
)

type (
	Repository interface {
		// CreateCertificate assigns the next certificate number and stores the certificate.
		// Numbers are unique and increase in issue order, even under concurrent issuers.
		CreateCertificate(ctx context.Context, cert Certificate) (Certificate, error)
		GetCertificate(ctx context.Context, id string) (Certificate, error)
		GetVerifiedCertificate(ctx context.Context, code string) (Verified, error)
		// QueryUserCertificates returns the certificates newest first.
		QueryUserCertificates(ctx context.Context, userID string) ([]Certificate, error)
	}

	UserFinder interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	CourseFinder interface {
		Find(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo    Repository
		users   UserFinder
		courses CourseFinder
		audit   audit.Recorder
		mailer  core.EmailService
	}
)

func NewService(repo Repository, users UserFinder, courses CourseFinder, recorder audit.Recorder, mailer core.EmailService) *Service {
	return &Service{repo: repo, users: users, courses: courses, audit: recorder, mailer: mailer}
}

// Issue stores a new certificate with a fresh verification code and mails its holder.
func (svc *Service) Issue(ctx context.Context, nc NewCertificate) (Certificate, error) {
	cert := Certificate{
		ID:               uuid.NewString(),
		UserID:           nc.UserID,
		Type:             nc.Type,
		TitleAr:          nc.TitleAr,
		TitleEn:          nc.TitleEn,
		VerificationCode: uuid.NewString(),
		IssuedAt:         time.Now().UTC(),
	}
	if cert.Type == "" {
		cert.Type = TypeCourseCompletion
	}
	if nc.CourseID != "" {
		courseID := nc.CourseID
		cert.CourseID = &courseID
	}

	cert, err := svc.repo.CreateCertificate(ctx, cert)
	if err != nil {
		return Certificate{}, errors.Wrap(err, "creating certificate")
	}
	svc.sendIssuedEmail(ctx, cert)
	return cert, nil
}

func (svc *Service) sendIssuedEmail(ctx context.Context, cert Certificate) {
	if svc.mailer == nil || svc.users == nil {
		return
	}
	usr, err := svc.users.GetByID(ctx, cert.UserID)
	if err != nil {
		return
	}
	svc.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Your certificate has been issued",
		TemplateName: "certificate_issued",
		TemplateData: struct {
			Name, Title, VerificationCode string
			Number                        int64
		}{usr.Name(), cert.TitleEn, cert.VerificationCode, cert.CertificateNumber},
	})
}

// IssueManually issues a course certificate on behalf of a supervisor.
func (svc *Service) IssueManually(ctx context.Context, actorID string, mi ManualIssue) (Certificate, error) {
	if _, err := svc.users.GetByID(ctx, mi.UserID); err != nil {
		return Certificate{}, err
	}
	c, err := svc.courses.Find(ctx, mi.CourseID)
	if err != nil {
		return Certificate{}, err
	}

	titleAr, titleEn := AdminTitles(c.TitleAr, c.TitleEn)
	cert, err := svc.Issue(ctx, NewCertificate{
		UserID:   mi.UserID,
		CourseID: c.ID,
		Type:     TypeCourseCompletion,
		TitleAr:  titleAr,
		TitleEn:  titleEn,
	})
	if err != nil {
		return Certificate{}, err
	}
	svc.audit.Record(actorID, audit.ActionAdminCertificateIssued, audit.EntityCertificate, cert.ID,
		audit.Details{"targetUserId": mi.UserID, "courseId": c.ID})
	return cert, nil
}

func (svc *Service) QueryByUser(ctx context.Context, userID string) ([]Certificate, error) {
	return svc.repo.QueryUserCertificates(ctx, userID)
}

// Verify looks a certificate up by its public verification code.
func (svc *Service) Verify(ctx context.Context, code string) (Verified, error) {
	code = core.CleanString(code)
	if code == "" {
		return Verified{}, ErrNotFound
	}
	return svc.repo.GetVerifiedCertificate(ctx, code)
}

// Holder returns the holder of a certificate. Only the holder and trainers may see it.
// ok is false when the caller is not allowed.
func (svc *Service) Holder(ctx context.Context, caps user.Capabilities, callerID, certID string) (holder user.User, ok bool, err error) {
	cert, err := svc.repo.GetCertificate(ctx, certID)
	if err != nil {
		return user.User{}, false, err
	}
	if cert.UserID != callerID && !caps.IsTrainer() {
		return user.User{}, false, nil
	}
	holder, err = svc.users.GetByID(ctx, cert.UserID)
	if err != nil {
		return user.User{}, false, err
	}
	return holder, true, nil
}
