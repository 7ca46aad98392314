package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/sejali/apps/api/echo"
	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/assistant"
	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/report"
	"github.com/trezcool/sejali/core/session"
	"github.com/trezcool/sejali/core/user"
	aisvc "github.com/trezcool/sejali/services/ai"
	emailsvc "github.com/trezcool/sejali/services/email"
	logsvc "github.com/trezcool/sejali/services/logger"
	uploadsvc "github.com/trezcool/sejali/services/upload"
	"github.com/trezcool/sejali/storage/database"
	sqlxrepos "github.com/trezcool/sejali/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	activity.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	return validate
}

func newFileStore(conf *core.Config) core.FileStore {
	return uploadsvc.NewStore(conf)
}

func newSessionManager(conf *core.Config, store session.Store) *session.Manager {
	return session.NewManager(store, conf.Server.SessionTTL)
}

func newShutdownChannel() chan os.Signal {
	return make(chan os.Signal, 1)
}

// Services are built from their concrete dependencies; the constructors take the narrow interfaces.

func newUserService(repo user.Repository, auditSvc *audit.Service, mailer core.EmailService, sessions *session.Manager) *user.Service {
	return user.NewService(repo, auditSvc, mailer, sessions)
}

func newActivityService(repo activity.Repository, auditSvc *audit.Service, mailer core.EmailService) *activity.Service {
	return activity.NewService(repo, auditSvc, mailer)
}

func newCertificateService(
	repo certificate.Repository,
	usrSvc *user.Service,
	crsSvc *course.Service,
	auditSvc *audit.Service,
	mailer core.EmailService,
) *certificate.Service {
	return certificate.NewService(repo, usrSvc, crsSvc, auditSvc, mailer)
}

func newEnrollmentService(
	repo enrollment.Repository,
	crsSvc *course.Service,
	certSvc *certificate.Service,
	auditSvc *audit.Service,
) *enrollment.Service {
	return enrollment.NewService(repo, crsSvc, certSvc, auditSvc)
}

type assistantParams struct {
	dig.In

	Client         *aisvc.Client
	UserSvc        *user.Service
	ActivitySvc    *activity.Service
	CourseSvc      *course.Service
	EnrollmentSvc  *enrollment.Service
	CertificateSvc *certificate.Service
}

func newAssistantService(p assistantParams) *assistant.Service {
	return assistant.NewService(p.Client, p.UserSvc, p.ActivitySvc, p.CourseSvc, p.EnrollmentSvc, p.CertificateSvc)
}

type depsParams struct {
	dig.In

	Logger         core.Logger
	DB             core.DB
	Validate       *validator.Validate
	Translator     ut.Translator
	Sessions       *session.Manager
	Files          core.FileStore
	UserSvc        *user.Service
	AuditSvc       *audit.Service
	ActivitySvc    *activity.Service
	CourseSvc      *course.Service
	EnrollmentSvc  *enrollment.Service
	CertificateSvc *certificate.Service
	ReportSvc      *report.Service
	AssistantSvc   *assistant.Service
}

func newDeps(p depsParams) *echoapi.Deps {
	return &echoapi.Deps{
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Sessions:   p.Sessions,
		Files:      p.Files,
		StatusCheck: func(ctx context.Context) error {
			return database.StatusCheck(ctx, p.DB)
		},
		UserSvc:        p.UserSvc,
		AuditSvc:       p.AuditSvc,
		ActivitySvc:    p.ActivitySvc,
		CourseSvc:      p.CourseSvc,
		EnrollmentSvc:  p.EnrollmentSvc,
		CertificateSvc: p.CertificateSvc,
		ReportSvc:      p.ReportSvc,
		AssistantSvc:   p.AssistantSvc,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// ambient
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newFileStore))
	must(c.Provide(aisvc.NewClient))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewSessionStore, dig.As(new(session.Store))))
	must(c.Provide(sqlxrepos.NewAuditRepository, dig.As(new(audit.Repository))))
	must(c.Provide(sqlxrepos.NewActivityRepository, dig.As(new(activity.Repository))))
	must(c.Provide(sqlxrepos.NewCourseRepository, dig.As(new(course.Repository))))
	must(c.Provide(sqlxrepos.NewEnrollmentRepository, dig.As(new(enrollment.Repository))))
	must(c.Provide(sqlxrepos.NewCertificateRepository, dig.As(new(certificate.Repository))))
	must(c.Provide(sqlxrepos.NewReportRepository, dig.As(new(report.Repository))))

	// services
	must(c.Provide(newSessionManager))
	must(c.Provide(audit.NewService))
	must(c.Provide(newUserService))
	must(c.Provide(newActivityService))
	must(c.Provide(course.NewService))
	must(c.Provide(newCertificateService))
	must(c.Provide(newEnrollmentService))
	must(c.Provide(report.NewService))
	must(c.Provide(newAssistantService))

	// server
	must(c.Provide(newShutdownChannel))
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
