package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/session"
	"github.com/trezcool/sejali/core/user"
	emailsvc "github.com/trezcool/sejali/services/email"
	logsvc "github.com/trezcool/sejali/services/logger"
	"github.com/trezcool/sejali/storage/database"
	sqlxrepos "github.com/trezcool/sejali/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	appLogger := logsvc.NewRollbarLogger(logger, conf)
	defer appLogger.Close()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up services
	usrRepo := sqlxrepos.NewUserRepository(db)
	auditSvc := audit.NewSyncService(sqlxrepos.NewAuditRepository(db), appLogger)
	sessions := session.NewManager(sqlxrepos.NewSessionStore(db), conf.Server.SessionTTL)
	mailSvc := emailsvc.NewConsoleService(conf, appLogger)

	// start CLI
	cli := commandLine{
		db:         db,
		validate:   validate,
		usrRepo:    usrRepo,
		usrSvc:     user.NewService(usrRepo, auditSvc, mailSvc, sessions),
		courseRepo: sqlxrepos.NewCourseRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
