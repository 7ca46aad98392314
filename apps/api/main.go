package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/jmoiron/sqlx"

	dig_container "github.com/trezcool/sejali/apps/api/di/dig"
	echoapi "github.com/trezcool/sejali/apps/api/echo"
	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/session"
	"github.com/trezcool/sejali/storage/database"
)

// sessionPurgeInterval is how often expired sessions are deleted from the store.
const sessionPurgeInterval = time.Hour

func main() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		db *sqlx.DB,
		courseRepo course.Repository,
		sessions *session.Manager,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := db.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		defer apiLogger.Info("Application stopped")

		if conf.SeedCourses {
			n, err := database.SeedCourses(context.Background(), courseRepo)
			if err != nil {
				dbLogger.Error("seeding courses failed", err)
			} else if n > 0 {
				dbLogger.Info(fmt.Sprintf("seeded %d sample courses", n))
			}
		}

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Purge expired sessions

		purgeCtx, stopPurge := context.WithCancel(context.Background())
		defer stopPurge()
		go purgeSessions(purgeCtx, sessions, dbLogger)

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func purgeSessions(ctx context.Context, sessions *session.Manager, logger core.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.Purge(ctx)
			if err != nil {
				logger.Warn("purging expired sessions failed", err)
				continue
			}
			if n > 0 {
				logger.Debug(fmt.Sprintf("purged %d expired sessions", n))
			}
		}
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
