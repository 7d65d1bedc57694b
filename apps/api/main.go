package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/cmabris/erasmus25/apps/api/echo"
	"github.com/cmabris/erasmus25/core"
	"github.com/cmabris/erasmus25/core/call"
	"github.com/cmabris/erasmus25/core/catalog"
	"github.com/cmabris/erasmus25/core/content"
	"github.com/cmabris/erasmus25/core/user"
	emailsvc "github.com/cmabris/erasmus25/services/email"
	logsvc "github.com/cmabris/erasmus25/services/logger"
	mediasvc "github.com/cmabris/erasmus25/services/media"
	"github.com/cmabris/erasmus25/storage/database"
	sqlxrepos "github.com/cmabris/erasmus25/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}
	logger.Enable(true)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close DB", err)
		}
	}()
	dbx := sqlx.NewDb(db, "postgres")

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	mediaSvc := mediasvc.NewLocalService(conf)

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(dbx), mailSvc, logger)
	catalogSvc := catalog.NewService(sqlxrepos.NewCatalogRepository(dbx))
	callSvc := call.NewService(sqlxrepos.NewCallRepository(dbx), logger)
	contentSvc := content.NewService(sqlxrepos.NewContentRepository(dbx), mediaSvc, mailSvc, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Options{
		Address:    fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port),
		Logger:     logger,
		UserSvc:    usrSvc,
		CatalogSvc: catalogSvc,
		CallSvc:    callSvc,
		ContentSvc: contentSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-server.ShutdownSignal()
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

const shutdownTimeout = 5 * time.Second

func setUpDB(conf *core.Config) (*sql.DB, error) {
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
