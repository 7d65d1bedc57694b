package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

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

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	errAndDie(database.CreateIfNotExist(core.Conf))
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	dbx := sqlx.NewDb(db, "postgres")

	appLogger := logsvc.NewStdLogger(logger)
	mailSvc := emailsvc.NewConsoleService()
	mediaSvc := mediasvc.NewLocalService(core.Conf)

	usrRepo := sqlxrepos.NewUserRepository(dbx)

	// start CLI
	cli := commandLine{
		db:         db,
		usrRepo:    usrRepo,
		usrSvc:     user.NewService(usrRepo, mailSvc, appLogger),
		catalogSvc: catalog.NewService(sqlxrepos.NewCatalogRepository(dbx)),
		callSvc:    call.NewService(sqlxrepos.NewCallRepository(dbx), appLogger),
		contentSvc: content.NewService(sqlxrepos.NewContentRepository(dbx), mediaSvc, mailSvc, appLogger),
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
