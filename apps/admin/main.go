package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/notification"
	emailsvc "github.com/koda-tec/sistema-escolar/services/email"
	logsvc "github.com/koda-tec/sistema-escolar/services/logger"
	webpushsvc "github.com/koda-tec/sistema-escolar/services/push"
	"github.com/koda-tec/sistema-escolar/storage/database"
	sqlxrepos "github.com/koda-tec/sistema-escolar/storage/database/sqlx"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	logger = logsvc.NewRollbarLogger(zl.Named("admin"), conf)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)

	cli := commandLine{conf: conf, validate: validate, out: os.Stdout}

	if needsDB(os.Args) {
		// set up DB
		db, err := database.Open(context.Background(), conf)
		errAndDie(err)
		defer db.Close()
		cli.db = db

		notifySvc, err := newNotificationService(conf, db, zl)
		errAndDie(err)
		defer notifySvc.Close()
		cli.notifier = notifySvc
	}

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %s", err), err)
		}
		os.Exit(1)
	}
}

func newNotificationService(conf *core.Config, db *sqlx.DB, zl *zap.Logger) (*notification.Service, error) {
	emailSvc, err := emailsvc.NewService(context.Background(), conf, zl.Named("email"))
	if err != nil {
		return nil, err
	}

	var pushCh notification.PushChannel
	if svc, err := webpushsvc.NewService(sqlxrepos.NewPushRepository(db), conf.Push, logger); err == nil {
		pushCh = svc
	}

	return notification.NewService(sqlxrepos.NewDirectoryRepository(db), emailSvc, pushCh, logger, notification.Options{
		Workers: conf.Notify.Workers,
		Site:    core.Site{AppName: conf.AppName, FrontendBaseURL: conf.FrontendBaseURL},
	})
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
