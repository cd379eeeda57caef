package dig_container

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/koda-tec/sistema-escolar/apps/api/echo"
	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/attendance"
	"github.com/koda-tec/sistema-escolar/core/billing"
	"github.com/koda-tec/sistema-escolar/core/notification"
	"github.com/koda-tec/sistema-escolar/core/push"
	emailsvc "github.com/koda-tec/sistema-escolar/services/email"
	logsvc "github.com/koda-tec/sistema-escolar/services/logger"
	webpushsvc "github.com/koda-tec/sistema-escolar/services/push"
	"github.com/koda-tec/sistema-escolar/storage/database"
	inmemdb "github.com/koda-tec/sistema-escolar/storage/database/inmem"
	sqlxrepos "github.com/koda-tec/sistema-escolar/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Stores are the repositories of the configured database.
type Stores struct {
	dig.Out
	Directory  notification.Directory
	Attendance attendance.Repository
	Billing    billing.Repository
	Push       push.Store
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	NotifySvc     *notification.Service
	AttendanceSvc *attendance.Service
	BillingSvc    *billing.Service
	PushSvc       *push.Service
}

func newLogger(conf *core.Config, zl *zap.Logger) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config, zl *zap.Logger) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("db"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// newDB opens and migrates the postgres database. It returns nil in in-memory mode.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.InMemory {
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		ctx := context.Background()
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newStores(conf *core.Config, db *sqlx.DB, loggerParam DBLoggerParam) Stores {
	if conf.Database.InMemory {
		loggerParam.Logger.Warn("using the in-memory database: data is lost on restart")
		mem := inmemdb.NewDB()
		return Stores{
			Directory:  inmemdb.NewDirectoryRepository(mem),
			Attendance: inmemdb.NewAttendanceRepository(mem),
			Billing:    inmemdb.NewBillingRepository(mem),
			Push:       inmemdb.NewPushRepository(mem),
		}
	}
	return Stores{
		Directory:  sqlxrepos.NewDirectoryRepository(db),
		Attendance: sqlxrepos.NewAttendanceRepository(db),
		Billing:    sqlxrepos.NewBillingRepository(db),
		Push:       sqlxrepos.NewPushRepository(db),
	}
}

func newEmailService(conf *core.Config, zl *zap.Logger) (core.EmailService, error) {
	return emailsvc.NewService(context.Background(), conf, zl.Named("email"))
}

// newPushChannel returns nil when no VAPID key pair is configured; push is then skipped.
func newPushChannel(conf *core.Config, store push.Store, logger core.Logger) (notification.PushChannel, error) {
	svc, err := webpushsvc.NewService(store, conf.Push, logger)
	if errors.Cause(err) == webpushsvc.ErrNotConfigured {
		logger.Warn("web push is not configured: push deliveries will be skipped")
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return svc, nil
}

func newNotificationService(
	conf *core.Config,
	dir notification.Directory,
	emailSvc core.EmailService,
	pushCh notification.PushChannel,
	logger core.Logger,
) (*notification.Service, error) {
	return notification.NewService(dir, emailSvc, pushCh, logger, notification.Options{
		Workers: conf.Notify.Workers,
		Site:    core.Site{AppName: conf.AppName, FrontendBaseURL: conf.FrontendBaseURL},
	})
}

func newBillingService(conf *core.Config, repo billing.Repository, validate *validator.Validate) *billing.Service {
	return billing.NewService(repo, validate, conf.Payments)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		NotifySvc:     p.NotifySvc,
		AttendanceSvc: p.AttendanceSvc,
		BillingSvc:    p.BillingSvc,
		PushSvc:       p.PushSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(logsvc.NewZap))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newStores))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newPushChannel))
	must(c.Provide(newNotificationService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(newBillingService))
	must(c.Provide(push.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
