package logsvc

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/koda-tec/sistema-escolar/core"
)

// NewZap builds the process-wide zap logger: development encoding in debug mode, JSON otherwise.
func NewZap(conf *core.Config) (*zap.Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if conf.Debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger")
	}
	return zl.With(zap.String("app", conf.AppName), zap.String("env", conf.Env), zap.String("build", conf.Build)), nil
}
