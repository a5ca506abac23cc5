package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() error {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	spec := a.appConfig.Session.SweepSpec
	if spec == "" {
		spec = "@every 1m"
	}
	if _, err = a.sched.AddFunc(spec, a.SchedSessionSweepTask); err != nil {
		zap.S().Errorf("init job error %s", err.Error())
		return err
	}

	if a.audit != nil {
		if _, err = a.sched.AddFunc("@daily", a.SchedClearExpireData); err != nil {
			zap.S().Errorf("init job error %s", err.Error())
			return err
		}
	}

	a.sched.Start()
	return nil
}

// SchedSessionSweepTask evicts idle tenant sessions
func (a *Application) SchedSessionSweepTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	if n := a.sessions.Sweep(); n > 0 {
		zap.L().Info("app: idle sessions evicted", zap.Int("count", n))
	}
}

// SchedClearExpireData purges expired operation log rows
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	n, err := a.audit.Purge(time.Now().Add(-OperationLogRetention))
	if err != nil {
		zap.L().Error("app: operation log purge failed", zap.Error(err))
		return
	}
	zap.L().Info("app: operation log purged", zap.Int64("rows", n))
}
