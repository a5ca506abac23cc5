package app

import (
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	"github.com/connectleads/wamanager/config"
	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/instancesvc"
	"github.com/connectleads/wamanager/internal/lifecycle"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// snowflakeNode is the id node shared by notifications and the operation log.
const snowflakeNode int64 = 1

type Application struct {
	appConfig  *config.AppConfig
	gormDB     *gorm.DB
	sched      *cron.Cron
	svc        instancesvc.Service
	node       *snowflake.Node
	sessions   *SessionStore
	audit      *AuditRecorder
	dispatcher *lifecycle.Dispatcher
}

// Ensure Application implements all interfaces
var (
	_ DBProvider         = (*Application)(nil)
	_ ConfigProvider     = (*Application)(nil)
	_ SchedulerProvider  = (*Application)(nil)
	_ SessionProvider    = (*Application)(nil)
	_ DispatcherProvider = (*Application)(nil)
	_ AuditProvider      = (*Application)(nil)
	_ AppContext         = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

// DB returns the operation log database, nil when it is disabled.
func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
}

// OverrideService replaces the remote instance service (used in tests).
func (a *Application) OverrideService(svc instancesvc.Service) {
	a.svc = svc
}

func (a *Application) Service() instancesvc.Service {
	return a.svc
}

// InitLogger installs the global zap logger, with rotated file output when
// enabled.
func InitLogger(cfg config.LogConfig) {
	var zapConfig zap.Config
	if cfg.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller())
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)
}

// Init prepares logging, the remote client and the optional database, then
// builds the session machinery.
func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	InitLogger(cfg.Logger)

	if a.svc == nil {
		a.svc = instancesvc.NewHTTPClient(cfg.Remote.BaseURL, cfg.Remote.Timeout)
	}

	if cfg.Database.Enabled && a.gormDB == nil {
		a.gormDB, err = getDatabase(cfg.Database, cfg.GetDataDir())
		if err != nil {
			zap.L().Error("app: database unavailable, operation log disabled", zap.Error(err))
		} else {
			zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)
		}
	}

	return a.Setup()
}

// Setup migrates the database when present and builds the id node, audit
// recorder, dispatcher, session store and scheduled jobs.
func (a *Application) Setup() error {
	node, err := snowflake.NewNode(snowflakeNode)
	if err != nil {
		return err
	}
	a.node = node

	if a.gormDB != nil {
		if err := a.MigrateDB(false); err != nil {
			zap.S().Errorf("database migration failed: %v", err)
		}
		a.audit = NewAuditRecorder(a.gormDB, node)
	}

	a.dispatcher, err = lifecycle.NewDispatcher(a.appConfig.Session.Workers)
	if err != nil {
		return err
	}
	a.sessions = NewSessionStore(a.svc, a.appConfig.Tenant, a.appConfig.Session, node, a.audit)

	return a.initJob()
}

// debugTrace reports whether GO_DEBUG_TRACE asks for stack dumps on recovered panics.
func debugTrace() bool {
	return os.Getenv("GO_DEBUG_TRACE") != ""
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if debugTrace() {
				debug.PrintStack()
			}
			if err2, ok := err1.(error); ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	return db.Migrator().AutoMigrate(domain.Tables...)
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Sessions() *SessionStore {
	return a.sessions
}

func (a *Application) Dispatcher() *lifecycle.Dispatcher {
	return a.dispatcher
}

// Audit returns the operation log recorder, nil without a database.
func (a *Application) Audit() *AuditRecorder {
	return a.audit
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		<-a.sched.Stop().Done()
	}
	if a.sessions != nil {
		a.sessions.CloseAll()
	}
	if a.dispatcher != nil {
		a.dispatcher.Release()
	}
	if a.gormDB != nil {
		if sqlDB, err := a.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	_ = zap.L().Sync()
}
