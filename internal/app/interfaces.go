package app

import (
	"github.com/connectleads/wamanager/config"
	"github.com/connectleads/wamanager/internal/lifecycle"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}

// SessionProvider provides the per-tenant lifecycle sessions
type SessionProvider interface {
	Sessions() *SessionStore
}

// DispatcherProvider provides the background pool for card actions
type DispatcherProvider interface {
	Dispatcher() *lifecycle.Dispatcher
}

// AuditProvider provides the operation log
type AuditProvider interface {
	Audit() *AuditRecorder
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SchedulerProvider
	SessionProvider
	DispatcherProvider
	AuditProvider
}
