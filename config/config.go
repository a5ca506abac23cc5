package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const envPrefix = "WAMANAGER_"

// SysConfig system settings
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig admin api listener
type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LogConfig logger settings
type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// DBConfig operation log database. Instance state is never stored here.
type DBConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

// RemoteConfig remote instance service endpoint
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// TenantConfig build-time tenant defaults
type TenantConfig struct {
	LocationID string `yaml:"location_id"`
	NamePrefix string `yaml:"name_prefix"`
}

// SessionConfig tenant session housekeeping
type SessionConfig struct {
	IdleTTL            time.Duration `yaml:"idle_ttl"`
	SweepSpec          string        `yaml:"sweep_spec"`
	Workers            int           `yaml:"workers"`
	NotificationBuffer int           `yaml:"notification_buffer"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Logger   LogConfig     `yaml:"logger"`
	Database DBConfig      `yaml:"database"`
	Remote   RemoteConfig  `yaml:"remote"`
	Tenant   TenantConfig  `yaml:"tenant"`
	Session  SessionConfig `yaml:"session"`
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "WAManager",
			Location: "America/Mexico_City",
			Workdir:  "/var/wamanager",
		},
		Web: WebConfig{Host: "0.0.0.0", Port: 1817},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/wamanager/wamanager.log",
		},
		Database: DBConfig{
			Type:     "sqlite",
			Name:     "wamanager.db",
			MaxConn:  20,
			IdleConn: 5,
		},
		Remote: RemoteConfig{
			BaseURL: "https://api.connectleads.pro/webhook/whatsapp",
			Timeout: 30 * time.Second,
		},
		Tenant: TenantConfig{NamePrefix: "{location}_wa"},
		Session: SessionConfig{
			IdleTTL:            30 * time.Minute,
			SweepSpec:          "@every 1m",
			Workers:            16,
			NotificationBuffer: 32,
		},
	}
}

// Load reads the yaml file at path (optional) over the defaults and then
// applies WAMANAGER_* environment overrides.
func Load(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(envPrefix + key); ok {
			if n, err := cast.ToIntE(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok {
			if b, err := cast.ToBoolE(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + key); ok {
			if d, err := cast.ToDurationE(strings.TrimSpace(v)); err == nil {
				*dst = d
			}
		}
	}

	str("SYSTEM_WORKDIR", &c.System.Workdir)
	str("SYSTEM_LOCATION", &c.System.Location)
	flag("SYSTEM_DEBUG", &c.System.Debug)
	str("WEB_HOST", &c.Web.Host)
	num("WEB_PORT", &c.Web.Port)
	str("LOGGER_MODE", &c.Logger.Mode)
	flag("LOGGER_FILE_ENABLE", &c.Logger.FileEnable)
	flag("DB_ENABLED", &c.Database.Enabled)
	str("DB_TYPE", &c.Database.Type)
	str("DB_HOST", &c.Database.Host)
	num("DB_PORT", &c.Database.Port)
	str("DB_NAME", &c.Database.Name)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWD", &c.Database.Passwd)
	str("REMOTE_BASE_URL", &c.Remote.BaseURL)
	dur("REMOTE_TIMEOUT", &c.Remote.Timeout)
	str("TENANT_LOCATION_ID", &c.Tenant.LocationID)
	str("TENANT_NAME_PREFIX", &c.Tenant.NamePrefix)
	dur("SESSION_IDLE_TTL", &c.Session.IdleTTL)
	num("SESSION_WORKERS", &c.Session.Workers)
}

// Validate checks the fields the service cannot start without.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Remote.BaseURL) == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if c.Web.Port <= 0 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port %d out of range", c.Web.Port)
	}
	switch strings.ToLower(c.Database.Type) {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return fmt.Errorf("database.type %q not supported", c.Database.Type)
	}
	if c.Session.Workers <= 0 {
		c.Session.Workers = 1
	}
	if c.Session.NotificationBuffer <= 0 {
		c.Session.NotificationBuffer = 32
	}
	return nil
}

// GetLogDir returns the log directory under the workdir.
func (c *AppConfig) GetLogDir() string {
	return filepath.Join(c.System.Workdir, "logs")
}

// GetDataDir returns the data directory under the workdir.
func (c *AppConfig) GetDataDir() string {
	return filepath.Join(c.System.Workdir, "data")
}
