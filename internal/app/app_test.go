package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/connectleads/wamanager/config"
	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/errs"
	"github.com/connectleads/wamanager/internal/instancesvc/instancesvctest"
	"github.com/connectleads/wamanager/internal/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection, otherwise every connection sees its own empty database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func sessionConfig() config.SessionConfig {
	return config.SessionConfig{IdleTTL: 10 * time.Minute, SweepSpec: "@every 1m", Workers: 2, NotificationBuffer: 8}
}

func TestAuditRecorder(t *testing.T) {
	r := NewAuditRecorder(testDB(t), testNode(t))
	now := time.Now()

	r.Record(lifecycle.Notification{LocationID: "loc", Action: "create", Level: lifecycle.LevelInfo,
		Message: "instance created", Time: now.Add(-400 * 24 * time.Hour)})
	r.Record(lifecycle.Notification{LocationID: "loc", Action: "turn_off", InstanceName: "loc_wa1",
		Level: lifecycle.LevelError, Code: "REMOTE_CALL_FAILED", Message: "failed", Time: now})
	r.Record(lifecycle.Notification{LocationID: "other", Action: "delete", Level: lifecycle.LevelInfo, Message: "x"})

	rows, err := r.Recent(context.Background(), "loc", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "turn_off", rows[0].Action, "newest first")
	assert.Equal(t, "REMOTE_CALL_FAILED", rows[0].Code)
	assert.NotZero(t, rows[0].ID)

	all, err := r.Recent(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := r.Purge(now.Add(-OperationLogRetention))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	rows, err = r.Recent(context.Background(), "loc", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSessionStore_CreatesOncePerTenant(t *testing.T) {
	f := instancesvctest.New()
	f.Seed("loc", domain.WhatsAppInstance{ID: "i1", InstanceName: "loc_wa1"})
	st := NewSessionStore(f, config.TenantConfig{NamePrefix: "{location}_wa"}, sessionConfig(), testNode(t), nil)
	ctx := context.Background()

	s1, err := st.Get(ctx, "loc")
	require.NoError(t, err)
	assert.True(t, s1.Manager.Registry().Loaded(), "registry populated on first use")
	assert.Equal(t, "loc_wa", s1.Manager.Tenant().NamePrefix)

	s2, err := st.Get(ctx, "loc")
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, f.Calls(instancesvctest.OpList))
	assert.Equal(t, 1, st.Len())
}

func TestSessionStore_TenantResolution(t *testing.T) {
	f := instancesvctest.New()
	st := NewSessionStore(f, config.TenantConfig{}, sessionConfig(), testNode(t), nil)
	_, err := st.Get(context.Background(), "  ")
	assert.True(t, errors.Is(err, errs.ErrTenantUnresolved))
	assert.Equal(t, 0, f.TotalCalls())
	assert.Equal(t, 0, st.Len())

	st = NewSessionStore(f, config.TenantConfig{LocationID: "cfg"}, sessionConfig(), testNode(t), nil)
	s, err := st.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "cfg", s.Manager.Tenant().LocationID)
}

func TestSessionStore_NotificationsBufferedAndAudited(t *testing.T) {
	f := instancesvctest.New()
	audit := NewAuditRecorder(testDB(t), testNode(t))
	cfg := sessionConfig()
	cfg.NotificationBuffer = 2
	st := NewSessionStore(f, config.TenantConfig{}, cfg, testNode(t), audit)
	ctx := context.Background()

	s, err := st.Get(ctx, "loc")
	require.NoError(t, err)
	assert.Empty(t, s.Drain())

	f.Fail(instancesvctest.OpList, errors.New("down"))
	for i := 0; i < 3; i++ {
		_, err = s.Manager.Refresh(ctx)
		require.Error(t, err)
	}

	notes := s.Drain()
	assert.Len(t, notes, 2, "buffer keeps the newest")
	assert.Equal(t, lifecycle.LevelError, notes[0].Level)
	assert.Empty(t, s.Drain())

	rows, err := audit.Recent(ctx, "loc", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSessionStore_SweepAndClose(t *testing.T) {
	f := instancesvctest.New()
	st := NewSessionStore(f, config.TenantConfig{}, sessionConfig(), testNode(t), nil)
	now := time.Now()
	st.now = func() time.Time { return now }
	ctx := context.Background()

	idle, err := st.Get(ctx, "a")
	require.NoError(t, err)
	now = now.Add(8 * time.Minute)
	_, err = st.Get(ctx, "b")
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 1, st.Len())
	assert.True(t, idle.Manager.Closed())

	assert.True(t, st.Close("b"))
	assert.False(t, st.Close("b"))
	assert.Equal(t, 0, st.Len())
}

func TestApplication_Setup(t *testing.T) {
	cfg := config.Default()
	cfg.Session = sessionConfig()

	a := NewApplication(cfg)
	a.OverrideService(instancesvctest.New())
	a.OverrideDB(testDB(t))
	require.NoError(t, a.Setup())
	defer a.Release()

	assert.NotNil(t, a.Audit())
	assert.NotNil(t, a.Sessions())
	assert.NotNil(t, a.Dispatcher())
	assert.Len(t, a.Scheduler().Entries(), 2)

	b := NewApplication(cfg)
	b.OverrideService(instancesvctest.New())
	require.NoError(t, b.Setup())
	defer b.Release()
	assert.Nil(t, b.Audit())
	assert.Len(t, b.Scheduler().Entries(), 1)
}

func TestGetDatabase_SqliteUnderDataDir(t *testing.T) {
	dir := t.TempDir()
	db, err := getDatabase(config.DBConfig{Type: "sqlite", Name: "ops.db"}, dir)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	assert.FileExists(t, dir+"/ops.db")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestDebugTrace(t *testing.T) {
	t.Setenv("GO_DEBUG_TRACE", "")
	assert.False(t, debugTrace())
	t.Setenv("GO_DEBUG_TRACE", "1")
	assert.True(t, debugTrace())
}
