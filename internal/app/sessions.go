package app

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/connectleads/wamanager/config"
	"github.com/connectleads/wamanager/internal/errs"
	"github.com/connectleads/wamanager/internal/instancesvc"
	"github.com/connectleads/wamanager/internal/lifecycle"
	"go.uber.org/zap"
)

// Session is one tenant's lifecycle manager plus the notifications not yet
// picked up by the UI.
type Session struct {
	Manager *lifecycle.Manager

	mu       sync.Mutex
	pending  []lifecycle.Notification
	limit    int
	lastUsed time.Time
}

func (s *Session) push(note lifecycle.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, note)
	if over := len(s.pending) - s.limit; over > 0 {
		// oldest notifications are dropped first
		s.pending = append([]lifecycle.Notification(nil), s.pending[over:]...)
	}
}

// Drain returns and clears the pending notifications.
func (s *Session) Drain() []lifecycle.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	if out == nil {
		out = []lifecycle.Notification{}
	}
	return out
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SessionStore keeps one session per tenant.
type SessionStore struct {
	svc      instancesvc.Service
	tenant   config.TenantConfig
	cfg      config.SessionConfig
	node     *snowflake.Node
	audit    *AuditRecorder
	now      func() time.Time
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store. audit may be nil.
func NewSessionStore(svc instancesvc.Service, tenant config.TenantConfig, cfg config.SessionConfig,
	node *snowflake.Node, audit *AuditRecorder) *SessionStore {
	return &SessionStore{
		svc:      svc,
		tenant:   tenant,
		cfg:      cfg,
		node:     node,
		audit:    audit,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Resolve derives the tenant from a request's locationId.
func (st *SessionStore) Resolve(query string) lifecycle.Tenant {
	return lifecycle.ResolveTenant(query, st.tenant.LocationID, st.tenant.NamePrefix)
}

// Get returns the session of the tenant named by query, creating and
// populating it on first use.
func (st *SessionStore) Get(ctx context.Context, query string) (*Session, error) {
	tenant := st.Resolve(query)
	if !tenant.Resolved() {
		return nil, errs.With(errs.ErrTenantUnresolved, "session")
	}

	st.mu.Lock()
	if s, ok := st.sessions[tenant.LocationID]; ok {
		st.mu.Unlock()
		s.touch(st.now())
		return s, nil
	}
	s, err := st.newSession(tenant)
	if err != nil {
		st.mu.Unlock()
		return nil, err
	}
	st.sessions[tenant.LocationID] = s
	st.mu.Unlock()

	zap.L().Info("app: tenant session opened", zap.String("location_id", tenant.LocationID))
	if _, err := s.Manager.Refresh(ctx); err != nil {
		// the session stays; the next read retries the load
		zap.L().Warn("app: initial instance load failed",
			zap.String("location_id", tenant.LocationID), zap.Error(err))
	}
	return s, nil
}

func (st *SessionStore) newSession(tenant lifecycle.Tenant) (*Session, error) {
	notifier := lifecycle.NewNotifier(st.node)
	s := &Session{
		Manager:  lifecycle.NewManager(tenant, st.svc, notifier),
		limit:    st.cfg.NotificationBuffer,
		lastUsed: st.now(),
	}
	if s.limit <= 0 {
		s.limit = 32
	}
	if err := notifier.Subscribe(s.push); err != nil {
		return nil, err
	}
	if st.audit != nil {
		if err := st.audit.Attach(notifier); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close tears down the session of locationID. It reports whether one existed.
func (st *SessionStore) Close(locationID string) bool {
	st.mu.Lock()
	s, ok := st.sessions[locationID]
	delete(st.sessions, locationID)
	st.mu.Unlock()
	if ok {
		s.Manager.Close()
		zap.L().Info("app: tenant session closed", zap.String("location_id", locationID))
	}
	return ok
}

// Sweep closes sessions idle for longer than the configured ttl.
func (st *SessionStore) Sweep() int {
	if st.cfg.IdleTTL <= 0 {
		return 0
	}
	deadline := st.now().Add(-st.cfg.IdleTTL)
	var idle []string
	st.mu.Lock()
	for loc, s := range st.sessions {
		if s.idleSince().Before(deadline) {
			idle = append(idle, loc)
		}
	}
	st.mu.Unlock()
	for _, loc := range idle {
		st.Close(loc)
	}
	return len(idle)
}

// CloseAll tears every session down.
func (st *SessionStore) CloseAll() {
	st.mu.Lock()
	locs := make([]string, 0, len(st.sessions))
	for loc := range st.sessions {
		locs = append(locs, loc)
	}
	st.mu.Unlock()
	for _, loc := range locs {
		st.Close(loc)
	}
}

// Len returns the number of open sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
