// Package lifecycle orchestrates the create, edit, delete and connection
// workflows of a tenant's WhatsApp instances. Every invariant is checked
// before a remote call is issued, and every successful mutation is followed
// by exactly one registry refresh.
package lifecycle

import (
	"context"
	"sync"

	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/errs"
	"github.com/connectleads/wamanager/internal/instancesvc"
	"github.com/connectleads/wamanager/internal/registry"
)

// Action names carried by notifications and the operation log.
const (
	ActionRefresh = "refresh"
	ActionUsers   = "users"
	ActionCreate  = "create"
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionTurnOff = "turn_off"
	ActionQR      = "qr"
	ActionLeave   = "leave"
)

// Manager is the per-tenant session. Its mutex is never held across a remote
// call.
type Manager struct {
	tenant   Tenant
	svc      instancesvc.Service
	reg      *registry.Registry
	notifier *Notifier

	mu       sync.Mutex
	closed   bool
	modal    *modalSession
	modalGen uint64
	del      deleteSession
	turning  map[string]bool
	detail   *DetailSession
}

// NewManager creates a manager for tenant. An unresolved tenant yields a
// manager that refuses every operation without touching svc.
func NewManager(tenant Tenant, svc instancesvc.Service, notifier *Notifier) *Manager {
	return &Manager{
		tenant:   tenant,
		svc:      svc,
		reg:      registry.New(tenant.LocationID, svc),
		notifier: notifier,
		turning:  make(map[string]bool),
	}
}

func (m *Manager) Tenant() Tenant {
	return m.tenant
}

func (m *Manager) Registry() *registry.Registry {
	return m.reg
}

func (m *Manager) Notifier() *Notifier {
	return m.notifier
}

// guard rejects operations on an unresolved tenant or a closed session.
func (m *Manager) guard(op string) error {
	if !m.tenant.Resolved() {
		return errs.With(errs.ErrTenantUnresolved, op)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errs.New(errs.CodeInvalidState, op, "session closed")
	}
	return nil
}

// Refresh reloads the registry from the remote service.
func (m *Manager) Refresh(ctx context.Context) ([]domain.WhatsAppInstance, error) {
	if err := m.guard(ActionRefresh); err != nil {
		return nil, err
	}
	items, err := m.reg.Refresh(ctx)
	if err != nil {
		m.notifyErr(ActionRefresh, "", err)
		return items, err
	}
	return items, nil
}

// Instances returns the current snapshot, loading it on first use.
func (m *Manager) Instances(ctx context.Context) ([]domain.WhatsAppInstance, error) {
	if err := m.guard(ActionRefresh); err != nil {
		return nil, err
	}
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return m.reg.Snapshot(), nil
}

func (m *Manager) ensureLoaded(ctx context.Context) error {
	if m.reg.Loaded() {
		return nil
	}
	_, err := m.Refresh(ctx)
	return err
}

// lookup finds name in the registry.
func (m *Manager) lookup(op, name string) (domain.WhatsAppInstance, error) {
	inst, ok := m.reg.Lookup(name)
	if !ok {
		return inst, errs.New(errs.CodeNotFound, op, "instance "+name+" not found")
	}
	return inst, nil
}

// afterMutation runs the single refresh that follows a confirmed mutation and
// reports the outcome.
func (m *Manager) afterMutation(ctx context.Context, action, name, msg string) {
	if _, err := m.reg.Refresh(ctx); err != nil {
		m.notifyErr(ActionRefresh, name, err)
	}
	m.notify(LevelInfo, action, name, msg, nil)
}

func (m *Manager) notify(level Level, action, name, msg string, err error) {
	note := Notification{
		LocationID:   m.tenant.LocationID,
		Action:       action,
		InstanceName: name,
		Level:        level,
		Message:      msg,
	}
	if err != nil {
		note.Code = string(errs.CodeOf(err))
		if note.Message == "" {
			note.Message = errs.MessageOf(err)
		}
	}
	logNotification(note)
	if m.notifier != nil {
		m.notifier.Publish(note)
	}
}

func (m *Manager) notifyErr(action, name string, err error) {
	m.notify(LevelError, action, name, "", err)
}

// Closed reports whether Close was called.
func (m *Manager) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close tears the session down. Responses still in flight are discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.modal = nil
	m.del = deleteSession{}
	detail := m.detail
	m.detail = nil
	m.mu.Unlock()
	if detail != nil {
		detail.close()
	}
	m.reg.Discard()
}
