package lifecycle

import (
	"context"
	"sync"

	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/errs"
	"go.uber.org/zap"
)

// BeginTurnOff checks that instanceName is connected and marks it busy.
// Other instances stay actionable while it is in flight.
func (m *Manager) BeginTurnOff(instanceName string) error {
	const op = "turn off"
	if err := m.guard(op); err != nil {
		return err
	}
	inst, err := m.lookup(op, instanceName)
	if err != nil {
		return err
	}
	if !inst.Status().CanDisconnect() {
		return errs.New(errs.CodeInvalidState, op, "instance "+instanceName+" is not connected")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.turning[instanceName] {
		return errs.With(errs.ErrBusy, op)
	}
	m.turning[instanceName] = true
	return nil
}

// FinishTurnOff issues the turn-off started with BeginTurnOff. A failure
// leaves the registry untouched.
func (m *Manager) FinishTurnOff(ctx context.Context, instanceName string) error {
	err := m.svc.TurnOff(ctx, m.tenant.LocationID, instanceName)

	m.mu.Lock()
	delete(m.turning, instanceName)
	m.mu.Unlock()

	if err != nil {
		m.notifyErr(ActionTurnOff, instanceName, err)
		return err
	}
	m.afterMutation(ctx, ActionTurnOff, instanceName, "instance disconnected")
	return nil
}

// TurnOff disconnects a connected instance.
func (m *Manager) TurnOff(ctx context.Context, instanceName string) error {
	if err := m.BeginTurnOff(instanceName); err != nil {
		return err
	}
	return m.FinishTurnOff(ctx, instanceName)
}

// TurningOff reports whether a turn-off for instanceName is in flight.
func (m *Manager) TurningOff(instanceName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turning[instanceName]
}

// DetailSession is the connection view of one not yet connected instance.
// The QR is only fetched when the operator asks for it.
type DetailSession struct {
	m        *Manager
	instance domain.WhatsAppInstance

	mu     sync.Mutex
	qr     domain.QRCode
	live   domain.LiveData
	closed bool
}

// DetailView is a read-only copy of a detail session.
type DetailView struct {
	Instance domain.WhatsAppInstance `json:"instance"`
	Status   domain.Status           `json:"status"`
	QR       domain.QRCode           `json:"qr"`
	LiveData domain.LiveData         `json:"live_data"`
	Open     bool                    `json:"open"`
}

// OpenDetail enters the connection view of instanceName, replacing any
// previous one.
func (m *Manager) OpenDetail(ctx context.Context, instanceName string) (*DetailSession, error) {
	const op = "open detail"
	if err := m.guard(op); err != nil {
		return nil, err
	}
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	inst, err := m.lookup(op, instanceName)
	if err != nil {
		return nil, err
	}
	if !inst.Status().CanConnect() {
		return nil, errs.New(errs.CodeInvalidState, op, "instance "+instanceName+" is already connected")
	}
	d := &DetailSession{m: m, instance: inst}
	m.mu.Lock()
	prev := m.detail
	m.detail = d
	m.mu.Unlock()
	if prev != nil {
		prev.close()
	}
	return d, nil
}

// Detail returns the open detail session, nil when there is none.
func (m *Manager) Detail() *DetailSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detail
}

func (d *DetailSession) InstanceName() string {
	return d.instance.InstanceName
}

// View returns the session state.
func (d *DetailSession) View() DetailView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DetailView{
		Instance: d.instance,
		Status:   d.instance.Status(),
		QR:       d.qr,
		LiveData: d.live,
		Open:     !d.closed,
	}
}

func (d *DetailSession) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// Closed reports whether the session was left or replaced.
func (d *DetailSession) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// RefreshQR fetches a new pairing challenge. A failed fetch yields the empty
// placeholder and a warning, not an error. A response arriving after the
// session closed is dropped.
func (d *DetailSession) RefreshQR(ctx context.Context) (domain.QRCode, error) {
	const op = "refresh qr"
	if err := d.m.guard(op); err != nil {
		return domain.QRCode{}, err
	}
	if d.Closed() {
		return domain.QRCode{}, errs.New(errs.CodeInvalidState, op, "detail session closed")
	}
	qr, err := d.m.svc.GetQR(ctx, d.m.tenant.LocationID, d.instance.InstanceName)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		zap.L().Debug("lifecycle: qr response dropped, detail session closed",
			zap.String("location_id", d.m.tenant.LocationID), zap.String("instance_name", d.instance.InstanceName))
		return domain.QRCode{}, errs.New(errs.CodeInvalidState, op, "detail session closed")
	}
	if err != nil {
		qr = domain.QRCode{}
	}
	d.qr = qr
	d.mu.Unlock()

	if err != nil {
		d.m.notify(LevelWarning, ActionQR, d.instance.InstanceName, "QR code unavailable", err)
	}
	return qr, nil
}

// Leave reconciles the live data of the number on a best-effort basis, closes
// the session and refreshes the registry.
func (d *DetailSession) Leave(ctx context.Context) (domain.LiveData, error) {
	const op = "leave detail"
	if err := d.m.guard(op); err != nil {
		return domain.LiveData{}, err
	}
	if d.Closed() {
		return domain.LiveData{}, errs.New(errs.CodeInvalidState, op, "detail session closed")
	}
	live, err := d.m.svc.GetLiveData(ctx, d.m.tenant.LocationID, d.instance.InstanceName)
	if err != nil {
		live = domain.LiveData{}
		d.m.notify(LevelWarning, ActionLeave, d.instance.InstanceName, "instance data unavailable", err)
	}

	d.mu.Lock()
	d.live = live
	d.closed = true
	d.mu.Unlock()

	d.m.mu.Lock()
	if d.m.detail == d {
		d.m.detail = nil
	}
	d.m.mu.Unlock()

	if _, err := d.m.Refresh(ctx); err != nil {
		return live, err
	}
	return live, nil
}
