package lifecycle

import (
	"context"

	"github.com/connectleads/wamanager/internal/errs"
)

// DeleteState is the phase of the two-step delete.
type DeleteState string

const (
	DeleteIdle           DeleteState = "idle"
	DeleteConfirmPending DeleteState = "confirm_pending"
	DeleteDeleting       DeleteState = "deleting"
)

type deleteSession struct {
	state DeleteState
	name  string
}

// DeleteView is a read-only copy of the delete confirmation.
type DeleteView struct {
	State        DeleteState `json:"state"`
	InstanceName string      `json:"instance_name,omitempty"`
}

// PendingDelete returns the delete confirmation state.
func (m *Manager) PendingDelete() DeleteView {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.del.state == "" {
		return DeleteView{State: DeleteIdle}
	}
	return DeleteView{State: m.del.state, InstanceName: m.del.name}
}

// RequestDelete asks for confirmation to delete instanceName.
func (m *Manager) RequestDelete(instanceName string) (DeleteView, error) {
	const op = "request delete"
	if err := m.guard(op); err != nil {
		return DeleteView{}, err
	}
	if _, err := m.lookup(op, instanceName); err != nil {
		return DeleteView{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.del.state == DeleteDeleting {
		return DeleteView{State: m.del.state, InstanceName: m.del.name}, errs.With(errs.ErrBusy, op)
	}
	m.del = deleteSession{state: DeleteConfirmPending, name: instanceName}
	return DeleteView{State: m.del.state, InstanceName: instanceName}, nil
}

// CancelDelete drops a pending confirmation.
func (m *Manager) CancelDelete() error {
	const op = "cancel delete"
	if err := m.guard(op); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.del.state == DeleteDeleting {
		return errs.With(errs.ErrBusy, op)
	}
	m.del = deleteSession{}
	return nil
}

// BeginDelete moves a pending confirmation to deleting and returns the
// instance name. ConfirmDelete is BeginDelete followed by FinishDelete; the
// split lets callers run the remote part in the background.
func (m *Manager) BeginDelete() (string, error) {
	const op = "confirm delete"
	if err := m.guard(op); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.del.state {
	case DeleteConfirmPending:
	case DeleteDeleting:
		return "", errs.With(errs.ErrBusy, op)
	default:
		return "", errs.New(errs.CodeInvalidState, op, "no delete is awaiting confirmation")
	}
	m.del.state = DeleteDeleting
	return m.del.name, nil
}

// FinishDelete issues the remote delete for a confirmation started with
// BeginDelete. The confirmation is cleared either way; nothing is retried.
func (m *Manager) FinishDelete(ctx context.Context, instanceName string) error {
	err := m.svc.DeleteInstance(ctx, m.tenant.LocationID, instanceName)

	m.mu.Lock()
	if m.del.name == instanceName {
		m.del = deleteSession{}
	}
	m.mu.Unlock()

	if err != nil {
		m.notifyErr(ActionDelete, instanceName, err)
		return err
	}
	m.afterMutation(ctx, ActionDelete, instanceName, "instance deleted")
	return nil
}

// ConfirmDelete deletes the instance awaiting confirmation.
func (m *Manager) ConfirmDelete(ctx context.Context) (string, error) {
	name, err := m.BeginDelete()
	if err != nil {
		return "", err
	}
	return name, m.FinishDelete(ctx, name)
}
