package lifecycle

import (
	"context"

	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/errs"
	"github.com/connectleads/wamanager/internal/instancesvc"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ModalState is the phase of the create/edit dialog.
type ModalState string

const (
	ModalClosed       ModalState = "closed"
	ModalOpeningUsers ModalState = "opening_users"
	ModalOpen         ModalState = "open"
	ModalSubmitting   ModalState = "submitting"
)

// ModalMode tells whether the dialog creates or edits.
type ModalMode string

const (
	ModeCreate ModalMode = "create"
	ModeEdit   ModalMode = "edit"
)

const warnUsersUnavailable = "the user list could not be loaded"

// Form is what the operator submits from the dialog.
type Form struct {
	Alias        string          `json:"alias" validate:"max=128"`
	UserID       string          `json:"userId"`
	IsMainDevice bool            `json:"isMainDevice"`
	FacebookAds  bool            `json:"facebookAds"`
	NewUser      *domain.NewUser `json:"newUser,omitempty"`
}

func (f Form) config() domain.InstanceConfig {
	return domain.InstanceConfig{
		Alias:        f.Alias,
		UserID:       f.UserID,
		IsMainDevice: f.IsMainDevice,
		FacebookAds:  f.FacebookAds,
	}.Normalize()
}

func formFrom(cfg domain.InstanceConfig) Form {
	return Form{
		Alias:        cfg.Alias,
		UserID:       cfg.UserID,
		IsMainDevice: cfg.IsMainDevice,
		FacebookAds:  cfg.FacebookAds,
	}
}

type modalSession struct {
	gen     uint64
	state   ModalState
	mode    ModalMode
	users   []domain.User
	target  *domain.WhatsAppInstance
	form    Form
	warning string
	lastErr string
}

// ModalView is a read-only copy of the dialog state.
type ModalView struct {
	State     ModalState               `json:"state"`
	Mode      ModalMode                `json:"mode,omitempty"`
	Target    *domain.WhatsAppInstance `json:"target,omitempty"`
	Users     []domain.User            `json:"users"`
	Form      Form                     `json:"form"`
	Warning   string                   `json:"warning,omitempty"`
	LastError string                   `json:"last_error,omitempty"`
}

// SubmitResult describes a completed submit.
type SubmitResult struct {
	Mode         ModalMode `json:"mode"`
	InstanceName string    `json:"instance_name"`
	// Discarded is set when the dialog was closed while the call was in flight.
	Discarded bool `json:"discarded"`
}

func (s *modalSession) view() ModalView {
	if s == nil {
		return ModalView{State: ModalClosed, Users: []domain.User{}}
	}
	v := ModalView{
		State:     s.state,
		Mode:      s.mode,
		Users:     append([]domain.User{}, s.users...),
		Form:      s.form,
		Warning:   s.warning,
		LastError: s.lastErr,
	}
	if s.form.NewUser != nil {
		nu := *s.form.NewUser
		v.Form.NewUser = &nu
	}
	if s.target != nil {
		t := *s.target
		v.Target = &t
	}
	return v
}

// Modal returns the current dialog state.
func (m *Manager) Modal() ModalView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modal.view()
}

// begin installs a new dialog session. A dialog that is submitting cannot be
// replaced.
func (m *Manager) begin(op string, mode ModalMode, target *domain.WhatsAppInstance) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.modal != nil && m.modal.state == ModalSubmitting {
		return 0, errs.With(errs.ErrBusy, op)
	}
	m.modalGen++
	m.modal = &modalSession{gen: m.modalGen, state: ModalOpeningUsers, mode: mode, target: target}
	return m.modalGen, nil
}

// current returns the session if gen is still the live dialog.
func (m *Manager) current(gen uint64) *modalSession {
	if m.modal != nil && m.modal.gen == gen {
		return m.modal
	}
	return nil
}

// OpenCreate opens the create dialog. Capacity is checked before anything is
// fetched. When the user list fails to load the dialog opens anyway with no
// users and a warning.
func (m *Manager) OpenCreate(ctx context.Context) (ModalView, error) {
	const op = "open create"
	if err := m.guard(op); err != nil {
		return ModalView{}, err
	}
	if err := m.ensureLoaded(ctx); err != nil {
		return ModalView{}, err
	}
	if m.reg.Count() >= domain.MaxInstances {
		err := errs.New(errs.CodeCapacityExceeded, op, "the instance limit has been reached")
		m.notifyErr(ActionCreate, "", err)
		return m.Modal(), err
	}
	gen, err := m.begin(op, ModeCreate, nil)
	if err != nil {
		return ModalView{}, err
	}

	users, uerr := m.svc.GetUsers(ctx, m.tenant.LocationID)
	if uerr != nil {
		m.notifyErr(ActionUsers, "", uerr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.current(gen)
	if s == nil {
		return ModalView{State: ModalClosed, Users: []domain.User{}}, errs.New(errs.CodeInvalidState, op, "dialog was closed")
	}
	s.state = ModalOpen
	s.users = users
	if uerr != nil {
		s.users = nil
		s.warning = warnUsersUnavailable
	}
	return s.view(), nil
}

// OpenEdit opens the edit dialog for instanceName, loading the user list and
// the instance configuration concurrently. Either failing closes the dialog.
func (m *Manager) OpenEdit(ctx context.Context, instanceName string) (ModalView, error) {
	const op = "open edit"
	if err := m.guard(op); err != nil {
		return ModalView{}, err
	}
	if err := m.ensureLoaded(ctx); err != nil {
		return ModalView{}, err
	}
	target, err := m.lookup(op, instanceName)
	if err != nil {
		return ModalView{}, err
	}
	gen, err := m.begin(op, ModeEdit, &target)
	if err != nil {
		return ModalView{}, err
	}

	var (
		users []domain.User
		cfg   *domain.WhatsAppInstance
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = m.svc.GetUsers(gctx, m.tenant.LocationID)
		return err
	})
	g.Go(func() (err error) {
		cfg, err = m.svc.GetInstanceConfig(gctx, m.tenant.LocationID, target.ID)
		return err
	})
	gerr := g.Wait()

	m.mu.Lock()
	s := m.current(gen)
	if gerr != nil {
		if s != nil {
			m.modal = nil
		}
		m.mu.Unlock()
		m.notifyErr(ActionEdit, instanceName, gerr)
		return ModalView{State: ModalClosed, Users: []domain.User{}}, gerr
	}
	defer m.mu.Unlock()
	if s == nil {
		return ModalView{State: ModalClosed, Users: []domain.User{}}, errs.New(errs.CodeInvalidState, op, "dialog was closed")
	}
	s.state = ModalOpen
	s.users = users
	s.form = formFrom(cfg.Config())
	return s.view(), nil
}

// CloseModal tears the dialog down. A submit still in flight completes
// remotely and refreshes the registry, but its outcome no longer reaches the
// dialog.
func (m *Manager) CloseModal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modal = nil
}

// validate checks the invariants a submit must satisfy. name is the name a
// create would use. Called with m.mu held.
func (m *Manager) validate(op string, s *modalSession, cfg domain.InstanceConfig, form Form, name string) error {
	if cfg.Alias == "" {
		return errs.With(errs.ErrAliasRequired, op)
	}
	if !cfg.IsMainDevice && cfg.UserID == "" && (s.mode == ModeEdit || form.NewUser == nil || form.NewUser.IsZero()) {
		return errs.With(errs.ErrUserRequired, op)
	}
	if cfg.IsMainDevice {
		if main, ok := m.reg.MainDevice(); ok {
			if s.mode == ModeCreate || s.target == nil || s.target.InstanceName != main.InstanceName {
				return errs.With(errs.ErrMainDeviceConflict, op)
			}
		}
	}
	if s.mode == ModeCreate && m.reg.Count() >= domain.MaxInstances {
		return errs.New(errs.CodeCapacityExceeded, op, "the instance limit has been reached")
	}
	if s.mode == ModeCreate {
		if _, taken := m.reg.Lookup(name); taken {
			return errs.With(errs.ErrDuplicateName, op)
		}
	}
	return nil
}

// Submit validates form and issues the create or edit call. On success the
// registry is refreshed and the dialog closes; on failure the dialog returns
// to open with the form kept.
func (m *Manager) Submit(ctx context.Context, form Form) (*SubmitResult, error) {
	const op = "submit"
	if err := m.guard(op); err != nil {
		return nil, err
	}

	m.mu.Lock()
	s := m.modal
	if s == nil {
		m.mu.Unlock()
		return nil, errs.New(errs.CodeInvalidState, op, "no dialog is open")
	}
	switch s.state {
	case ModalSubmitting:
		m.mu.Unlock()
		return nil, errs.With(errs.ErrBusy, op)
	case ModalOpeningUsers:
		m.mu.Unlock()
		return nil, errs.New(errs.CodeInvalidState, op, "the dialog is still loading")
	}
	action := ActionCreate
	targetName := ""
	if s.mode == ModeEdit {
		action = ActionEdit
		targetName = s.target.InstanceName
	} else {
		targetName = NextInstanceName(m.tenant.NamePrefix, m.reg.Names())
	}
	cfg := form.config()
	if err := m.validate(op, s, cfg, form, targetName); err != nil {
		s.form = form
		s.lastErr = errs.MessageOf(err)
		m.mu.Unlock()
		m.notifyErr(action, targetName, err)
		return nil, err
	}
	s.state = ModalSubmitting
	s.form = form
	s.lastErr = ""
	gen, mode, users := s.gen, s.mode, s.users
	m.mu.Unlock()

	var (
		name string
		err  error
		msg  string
	)
	switch mode {
	case ModeCreate:
		name = targetName
		req := instancesvc.CreateRequest{InstanceName: name, Config: cfg, NewUser: newUserFor(cfg, form, users)}
		_, err = m.svc.CreateInstance(ctx, m.tenant.LocationID, req)
		msg = "instance created"
	default:
		name = targetName
		_, err = m.svc.EditInstance(ctx, m.tenant.LocationID, name, cfg)
		msg = "instance updated"
	}

	if err != nil {
		m.mu.Lock()
		if cur := m.current(gen); cur != nil {
			cur.state = ModalOpen
			cur.lastErr = errs.MessageOf(err)
		}
		m.mu.Unlock()
		m.notifyErr(action, name, err)
		return nil, err
	}

	m.afterMutation(ctx, action, name, msg)

	m.mu.Lock()
	discarded := m.current(gen) == nil
	if !discarded {
		m.modal = nil
	}
	m.mu.Unlock()
	if discarded {
		zap.L().Debug("lifecycle: submit finished after the dialog closed",
			zap.String("location_id", m.tenant.LocationID), zap.String("instance_name", name))
	}
	return &SubmitResult{Mode: mode, InstanceName: name, Discarded: discarded}, nil
}

// newUserFor picks the user details sent with a create: an explicitly
// registered user wins, otherwise the selected user's contact fields.
func newUserFor(cfg domain.InstanceConfig, form Form, users []domain.User) *domain.NewUser {
	if cfg.IsMainDevice {
		return nil
	}
	if form.NewUser != nil && !form.NewUser.IsZero() {
		nu := *form.NewUser
		return &nu
	}
	for _, u := range users {
		if u.ID == cfg.UserID {
			nu := domain.NewUserFrom(u)
			return &nu
		}
	}
	return nil
}
