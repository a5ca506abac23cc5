// Package instancesvctest provides an in-memory instance service for tests.
package instancesvctest

import (
	"context"
	"fmt"
	"sync"

	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/errs"
	"github.com/connectleads/wamanager/internal/instancesvc"
)

// Operation names used for failure injection and call counting.
const (
	OpList     = "list"
	OpUsers    = "users"
	OpConfig   = "config"
	OpCreate   = "create"
	OpEdit     = "edit"
	OpDelete   = "delete"
	OpTurnOff  = "turn-off"
	OpQR       = "qr"
	OpLiveData = "live-data"
)

// Fake is a single-tenant-aware in-memory remote service. It keeps instances
// per location id and behaves like the real service: create assigns ids,
// turn-off flips the status, delete removes.
type Fake struct {
	mu        sync.Mutex
	instances map[string][]domain.WhatsAppInstance
	users     map[string][]domain.User
	fail      map[string]error
	calls     map[string]int
	nextID    int64
	qr        domain.QRCode
	live      domain.LiveData
	// gates block an operation until released, to observe in-flight state.
	gates map[string]chan struct{}

	Created []instancesvc.CreateRequest
	Edited  []domain.InstanceConfig
}

var _ instancesvc.Service = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		instances: map[string][]domain.WhatsAppInstance{},
		users:     map[string][]domain.User{},
		fail:      map[string]error{},
		calls:     map[string]int{},
		gates:     map[string]chan struct{}{},
		nextID:    100,
		qr:        domain.QRCode{Code: "2@pairing", Base64: "data:image/png;base64,QR"},
		live:      domain.LiveData{Name: "Store", Number: "5215550000"},
	}
}

// Seed sets the instances of a location.
func (f *Fake) Seed(locationID string, items ...domain.WhatsAppInstance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.instances[locationID] = append([]domain.WhatsAppInstance(nil), items...)
}

// SetUsers sets the users of a location.
func (f *Fake) SetUsers(locationID string, users ...domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[locationID] = append([]domain.User(nil), users...)
}

// SetStatus overwrites the raw status of an instance.
func (f *Fake) SetStatus(locationID, name, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.instances[locationID] {
		if f.instances[locationID][i].InstanceName == name {
			f.instances[locationID][i].ConnectionStatus = status
		}
	}
}

// Fail makes op fail until cleared with a nil error.
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = err
}

// Gate blocks op until the returned release function is called.
func (f *Fake) Gate(op string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[op] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, op)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of invocations of all operations.
func (f *Fake) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// Instances returns the stored instances of a location.
func (f *Fake) Instances(locationID string) []domain.WhatsAppInstance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.WhatsAppInstance(nil), f.instances[locationID]...)
}

func (f *Fake) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	gate := f.gates[op]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[op]; err != nil {
		return errs.Wrap(errs.CodeRemoteCallFailed, op, err, "remote "+op+" failed")
	}
	return nil
}

func (f *Fake) indexOf(locationID, name string) int {
	for i, inst := range f.instances[locationID] {
		if inst.InstanceName == name {
			return i
		}
	}
	return -1
}

func (f *Fake) ListInstances(ctx context.Context, locationID string) ([]domain.WhatsAppInstance, error) {
	if err := f.enter(ctx, OpList); err != nil {
		return nil, err
	}
	return f.Instances(locationID), nil
}

func (f *Fake) GetUsers(ctx context.Context, locationID string) ([]domain.User, error) {
	if err := f.enter(ctx, OpUsers); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.User(nil), f.users[locationID]...), nil
}

func (f *Fake) GetInstanceConfig(ctx context.Context, locationID, instanceID string) (*domain.WhatsAppInstance, error) {
	if err := f.enter(ctx, OpConfig); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.instances[locationID] {
		if inst.ID == instanceID {
			cp := inst
			return &cp, nil
		}
	}
	return nil, errs.Wrap(errs.CodeRemoteCallFailed, OpConfig, fmt.Errorf("instance %s not found", instanceID), "")
}

func (f *Fake) CreateInstance(ctx context.Context, locationID string, req instancesvc.CreateRequest) (*domain.WhatsAppInstance, error) {
	if err := f.enter(ctx, OpCreate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, req)
	if f.indexOf(locationID, req.InstanceName) >= 0 {
		return nil, errs.Wrap(errs.CodeRemoteCallFailed, OpCreate, fmt.Errorf("instance %s exists", req.InstanceName), "")
	}
	f.nextID++
	inst := domain.WhatsAppInstance{
		ID:           fmt.Sprintf("inst-%d", f.nextID),
		InstanceID:   f.nextID,
		InstanceName: req.InstanceName,
		ApiKey:       fmt.Sprintf("key-%d", f.nextID),
		LocationID:   locationID,
		Alias:        req.Config.Alias,
		IsMainDevice: req.Config.IsMainDevice,
		FacebookAds:  req.Config.FacebookAds,
		UserID:       req.Config.UserID,
	}
	if req.NewUser != nil {
		inst.UserName = req.NewUser.Name
		inst.UserMail = req.NewUser.Email
		inst.UserPhone = req.NewUser.Phone
	}
	f.instances[locationID] = append(f.instances[locationID], inst)
	cp := inst
	return &cp, nil
}

func (f *Fake) EditInstance(ctx context.Context, locationID, instanceName string, cfg domain.InstanceConfig) (*domain.WhatsAppInstance, error) {
	if err := f.enter(ctx, OpEdit); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Edited = append(f.Edited, cfg)
	i := f.indexOf(locationID, instanceName)
	if i < 0 {
		return nil, errs.Wrap(errs.CodeRemoteCallFailed, OpEdit, fmt.Errorf("instance %s not found", instanceName), "")
	}
	inst := &f.instances[locationID][i]
	inst.Alias = cfg.Alias
	inst.IsMainDevice = cfg.IsMainDevice
	inst.FacebookAds = cfg.FacebookAds
	inst.UserID = cfg.UserID
	cp := *inst
	return &cp, nil
}

func (f *Fake) DeleteInstance(ctx context.Context, locationID, instanceName string) error {
	if err := f.enter(ctx, OpDelete); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(locationID, instanceName)
	if i < 0 {
		return errs.Wrap(errs.CodeRemoteCallFailed, OpDelete, fmt.Errorf("instance %s not found", instanceName), "")
	}
	items := f.instances[locationID]
	f.instances[locationID] = append(items[:i:i], items[i+1:]...)
	return nil
}

func (f *Fake) TurnOff(ctx context.Context, locationID, instanceName string) error {
	if err := f.enter(ctx, OpTurnOff); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexOf(locationID, instanceName)
	if i < 0 {
		return errs.Wrap(errs.CodeRemoteCallFailed, OpTurnOff, fmt.Errorf("instance %s not found", instanceName), "")
	}
	f.instances[locationID][i].ConnectionStatus = "closed"
	return nil
}

func (f *Fake) GetQR(ctx context.Context, locationID, instanceName string) (domain.QRCode, error) {
	if err := f.enter(ctx, OpQR); err != nil {
		return domain.QRCode{}, errs.Wrap(errs.CodePartialDataUnavailable, OpQR, err, "QR code unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.qr, nil
}

func (f *Fake) GetLiveData(ctx context.Context, locationID, instanceName string) (domain.LiveData, error) {
	if err := f.enter(ctx, OpLiveData); err != nil {
		return domain.LiveData{}, errs.Wrap(errs.CodePartialDataUnavailable, OpLiveData, err, "instance data unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live, nil
}
