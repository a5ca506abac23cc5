// Package registry holds the in-memory view of a tenant's instances. The
// view only changes by wholesale replacement with a fresh remote listing.
package registry

import (
	"context"
	"sync"

	"github.com/connectleads/wamanager/internal/domain"
	"go.uber.org/zap"
)

// Lister is the part of the remote service the registry depends on.
type Lister interface {
	ListInstances(ctx context.Context, locationID string) ([]domain.WhatsAppInstance, error)
}

// Registry is safe for concurrent use.
type Registry struct {
	locationID string
	lister     Lister

	mu        sync.RWMutex
	items     []domain.WhatsAppInstance
	loaded    bool
	discarded bool
	// seq numbers refresh starts; applied is the seq of the last applied result.
	seq     uint64
	applied uint64
}

// New creates an empty registry for locationID.
func New(locationID string, lister Lister) *Registry {
	return &Registry{locationID: locationID, lister: lister}
}

// LocationID returns the tenant the registry belongs to.
func (r *Registry) LocationID() string {
	return r.locationID
}

// Refresh replaces the collection with a fresh listing. On failure the
// previous collection is kept and the error returned. A result is dropped
// when a refresh started later has already been applied, or when the
// registry was discarded in the meantime.
func (r *Registry) Refresh(ctx context.Context) ([]domain.WhatsAppInstance, error) {
	r.mu.Lock()
	if r.discarded {
		r.mu.Unlock()
		return nil, nil
	}
	r.seq++
	mySeq := r.seq
	r.mu.Unlock()

	items, err := r.lister.ListInstances(ctx, r.locationID)
	if err != nil {
		zap.L().Warn("registry: refresh failed, keeping previous snapshot",
			zap.String("location_id", r.locationID), zap.Error(err))
		return r.Snapshot(), err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discarded {
		return nil, nil
	}
	if mySeq < r.applied {
		zap.L().Debug("registry: stale refresh result dropped",
			zap.String("location_id", r.locationID), zap.Uint64("seq", mySeq), zap.Uint64("applied", r.applied))
		return clone(r.items), nil
	}
	r.items = clone(items)
	r.applied = mySeq
	r.loaded = true
	return clone(r.items), nil
}

// Snapshot returns a copy of the collection in service order.
func (r *Registry) Snapshot() []domain.WhatsAppInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.items)
}

// Loaded reports whether at least one refresh has been applied.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Count returns the number of instances.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// HasMainDevice scans the collection for a main device.
func (r *Registry) HasMainDevice() bool {
	_, ok := r.MainDevice()
	return ok
}

// MainDevice returns the main device, if any.
func (r *Registry) MainDevice() (domain.WhatsAppInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.IsMainDevice {
			return it, true
		}
	}
	return domain.WhatsAppInstance{}, false
}

// Lookup finds an instance by name.
func (r *Registry) Lookup(name string) (domain.WhatsAppInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.InstanceName == name {
			return it, true
		}
	}
	return domain.WhatsAppInstance{}, false
}

// Names returns the instance names in service order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for _, it := range r.items {
		names = append(names, it.InstanceName)
	}
	return names
}

// Discard empties the registry and drops every later refresh result.
func (r *Registry) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarded = true
	r.items = nil
	r.loaded = false
}

// Discarded reports whether Discard was called.
func (r *Registry) Discarded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.discarded
}

func clone(items []domain.WhatsAppInstance) []domain.WhatsAppInstance {
	out := make([]domain.WhatsAppInstance, len(items))
	copy(out, items)
	return out
}
