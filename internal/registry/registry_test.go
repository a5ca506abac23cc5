package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/errs"
	"github.com/connectleads/wamanager/internal/instancesvc/instancesvctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

// scriptedLister answers calls in order; a non-nil gate blocks its answer.
type scriptedLister struct {
	mu      sync.Mutex
	gates   []chan struct{}
	results [][]domain.WhatsAppInstance
	calls   int
}

func (s *scriptedLister) push(gate chan struct{}, items []domain.WhatsAppInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gates = append(s.gates, gate)
	s.results = append(s.results, items)
}

func (s *scriptedLister) started() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedLister) ListInstances(ctx context.Context, _ string) ([]domain.WhatsAppInstance, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	gate, items := s.gates[i], s.results[i]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return items, nil
}

func seeded() *instancesvctest.Fake {
	f := instancesvctest.New()
	f.Seed("loc",
		domain.WhatsAppInstance{ID: "a", InstanceName: "loc_wa1", IsMainDevice: true, ConnectionStatus: "open"},
		domain.WhatsAppInstance{ID: "b", InstanceName: "loc_wa2", UserID: "u1"},
	)
	return f
}

func TestRefresh_ReplacesCollection(t *testing.T) {
	f := seeded()
	r := New("loc", f)
	assert.False(t, r.Loaded())

	items, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.True(t, r.Loaded())
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"loc_wa1", "loc_wa2"}, r.Names())

	f.Seed("loc", domain.WhatsAppInstance{ID: "c", InstanceName: "loc_wa3"})
	_, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"loc_wa3"}, r.Names())
	assert.False(t, r.HasMainDevice())
}

func TestRefresh_FailureKeepsSnapshot(t *testing.T) {
	f := seeded()
	r := New("loc", f)
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	before := r.Snapshot()

	f.Fail(instancesvctest.OpList, errors.New("boom"))
	items, err := r.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrRemoteCallFailed))
	assert.Equal(t, before, items)
	assert.Equal(t, before, r.Snapshot())
}

func TestSnapshot_IsACopy(t *testing.T) {
	r := New("loc", seeded())
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	snap := r.Snapshot()
	snap[0].Alias = "mutated"
	got, ok := r.Lookup("loc_wa1")
	require.True(t, ok)
	assert.Empty(t, got.Alias)
}

func TestMainDeviceAndLookup(t *testing.T) {
	r := New("loc", seeded())
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	main, ok := r.MainDevice()
	require.True(t, ok)
	assert.Equal(t, "loc_wa1", main.InstanceName)
	assert.True(t, r.HasMainDevice())

	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestRefresh_LaterStartWins(t *testing.T) {
	slow := &scriptedLister{}
	r := New("loc", slow)

	first := make(chan struct{})
	slow.push(first, []domain.WhatsAppInstance{{InstanceName: "old"}})
	slow.push(nil, []domain.WhatsAppInstance{{InstanceName: "new"}})

	done := make(chan struct{})
	go func() {
		_, _ = r.Refresh(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool { return slow.started() == 1 }, waitFor, tick)

	_, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, r.Names())

	close(first)
	<-done
	assert.Equal(t, []string{"new"}, r.Names(), "older result must not overwrite a newer one")
}

func TestDiscard(t *testing.T) {
	f := seeded()
	r := New("loc", f)
	_, err := r.Refresh(context.Background())
	require.NoError(t, err)

	r.Discard()
	assert.True(t, r.Discarded())
	assert.Equal(t, 0, r.Count())

	items, err := r.Refresh(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, items)
	assert.Equal(t, 1, f.Calls(instancesvctest.OpList), "no remote call after discard")
}
