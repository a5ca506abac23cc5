package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/connectleads/wamanager/internal/domain"
	"github.com/connectleads/wamanager/internal/instancesvc/instancesvctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	loc     = "loc"
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

// collector records published notifications.
type collector struct {
	mu    sync.Mutex
	notes []Notification
}

func (c *collector) add(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func (c *collector) all() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.notes...)
}

func (c *collector) levels(action string) []Level {
	var out []Level
	for _, n := range c.all() {
		if n.Action == action {
			out = append(out, n.Level)
		}
	}
	return out
}

func newTestManager(t *testing.T, f *instancesvctest.Fake) (*Manager, *collector) {
	t.Helper()
	n := NewNotifier(testNode(t))
	c := &collector{}
	require.NoError(t, n.Subscribe(c.add))
	return NewManager(ResolveTenant(loc, "", ""), f, n), c
}

func users() []domain.User {
	return []domain.User{
		{ID: "u1", Name: "Ana", Email: "ana@x.io", Phone: "+521"},
		{ID: "u2", Name: "Luis", Email: "luis@x.io", Phone: "+522"},
	}
}

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func TestNotifier_StampsAndDelivers(t *testing.T) {
	n := NewNotifier(testNode(t))
	c := &collector{}
	require.NoError(t, n.Subscribe(c.add))

	a := n.Publish(Notification{Action: ActionCreate, Message: "one"})
	b := n.Publish(Notification{Action: ActionCreate, Message: "two"})
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Time.IsZero())
	assert.Len(t, c.all(), 2)
	assert.Equal(t, "two", c.all()[1].Message)
}

func TestDispatcher(t *testing.T) {
	d, err := NewDispatcher(2)
	require.NoError(t, err)
	defer d.Release()

	var n int32
	for i := 0; i < 10; i++ {
		require.NoError(t, d.Go(func() { atomic.AddInt32(&n, 1) }))
	}
	d.Wait()
	assert.Equal(t, int32(10), atomic.LoadInt32(&n))
}

func TestDispatcher_PanicDoesNotBlockWait(t *testing.T) {
	d, err := NewDispatcher(1)
	require.NoError(t, err)
	defer d.Release()

	require.NoError(t, d.Go(func() { panic("boom") }))
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("wait did not return")
	}
}

func mustLoad(t *testing.T, m *Manager) {
	t.Helper()
	_, err := m.Refresh(context.Background())
	require.NoError(t, err)
}
