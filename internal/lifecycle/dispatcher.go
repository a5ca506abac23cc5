package lifecycle

import (
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Dispatcher runs card actions in the background on a bounded pool.
type Dispatcher struct {
	pool *ants.Pool
	wg   sync.WaitGroup
}

// NewDispatcher creates a pool of size workers.
func NewDispatcher(workers int) (*Dispatcher, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		zap.L().Error("lifecycle: dispatched task panicked", zap.Any("panic", p))
	}))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{pool: pool}, nil
}

// Go submits task. It fails when the pool is closed.
func (d *Dispatcher) Go(task func()) error {
	d.wg.Add(1)
	err := d.pool.Submit(func() {
		defer d.wg.Done()
		task()
	})
	if err != nil {
		d.wg.Done()
	}
	return err
}

// Wait blocks until every submitted task returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Running returns the number of busy workers.
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Release waits for running tasks and closes the pool.
func (d *Dispatcher) Release() {
	d.wg.Wait()
	d.pool.Release()
}
