package xsync

import (
	"sync"

	"github.com/pkg/errors"
)

// DynamicWaitGroup is a WaitGroup-like primitive whose count may be
// increased while another goroutine is already waiting on it -- which a
// plain sync.WaitGroup forbids. Units use it to register helper work
// (seed copies) after the launcher has started waiting for the launch.
type DynamicWaitGroup struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int64
}

// NewDynamicWaitGroup creates a DynamicWaitGroup with a zero count.
func NewDynamicWaitGroup() *DynamicWaitGroup {
	dwg := &DynamicWaitGroup{}
	dwg.cond = sync.NewCond(&dwg.mu)
	return dwg
}

// Add changes the counter by delta. When the counter reaches zero all
// waiters are released. A negative counter panics, as with sync.WaitGroup.
func (dwg *DynamicWaitGroup) Add(delta int) {
	dwg.mu.Lock()
	defer dwg.mu.Unlock()

	dwg.count += int64(delta)
	if dwg.count < 0 {
		panic(errors.Errorf("DynamicWaitGroup: negative counter"))
	}
	if dwg.count == 0 {
		dwg.cond.Broadcast()
	}
}

// Done is Add(-1).
func (dwg *DynamicWaitGroup) Done() {
	dwg.Add(-1)
}

// Wait blocks until the counter is zero. The loop guards against spurious
// wakeups and against the count being raised again before this waiter ran.
func (dwg *DynamicWaitGroup) Wait() {
	dwg.mu.Lock()
	defer dwg.mu.Unlock()
	for dwg.count > 0 {
		dwg.cond.Wait()
	}
}
