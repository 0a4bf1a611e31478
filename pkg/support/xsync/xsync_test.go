package xsync

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatch(t *testing.T) {
	l := NewLatch()
	assert.False(t, l.Test())

	done := make(chan struct{})
	go func() {
		l.Wait()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Wait returned before Trigger")
	case <-time.After(10 * time.Millisecond):
	}

	l.Trigger()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Trigger")
	}
	assert.True(t, l.Test())

	// Trigger is idempotent.
	l.Trigger()
	<-l.WaitChan()
}

func TestDynamicWaitGroup(t *testing.T) {
	wg := NewDynamicWaitGroup()
	var counter atomic.Int64
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			counter.Add(1)
			// Tasks may add more work while the waiter is blocked.
			if counter.Load() < 15 {
				wg.Add(1)
				go func() {
					counter.Add(1)
					wg.Done()
				}()
			}
			wg.Done()
		}()
	}
	wg.Wait()
	require.GreaterOrEqual(t, counter.Load(), int64(10))

	assert.Panics(t, func() {
		wg2 := NewDynamicWaitGroup()
		wg2.Done()
	})
}
