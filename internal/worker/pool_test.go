package worker

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolRunsSubmittedJobs(t *testing.T) {
	p := NewPool(4)

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			ran.Add(1)
		})
	}
	wg.Wait()
	p.Stop()

	assert.Equal(t, int64(100), ran.Load())
}

func TestPoolStopDrainsQueue(t *testing.T) {
	// a single worker guarantees jobs queue up before Stop
	p := NewPool(1)

	var ran atomic.Int64
	for i := 0; i < 50; i++ {
		p.Submit(func() { ran.Add(1) })
	}
	p.Stop()

	assert.Equal(t, int64(50), ran.Load())
}

func TestPoolSizeFloor(t *testing.T) {
	p := NewPool(0)
	done := make(chan struct{})
	p.Submit(func() { close(done) })
	<-done
	p.Stop()
}
