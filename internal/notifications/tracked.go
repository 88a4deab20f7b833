package notifications

import (
	"context"
	"sync"
)

type pendingTracker interface {
	trackPending() func()
}

// Tracked wraps a Service so a short-lived process can wait for deliveries
// started with PublishAsync before it exits.
type Tracked struct {
	Service
	wg sync.WaitGroup
}

// NewTracked wraps svc.
func NewTracked(svc Service) *Tracked {
	if svc == nil {
		svc = noopService{}
	}
	return &Tracked{Service: svc}
}

func (t *Tracked) trackPending() func() {
	t.wg.Add(1)
	return t.wg.Done
}

// Wait blocks until pending asynchronous deliveries finish or ctx ends.
func (t *Tracked) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
