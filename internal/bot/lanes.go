package bot

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

const laneBuffer = 100

// lanes gives every user a FIFO goroutine so one user's updates are handled in
// order, while the semaphore bounds how many users are served at once.
type lanes struct {
	lanes     map[int64]chan func(context.Context)
	semaphore *semaphore.Weighted
	stopped   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func newLanes(ctx context.Context, maxConcurrent int64) *lanes {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	l := &lanes{
		lanes:     make(map[int64]chan func(context.Context)),
		semaphore: semaphore.NewWeighted(maxConcurrent),
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	return l
}

func (l *lanes) Enqueue(userID int64, job func(context.Context)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return fmt.Errorf("lanes stopped")
	}

	lane, exists := l.lanes[userID]
	if !exists {
		lane = make(chan func(context.Context), laneBuffer)
		l.lanes[userID] = lane
		l.wg.Add(1)
		go l.processLane(lane)
	}

	select {
	case lane <- job:
		return nil
	default:
		return fmt.Errorf("lane full for user %d", userID)
	}
}

func (l *lanes) processLane(lane chan func(context.Context)) {
	defer l.wg.Done()
	for {
		select {
		case job, ok := <-lane:
			if !ok {
				return
			}
			if err := l.semaphore.Acquire(l.ctx, 1); err != nil {
				return
			}
			job(l.ctx)
			l.semaphore.Release(1)
		case <-l.ctx.Done():
			return
		}
	}
}

// Stop cancels pending work and waits for running jobs to return.
func (l *lanes) Stop() {
	l.cancel()
	l.mu.Lock()
	if !l.stopped {
		l.stopped = true
		for _, lane := range l.lanes {
			close(lane)
		}
	}
	l.mu.Unlock()
	l.wg.Wait()
}
