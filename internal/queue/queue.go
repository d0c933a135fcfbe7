// Package queue implements the in-memory priority/delay queue feeding the
// reconciliation worker. Jobs carry a priority label resolved to a numeric
// value (lower is more urgent) and an optional delay before they become
// eligible for dequeue.
package queue

import (
	"container/heap"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/P4R1H/affiliate-platform/internal/model"
)

var (
	// ErrQueueFull is returned by Enqueue when capacity is exceeded.
	ErrQueueFull = eris.New("queue is at capacity")
	// ErrQueueClosed is returned once the queue is shut down and drained.
	ErrQueueClosed = eris.New("queue is closed")
	// ErrQueueEmpty is returned by a non-blocking or timed-out Dequeue.
	ErrQueueEmpty = eris.New("queue is empty")
	// ErrUnknownPriority is returned when the priority label is not configured.
	ErrUnknownPriority = eris.New("unknown priority label")
)

// Config controls queue behavior.
type Config struct {
	// Priorities maps labels to numeric values; lower = more urgent.
	Priorities map[string]int
	// WarnDepth logs a warning when total depth crosses this value.
	WarnDepth int
	// MaxCapacity bounds ready+scheduled items; 0 means unbounded.
	MaxCapacity int
}

// Stats is a point-in-time snapshot of queue depth.
type Stats struct {
	Ready     int  `json:"ready"`
	Scheduled int  `json:"scheduled"`
	Shutdown  bool `json:"shutdown"`
}

type item struct {
	job      model.ReconciliationJob
	priority int
	seq      uint64
	readyAt  time.Time
}

// readyHeap orders by (priority, seq): urgency first, FIFO within a tier.
type readyHeap []*item

func (h readyHeap) Len() int { return len(h) }
func (h readyHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h readyHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *readyHeap) Push(x any)        { *h = append(*h, x.(*item)) }
func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// schedHeap orders by readyAt so the next promotion deadline is at the root.
type schedHeap []*item

func (h schedHeap) Len() int { return len(h) }
func (h schedHeap) Less(i, j int) bool {
	if !h[i].readyAt.Equal(h[j].readyAt) {
		return h[i].readyAt.Before(h[j].readyAt)
	}
	return h[i].seq < h[j].seq
}
func (h schedHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *schedHeap) Push(x any)        { *h = append(*h, x.(*item)) }
func (h *schedHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Queue is a thread-safe two-heap priority/delay queue. Many goroutines may
// enqueue concurrently; the reconciliation pipeline runs a single consumer,
// but Dequeue is safe for multiple consumers as well.
type Queue struct {
	cfg  Config
	mu   sync.Mutex
	cond *sync.Cond

	ready     readyHeap
	scheduled schedHeap
	seq       uint64
	closed    bool

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// New creates a queue with the given config.
func New(cfg Config) *Queue {
	q := &Queue{
		cfg:     cfg,
		nowFunc: time.Now,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a job under the given priority label, eligible for dequeue
// after delay. It never blocks: capacity and shutdown conditions are
// surfaced synchronously to the caller.
func (q *Queue) Enqueue(job model.ReconciliationJob, label string, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return eris.Wrapf(ErrQueueClosed, "enqueue %s", job.ReportID)
	}
	pv, ok := q.cfg.Priorities[label]
	if !ok {
		return eris.Wrapf(ErrUnknownPriority, "label %q", label)
	}
	depth := len(q.ready) + len(q.scheduled)
	if q.cfg.MaxCapacity > 0 && depth >= q.cfg.MaxCapacity {
		return eris.Wrapf(ErrQueueFull, "depth %d", depth)
	}

	q.seq++
	it := &item{
		job:      job,
		priority: pv,
		seq:      q.seq,
		readyAt:  q.nowFunc().Add(delay),
	}
	if delay <= 0 {
		heap.Push(&q.ready, it)
	} else {
		heap.Push(&q.scheduled, it)
	}

	if q.cfg.WarnDepth > 0 && depth+1 == q.cfg.WarnDepth {
		zap.L().Warn("queue depth reached warning threshold",
			zap.Int("depth", depth+1),
			zap.Int("warn_depth", q.cfg.WarnDepth))
	}

	q.cond.Broadcast()
	return nil
}

// promoteLocked moves every scheduled item whose readiness time has passed
// into the ready heap. Caller holds q.mu.
func (q *Queue) promoteLocked(now time.Time) {
	for len(q.scheduled) > 0 && !q.scheduled[0].readyAt.After(now) {
		it := heap.Pop(&q.scheduled).(*item)
		heap.Push(&q.ready, it)
	}
}

// Dequeue removes and returns the most urgent ready job. With block=false it
// returns ErrQueueEmpty immediately when nothing is ready. With block=true it
// waits up to timeout (forever if timeout <= 0) for a job to become ready,
// waking early for new enqueues, promotion deadlines, and shutdown. Once the
// queue is closed and fully drained it returns ErrQueueClosed.
func (q *Queue) Dequeue(block bool, timeout time.Duration) (model.ReconciliationJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var deadline time.Time
	if block && timeout > 0 {
		deadline = q.nowFunc().Add(timeout)
	}

	for {
		now := q.nowFunc()
		q.promoteLocked(now)

		if len(q.ready) > 0 {
			it := heap.Pop(&q.ready).(*item)
			return it.job, nil
		}
		if q.closed && len(q.scheduled) == 0 {
			return model.ReconciliationJob{}, ErrQueueClosed
		}
		if !block {
			return model.ReconciliationJob{}, ErrQueueEmpty
		}
		if !deadline.IsZero() && !now.Before(deadline) {
			return model.ReconciliationJob{}, ErrQueueEmpty
		}

		// Bound the wait by the sooner of the caller deadline and the next
		// promotion time, then re-evaluate from the top.
		var wait time.Duration
		if len(q.scheduled) > 0 {
			wait = q.scheduled[0].readyAt.Sub(now)
		}
		if !deadline.IsZero() {
			if d := deadline.Sub(now); wait <= 0 || d < wait {
				wait = d
			}
		}
		q.waitLocked(wait)
	}
}

// waitLocked blocks on the condition variable, waking after d if d > 0.
// Caller holds q.mu; the lock is released while waiting.
func (q *Queue) waitLocked(d time.Duration) {
	if d <= 0 {
		q.cond.Wait()
		return
	}
	timer := time.AfterFunc(d, q.cond.Broadcast)
	defer timer.Stop()
	q.cond.Wait()
}

// Shutdown marks the queue closed and wakes all waiters. Pending items
// remain dequeuable until drained; new enqueues are rejected.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Snapshot returns current depth counts. Safe to call concurrently with
// Enqueue and Dequeue.
func (q *Queue) Snapshot() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Ready:     len(q.ready),
		Scheduled: len(q.scheduled),
		Shutdown:  q.closed,
	}
}

// Purge discards all pending items and returns how many were dropped.
func (q *Queue) Purge() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.ready) + len(q.scheduled)
	q.ready = nil
	q.scheduled = nil
	q.cond.Broadcast()
	return n
}
