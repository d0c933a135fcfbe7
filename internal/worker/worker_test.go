package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/P4R1H/affiliate-platform/internal/model"
	"github.com/P4R1H/affiliate-platform/internal/queue"
)

// recordingOrchestrator captures processed jobs; panicOn triggers a panic
// for one report ID.
type recordingOrchestrator struct {
	mu      sync.Mutex
	seen    []string
	panicOn string
}

func (r *recordingOrchestrator) Run(_ context.Context, job model.ReconciliationJob) (model.Summary, error) {
	r.mu.Lock()
	r.seen = append(r.seen, job.ReportID)
	r.mu.Unlock()
	if job.ReportID == r.panicOn {
		panic("boom")
	}
	return model.Summary{ReportID: job.ReportID}, nil
}

func (r *recordingOrchestrator) jobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func newTestQueue() *queue.Queue {
	return queue.New(queue.Config{
		Priorities:  map[string]int{"high": 0, "normal": 5, "low": 10},
		MaxCapacity: 100,
	})
}

func TestWorker_DrainsQueueAndExitsOnClose(t *testing.T) {
	t.Parallel()

	q := newTestQueue()
	orch := &recordingOrchestrator{}
	w := New(q, orch, 50*time.Millisecond)

	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, q.Enqueue(model.ReconciliationJob{ReportID: id}, "normal", 0))
	}
	q.Shutdown()

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit after queue close")
	}

	assert.Equal(t, []string{"r1", "r2", "r3"}, orch.jobs())
}

func TestWorker_SurvivesPanic(t *testing.T) {
	t.Parallel()

	q := newTestQueue()
	orch := &recordingOrchestrator{panicOn: "bad"}
	w := New(q, orch, 50*time.Millisecond)

	require.NoError(t, q.Enqueue(model.ReconciliationJob{ReportID: "bad"}, "normal", 0))
	require.NoError(t, q.Enqueue(model.ReconciliationJob{ReportID: "good"}, "normal", 0))
	q.Shutdown()

	require.NoError(t, w.Run(context.Background()))
	assert.Equal(t, []string{"bad", "good"}, orch.jobs())
}

func TestWorker_ExitsOnContextCancel(t *testing.T) {
	t.Parallel()

	q := newTestQueue()
	w := New(q, &recordingOrchestrator{}, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not observe cancellation")
	}
}
