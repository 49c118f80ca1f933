package job

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"geotrailfinder/events"
)

// Queue holds every job submitted during the process's lifetime, keyed by
// its UUID, so a caller can poll a job by ID after the handler that started
// it has returned.
type Queue struct {
	dispatcher *events.Dispatcher

	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewQueue builds an empty Queue. dispatcher may be nil if no one needs
// job-lifecycle notifications.
func NewQueue(dispatcher *events.Dispatcher) *Queue {
	return &Queue{
		dispatcher: dispatcher,
		jobs:       make(map[string]*Job),
	}
}

// Submit creates a new Job and runs fn against it in its own goroutine,
// returning the Job immediately so the caller can poll it by its ID.
func (q *Queue) Submit(ctx context.Context, fn func(ctx context.Context, j *Job)) *Job {
	j := newJob(uuid.NewString())

	q.mu.Lock()
	q.jobs[j.ID] = j
	q.mu.Unlock()

	go func() {
		fn(ctx, j)

		snap := j.Snapshot()
		if q.dispatcher != nil {
			q.dispatcher.Publish(context.Background(), events.JobFinished{JobID: j.ID, Err: snap.Err})
		}
	}()

	return j
}

// Get returns the job for id, or (false) if no such job was ever submitted.
func (q *Queue) Get(id string) (*Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	j, ok := q.jobs[id]
	return j, ok
}

// List returns every job submitted during the process's lifetime, in no
// particular order. Jobs are never evicted.
func (q *Queue) List() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]*Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j)
	}
	return out
}
