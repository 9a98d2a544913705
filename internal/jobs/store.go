// Package jobs tracks asynchronous validation runs.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/veriplan/veriplan/internal/model"
)

// RunFunc executes one validation run. It reports progress through the
// callback (percent 0-100 plus a step name) and returns the outcome or
// an error. The context is cancelled when the job is cancelled.
type RunFunc func(ctx context.Context, progress func(percent int, step string)) (*model.ValidationOutcome, error)

type job struct {
	mu      sync.Mutex
	status  model.JobStatus
	outcome *model.ValidationOutcome
	cancel  context.CancelFunc
}

// record is the immutable snapshot kept after a job reaches a terminal
// state.
type record struct {
	status  model.JobStatus
	outcome *model.ValidationOutcome
}

// Store runs jobs in the background and answers status polls. Active
// jobs live in a map; finished jobs move to a TTL cache so completed
// results expire instead of accumulating.
type Store struct {
	mu       sync.RWMutex
	active   map[string]*job
	finished *gocache.Cache
	now      func() time.Time
}

func NewStore(cfg model.JobsConfig) *Store {
	retain := cfg.RetainCompleted
	if retain <= 0 {
		retain = time.Hour
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &Store{
		active:   make(map[string]*job),
		finished: gocache.New(retain, cleanup),
		now:      time.Now,
	}
}

// Submit starts a run in the background and returns its job id
// immediately.
func (s *Store) Submit(run RunFunc) string {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	j := &job{
		status: model.JobStatus{
			ID:          id,
			State:       model.JobQueued,
			SubmittedAt: s.now().UTC(),
		},
		cancel: cancel,
	}

	s.mu.Lock()
	s.active[id] = j
	s.mu.Unlock()

	go s.execute(ctx, j, run)
	return id
}

func (s *Store) execute(ctx context.Context, j *job, run RunFunc) {
	j.mu.Lock()
	j.status.State = model.JobProcessing
	j.mu.Unlock()

	// progress never decreases even if steps report out of order
	progress := func(percent int, step string) {
		j.mu.Lock()
		if percent > j.status.Progress {
			j.status.Progress = percent
		}
		j.status.CurrentStep = step
		j.mu.Unlock()
	}

	outcome, err := run(ctx, progress)

	j.mu.Lock()
	j.status.CompletedAt = s.now().UTC()
	if err != nil {
		j.status.State = model.JobError
		if errors.Is(err, context.Canceled) {
			j.status.Error = "cancelled"
		} else {
			j.status.Error = err.Error()
		}
	} else {
		j.status.State = model.JobComplete
		j.status.Progress = 100
		j.outcome = outcome
	}
	rec := &record{status: j.status, outcome: j.outcome}
	j.mu.Unlock()

	// publish to the retention cache before leaving the active set so
	// polls never hit the gap between the two
	s.finished.Set(rec.status.ID, rec, gocache.DefaultExpiration)
	s.mu.Lock()
	delete(s.active, rec.status.ID)
	s.mu.Unlock()
}

// Poll returns the current status of a job. The second return is
// false when the job is unknown or its result has expired.
func (s *Store) Poll(id string) (model.JobStatus, bool) {
	s.mu.RLock()
	j, ok := s.active[id]
	s.mu.RUnlock()
	if ok {
		j.mu.Lock()
		defer j.mu.Unlock()
		return j.status, true
	}

	if v, found := s.finished.Get(id); found {
		return v.(*record).status, true
	}
	return model.JobStatus{}, false
}

// Result returns the outcome of a completed job. It returns false
// while the job is still running, after expiry, and for jobs that
// ended in error.
func (s *Store) Result(id string) (*model.ValidationOutcome, bool) {
	if v, found := s.finished.Get(id); found {
		rec := v.(*record)
		if rec.status.State == model.JobComplete {
			return rec.outcome, true
		}
	}
	return nil, false
}

// Cancel requests cancellation of a running job. It returns false if
// the job is unknown or already finished. The job transitions to its
// terminal state when the run function observes the cancelled context.
func (s *Store) Cancel(id string) bool {
	s.mu.RLock()
	j, ok := s.active[id]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	j.cancel()
	return true
}

// ActiveCount returns the number of jobs not yet in a terminal state.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}
