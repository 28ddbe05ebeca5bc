package jobs

import (
	"sort"
	"sync"
	"time"

	"posterlab/internal/domain"
)

// Registry holds every job for the lifetime of the process. Entries are
// never evicted; the process restart is the cleanup policy.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*domain.Job)}
}

func (r *Registry) put(job *domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

// update mutates a job under the registry lock. Only the goroutine that owns
// the job calls it, so readers always observe a consistent snapshot.
func (r *Registry) update(id string, fn func(*domain.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}

// Get returns a deep copy of the job so callers never race with the
// pipeline goroutine.
func (r *Registry) Get(id string) (*domain.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// List returns copies of all known jobs, newest first.
func (r *Registry) List() []*domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
