// Package job implements the process-wide job scheduler and thread
// store of §4.G: a registry mapping job id to its description and
// worker thread ids, reference-counted via JobHandle, plus a thread
// store tracking every spawned goroutine for reap-at-prompt-boundary
// error forwarding.
package job

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ID identifies one registered job.
type ID uint64

// Thread is a live or finished worker goroutine record (§4.G
// "(name, creation_time, optional job_id)").
type Thread struct {
	ID           uint64
	Name         string
	CreationTime time.Time
	JobID        *ID
}

type threadRecord struct {
	Thread
	done chan struct{}
	err  error
}

// Registry is the process-wide job/thread registry (§4.G, §4.H
// "Jobs registry"). The zero value is not usable; use NewRegistry.
type Registry struct {
	mu sync.Mutex

	nextThreadID uint64
	nextJobID    uint64

	threads map[uint64]*threadRecord
	// jobOrder preserves insertion order so that removing the last
	// reference truncates trailing slots without disturbing older
	// ids' indices (§4.G).
	jobOrder []ID
	jobs     map[ID]*jobEntry
}

type jobEntry struct {
	description string
	threadIDs   []uint64
	refs        int32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		threads: make(map[uint64]*threadRecord),
		jobs:    make(map[ID]*jobEntry),
	}
}

// JobHandle is a reference-counted token for one registered job
// (§4.G). Calling Release drops one reference; when the last
// reference drops, the job is removed from the registry.
type JobHandle struct {
	id  ID
	reg *Registry
}

// ID reports the underlying job id.
func (h JobHandle) ID() ID { return h.id }

// Clone increments the job's reference count and returns a new handle
// sharing it.
func (h JobHandle) Clone() JobHandle {
	h.reg.mu.Lock()
	if e, ok := h.reg.jobs[h.id]; ok {
		e.refs++
	}
	h.reg.mu.Unlock()
	return JobHandle{id: h.id, reg: h.reg}
}

// Release drops one reference; when the last reference drops, the job
// is removed and the registry's ordered id vector is truncated so that
// older ids keep their indices (§4.G).
func (h JobHandle) Release() {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	e, ok := h.reg.jobs[h.id]
	if !ok {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	delete(h.reg.jobs, h.id)
	h.reg.truncateTrailingLocked()
}

// truncateTrailingLocked drops trailing entries of jobOrder that no
// longer have a live job, without touching earlier (still valid)
// entries or their indices. Must be called with mu held.
func (r *Registry) truncateTrailingLocked() {
	for len(r.jobOrder) > 0 {
		last := r.jobOrder[len(r.jobOrder)-1]
		if _, ok := r.jobs[last]; ok {
			break
		}
		r.jobOrder = r.jobOrder[:len(r.jobOrder)-1]
	}
}

// NewJob registers a job with the given description, returning a
// JobHandle with one reference.
func (r *Registry) NewJob(description string) JobHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := ID(atomic.AddUint64(&r.nextJobID, 1))
	r.jobs[id] = &jobEntry{description: description, refs: 1}
	r.jobOrder = append(r.jobOrder, id)
	return JobHandle{id: id, reg: r}
}

// Spawn starts a goroutine running fn, recording it in the thread
// store under name and, if job is non-nil, associating it with that
// job (§4.G thread store "spawn"). Returns the assigned thread id.
func (r *Registry) Spawn(name string, job *JobHandle, fn func() error) uint64 {
	id := atomic.AddUint64(&r.nextThreadID, 1)
	var jobID *ID
	if job != nil {
		jid := job.id
		jobID = &jid
	}
	rec := &threadRecord{
		Thread: Thread{ID: id, Name: name, CreationTime: time.Now(), JobID: jobID},
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.threads[id] = rec
	if job != nil {
		if e, ok := r.jobs[job.id]; ok {
			e.threadIDs = append(e.threadIDs, id)
		}
	}
	r.mu.Unlock()

	go func() {
		rec.err = fn()
		close(rec.done)
	}()

	return id
}

// Adapter implements command.Spawner and invoke.EvalContext's Spawner
// field by binding a registry to an optional owning job, so every
// thread a stage or argument substitution spawns is attributed to the
// job it runs under (§4.G, §4.H).
type Adapter struct {
	Reg *Registry
	Job *JobHandle
}

// Spawn starts fn on its own goroutine, recording it under label and
// this adapter's job, if any. Failures are expected to surface through
// the Value channel rather than a returned error.
func (a Adapter) Spawn(label string, fn func()) uint64 {
	return a.Reg.Spawn(label, a.Job, func() error { fn(); return nil })
}

// Current returns a snapshot of every thread the registry knows about,
// live or finished but not yet reaped (§4.G thread store "current").
func (r *Registry) Current() []Thread {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Thread, 0, len(r.threads))
	for _, rec := range r.threads {
		out = append(out, rec.Thread)
	}
	return out
}

// Reap joins every finished thread since the last call and forwards
// any error it returned to printer, then removes it from the store
// (§4.G thread store "reap"). Called at REPL prompt boundaries.
func (r *Registry) Reap(printer func(threadName string, err error)) {
	r.mu.Lock()
	finished := make([]*threadRecord, 0)
	for id, rec := range r.threads {
		select {
		case <-rec.done:
			finished = append(finished, rec)
			delete(r.threads, id)
		default:
		}
	}
	r.mu.Unlock()

	for _, rec := range finished {
		if rec.err != nil && printer != nil {
			printer(rec.Name, rec.err)
		}
	}
}

// jobSnapshot and threadSnapshot are the CBOR-serializable projections
// of a job/thread for DumpCBOR; unexported fields (mutexes, channels)
// are never part of the diagnostic dump.
type jobSnapshot struct {
	ID          ID       `cbor:"id"`
	Description string   `cbor:"description"`
	ThreadIDs   []uint64 `cbor:"thread_ids"`
	Refs        int32    `cbor:"refs"`
}

type threadSnapshot struct {
	ID           uint64    `cbor:"id"`
	Name         string    `cbor:"name"`
	CreationTime time.Time `cbor:"creation_time"`
	JobID        *ID       `cbor:"job_id,omitempty"`
}

type registrySnapshot struct {
	Jobs    []jobSnapshot    `cbor:"jobs"`
	Threads []threadSnapshot `cbor:"threads"`
}

// DumpCBOR serializes the current job/thread registry state to CBOR,
// in jobOrder (oldest first) so a trace taken across two dumps can
// diff meaningfully despite truncation-on-release (§4.G).
func (r *Registry) DumpCBOR() ([]byte, error) {
	r.mu.Lock()
	snap := registrySnapshot{}
	for _, id := range r.jobOrder {
		e, ok := r.jobs[id]
		if !ok {
			continue
		}
		snap.Jobs = append(snap.Jobs, jobSnapshot{
			ID: id, Description: e.description, ThreadIDs: e.threadIDs, Refs: e.refs,
		})
	}
	for _, rec := range r.threads {
		snap.Threads = append(snap.Threads, threadSnapshot{
			ID: rec.ID, Name: rec.Name, CreationTime: rec.CreationTime, JobID: rec.JobID,
		})
	}
	r.mu.Unlock()

	return cbor.Marshal(snap)
}
