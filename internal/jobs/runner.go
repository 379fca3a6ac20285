// Package jobs runs the shop's periodic background work inside the API
// process.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/logging"
)

var (
	ErrUnknownJob     = errors.New("jobs: unknown job")
	ErrDuplicateJob   = errors.New("jobs: job already registered")
	ErrAlreadyRunning = errors.New("jobs: run already in progress")
	ErrLocked         = errors.New("jobs: held by another instance")
	ErrClosed         = errors.New("jobs: runner closed")
)

type Handler func(ctx context.Context) error

type Job struct {
	Name        string
	Description string
	Interval    time.Duration
	Handler     Handler
	// RunOnStart fires the handler once as soon as the job starts.
	RunOnStart bool
}

// Locker keeps two processes from running the same job at once. release
// is only valid when ok is true.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

type Status struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Interval    string     `json:"interval"`
	Active      bool       `json:"active"`
	Running     bool       `json:"running"`
	Runs        int        `json:"runs"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

type entry struct {
	job     Job
	cancel  context.CancelFunc
	running atomic.Bool

	runs    int
	lastRun *time.Time
	lastErr string
}

type Options struct {
	Locker Locker
	Logger *slog.Logger
	Now    func() time.Time
}

// Runner owns the registered jobs and their timers. Close stops every job
// and waits for in-flight runs.
type Runner struct {
	locker Locker
	logger *slog.Logger
	now    func() time.Time

	root   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	jobs   map[string]*entry
	closed bool
}

func NewRunner(opts Options) *Runner {
	root, stop := context.WithCancel(context.Background())
	r := &Runner{
		locker: opts.Locker,
		logger: logging.Default(opts.Logger).With("component", "jobs"),
		now:    opts.Now,
		root:   root,
		stop:   stop,
		jobs:   make(map[string]*entry),
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// ======================================================
// REGISTRY
// ======================================================

func (r *Runner) Register(job Job) error {
	if job.Name == "" || job.Handler == nil || job.Interval <= 0 {
		return fmt.Errorf("jobs: invalid job %q", job.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	r.jobs[job.Name] = &entry{job: job}
	return nil
}

// Initialize registers jobs and starts every registered job.
func (r *Runner) Initialize(jobs ...Job) error {
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return err
		}
	}

	r.mu.Lock()
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)

	for _, name := range names {
		if err := r.StartJob(name); err != nil {
			return err
		}
	}
	r.logger.Info("job runner initialized", "jobs", names)
	return nil
}

// StartJob starts the periodic loop of a registered job. Starting an active
// job is a no-op.
func (r *Runner) StartJob(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	e, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if e.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(r.root)
	e.cancel = cancel

	r.wg.Add(1)
	go r.loop(ctx, e)
	return nil
}

// StopJob cancels the job's timer. A run in progress finishes with a
// cancelled context.
func (r *Runner) StopJob(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
		r.logger.Info("job stopped", "job", name)
	}
	return nil
}

func (r *Runner) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, e := range r.jobs {
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
			r.logger.Info("job stopped", "job", name)
		}
	}
}

// Close stops all jobs and blocks until running handlers return.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.StopAll()
	r.stop()
	r.wg.Wait()
	r.logger.Info("job runner closed")
}

func (r *Runner) GetJobStatus() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Status, 0, len(r.jobs))
	for _, e := range r.jobs {
		s := Status{
			Name:        e.job.Name,
			Description: e.job.Description,
			Interval:    e.job.Interval.String(),
			Active:      e.cancel != nil,
			Running:     e.running.Load(),
			Runs:        e.runs,
			LastError:   e.lastErr,
		}
		if e.lastRun != nil {
			t := *e.lastRun
			s.LastRun = &t
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// RunNow runs a registered job immediately and returns its error. It
// respects the overlap guard and the lock like a scheduled run.
func (r *Runner) RunNow(ctx context.Context, name string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	e, ok := r.jobs[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	r.wg.Add(1)
	r.mu.Unlock()
	defer r.wg.Done()

	return r.run(ctx, e)
}

// ======================================================
// EXECUTION
// ======================================================

func (r *Runner) loop(ctx context.Context, e *entry) {
	defer r.wg.Done()

	if e.job.RunOnStart {
		_ = r.run(ctx, e)
	}

	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.run(ctx, e)
		}
	}
}

func (r *Runner) run(ctx context.Context, e *entry) error {
	name := e.job.Name
	lg := r.logger.With("job", name)

	if !e.running.CompareAndSwap(false, true) {
		lg.Warn("previous run still in progress, skipping")
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	if r.locker != nil {
		release, ok, err := r.locker.TryLock(ctx, "jobs:"+name, e.job.Interval)
		if err != nil {
			lg.Error("job lock failed", "error", err)
			r.record(e, r.now(), fmt.Errorf("lock: %w", err))
			return err
		}
		if !ok {
			lg.Debug("job held by another instance, skipping")
			return ErrLocked
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				lg.Warn("job lock release failed", "error", err)
			}
		}()
	}

	started := r.now()
	err := safeCall(logging.ContextWithLogger(ctx, lg), e.job.Handler)
	r.record(e, started, err)

	if err != nil {
		lg.Error("job failed", "error", err, "duration", time.Since(started))
		return err
	}
	lg.Debug("job finished", "duration", time.Since(started))
	return nil
}

func (r *Runner) record(e *entry, at time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.runs++
	e.lastRun = &at
	e.lastErr = ""
	if err != nil {
		e.lastErr = err.Error()
	}
}

func safeCall(ctx context.Context, h Handler) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("jobs: handler panicked: %v", p)
		}
	}()
	return h(ctx)
}
