// Package tasks is a fire-and-forget in-process job dispatcher. Enqueue
// returns a handle immediately; a worker pool executes jobs out of band
// with no ordering guarantee across jobs. There is no retry and no
// cancellation of a running job.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var (
	ErrInvalidJob = errors.New("invalid job")
	ErrNotFound   = errors.New("task not found")
	ErrNotReady   = errors.New("task result not ready")
)

// Handle tracks one dispatched job. It is mutated only by the single
// worker that owns its execution and read through snapshots.
type Handle struct {
	ID         string            `json:"task_id"`
	Name       string            `json:"name"`
	Args       map[string]string `json:"args,omitempty"`
	Status     Status            `json:"status"`
	Result     string            `json:"result,omitempty"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// JobFunc executes one job. The returned string becomes the handle's
// result payload.
type JobFunc func(ctx context.Context, args map[string]string) (string, error)

type Config struct {
	// Workers is the pool size. Default 4.
	Workers int
	// Buffer is the enqueue channel depth. Default 256. Enqueue never
	// blocks even when the buffer is full.
	Buffer int
	Logger *slog.Logger
}

type Dispatcher struct {
	jobs   map[string]JobFunc
	logger *slog.Logger

	mu      sync.RWMutex
	handles map[string]*Handle

	queue chan string
	quit  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
}

func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	d := &Dispatcher{
		jobs:    map[string]JobFunc{},
		logger:  cfg.Logger,
		handles: map[string]*Handle{},
		queue:   make(chan string, cfg.Buffer),
		quit:    make(chan struct{}),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Register adds a named job. Must be called before Enqueue for that
// name; registration is not synchronized with dispatch.
func (d *Dispatcher) Register(name string, fn JobFunc) {
	d.jobs[name] = fn
}

// Enqueue returns a handle immediately. Unknown job names fail with
// ErrInvalidJob and nothing is enqueued.
func (d *Dispatcher) Enqueue(name string, args map[string]string) (Handle, error) {
	if _, ok := d.jobs[name]; !ok {
		return Handle{}, fmt.Errorf("%w: %s", ErrInvalidJob, name)
	}
	h := &Handle{
		ID:         uuid.NewString(),
		Name:       name,
		Args:       args,
		Status:     StatusPending,
		EnqueuedAt: time.Now().UTC(),
	}
	d.mu.Lock()
	d.handles[h.ID] = h
	d.mu.Unlock()

	select {
	case d.queue <- h.ID:
	default:
		// Buffer full; hand off asynchronously so enqueue stays
		// non-blocking.
		go func() {
			select {
			case d.queue <- h.ID:
			case <-d.quit:
			}
		}()
	}
	d.logger.Info("task enqueued", "task_id", h.ID, "job", name)
	return *h, nil
}

func (d *Dispatcher) Get(id string) (Handle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handles[id]
	if !ok {
		return Handle{}, ErrNotFound
	}
	return *h, nil
}

func (d *Dispatcher) Status(id string) (Status, error) {
	h, err := d.Get(id)
	if err != nil {
		return "", err
	}
	return h.Status, nil
}

// Result fails with ErrNotReady unless the job has succeeded; a failed
// job has no result and the caller must re-enqueue manually.
func (d *Dispatcher) Result(id string) (string, error) {
	h, err := d.Get(id)
	if err != nil {
		return "", err
	}
	if h.Status != StatusSucceeded {
		return "", fmt.Errorf("%w: status %s", ErrNotReady, h.Status)
	}
	return h.Result, nil
}

// Close stops the workers. Queued-but-unstarted jobs stay pending.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.quit) })
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.quit:
			return
		case id := <-d.queue:
			d.run(id)
		}
	}
}

func (d *Dispatcher) run(id string) {
	d.mu.Lock()
	h, ok := d.handles[id]
	if !ok {
		d.mu.Unlock()
		return
	}
	fn := d.jobs[h.Name]
	h.Status = StatusRunning
	d.mu.Unlock()

	result, err := d.execute(fn, h.Args)
	now := time.Now().UTC()

	d.mu.Lock()
	h.FinishedAt = &now
	if err != nil {
		h.Status = StatusFailed
	} else {
		h.Status = StatusSucceeded
		h.Result = result
	}
	d.mu.Unlock()

	if err != nil {
		d.logger.Error("task failed", "task_id", id, "job", h.Name, "error", err)
		return
	}
	d.logger.Info("task succeeded", "task_id", id, "job", h.Name)
}

// execute isolates panics: a crashed job transitions its handle to
// failed instead of taking the worker down.
func (d *Dispatcher) execute(fn JobFunc, args map[string]string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(context.Background(), args)
}
