package jobx

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Abraxas-365/academy/pkg/logx"
)

// Handler processes one task. A nil return acknowledges the task; an error
// sends it through the retry policy.
type Handler func(ctx context.Context, task *Task) error

// State is the lifecycle position of a task.
type State string

const (
	StatePending  State = "pending"
	StateRunning  State = "running"
	StateDone     State = "done"
	StateRetrying State = "retrying"
	StateFailed   State = "failed"
)

// Task is a unit of background work. Payload is opaque to the queue; the
// handler registered for Type owns its shape.
type Task struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Queue       string          `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	State       State           `json:"state"`
	Error       string          `json:"error,omitempty"`
	MaxAttempts int             `json:"max_attempts"`
	Attempts    int             `json:"attempts"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Backend is the storage side of the queue.
type Backend interface {
	// Push makes the task immediately available on its queue.
	Push(ctx context.Context, task *Task) error
	// PushDelayed holds the task back until the delay elapses.
	PushDelayed(ctx context.Context, task *Task, delay time.Duration) error
	// Pull blocks up to timeout for the next ready task. A nil task with a
	// nil error means the timeout elapsed with nothing to do.
	Pull(ctx context.Context, queues []string, timeout time.Duration) (*Task, error)
	// MarkDone acknowledges a finished task.
	MarkDone(ctx context.Context, id string) error
	// MarkFailed records the failure and reports whether the retry budget
	// allows another attempt.
	MarkFailed(ctx context.Context, id string, reason string) (retry bool, err error)
	// Reschedule puts a retrying task back on the delayed set.
	Reschedule(ctx context.Context, id string, delay time.Duration) error
	// Promote moves due delayed tasks onto their ready queues.
	Promote(ctx context.Context, queues []string) error
	// Find returns the stored task by id.
	Find(ctx context.Context, id string) (*Task, error)
}

// Runner pairs a backend with handlers and drives the worker pool.
type Runner struct {
	backend  Backend
	opts     Options
	mu       sync.RWMutex
	handlers map[string]Handler
	running  bool
}

// NewRunner creates a runner over the backend.
func NewRunner(backend Backend, options ...Option) *Runner {
	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Runner{
		backend:  backend,
		opts:     opts,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a task type. Later registrations for the same
// type win.
func (r *Runner) Register(taskType string, h Handler) {
	r.mu.Lock()
	r.handlers[taskType] = h
	r.mu.Unlock()
}

// Enqueue schedules a task for immediate processing and returns its id.
func (r *Runner) Enqueue(ctx context.Context, taskType string, payload any) (string, error) {
	task, err := r.newTask(taskType, payload)
	if err != nil {
		return "", err
	}
	if err := r.backend.Push(ctx, task); err != nil {
		return "", err
	}
	return task.ID, nil
}

// EnqueueIn schedules a task to become ready after the delay.
func (r *Runner) EnqueueIn(ctx context.Context, taskType string, payload any, delay time.Duration) (string, error) {
	task, err := r.newTask(taskType, payload)
	if err != nil {
		return "", err
	}
	if err := r.backend.PushDelayed(ctx, task, delay); err != nil {
		return "", err
	}
	return task.ID, nil
}

// Find returns the current state of a task.
func (r *Runner) Find(ctx context.Context, id string) (*Task, error) {
	return r.backend.Find(ctx, id)
}

func (r *Runner) newTask(taskType string, payload any) (*Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(CodeInvalidTask, err).WithDetail("type", taskType)
	}
	now := time.Now().UTC()
	return &Task{
		ID:          newTaskID(),
		Type:        taskType,
		Queue:       r.opts.Queue,
		Payload:     raw,
		State:       StatePending,
		MaxAttempts: r.opts.MaxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Run blocks processing tasks until ctx is cancelled, then drains the
// workers within the shutdown timeout.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrRegistry.New(CodeAlreadyRunning)
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	logx.Infof("jobx: %d workers on queue %q", r.opts.Concurrency, r.opts.Queue)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		r.promoteLoop(ctx)
	}()

	for i := 0; i < r.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.workLoop(ctx)
		}()
	}

	<-ctx.Done()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("jobx: workers stopped")
		return nil
	case <-time.After(r.opts.ShutdownTimeout):
		logx.Warn("jobx: shutdown timed out with tasks in flight")
		return ErrRegistry.New(CodeShutdownTimeout)
	}
}

func (r *Runner) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(r.opts.PromoteInterval)
	defer ticker.Stop()

	queues := []string{r.opts.Queue}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.backend.Promote(ctx, queues); err != nil && ctx.Err() == nil {
				logx.WithError(err).Warn("jobx: promote failed")
			}
		}
	}
}

func (r *Runner) workLoop(ctx context.Context) {
	queues := []string{r.opts.Queue}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, err := r.backend.Pull(ctx, queues, r.opts.PullTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warn("jobx: pull failed")
			time.Sleep(r.opts.PromoteInterval)
			continue
		}
		if task == nil {
			continue
		}

		r.dispatch(ctx, task)
	}
}

func (r *Runner) dispatch(ctx context.Context, task *Task) {
	r.mu.RLock()
	handler, ok := r.handlers[task.Type]
	r.mu.RUnlock()

	if !ok {
		logx.Warnf("jobx: no handler for task type %q (id=%s)", task.Type, task.ID)
		_, _ = r.backend.MarkFailed(ctx, task.ID, "no handler registered")
		return
	}

	if err := handler(ctx, task); err != nil {
		logx.WithError(err).Warnf("jobx: task %s (%s) failed on attempt %d", task.ID, task.Type, task.Attempts)

		retry, failErr := r.backend.MarkFailed(ctx, task.ID, err.Error())
		if failErr != nil {
			logx.WithError(failErr).Errorf("jobx: could not record failure for task %s", task.ID)
			return
		}
		if retry {
			if rErr := r.backend.Reschedule(ctx, task.ID, r.opts.RetryDelay); rErr != nil {
				logx.WithError(rErr).Errorf("jobx: could not reschedule task %s", task.ID)
			}
		}
		return
	}

	if err := r.backend.MarkDone(ctx, task.ID); err != nil {
		logx.WithError(err).Errorf("jobx: could not acknowledge task %s", task.ID)
	}
}
