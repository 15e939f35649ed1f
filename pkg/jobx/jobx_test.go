package jobx_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/academy/pkg/jobx"
)

// memoryBackend is a channel-backed jobx.Backend for runner tests.
type memoryBackend struct {
	mu      sync.Mutex
	ready   chan *jobx.Task
	tasks   map[string]*jobx.Task
	resched []string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		ready: make(chan *jobx.Task, 64),
		tasks: make(map[string]*jobx.Task),
	}
}

func (b *memoryBackend) store(task *jobx.Task) {
	b.mu.Lock()
	cp := *task
	b.tasks[task.ID] = &cp
	b.mu.Unlock()
}

func (b *memoryBackend) Push(_ context.Context, task *jobx.Task) error {
	b.store(task)
	b.ready <- task
	return nil
}

func (b *memoryBackend) PushDelayed(_ context.Context, task *jobx.Task, _ time.Duration) error {
	b.store(task)
	return nil
}

func (b *memoryBackend) Pull(ctx context.Context, _ []string, timeout time.Duration) (*jobx.Task, error) {
	select {
	case task := <-b.ready:
		b.mu.Lock()
		stored := b.tasks[task.ID]
		stored.State = jobx.StateRunning
		stored.Attempts++
		cp := *stored
		b.mu.Unlock()
		return &cp, nil
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, nil
	}
}

func (b *memoryBackend) MarkDone(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t, ok := b.tasks[id]; ok {
		t.State = jobx.StateDone
	}
	return nil
}

func (b *memoryBackend) MarkFailed(_ context.Context, id, reason string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return false, jobx.ErrRegistry.New(jobx.CodeNotFound)
	}
	t.Error = reason
	if t.Attempts < t.MaxAttempts {
		t.State = jobx.StateRetrying
		return true, nil
	}
	t.State = jobx.StateFailed
	return false, nil
}

func (b *memoryBackend) Reschedule(_ context.Context, id string, _ time.Duration) error {
	b.mu.Lock()
	task, ok := b.tasks[id]
	if ok {
		b.resched = append(b.resched, id)
	}
	b.mu.Unlock()
	if ok {
		b.ready <- task
	}
	return nil
}

func (b *memoryBackend) Promote(context.Context, []string) error { return nil }

func (b *memoryBackend) Find(_ context.Context, id string) (*jobx.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.tasks[id]
	if !ok {
		return nil, jobx.ErrRegistry.New(jobx.CodeNotFound)
	}
	cp := *t
	return &cp, nil
}

func waitForState(t *testing.T, b *memoryBackend, id string, want jobx.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		task, err := b.Find(context.Background(), id)
		if err == nil && task.State == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	task, _ := b.Find(context.Background(), id)
	t.Fatalf("task %s never reached %s, last state %+v", id, want, task)
}

func TestRunner_ProcessesTask(t *testing.T) {
	backend := newMemoryBackend()
	runner := jobx.NewRunner(backend, jobx.WithConcurrency(2), jobx.WithRetryDelay(time.Millisecond))

	var mu sync.Mutex
	var got string
	runner.Register("greet", func(_ context.Context, task *jobx.Task) error {
		var payload map[string]string
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return err
		}
		mu.Lock()
		got = payload["name"]
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = runner.Run(ctx) }()

	id, err := runner.Enqueue(ctx, "greet", map[string]string{"name": "ana"})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	waitForState(t, backend, id, jobx.StateDone)

	mu.Lock()
	defer mu.Unlock()
	if got != "ana" {
		t.Errorf("payload: got %q, want ana", got)
	}
}

func TestRunner_RetriesThenFails(t *testing.T) {
	backend := newMemoryBackend()
	runner := jobx.NewRunner(backend,
		jobx.WithConcurrency(1),
		jobx.WithMaxAttempts(2),
		jobx.WithRetryDelay(time.Millisecond),
	)

	var attempts int
	var mu sync.Mutex
	runner.Register("flaky", func(context.Context, *jobx.Task) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		return errors.New("still broken")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = runner.Run(ctx) }()

	id, err := runner.Enqueue(ctx, "flaky", nil)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	waitForState(t, backend, id, jobx.StateFailed)

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("attempts: got %d, want 2", attempts)
	}

	task, err := backend.Find(ctx, id)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if task.Error != "still broken" {
		t.Errorf("error: got %q", task.Error)
	}
}

func TestRunner_UnknownTypeFails(t *testing.T) {
	backend := newMemoryBackend()
	runner := jobx.NewRunner(backend, jobx.WithConcurrency(1), jobx.WithMaxAttempts(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = runner.Run(ctx) }()

	id, err := runner.Enqueue(ctx, "nobody-handles-this", nil)
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	waitForState(t, backend, id, jobx.StateFailed)
}

func TestRunner_SecondRunRejected(t *testing.T) {
	backend := newMemoryBackend()
	runner := jobx.NewRunner(backend, jobx.WithConcurrency(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = runner.Run(ctx) }()

	// Give the first Run a moment to take the flag.
	time.Sleep(20 * time.Millisecond)

	err := runner.Run(ctx)
	if err == nil {
		t.Fatal("expected second Run to fail")
	}
}

func TestRunner_EnqueueRejectsUnmarshalablePayload(t *testing.T) {
	runner := jobx.NewRunner(newMemoryBackend())

	_, err := runner.Enqueue(context.Background(), "bad", make(chan int))
	if err == nil {
		t.Fatal("expected marshal failure")
	}
}
