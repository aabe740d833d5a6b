package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerQueue_ProcessesEveryJob(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
	)
	q := NewWorkerQueue(func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.Path] = true
		mu.Unlock()
		if job.Path == "bad.pdf" {
			return errors.New("boom")
		}
		return nil
	}, nil, WithWorkers(3), WithQueueSize(2))

	paths := []string{"a.pdf", "b.png", "bad.pdf", "c.jpg", "d.jpeg"}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), Job{Path: p}); err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
	}
	q.Shutdown(context.Background())

	mu.Lock()
	defer mu.Unlock()
	for _, p := range paths {
		if !seen[p] {
			t.Errorf("%s was not processed", p)
		}
	}
}

func TestWorkerQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewWorkerQueue(func(context.Context, Job) error { return nil }, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	if err := q.Enqueue(context.Background(), Job{Path: "x.pdf"}); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestWorkerQueue_BackpressureHonoursContext(t *testing.T) {
	release := make(chan struct{})
	var started atomic.Int32
	q := NewWorkerQueue(func(context.Context, Job) error {
		started.Add(1)
		<-release
		return nil
	}, nil, WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(release)
		q.Shutdown(context.Background())
	}()

	if err := q.Enqueue(context.Background(), Job{Path: "1"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for started.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	// worker busy with job 1, buffer takes job 2, job 3 must wait
	if err := q.Enqueue(context.Background(), Job{Path: "2"}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, Job{Path: "3"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWorkerQueue_ProcessTimeout(t *testing.T) {
	got := make(chan error, 1)
	q := NewWorkerQueue(func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	}, nil, WithProcessTimeout(20*time.Millisecond))
	defer q.Shutdown(context.Background())

	if err := q.Enqueue(context.Background(), Job{Path: "slow.pdf"}); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-got:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("handler ctx error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not cancelled")
	}
}
