package asyncx_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Abraxas-365/academy/pkg/asyncx"
)

func TestFuture_AwaitCachesResult(t *testing.T) {
	var calls int32
	f := asyncx.Run(func() (int, error) {
		atomic.AddInt32(&calls, 1)
		return 42, nil
	})

	for i := 0; i < 3; i++ {
		v, err := f.Await()
		if err != nil {
			t.Fatalf("Await failed: %v", err)
		}
		if v != 42 {
			t.Fatalf("value: got %d, want 42", v)
		}
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("fn ran %d times, want 1", calls)
	}
}

func TestFuture_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	f := asyncx.Run(func() (string, error) { return "", boom })

	if _, err := f.Await(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestAll_OrderAndError(t *testing.T) {
	ctx := context.Background()

	values, err := asyncx.All(ctx,
		func(context.Context) (int, error) { time.Sleep(10 * time.Millisecond); return 1, nil },
		func(context.Context) (int, error) { return 2, nil },
		func(context.Context) (int, error) { return 3, nil },
	)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	for i, want := range []int{1, 2, 3} {
		if values[i] != want {
			t.Errorf("values[%d]: got %d, want %d", i, values[i], want)
		}
	}

	boom := errors.New("boom")
	_, err = asyncx.All(ctx,
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 0, boom },
	)
	if err == nil {
		t.Fatal("expected error from All")
	}
}

func TestAllSettled_NeverShortCircuits(t *testing.T) {
	boom := errors.New("boom")
	results := asyncx.AllSettled(context.Background(),
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 0, boom },
		func(context.Context) (int, error) { return 3, nil },
	)

	if len(results) != 3 {
		t.Fatalf("results: got %d, want 3", len(results))
	}
	if !results[0].OK() || results[0].Value != 1 {
		t.Errorf("results[0]: %+v", results[0])
	}
	if results[1].OK() {
		t.Error("results[1] should have failed")
	}
	if !results[2].OK() || results[2].Value != 3 {
		t.Errorf("results[2]: %+v", results[2])
	}
}

func TestMap_BoundedAndOrdered(t *testing.T) {
	var inFlight, peak int32

	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	results, err := asyncx.Map(context.Background(), 2, items, func(_ context.Context, n int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return n * n, nil
	})
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	for i, n := range items {
		if results[i] != n*n {
			t.Errorf("results[%d]: got %d, want %d", i, results[i], n*n)
		}
	}
	if p := atomic.LoadInt32(&peak); p > 2 {
		t.Errorf("concurrency peak %d exceeds worker bound 2", p)
	}
}
