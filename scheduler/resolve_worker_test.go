package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"costbook/models"
	"costbook/scheduler"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWorker_SubmitDoesNotBlockWhileBusy(t *testing.T) {
	gate := make(chan struct{})
	w := scheduler.NewResolveWorker(func(ctx context.Context, req models.ResolveRequest) models.Resolution {
		if req.Name == "first" {
			<-gate
		}
		return models.Found(req.Name, models.MoneyFromFloat(1), "")
	}, 0)
	w.Start()
	defer w.Stop()

	first := models.NewResolveRequest("first", "", 1)
	second := models.NewResolveRequest("second", "", 1)
	third := models.NewResolveRequest("third", "", 1)

	w.Submit(first)
	waitFor(t, w.Busy)

	submitted := make(chan struct{})
	go func() {
		w.Submit(second)
		w.Submit(third)
		close(submitted)
	}()
	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked while the worker was busy")
	}
	if got := w.Pending(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}

	close(gate)

	want := []models.ResolveRequest{first, second, third}
	for i, req := range want {
		select {
		case res := <-w.Results():
			if res.RequestID != req.ID {
				t.Fatalf("result %d tagged %s, want %s", i, res.RequestID, req.ID)
			}
			if res.Resolution.Name != req.Name {
				t.Fatalf("result %d carries %q, want %q", i, res.Resolution.Name, req.Name)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("result %d never arrived", i)
		}
	}
}

func TestWorker_StopDiscardsQueueAndCancelsInFlight(t *testing.T) {
	var (
		mu        sync.Mutex
		processed []string
		cancelled bool
	)
	w := scheduler.NewResolveWorker(func(ctx context.Context, req models.ResolveRequest) models.Resolution {
		mu.Lock()
		processed = append(processed, req.Name)
		mu.Unlock()
		<-ctx.Done()
		mu.Lock()
		cancelled = true
		mu.Unlock()
		return models.Failed("cancelled")
	}, 4)
	w.Start()

	w.Submit(models.NewResolveRequest("a", "", 1))
	w.Submit(models.NewResolveRequest("b", "", 1))
	w.Submit(models.NewResolveRequest("c", "", 1))
	waitFor(t, w.Busy)

	w.Stop()
	w.Stop()

	if _, ok := <-w.Results(); ok {
		t.Fatal("no result expected after stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(processed) != 1 || processed[0] != "a" {
		t.Fatalf("processed = %v, want only the in-flight request", processed)
	}
	if !cancelled {
		t.Fatal("in-flight resolution was not cancelled")
	}
	if w.Pending() != 0 {
		t.Fatalf("pending = %d after stop", w.Pending())
	}
}

func TestWorker_StopBeforeStart(t *testing.T) {
	w := scheduler.NewResolveWorker(func(context.Context, models.ResolveRequest) models.Resolution {
		t.Fatal("resolve must not run")
		return models.Resolution{}
	}, 0)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop hung on a worker that never started")
	}

	w.Submit(models.NewResolveRequest("late", "", 1))
	if w.Pending() != 0 {
		t.Fatal("requests after stop must be dropped")
	}
	w.Start()
}

func TestWorker_OnStartHook(t *testing.T) {
	w := scheduler.NewResolveWorker(func(_ context.Context, req models.ResolveRequest) models.Resolution {
		return models.NotFound()
	}, 1)

	started := make(chan string, 1)
	w.OnStart(func(req models.ResolveRequest) { started <- req.ID })
	w.Start()
	defer w.Stop()

	req := models.NewResolveRequest("x", "", 1)
	w.Submit(req)

	select {
	case id := <-started:
		if id != req.ID {
			t.Fatalf("hook got %s, want %s", id, req.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hook not called")
	}
	<-w.Results()
}
