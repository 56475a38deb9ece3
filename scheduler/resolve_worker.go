package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"costbook/models"
)

// ResolveFunc resolves one request. It must honour ctx.
type ResolveFunc func(ctx context.Context, req models.ResolveRequest) models.Resolution

// ResolveWorker runs resolutions one at a time off a FIFO queue.
// Submit never blocks; results come back by value on Results(), tagged
// with the request ID.
type ResolveWorker struct {
	resolve ResolveFunc
	onStart func(models.ResolveRequest)

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []models.ResolveRequest
	started bool
	stopped bool
	busy    bool

	results chan models.ResolveResult
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// NewResolveWorker creates a worker. resultBuffer sizes the results channel.
func NewResolveWorker(resolve ResolveFunc, resultBuffer int) *ResolveWorker {
	if resultBuffer < 0 {
		resultBuffer = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &ResolveWorker{
		resolve: resolve,
		results: make(chan models.ResolveResult, resultBuffer),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// OnStart registers a hook called as each request is picked up.
// Set it before Start.
func (w *ResolveWorker) OnStart(fn func(models.ResolveRequest)) {
	w.onStart = fn
}

// Start launches the worker goroutine
func (w *ResolveWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.run()
	log.Println("🚀 Resolve worker started")
}

// Submit appends a request and wakes the worker. Requests submitted after
// Stop are dropped.
func (w *ResolveWorker) Submit(req models.ResolveRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		log.Printf("⚠️ Worker stopped, dropping request %s", req.ID)
		return
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = time.Now()
	}
	w.queue = append(w.queue, req)
	w.cond.Signal()
}

// Results delivers completed resolutions in processing order.
// The channel is closed once the worker exits.
func (w *ResolveWorker) Results() <-chan models.ResolveResult {
	return w.results
}

// Pending returns the number of queued requests, excluding the one in flight
func (w *ResolveWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Busy reports whether a request is in flight
func (w *ResolveWorker) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Stop cancels the in-flight resolution, discards queued requests and
// waits for the worker to exit. Safe to call more than once.
func (w *ResolveWorker) Stop() {
	w.once.Do(func() {
		log.Println("🛑 Resolve worker stopping...")
		w.mu.Lock()
		w.stopped = true
		started := w.started
		discarded := len(w.queue)
		w.queue = nil
		w.cond.Broadcast()
		w.mu.Unlock()

		w.cancel()
		if discarded > 0 {
			log.Printf("🧹 Discarded %d queued requests", discarded)
		}
		if !started {
			close(w.results)
			close(w.done)
		}
	})
	<-w.done
}

// next blocks until a request is available or the worker is stopped
func (w *ResolveWorker) next() (models.ResolveRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for len(w.queue) == 0 && !w.stopped {
		w.cond.Wait()
	}
	if w.stopped {
		return models.ResolveRequest{}, false
	}

	req := w.queue[0]
	w.queue[0] = models.ResolveRequest{}
	w.queue = w.queue[1:]
	w.busy = true
	return req, true
}

func (w *ResolveWorker) run() {
	defer func() {
		close(w.results)
		close(w.done)
		log.Println("🛑 Resolve worker stopped")
	}()

	for {
		req, ok := w.next()
		if !ok {
			return
		}

		if w.onStart != nil {
			w.onStart(req)
		}

		start := time.Now()
		res := w.resolve(w.ctx, req)

		w.mu.Lock()
		w.busy = false
		stopped := w.stopped
		w.mu.Unlock()

		if stopped {
			log.Printf("Abandoned request %s on stop", req.ID)
			return
		}

		result := models.ResolveResult{
			RequestID:  req.ID,
			Request:    req,
			Resolution: res,
			Duration:   time.Since(start),
		}
		select {
		case w.results <- result:
		case <-w.ctx.Done():
			return
		}
	}
}
