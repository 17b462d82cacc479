package main

import (
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshuapare/gckit/cmd/heapscope/logger"
	"github.com/joshuapare/gckit/gc"
	"github.com/joshuapare/gckit/heap"
)

// workload churns the heap in the background so the display has
// something live to show: a stream of allocations, a rotating set of
// rooted survivors, and the occasional weak reference.
type workload struct {
	rt   *gc.Runtime
	rate time.Duration

	paused atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup

	mu        sync.Mutex
	survivors []heap.ObjectID
	allocs    int64
	failures  int64
}

const maxSurvivors = 256

func newWorkload(rt *gc.Runtime, rate time.Duration) *workload {
	return &workload{
		rt:   rt,
		rate: rate,
		done: make(chan struct{}),
	}
}

func (w *workload) start() {
	w.wg.Add(1)
	go w.run()
}

func (w *workload) stop() {
	close(w.done)
	w.wg.Wait()
}

func (w *workload) togglePause() bool {
	paused := !w.paused.Load()
	w.paused.Store(paused)
	return paused
}

func (w *workload) counts() (allocs, failures int64) {
	return atomic.LoadInt64(&w.allocs), atomic.LoadInt64(&w.failures)
}

func (w *workload) run() {
	defer w.wg.Done()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(w.rate)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			if w.paused.Load() {
				continue
			}
			w.step(rng)
		}
	}
}

func (w *workload) step(rng *rand.Rand) {
	size := 16 + rng.Intn(240)
	id, err := w.rt.Allocate(size)
	if err != nil {
		// ErrOutOfMemory here means the rooted set alone fills the heap;
		// keep churning, the rotation below frees room.
		if !errors.Is(err, gc.ErrOutOfMemory) {
			logger.Error("allocation failed", "size", size, "error", err)
		}
		atomic.AddInt64(&w.failures, 1)
	} else {
		atomic.AddInt64(&w.allocs, 1)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err == nil {
		// Roughly one in eight allocations joins the rooted set, linked to
		// its predecessor so the tracer walks real edges.
		if rng.Intn(8) == 0 {
			w.rt.AddRoot(id)
			if n := len(w.survivors); n > 0 && rng.Intn(2) == 0 {
				_ = w.rt.AddReference(w.survivors[n-1], id)
			}
			w.survivors = append(w.survivors, id)
		}
		if rng.Intn(32) == 0 {
			if _, err := w.rt.NewWeakRef(id); err != nil {
				logger.Debug("weak registration failed", "error", err)
			}
		}
	}

	// Rotate old survivors out so the old generations shrink too.
	for len(w.survivors) > maxSurvivors {
		w.rt.RemoveRoot(w.survivors[0])
		w.survivors = w.survivors[1:]
	}
	if len(w.survivors) > 0 && rng.Intn(16) == 0 {
		i := rng.Intn(len(w.survivors))
		w.rt.RemoveRoot(w.survivors[i])
		w.survivors = append(w.survivors[:i], w.survivors[i+1:]...)
	}
}
