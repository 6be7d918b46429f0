package session

import "sync"

// writer runs repository writes one at a time in submission order without
// blocking the caller.
type writer struct {
	mu      sync.Mutex
	pending []func()
	running bool
	wg      sync.WaitGroup
}

func (w *writer) enqueue(f func()) {
	w.wg.Add(1)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, f)
	if !w.running {
		w.running = true
		go w.run()
	}
}

func (w *writer) run() {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.running = false
			w.mu.Unlock()
			return
		}
		f := w.pending[0]
		w.pending = w.pending[1:]
		w.mu.Unlock()

		f()
		w.wg.Done()
	}
}

// wait blocks until every enqueued write finished.
func (w *writer) wait() {
	w.wg.Wait()
}
