package pos

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// PersistFunc writes the current learned table to durable storage.
type PersistFunc func(ctx context.Context) error

// Flusher coalesces learn events and persists them in batches: after
// batchSize pending events, on every flush interval, and on Close.
type Flusher struct {
	mu          sync.Mutex
	pending     int
	cap         int
	flushTicker *time.Ticker
	closed      bool
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	commitCh chan int
	persist  PersistFunc
	OnError  func(error)

	// lastErr stores the first asynchronous error seen by the flusher. Protected by errMu.
	errMu   sync.Mutex
	lastErr error
}

// NewFlusher creates a new Flusher.
// batchSize: persist when this many learn events are pending.
// flushInterval: persist pending events after this duration (0 to disable).
func NewFlusher(persist PersistFunc, batchSize int, flushInterval time.Duration) *Flusher {
	if batchSize <= 0 {
		batchSize = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &Flusher{
		cap:      batchSize,
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan int, 2),
		persist:  persist,
	}

	f.wg.Add(1)
	go f.committer()

	if flushInterval > 0 {
		f.flushTicker = time.NewTicker(flushInterval)
		f.wg.Add(1)
		go f.loop()
	}
	return f
}

// Submit records one pending learn event.
func (f *Flusher) Submit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlusherClosed
	}
	f.pending++
	if f.pending >= f.cap {
		f.flushLocked()
	}
	return nil
}

// Pending returns the number of learn events not yet handed to the committer.
func (f *Flusher) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// flushLocked assumes f.mu is held.
func (f *Flusher) flushLocked() {
	if f.pending == 0 {
		return
	}
	n := f.pending
	f.pending = 0

	// Blocking here while holding the lock propagates backpressure to Submit.
	select {
	case f.commitCh <- n:
	case <-f.ctx.Done():
		f.recordErr(fmt.Errorf("flusher: dropping %d learn events due to shutdown", n))
	}
}

func (f *Flusher) recordErr(err error) {
	f.errMu.Lock()
	if f.lastErr == nil {
		f.lastErr = err
	}
	f.errMu.Unlock()
	if f.OnError != nil {
		f.OnError(err)
	}
}

func (f *Flusher) committer() {
	defer f.wg.Done()
	for range f.commitCh {
		// Background context: a closing flusher must still finish its writes.
		if err := f.persist(context.Background()); err != nil {
			f.recordErr(err)
		}
	}
}

func (f *Flusher) loop() {
	defer f.wg.Done()
	for {
		select {
		case <-f.ctx.Done():
			return
		case <-f.flushTicker.C:
			f.mu.Lock()
			f.flushLocked()
			f.mu.Unlock()
		}
	}
}

// Flush persists synchronously, regardless of how many events are pending.
func (f *Flusher) Flush(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlusherClosed
	}
	f.pending = 0
	f.mu.Unlock()
	return f.persist(ctx)
}

// Close stops accepting events, persists anything pending and waits for the
// committer. It returns the first asynchronous error, if any.
func (f *Flusher) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFlusherClosed
	}
	f.closed = true
	if f.flushTicker != nil {
		f.flushTicker.Stop()
	}
	f.flushLocked()
	f.mu.Unlock()

	f.cancel()
	close(f.commitCh)
	f.wg.Wait()

	f.errMu.Lock()
	defer f.errMu.Unlock()
	return f.lastErr
}

// Err returns the first asynchronous persist error seen so far.
func (f *Flusher) Err() error {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	return f.lastErr
}

var ErrFlusherClosed = &FlusherError{"flusher closed"}

type FlusherError struct{ msg string }

func (e *FlusherError) Error() string { return e.msg }
