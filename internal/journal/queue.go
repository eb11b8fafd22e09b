package journal

import (
	"context"
	"errors"
	"sync"
)

const defaultQueueSize = 256

var (
	// ErrQueueFull is returned when the writer has fallen behind and the entry is dropped.
	ErrQueueFull = errors.New("journal queue is full")
	// ErrQueueClosed is returned by Append and Flush after Close.
	ErrQueueClosed = errors.New("journal queue is closed")
)

// Appender stores a single entry. *Journal implements it.
type Appender interface {
	Append(ctx context.Context, entry Entry) error
}

// ErrorFunc receives entries that could not be written.
type ErrorFunc func(entry Entry, err error)

type queued struct {
	entry   Entry
	flushed chan struct{}
}

// Queue writes entries to an Appender from a single background goroutine, so callers
// never wait on the backend. Entries are written in the order they were queued.
type Queue struct {
	next    Appender
	onError ErrorFunc
	items   chan queued

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts the writer goroutine. size <= 0 uses a default buffer.
func NewQueue(next Appender, size int, onError ErrorFunc) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		next:    next,
		onError: onError,
		items:   make(chan queued, size),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go q.run()

	return q
}

// Append queues entry without blocking.
func (q *Queue) Append(_ context.Context, entry Entry) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- queued{entry: entry}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Flush waits until every entry queued before the call has been handled.
func (q *Queue) Flush(ctx context.Context) error {
	marker := queued{flushed: make(chan struct{})}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrQueueClosed
	}
	select {
	case q.items <- marker:
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return ctx.Err()
	}

	select {
	case <-marker.flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting entries and drains the queue. When ctx expires first, the
// in-flight write is canceled and the remaining entries are dropped.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return nil
	}
	q.closed = true
	close(q.items)
	q.mu.Unlock()

	select {
	case <-q.done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)

	for item := range q.items {
		if item.flushed != nil {
			close(item.flushed)
			continue
		}

		if q.ctx.Err() != nil {
			q.report(item.entry, q.ctx.Err())
			continue
		}

		if err := q.next.Append(q.ctx, item.entry); err != nil {
			q.report(item.entry, err)
		}
	}
}

func (q *Queue) report(entry Entry, err error) {
	if q.onError != nil {
		q.onError(entry, err)
	}
}
