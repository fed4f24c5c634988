package dock

import "context"

// HandoffQueue is a fixed-capacity FIFO between arriving trucks and the worker.
//
// Producers block in Enqueue while the queue is full; the single consumer
// polls without blocking. Blocked producers are admitted in the order they
// started waiting, so delivery order is arrival order.
type HandoffQueue[T any] struct {
	ch chan T
}

// NewHandoffQueue creates a queue holding at most capacity items (minimum 1)
func NewHandoffQueue[T any](capacity int) *HandoffQueue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &HandoffQueue[T]{ch: make(chan T, capacity)}
}

// Enqueue appends item at the tail, blocking while the queue is full.
// Returns ctx.Err() if the context ends first; the item is then not queued.
func (q *HandoffQueue[T]) Enqueue(ctx context.Context, item T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Poll removes and returns the head item, or reports false immediately when empty
func (q *HandoffQueue[T]) Poll() (T, bool) {
	select {
	case item := <-q.ch:
		return item, true
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of queued items
func (q *HandoffQueue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the fixed capacity
func (q *HandoffQueue[T]) Cap() int {
	return cap(q.ch)
}
