// Package observe publishes immutable snapshots to any number of readers.
package observe

import "sync"

// Value holds the latest published snapshot of T.
//
// Publish replaces the snapshot atomically. Readers either Load the current
// one or Subscribe to be notified of new ones. Subscribers that fall behind
// only ever see the most recent snapshot; intermediate ones are dropped.
// Callers must not modify a T after publishing it.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	version uint64
	subs    map[*subscriber[T]]struct{}
}

type subscriber[T any] struct {
	ch chan T
}

// NewValue returns a Value whose initial snapshot is initial at version 0.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		subs:    make(map[*subscriber[T]]struct{}),
	}
}

// Publish stores v as the current snapshot and notifies subscribers.
func (o *Value[T]) Publish(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = v
	o.version++
	for s := range o.subs {
		offer(s.ch, v)
	}
}

// Load returns the current snapshot and how many times Publish has run.
func (o *Value[T]) Load() (T, uint64) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current, o.version
}

// Subscribe returns a channel that first carries the current snapshot and
// then every later one, latest wins. The returned func unsubscribes and
// closes the channel; it is safe to call more than once.
func (o *Value[T]) Subscribe() (<-chan T, func()) {
	s := &subscriber[T]{ch: make(chan T, 1)}

	o.mu.Lock()
	if o.subs == nil {
		o.subs = make(map[*subscriber[T]]struct{})
	}
	o.subs[s] = struct{}{}
	s.ch <- o.current
	o.mu.Unlock()

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, s)
			close(s.ch)
			o.mu.Unlock()
		})
	}
}

// Subscribers reports the number of live subscriptions.
func (o *Value[T]) Subscribers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}

// offer replaces whatever is buffered in ch with v. Only Publish sends on
// subscriber channels and it holds the write lock, so the drain-then-send
// never blocks.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
