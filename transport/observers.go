package transport

import "sync"

// observers is an ordered observer list. Handlers are invoked in
// registration order, once per event, on the goroutine that delivers the
// event; subscribing returns a disposer that removes the handler.
type observers[T any] struct {
	mu      sync.Mutex
	nextID  int
	entries []observerEntry[T]
}

type observerEntry[T any] struct {
	id int
	fn func(T)
}

func (o *observers[T]) subscribe(fn func(T)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.entries = append(o.entries, observerEntry[T]{id: id, fn: fn})
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		for i, entry := range o.entries {
			if entry.id == id {
				o.entries = append(o.entries[:i], o.entries[i+1:]...)
				break
			}
		}
		o.mu.Unlock()
	}
}

// notify invokes every registered handler synchronously, in order. The
// entry list is copied so a handler may unsubscribe itself or others.
func (o *observers[T]) notify(value T) {
	o.mu.Lock()
	entries := make([]observerEntry[T], len(o.entries))
	copy(entries, o.entries)
	o.mu.Unlock()
	for _, entry := range entries {
		entry.fn(value)
	}
}
