package achievement

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes work per enrollment inside one process. Entries are
// reference counted and dropped when the last holder or waiter leaves.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: map[uuid.UUID]*keyedEntry{}}
}

// Lock blocks until id is free or ctx is done. The returned func releases it.
func (k *keyedMutex) Lock(ctx context.Context, id uuid.UUID) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[id]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.entries[id] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			k.release(id, e)
		}, nil
	case <-ctx.Done():
		k.release(id, e)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) release(id uuid.UUID, e *keyedEntry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, id)
	}
	k.mu.Unlock()
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
