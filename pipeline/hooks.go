package pipeline

import (
	"sync"

	"github.com/goliatone/go-auth-switch"
)

type hookEntry[T any] struct {
	id uint64
	fn T
}

// hookList is an ordered set of hooks. Stopping a hook removes it; a hook
// may stop itself while the list is being iterated.
type hookList[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	hooks  []hookEntry[T]
}

func (l *hookList[T]) add(fn T) authswitch.Stopper {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.hooks = append(l.hooks, hookEntry[T]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return authswitch.StopperFunc(func() {
		once.Do(func() { l.remove(id) })
	})
}

func (l *hookList[T]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, h := range l.hooks {
		if h.id == id {
			l.hooks = append(l.hooks[:i:i], l.hooks[i+1:]...)
			return
		}
	}
}

func (l *hookList[T]) snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.hooks))
	for i, h := range l.hooks {
		out[i] = h.fn
	}
	return out
}

func (l *hookList[T]) count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.hooks)
}
