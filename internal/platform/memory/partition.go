package memory

import (
	"sync"

	"github.com/google/uuid"
)

// partitions maps an owner to its private state, created on first use.
type partitions[T any] struct {
	m    sync.Map // uuid.UUID -> *partition[T]
	init func() T
}

type partition[T any] struct {
	mu    sync.RWMutex
	state T
}

func newPartitions[T any](init func() T) *partitions[T] {
	return &partitions[T]{init: init}
}

// get returns the owner's partition, creating it when create is true.
// A nil result means the owner has never written anything.
func (p *partitions[T]) get(owner uuid.UUID, create bool) *partition[T] {
	if v, ok := p.m.Load(owner); ok {
		return v.(*partition[T])
	}
	if !create {
		return nil
	}
	v, _ := p.m.LoadOrStore(owner, &partition[T]{state: p.init()})
	return v.(*partition[T])
}

// read runs fn under the owner's read lock. fn is not called when the owner
// has no partition.
func (p *partitions[T]) read(owner uuid.UUID, fn func(T)) {
	part := p.get(owner, false)
	if part == nil {
		return
	}
	part.mu.RLock()
	defer part.mu.RUnlock()
	fn(part.state)
}

// write runs fn under the owner's write lock.
func (p *partitions[T]) write(owner uuid.UUID, fn func(T) error) error {
	part := p.get(owner, true)
	part.mu.Lock()
	defer part.mu.Unlock()
	return fn(part.state)
}
