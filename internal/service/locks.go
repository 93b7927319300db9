package service

import (
	"sync"

	"github.com/google/uuid"
)

// lockKey identifies a lock region: one classroom of one owner, or with a
// zero ClassRoomID the owner's annotation index.
type lockKey struct {
	OwnerID     uuid.UUID
	ClassRoomID int64
}

// KeyedMutex hands out one mutex per key. Entries are reference counted and
// dropped once no goroutine holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[lockKey]*refMutex
}

type refMutex struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty lock table.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[lockKey]*refMutex)}
}

// Lock acquires the mutex for key and returns the function releasing it.
func (k *KeyedMutex) Lock(key lockKey) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.mu.Lock()
	return func() {
		m.mu.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// size returns the number of live entries.
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func classRoomKey(owner uuid.UUID, classRoomID int64) lockKey {
	return lockKey{OwnerID: owner, ClassRoomID: classRoomID}
}

func annotationKey(owner uuid.UUID) lockKey {
	return lockKey{OwnerID: owner}
}
