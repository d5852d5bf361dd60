package ecs

import (
	"math"
	"sync"
)

// EntityID is an opaque 64-bit handle. Ids are never reused; uniqueness is
// the only contract, callers must not rely on them being sequential.
type EntityID uint64

const (
	// InvalidEntity marks "no entity" (unparented objects, raycast misses).
	InvalidEntity EntityID = 0
	// AllEntities addresses every live entity. Only valid as a destroy
	// argument, never stored.
	AllEntities EntityID = math.MaxUint64
)

func (id EntityID) IsZero() bool { return id == InvalidEntity }

// Valid reports whether id names a single concrete entity.
func (id EntityID) Valid() bool { return id != InvalidEntity && id != AllEntities }

// EntityManager hands out entity ids from a monotonic counter.
// Create is the one operation that may be called from loader goroutines,
// so it is the only one serialized by a lock.
type EntityManager struct {
	mu   sync.Mutex
	next EntityID
}

func NewEntityManager() *EntityManager {
	return &EntityManager{}
}

// Create returns a fresh id. The counter starts past InvalidEntity and never
// reaches AllEntities in practice.
func (m *EntityManager) Create() EntityID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	return m.next
}

// Last returns the most recently allocated id (InvalidEntity if none).
func (m *EntityManager) Last() EntityID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

// Reserve advances the counter so the next Create returns an id greater than
// floor. Used after restoring a snapshot whose ids were allocated elsewhere.
func (m *EntityManager) Reserve(floor EntityID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if floor > m.next && floor != AllEntities {
		m.next = floor
	}
}
