package ecs

// Removable is implemented by all entity-keyed component stores so the
// Registry can bulk-remove an entity's data from every store on destroy.
// *Pool[EntityID, V] satisfies it.
type Removable interface {
	Remove(id EntityID) bool
}

// Registry tracks all component stores and supports bulk cleanup on entity destroy.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 16),
	}
}

// Register adds a component store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given entity from every registered component store
// and reports how many stores held it.
func (r *Registry) RemoveAll(id EntityID) int {
	n := 0
	for _, s := range r.stores {
		if s.Remove(id) {
			n++
		}
	}
	return n
}

func (r *Registry) Len() int { return len(r.stores) }
