// Package tags stores free-form string labels per entity in a paged
// component pool.
package tags

import (
	"fmt"
	"slices"

	"github.com/scenecore/scenecore/internal/core/ecs"
)

// Tags is the scene-file component listing an entity's labels.
type Tags struct {
	Entity ecs.EntityID `yaml:"-"`
	Labels []string     `yaml:"labels"`
}

// Store owns the Tags pool. It is registered with the ecs store registry so
// destroyed entities lose their labels.
type Store struct {
	pool *ecs.Pool[ecs.EntityID, Tags]
}

func NewStore(pageSize int) *Store {
	return &Store{
		pool: ecs.NewPool(func(t *Tags) ecs.EntityID { return t.Entity }, pageSize),
	}
}

// Set replaces the labels of id. Duplicate labels are dropped.
func (s *Store) Set(id ecs.EntityID, labels ...string) {
	s.pool.Remove(id)
	uniq := slices.Clone(labels)
	slices.Sort(uniq)
	uniq = slices.Compact(uniq)
	s.pool.Emplace(Tags{Entity: id, Labels: uniq})
}

// Labels returns the sorted labels of id.
func (s *Store) Labels(id ecs.EntityID) []string {
	t := s.pool.Get(id)
	if t == nil {
		return nil
	}
	return slices.Clone(t.Labels)
}

func (s *Store) Has(id ecs.EntityID, label string) bool {
	t := s.pool.Get(id)
	if t == nil {
		return false
	}
	_, found := slices.BinarySearch(t.Labels, label)
	return found
}

// Find returns every entity carrying label, in id order.
func (s *Store) Find(label string) []ecs.EntityID {
	var out []ecs.EntityID
	s.pool.Each(func(t *Tags) {
		if _, found := slices.BinarySearch(t.Labels, label); found {
			out = append(out, t.Entity)
		}
	})
	slices.Sort(out)
	return out
}

// Remove implements ecs.Removable.
func (s *Store) Remove(id ecs.EntityID) bool { return s.pool.Remove(id) }

func (s *Store) Len() int { return s.pool.Len() }

var _ ecs.ComponentLoader = (*Store)(nil)

// LoadComponent accepts "tags" components routed by ecs.Systems.
func (s *Store) LoadComponent(id ecs.EntityID, name string, decode func(any) error) error {
	if name != ecs.ComponentName[Tags]() {
		return fmt.Errorf("tags: component %q: %w", name, ecs.ErrUnroutable)
	}
	var t Tags
	if err := decode(&t); err != nil {
		return fmt.Errorf("decode tags for %d: %w", id, err)
	}
	s.Set(id, t.Labels...)
	return nil
}
