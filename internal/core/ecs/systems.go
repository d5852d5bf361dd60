package ecs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrUnroutable is returned by Systems.Route when no system claims a
// component name, or the claiming system cannot load components.
var ErrUnroutable = errors.New("no system handles component")

// ComponentLoader is implemented by systems that accept components decoded
// at runtime (scene files, scripts). decode fills the argument with the raw
// component data.
type ComponentLoader interface {
	LoadComponent(id EntityID, name string, decode func(any) error) error
}

// Systems owns one instance per system type and remembers which system
// handles which component name, so generic loaders can route data without a
// switch over concrete types.
type Systems struct {
	systems map[reflect.Type]any
	owners  map[string]reflect.Type // component name → system type
	errs    []error                 // close failures of replaced systems
}

func NewSystems() *Systems {
	return &Systems{
		systems: make(map[reflect.Type]any),
		owners:  make(map[string]reflect.Type),
	}
}

// CreateSystem hands sys over to r. A previously registered system of the
// same type is closed (if it has a Close method) and replaced; its close
// error is reported by Systems.Close.
func CreateSystem[T any](r *Systems, sys *T) *T {
	t := reflect.TypeFor[T]()
	if prev, ok := r.systems[t]; ok {
		if err := closeSystem(prev); err != nil {
			r.errs = append(r.errs, fmt.Errorf("replace %s: %w", t, err))
		}
	}
	r.systems[t] = sys
	return sys
}

// GetSystem returns the registered system of type T.
func GetSystem[T any](r *Systems) (*T, bool) {
	s, ok := r.systems[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return s.(*T), true
}

func closeSystem(s any) error {
	switch c := s.(type) {
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}
	return nil
}

// RegisterSystemForType records that systemType handles componentName.
// Names are case-insensitive. A later registration for the same name wins.
func (r *Systems) RegisterSystemForType(systemType reflect.Type, componentName string) {
	r.owners[strings.ToLower(componentName)] = systemType
}

// RegisterComponent records that system S handles component C, keyed by
// ComponentName[C].
func RegisterComponent[S, C any](r *Systems) {
	r.RegisterSystemForType(reflect.TypeFor[S](), ComponentName[C]())
}

// ComponentName is the runtime name of component type C: its lower-cased Go
// type name.
func ComponentName[C any]() string {
	return strings.ToLower(reflect.TypeFor[C]().Name())
}

// SystemForComponent returns the live system registered for name.
func (r *Systems) SystemForComponent(name string) (any, bool) {
	t, ok := r.owners[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	s, ok := r.systems[t]
	return s, ok
}

// Route hands a decoded-at-runtime component to the system that owns it.
func (r *Systems) Route(id EntityID, name string, decode func(any) error) error {
	s, ok := r.SystemForComponent(name)
	if !ok {
		return fmt.Errorf("component %q: %w", name, ErrUnroutable)
	}
	loader, ok := s.(ComponentLoader)
	if !ok {
		return fmt.Errorf("component %q: system %T: %w", name, s, ErrUnroutable)
	}
	return loader.LoadComponent(id, strings.ToLower(name), decode)
}

// Close closes every owned system and returns every close failure, including
// those of systems replaced earlier.
func (r *Systems) Close() error {
	errs := r.errs
	r.errs = nil
	for t, s := range r.systems {
		if err := closeSystem(s); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", t, err))
		}
		delete(r.systems, t)
	}
	return errors.Join(errs...)
}
