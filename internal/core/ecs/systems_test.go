package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Marker struct {
	Label string
}

type markerSystem struct {
	loaded map[EntityID]Marker
	closed bool
}

func (s *markerSystem) LoadComponent(id EntityID, _ string, decode func(any) error) error {
	var m Marker
	if err := decode(&m); err != nil {
		return err
	}
	s.loaded[id] = m
	return nil
}

func (s *markerSystem) Close() { s.closed = true }

type plainSystem struct{}

var errStuck = errors.New("stuck")

type failingSystem struct{}

func (failingSystem) Close() error { return errStuck }

func TestCreateSystemReplacesAndCloses(t *testing.T) {
	r := NewSystems()
	first := CreateSystem(r, &markerSystem{loaded: map[EntityID]Marker{}})
	second := CreateSystem(r, &markerSystem{loaded: map[EntityID]Marker{}})

	assert.True(t, first.closed)
	assert.False(t, second.closed)

	got, ok := GetSystem[markerSystem](r)
	require.True(t, ok)
	assert.Same(t, second, got)

	_, ok = GetSystem[plainSystem](r)
	assert.False(t, ok)
}

func TestRouteDispatchesByComponentName(t *testing.T) {
	r := NewSystems()
	sys := CreateSystem(r, &markerSystem{loaded: map[EntityID]Marker{}})
	RegisterComponent[markerSystem, Marker](r)
	assert.Equal(t, "marker", ComponentName[Marker]())

	err := r.Route(9, "Marker", func(v any) error {
		v.(*Marker).Label = "hello"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", sys.loaded[9].Label)
}

func TestRouteUnknownOrNonLoader(t *testing.T) {
	r := NewSystems()
	err := r.Route(1, "nothing", func(any) error { return nil })
	assert.True(t, errors.Is(err, ErrUnroutable))

	CreateSystem(r, &plainSystem{})
	RegisterComponent[plainSystem, Marker](r)
	err = r.Route(1, "marker", func(any) error { return nil })
	assert.True(t, errors.Is(err, ErrUnroutable))
}

func TestCloseReportsFailures(t *testing.T) {
	r := NewSystems()
	CreateSystem(r, &failingSystem{})
	CreateSystem(r, &failingSystem{}) // replaced one fails to close
	marker := CreateSystem(r, &markerSystem{loaded: map[EntityID]Marker{}})

	err := r.Close()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errStuck))
	assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 2)
	assert.True(t, marker.closed)

	_, ok := GetSystem[failingSystem](r)
	assert.False(t, ok)
	assert.NoError(t, r.Close())
}
