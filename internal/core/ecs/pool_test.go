package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    EntityID
	Value int
}

func payloadKey(p *payload) EntityID { return p.ID }

func TestPoolSwapRemoveKeepsRemainingValues(t *testing.T) {
	pool := NewPool(payloadKey, 16)
	for id := EntityID(1); id <= 128; id++ {
		require.NotNil(t, pool.Emplace(payload{ID: id, Value: 10 * int(id)}))
	}
	for id := EntityID(44); id <= 100; id++ {
		require.True(t, pool.Remove(id))
	}

	expected := 0
	for id := 1; id <= 128; id++ {
		if id < 44 || id > 100 {
			expected += 10 * id
		}
	}

	sum := 0
	pool.Each(func(p *payload) { sum += p.Value })
	assert.Equal(t, expected, sum)
	assert.Equal(t, 128-(100-44+1), pool.Len())

	for id := EntityID(1); id <= 128; id++ {
		got := pool.Get(id)
		if id >= 44 && id <= 100 {
			assert.Nil(t, got, "id %d should be gone", id)
			continue
		}
		require.NotNil(t, got, "id %d should remain", id)
		assert.Equal(t, 10*int(id), got.Value)
	}
}

func TestPoolDuplicateEmplaceKeepsFirst(t *testing.T) {
	pool := NewPool(payloadKey, 0)
	first := pool.Emplace(payload{ID: 7, Value: 1})
	require.NotNil(t, first)

	assert.Nil(t, pool.Emplace(payload{ID: 7, Value: 2}))
	assert.Equal(t, 1, pool.Len())
	assert.Equal(t, 1, pool.Get(7).Value)
}

func TestPoolReleasesEmptyPages(t *testing.T) {
	pool := NewPool(payloadKey, 4)
	for id := EntityID(1); id <= 9; id++ {
		pool.Emplace(payload{ID: id})
	}
	assert.Equal(t, 3, pool.Pages())

	pool.Remove(3)
	assert.Equal(t, 2, pool.Pages())
	assert.Equal(t, 8, pool.Len())

	// id 9 was the tail and now sits in the hole left by 3.
	assert.True(t, pool.Has(9))
	assert.Equal(t, EntityID(9), pool.Get(9).ID)
}

func TestPoolRemoveMissingAndTail(t *testing.T) {
	pool := NewPool(payloadKey, 2)
	assert.False(t, pool.Remove(1))

	pool.Emplace(payload{ID: 1})
	pool.Emplace(payload{ID: 2})
	assert.True(t, pool.Remove(2))
	assert.False(t, pool.Has(2))
	assert.True(t, pool.Has(1))
	assert.True(t, pool.Remove(1))
	assert.Equal(t, 0, pool.Len())
	assert.Equal(t, 0, pool.Pages())
}

func TestPoolClear(t *testing.T) {
	pool := NewPool(payloadKey, 2)
	for id := EntityID(1); id <= 5; id++ {
		pool.Emplace(payload{ID: id})
	}
	pool.Clear()
	assert.Equal(t, 0, pool.Len())
	assert.Nil(t, pool.Get(1))
	assert.NotNil(t, pool.Emplace(payload{ID: 1}))
}

func TestRegistryRemoveAll(t *testing.T) {
	a := NewPool(payloadKey, 4)
	b := NewPool(payloadKey, 4)
	a.Emplace(payload{ID: 3})
	b.Emplace(payload{ID: 3})
	b.Emplace(payload{ID: 4})

	reg := NewRegistry()
	reg.Register(a)
	reg.Register(b)

	assert.Equal(t, 2, reg.RemoveAll(3))
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 0, reg.RemoveAll(3))
}
