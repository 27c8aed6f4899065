package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCreateIsIdempotent(t *testing.T) {
	r := NewRegistry()

	a, created := r.Create("a")
	require.True(t, created)
	b, _ := r.Create("b")

	again, created := r.Create("a")
	assert.False(t, created)
	assert.Same(t, a, again)
	assert.Equal(t, uint64(0), again.JoinOrder)
	assert.Equal(t, uint64(1), b.JoinOrder)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryAllIsInJoinOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"z", "m", "a", "q"} {
		r.Create(id)
	}

	var ids []string
	for _, p := range r.All() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"z", "m", "a", "q"}, ids)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Create("a")

	p, ok := r.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.ID)

	_, ok = r.Get("a")
	assert.False(t, ok)
	_, ok = r.Remove("a")
	assert.False(t, ok)
}

func TestRegistryRejoinBeforeRemovalKeepsJoinOrder(t *testing.T) {
	r := NewRegistry()
	r.Create("early")
	p, _ := r.Create("x")
	p.Name = "old"

	// the same identity comes back before its removal was processed
	back, created := r.Create("x")
	back.Name = "new"

	assert.False(t, created)
	assert.Equal(t, uint64(1), back.JoinOrder)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, "new", r.All()[1].Name)
}

func TestRegistryJoinOrderIsNeverReused(t *testing.T) {
	r := NewRegistry()
	r.Create("a")
	r.Remove("a")

	p, _ := r.Create("a")
	assert.Equal(t, uint64(1), p.JoinOrder)
}
