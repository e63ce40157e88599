package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountStore_AddAndGet(t *testing.T) {
	st := NewAccountStore()
	st.Add("alice", "Alice")
	st.Add("bob", "")

	state, ok := st.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "Alice", state.Label)

	state, ok = st.Get("bob")
	require.True(t, ok)
	assert.Equal(t, "bob", state.Label, "label defaults to the id")

	_, ok = st.Get("carol")
	assert.False(t, ok)
}

func TestAccountStore_AddIsIdempotent(t *testing.T) {
	st := NewAccountStore()
	first := st.Add("alice", "Alice")
	first.Aggregate.Merge([]CheckIn{checkin(1)})

	second := st.Add("alice", "Alice")
	assert.Same(t, first, second)
	assert.Equal(t, 1, st.Len())
}

func TestAccountStore_AllKeepsConfigOrder(t *testing.T) {
	st := NewAccountStore()
	st.Add("c", "")
	st.Add("a", "")
	st.Add("b", "")

	all := st.All()
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
	assert.Equal(t, "b", all[2].ID)
}

func TestAccountState_ZeroStateVisible(t *testing.T) {
	state := NewAccountState("alice", "Alice")

	snap := state.Aggregate.Snapshot()
	assert.Zero(t, snap.CheckinsTotal)
	assert.Zero(t, snap.DistanceMeters)
	assert.Empty(t, snap.ByLine)
	assert.True(t, state.Up())
}

func TestAccountState_MarkErrored(t *testing.T) {
	state := NewAccountState("alice", "Alice")
	state.Aggregate.Merge([]CheckIn{checkin(1)})

	state.MarkErrored("token revoked")

	assert.False(t, state.Up())
	assert.Equal(t, "token revoked", state.LastError())
	// Counters freeze at last values, they are not reset.
	assert.Equal(t, int64(1), state.Aggregate.Snapshot().CheckinsTotal)
}
