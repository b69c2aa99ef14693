package escrow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmarket/taskmarket/internal/escrow"
	"github.com/taskmarket/taskmarket/internal/ledger"
)

func TestAccountant_FundRelease(t *testing.T) {
	l := ledger.NewInMemory(map[string]uint64{"alice": 100})
	a := escrow.New(l)

	assert.True(t, a.CanFund("alice", 100))
	assert.False(t, a.CanFund("alice", 101))

	require.NoError(t, a.Fund("alice", 40))
	assert.Equal(t, uint64(40), l.ReservedBalance("alice"))

	require.ErrorIs(t, a.Fund("alice", 61), ledger.ErrInsufficientBalance)
	assert.Equal(t, uint64(40), l.ReservedBalance("alice"))

	a.Release("alice", 40)
	assert.Equal(t, uint64(0), l.ReservedBalance("alice"))
	assert.Equal(t, uint64(100), l.FreeBalance("alice"))
}

func TestAccountant_Adjust(t *testing.T) {
	l := ledger.NewInMemory(map[string]uint64{"alice": 100})
	a := escrow.New(l)
	require.NoError(t, a.Fund("alice", 40))

	require.NoError(t, a.Adjust("alice", 40, 70))
	assert.Equal(t, uint64(70), l.ReservedBalance("alice"))

	require.NoError(t, a.Adjust("alice", 70, 10))
	assert.Equal(t, uint64(10), l.ReservedBalance("alice"))

	// No-op when the budget is unchanged.
	require.NoError(t, a.Adjust("alice", 10, 10))
	assert.Equal(t, uint64(10), l.ReservedBalance("alice"))

	// A raise beyond the free balance fails without touching the reservation.
	require.ErrorIs(t, a.Adjust("alice", 10, 200), ledger.ErrInsufficientBalance)
	assert.Equal(t, uint64(10), l.ReservedBalance("alice"))
}

func TestAccountant_Payout(t *testing.T) {
	l := ledger.NewInMemory(map[string]uint64{"alice": 100, "bob": 5})
	a := escrow.New(l)
	require.NoError(t, a.Fund("alice", 100))

	require.NoError(t, a.Payout("alice", "bob", 100))
	assert.Equal(t, uint64(0), l.FreeBalance("alice"))
	assert.Equal(t, uint64(0), l.ReservedBalance("alice"))
	assert.Equal(t, uint64(105), l.FreeBalance("bob"))
}

func TestAccountant_RevertPayout(t *testing.T) {
	l := ledger.NewInMemory(map[string]uint64{"alice": 100, "bob": 5})
	a := escrow.New(l)
	require.NoError(t, a.Fund("alice", 60))
	require.NoError(t, a.Payout("alice", "bob", 60))

	require.NoError(t, a.RevertPayout("alice", "bob", 60))
	assert.Equal(t, uint64(60), l.ReservedBalance("alice"))
	assert.Equal(t, uint64(40), l.FreeBalance("alice"))
	assert.Equal(t, uint64(5), l.FreeBalance("bob"))
}
