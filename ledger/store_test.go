package ledger_test

import (
	"math"
	"testing"

	cosmoslog "cosmossdk.io/log"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisdao/polis-node/ledger"
)

const (
	token      uint32 = 1
	minBalance uint64 = 100

	admin = "AD00000000000000000000000000000000000000"
	owner = "0000000000000000000000000000000000000001"
	peer  = "0000000000000000000000000000000000000002"
)

func newStore(t *testing.T) *ledger.Store {
	ldb, err := dbm.NewDB("polis", "goleveldb", t.TempDir())
	require.NoError(t, err)
	tree := iavl.NewMutableTree(ldb, 128, true, cosmoslog.NewNopLogger())
	s := ledger.NewStore(tree, cmtlog.NewNopLogger())
	require.NoError(t, s.Create(token, admin, minBalance))
	require.NoError(t, s.MintInto(token, admin, owner, 1000))
	return s
}

func TestCreate(t *testing.T) {
	s := newStore(t)
	assert.ErrorIs(t, s.Create(token, admin, minBalance), ledger.ErrTokenInUse)
	assert.NoError(t, s.Create(token+1, admin, 0))
}

func TestMintInto(t *testing.T) {
	s := newStore(t)

	t.Run("admin only", func(t *testing.T) {
		assert.ErrorIs(t, s.MintInto(token, owner, owner, 500), ledger.ErrNotAdmin)
	})

	t.Run("unknown token", func(t *testing.T) {
		assert.ErrorIs(t, s.MintInto(token+9, admin, owner, 500), ledger.ErrTokenUnknown)
	})

	t.Run("zero value", func(t *testing.T) {
		assert.ErrorIs(t, s.MintInto(token, admin, owner, 0), ledger.ErrZeroValue)
	})

	t.Run("mint below the minimum holding", func(t *testing.T) {
		assert.ErrorIs(t, s.MintInto(token, admin, peer, minBalance-1), ledger.ErrBelowMinimum)
	})

	t.Run("supply overflow", func(t *testing.T) {
		assert.ErrorIs(t, s.MintInto(token, admin, peer, math.MaxUint64), ledger.ErrOverflow)
	})

	t.Run("credits the recipient", func(t *testing.T) {
		require.NoError(t, s.MintInto(token, admin, peer, 500))
		balance, err := s.BalanceOf(token, peer)
		require.NoError(t, err)
		assert.Equal(t, uint64(500), balance)
	})
}

func TestTransfer(t *testing.T) {
	s := newStore(t)

	t.Run("moves funds", func(t *testing.T) {
		require.NoError(t, s.Transfer(token, owner, peer, 400))
		fromBalance, err := s.BalanceOf(token, owner)
		require.NoError(t, err)
		toBalance, err := s.BalanceOf(token, peer)
		require.NoError(t, err)
		assert.Equal(t, uint64(600), fromBalance)
		assert.Equal(t, uint64(400), toBalance)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		assert.ErrorIs(t, s.Transfer(token, owner, peer, 601), ledger.ErrInsufficientBalance)
	})

	t.Run("zero value", func(t *testing.T) {
		assert.ErrorIs(t, s.Transfer(token, owner, peer, 0), ledger.ErrZeroValue)
	})

	t.Run("recipient below minimum holding", func(t *testing.T) {
		assert.ErrorIs(t, s.Transfer(token, owner, "fresh", minBalance-1), ledger.ErrBelowMinimum)
	})

	t.Run("check variant mutates nothing", func(t *testing.T) {
		require.NoError(t, s.CheckTransfer(token, owner, peer, 600))
		balance, err := s.BalanceOf(token, owner)
		require.NoError(t, err)
		assert.Equal(t, uint64(600), balance)
	})
}

func TestTransferFrom(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Approve(token, owner, peer, 300))

	t.Run("allowance is reported", func(t *testing.T) {
		allowance, err := s.Allowance(token, owner, peer)
		require.NoError(t, err)
		assert.Equal(t, uint64(300), allowance)
	})

	t.Run("spender moves owner funds within the allowance", func(t *testing.T) {
		require.NoError(t, s.TransferFrom(token, peer, owner, peer, 200))
		balance, err := s.BalanceOf(token, peer)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), balance)
		allowance, err := s.Allowance(token, owner, peer)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), allowance)
	})

	t.Run("exceeding the allowance fails", func(t *testing.T) {
		assert.ErrorIs(t, s.TransferFrom(token, peer, owner, peer, 101), ledger.ErrInsufficientAllowance)
	})

	t.Run("zero value fails before the allowance check", func(t *testing.T) {
		assert.ErrorIs(t, s.TransferFrom(token, peer, owner, peer, 0), ledger.ErrZeroValue)
	})

	t.Run("check variant consumes nothing", func(t *testing.T) {
		require.NoError(t, s.CheckTransferFrom(token, peer, owner, peer, 100))
		allowance, err := s.Allowance(token, owner, peer)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), allowance)
	})

	t.Run("no allowance at all", func(t *testing.T) {
		assert.ErrorIs(t, s.TransferFrom(token, "stranger", owner, peer, 1), ledger.ErrInsufficientAllowance)
	})
}

// Move bypasses allowances entirely; it backs treasury payouts where no
// holder signature exists.
func TestMove(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Move(token, owner, peer, 500))
	balance, err := s.BalanceOf(token, peer)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), balance)
	assert.ErrorIs(t, s.Move(token, owner, peer, 501), ledger.ErrInsufficientBalance)
}
