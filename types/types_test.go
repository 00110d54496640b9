package types_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisdao/polis-node/types"
)

func TestEventVotedRoundTrip(t *testing.T) {
	ev := &types.EventVoted{Who: "CAFE", Proposal: 3, Approve: true, When: 42}
	decoded := types.DecodeEventVoted(types.EncodeEventVoted(ev))
	require.NotNil(t, decoded)
	assert.Equal(t, ev, decoded)
}

func TestEventFinalizedRoundTrip(t *testing.T) {
	ev := &types.EventFinalized{Proposal: 9, Status: types.ProposalStatusRejected}
	decoded := types.DecodeEventFinalized(types.EncodeEventFinalized(ev))
	require.NotNil(t, decoded)
	assert.Equal(t, ev, decoded)
}

// Genesis mints carry an empty sender; the decoder must preserve that
// rather than dropping the attribute.
func TestEventTransferMint(t *testing.T) {
	ev := &types.EventTransfer{From: "", To: "CAFE", Value: 1000}
	decoded := types.DecodeEventTransfer(types.EncodeEventTransfer(ev))
	require.NotNil(t, decoded)
	assert.Equal(t, "", decoded.From)
	assert.Equal(t, uint64(1000), decoded.Value)
}

func TestProposalClone(t *testing.T) {
	p := &types.Proposal{
		Id:          1,
		Description: []byte("original"),
		Status:      types.ProposalStatusSubmitted,
		Window:      &types.VotingWindow{Start: 5, End: 105},
		Tally:       types.VoteTally{Yes: 10},
		Payout:      &types.Payout{Beneficiary: "B", Amount: 7},
	}
	cp := p.Clone()
	cp.Description[0] = 'X'
	cp.Window.End = 1
	cp.Payout.Amount = 0
	cp.Tally.No = 99

	assert.Equal(t, []byte("original"), p.Description)
	assert.Equal(t, uint64(105), p.Window.End)
	assert.Equal(t, uint64(7), p.Payout.Amount)
	assert.Equal(t, uint64(0), p.Tally.No)
}

func TestSatAdd(t *testing.T) {
	assert.Equal(t, uint64(5), types.SatAdd64(2, 3))
	assert.Equal(t, uint64(math.MaxUint64), types.SatAdd64(math.MaxUint64, 1))
	assert.Equal(t, uint64(math.MaxUint64), types.SatAdd64(1, math.MaxUint64))
	assert.Equal(t, uint32(math.MaxUint32), types.SatAdd32(math.MaxUint32, math.MaxUint32))
}

func TestHexAddress(t *testing.T) {
	canonical, err := types.HexAddress("abcdef0123456789abcdef0123456789abcdef01")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF0123456789ABCDEF0123456789ABCDEF01", canonical)

	_, err = types.HexAddress("zz")
	assert.Error(t, err)
	_, err = types.HexAddress("abcd")
	assert.Error(t, err, "wrong length")
}

func TestTreasuryAddressStable(t *testing.T) {
	addr := types.TreasuryAddress()
	assert.Len(t, addr, 40)
	assert.Equal(t, addr, types.TreasuryAddress())
}

func TestGenesisDocRoundTrip(t *testing.T) {
	genesis := &types.GenesisDoc{
		ChainID: "polis-test",
		Gov: types.GovGenesis{
			Token:        types.DefaultToken,
			VotingPeriod: types.DefaultVotingPeriod,
			MinBalance:   types.DefaultMinBalance,
		},
		Allocations: []types.GenesisAllocation{
			{Address: "abcdef0123456789abcdef0123456789abcdef01", Amount: 50000},
		},
	}
	file := filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, types.ExportGenesisFile(genesis, file))

	loaded, err := types.GenesisDocFromFile(file)
	require.NoError(t, err)
	assert.Equal(t, "polis-test", loaded.ChainID)
	assert.Equal(t, int64(1), loaded.InitialHeight, "zero initial height completes to one")
	assert.Equal(t, types.DefaultVotingPeriod, loaded.Gov.VotingPeriod)
	assert.Equal(t, "ABCDEF0123456789ABCDEF0123456789ABCDEF01", loaded.Allocations[0].Address,
		"allocation addresses canonicalize")
	assert.False(t, loaded.GenesisTime.IsZero())
}

func TestGenesisDocValidate(t *testing.T) {
	doc := &types.GenesisDoc{Gov: types.GovGenesis{VotingPeriod: 1}}
	assert.Error(t, doc.ValidateAndComplete(), "missing chain id")

	doc = &types.GenesisDoc{ChainID: "c"}
	assert.Error(t, doc.ValidateAndComplete(), "zero voting period")

	doc = &types.GenesisDoc{
		ChainID:     "c",
		Gov:         types.GovGenesis{VotingPeriod: 1},
		Allocations: []types.GenesisAllocation{{Address: "nope", Amount: 1}},
	}
	assert.Error(t, doc.ValidateAndComplete(), "bad allocation address")
}
