package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisdao/polis-node/events"
	"github.com/polisdao/polis-node/types"
)

const (
	alice = "1111111111111111111111111111111111111111"
	bob   = "2222222222222222222222222222222222222222"
	carol = "3333333333333333333333333333333333333333"
)

// fakeChain serves canned state in place of a live node. The indexer only
// consumes it when an event names a member or proposal.
type fakeChain struct {
	height    uint64
	members   map[string]types.Member
	proposals map[uint32]*types.Proposal
}

func (f *fakeChain) GetMember(addr string) (types.Member, uint64, error) {
	return f.members[addr], f.height, nil
}

func (f *fakeChain) GetProposal(id uint32) (*types.Proposal, uint64, error) {
	p, ok := f.proposals[id]
	if !ok {
		return nil, f.height, fmt.Errorf("proposal %v not found", id)
	}
	return p, f.height, nil
}

type fixture struct {
	t       *testing.T
	logPath string
	dbPath  string
	log     *events.Log
	chain   *fakeChain
	ix      *ChainIndexer
}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	f := &fixture{
		t:       t,
		logPath: filepath.Join(dir, "events.jsonl"),
		dbPath:  filepath.Join(dir, "indexer.db"),
		chain: &fakeChain{
			members:   make(map[string]types.Member),
			proposals: make(map[uint32]*types.Proposal),
		},
	}
	log, err := events.OpenLog(f.logPath)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	f.log = log

	ix, err := NewChainIndexer(cmtlog.NewNopLogger(), f.dbPath, events.NewReader(f.logPath), f.chain)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	f.ix = ix
	return f
}

func (f *fixture) append(height uint64, evs ...abci.Event) {
	f.t.Helper()
	require.NoError(f.t, f.log.Append(events.BlockEvents{
		Height: height,
		Time:   time.Now().UTC(),
		Events: evs,
	}))
}

func (f *fixture) sync() {
	f.t.Helper()
	require.NoError(f.t, f.ix.SyncOnce(context.Background()))
}

// reopen simulates a process restart against the same database file.
func (f *fixture) reopen() {
	f.t.Helper()
	require.NoError(f.t, f.ix.Close())
	ix, err := NewChainIndexer(cmtlog.NewNopLogger(), f.dbPath, events.NewReader(f.logPath), f.chain)
	require.NoError(f.t, err)
	f.t.Cleanup(func() { ix.Close() })
	f.ix = ix
}

func TestSyncLifecycle(t *testing.T) {
	f := newFixture(t)
	treasury := types.TreasuryAddress()

	f.chain.height = 3
	f.chain.members[alice] = types.Member{VotingPower: 20000}
	f.chain.proposals[0] = &types.Proposal{
		Id:          0,
		Description: []byte("fund the relay"),
		Status:      types.ProposalStatusSubmitted,
		Window:      &types.VotingWindow{Start: 3, End: 103},
		Payout:      &types.Payout{Beneficiary: carol, Amount: 30000},
	}

	f.append(0,
		types.EncodeEventCreated(&types.EventCreated{Id: 1, Creator: alice, Admin: treasury, Kind: types.CreatedKindToken}),
		types.EncodeEventTransfer(&types.EventTransfer{From: "", To: alice, Value: 1000000}),
	)
	f.append(3,
		types.EncodeEventTransfer(&types.EventTransfer{From: alice, To: treasury, Value: 20000}),
		types.EncodeEventCreated(&types.EventCreated{Id: 0, Creator: alice, Kind: types.CreatedKindProposal}),
	)
	f.sync()

	row, err := f.ix.getProposalById(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), row.ProposalId)
	assert.Equal(t, alice, row.Creator)
	assert.Equal(t, carol, row.Beneficiary)
	assert.Equal(t, uint64(30000), row.Amount)
	assert.Equal(t, "fund the relay", row.Description)
	assert.Equal(t, uint64(types.ProposalStatusSubmitted), row.Status)
	assert.Equal(t, uint64(3), row.StartHeight)
	assert.Equal(t, uint64(103), row.EndHeight)
	assert.Equal(t, uint64(3), row.CreatedHeight)

	member, err := f.ix.getMember(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(20000), member.VotingPower)
	assert.Equal(t, uint64(3), member.JoinedHeight)

	transfers, total, err := f.ix.getTransfers(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, transfers, 2)
	// Newest first: the join, then the genesis mint.
	assert.Equal(t, treasury, transfers[0].Recipient)
	assert.Equal(t, "", transfers[1].Sender)

	// Ballot lands. Chain state moves before the event is read back, the
	// same order the node commits in.
	f.chain.height = 5
	f.chain.members[alice] = types.Member{VotingPower: 20000, LastVote: 5}
	f.chain.proposals[0].Tally.Yes = 20000
	f.append(5, types.EncodeEventVoted(&types.EventVoted{Who: alice, Proposal: 0, Approve: true, When: 5}))
	f.sync()

	votes, total, err := f.ix.getVotesByProposal(0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, votes, 1)
	assert.Equal(t, alice, votes[0].Voter)
	assert.True(t, votes[0].Approve)
	assert.Equal(t, uint64(5), votes[0].Height)

	row, err = f.ix.getProposalById(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(20000), row.YesPower)

	member, err = f.ix.getMember(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), member.LastVote)
	assert.Equal(t, uint64(3), member.JoinedHeight)
	_, total, err = f.ix.getMembers(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)

	// Settlement, then the payout two blocks later.
	f.chain.height = 106
	f.chain.proposals[0].Status = types.ProposalStatusExecuted
	f.append(104, types.EncodeEventFinalized(&types.EventFinalized{Proposal: 0, Status: types.ProposalStatusApproved}))
	f.append(106,
		types.EncodeEventExecuted(&types.EventExecuted{Proposal: 0, Beneficiary: carol, Value: 30000}),
		types.EncodeEventTransfer(&types.EventTransfer{From: treasury, To: carol, Value: 30000}),
	)
	f.sync()

	row, err = f.ix.getProposalById(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(types.ProposalStatusExecuted), row.Status)
	assert.Equal(t, uint64(104), row.SettledHeight)
	assert.Equal(t, uint64(106), row.ExecutedHeight)

	transfers, total, err = f.ix.getTransfersByAddress(carol, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, transfers, 1)
	assert.Equal(t, uint64(30000), transfers[0].Value)
}

func TestResumeFromSavedHeight(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, uint64(0), f.ix.height)

	f.append(0, types.EncodeEventTransfer(&types.EventTransfer{From: "", To: alice, Value: 500000}))
	f.append(1, types.EncodeEventTransfer(&types.EventTransfer{From: alice, To: bob, Value: 100}))
	f.sync()
	assert.Equal(t, uint64(2), f.ix.height)

	// A restart picks up after the last saved block instead of replaying.
	f.reopen()
	assert.Equal(t, uint64(2), f.ix.height)

	f.append(2, types.EncodeEventTransfer(&types.EventTransfer{From: bob, To: alice, Value: 50}))
	f.sync()

	_, total, err := f.ix.getTransfers(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
}

func TestProposalPagination(t *testing.T) {
	f := newFixture(t)

	creators := []string{alice, bob, alice, bob, alice}
	for i, creator := range creators {
		id := uint32(i)
		f.chain.proposals[id] = &types.Proposal{
			Id:          id,
			Description: []byte(fmt.Sprintf("proposal %v", id)),
			Status:      types.ProposalStatusSubmitted,
			Window:      &types.VotingWindow{Start: uint64(i + 1), End: uint64(i + 101)},
			Payout:      &types.Payout{Beneficiary: carol, Amount: 1000},
		}
		f.append(uint64(i+1), types.EncodeEventCreated(&types.EventCreated{Id: id, Creator: creator, Kind: types.CreatedKindProposal}))
	}
	f.sync()

	page, total, err := f.ix.getProposals(0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, uint32(4), page[0].ProposalId)
	assert.Equal(t, uint32(3), page[1].ProposalId)

	page, total, err = f.ix.getProposals(2, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), total)
	require.Len(t, page, 1)
	assert.Equal(t, uint32(0), page[0].ProposalId)

	byCreator, total, err := f.ix.getProposalsByCreator(bob, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	require.Len(t, byCreator, 2)
	assert.Equal(t, uint32(3), byCreator[0].ProposalId)

	byStatus, total, err := f.ix.getProposalsByStatus(uint64(types.ProposalStatusSubmitted), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), total)
	require.Len(t, byStatus, 5)
}

func TestIgnoresUnhandledEvents(t *testing.T) {
	f := newFixture(t)

	f.append(0,
		types.EncodeEventCreated(&types.EventCreated{Id: 1, Creator: alice, Kind: types.CreatedKindToken}),
		types.EncodeEventApproval(&types.EventApproval{Owner: alice, Spender: types.TreasuryAddress(), Value: 500}),
	)
	f.sync()

	_, total, err := f.ix.getProposals(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), total)
	_, total, err = f.ix.getTransfers(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), total)
	assert.Equal(t, uint64(1), f.ix.height)
}
