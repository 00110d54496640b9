package gov

import (
	"sync"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"

	"github.com/polisdao/polis-node/types"
)

// OpenTree opens (or creates) the goleveldb-backed state tree under dir.
func OpenTree(dir string, logger cmtlog.Logger) (*iavl.MutableTree, error) {
	ldb, err := dbm.NewDB("polis", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	tdb := iavl.NewMutableTree(ldb, 128, true, toCosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load state tree", "version", version)
	return tdb, nil
}

// StateDB owns the committed state. The block path swaps in new versions
// through SetState; queries read the committed version under the lock.
type StateDB struct {
	mtx sync.RWMutex

	logger cmtlog.Logger
	db     *iavl.MutableTree
	ledger TokenLedger

	state *State
}

func NewStateDB(tree *iavl.MutableTree, ledger TokenLedger, mover TreasuryMover, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "govdb")
	st := newState(tree, ledger, mover, logger)
	err = st.load()
	if err != nil {
		logger.Error("load state failed", "err", err)
		return nil, err
	}
	db = &StateDB{
		logger: logger,
		db:     tree,
		ledger: ledger,
		state:  st,
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *Header) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

func (db *StateDB) GetMember(addr string) (member types.Member, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	member, err = db.state.GetMember(addr)
	if err != nil {
		return
	}
	height = db.state.header.Height
	return
}

func (db *StateDB) GetProposal(id uint32) (proposal *types.Proposal, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	proposal, err = db.state.GetProposal(id)
	if err != nil {
		return
	}
	if proposal != nil {
		proposal = proposal.Clone()
	}
	height = db.state.header.Height
	return
}

func (db *StateDB) ProposalCount() (count uint32, height uint64) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state.proposalCount, db.state.header.Height
}

func (db *StateDB) TreasuryBalance() (balance uint64, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	balance, err = db.ledger.BalanceOf(db.state.header.Token, types.TreasuryAddress())
	if err != nil {
		return
	}
	height = db.state.header.Height
	return
}
