package node

import (
	"context"
	"errors"
	"sync"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/polisdao/polis-node/config"
	"github.com/polisdao/polis-node/events"
	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/ledger"
	"github.com/polisdao/polis-node/tx"
	"github.com/polisdao/polis-node/tx/handler"
	"github.com/polisdao/polis-node/types"
)

var (
	ErrMempoolFull         = errors.New("mempool full")
	ErrChainNotInitialized = errors.New("chain not initialized")
	ErrUnexpectedTxDeliver = errors.New("unexpected tx deliver")
)

// Node is the single-process block producer. Transactions are admitted into
// a bounded mempool through SubmitTx and folded into a block every
// block_interval; empty blocks still advance the height so voting windows
// close by themselves.
//
// chainMtx serializes every state-tree access: admission checks, block
// production and queries. The tree and the state read caches are not safe
// for concurrent use.
type Node struct {
	cfg    *config.Config
	logger cmtlog.Logger

	chainMtx sync.Mutex
	db       *gov.StateDB
	tokens   *ledger.Store
	txHdlrs  map[tx.GovTxType]handler.TxHandler
	evlog    *events.Log

	mpMtx   sync.Mutex
	mempool [][]byte

	started bool
	quit    chan struct{}
	done    chan struct{}
}

func NewNode(cfg *config.Config, logger cmtlog.Logger) (n *Node, err error) {
	logger = logger.With("module", "node")
	tree, err := gov.OpenTree(cfg.DataDir(), logger)
	if err != nil {
		logger.Error("open state tree fail", "err", err)
		return
	}
	tokens := ledger.NewStore(tree, logger)
	db, err := gov.NewStateDB(tree, tokens, tokens, logger)
	if err != nil {
		return
	}
	evlog, err := events.OpenLog(cfg.EventLogFile())
	if err != nil {
		return
	}
	n = &Node{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		tokens:  tokens,
		evlog:   evlog,
		mempool: make([][]byte, 0),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	n.registerTxHandler()
	return
}

func (n *Node) registerTxHandler() {
	n.txHdlrs = map[tx.GovTxType]handler.TxHandler{
		tx.GovTxTypeJoin:     handler.NewJoinTxHandler(n.logger),
		tx.GovTxTypeProposal: handler.NewProposalTxHandler(n.logger),
		tx.GovTxTypeVote:     handler.NewVoteTxHandler(n.logger),
		tx.GovTxTypeExecute:  handler.NewExecuteTxHandler(n.logger),
		tx.GovTxTypeApprove:  handler.NewApproveTxHandler(n.tokens, n.logger),
		tx.GovTxTypeTransfer: handler.NewTransferTxHandler(n.tokens, n.logger),
	}
}

// Initialized reports whether the chain already has a committed genesis.
func (n *Node) Initialized() bool {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	return n.db.Header().Hash != nil
}

// InitChain realizes the genesis document: it creates the treasury token
// with the treasury account as admin, mints the allocations and commits the
// genesis state. Calling it on an initialized chain is a no-op.
func (n *Node) InitChain(genesis *types.GenesisDoc) (err error) {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	if n.db.Header().Hash != nil {
		n.logger.Info("InitChain skipped, state present", "height", n.db.Header().Height)
		return nil
	}
	n.logger.Info("InitChain", "chainId", genesis.ChainID, "token", genesis.Gov.Token,
		"votingPeriod", genesis.Gov.VotingPeriod, "allocations", len(genesis.Allocations))
	st := n.db.NewState()
	st.SetChainId(genesis.ChainID)
	st.SetGovConfig(genesis.Gov)
	st.SetInitialHeight(uint64(genesis.InitialHeight))

	treasury := types.TreasuryAddress()
	evs := make([]abcitypes.Event, 0, len(genesis.Allocations)+1)
	if err = n.tokens.Create(genesis.Gov.Token, treasury, genesis.Gov.MinBalance); err != nil {
		n.logger.Error("InitChain create token fail", "err", err)
		return
	}
	evs = append(evs, types.EncodeEventCreated(&types.EventCreated{
		Id:      genesis.Gov.Token,
		Creator: treasury,
		Admin:   treasury,
		Kind:    types.CreatedKindToken,
	}))
	for _, alloc := range genesis.Allocations {
		if err = n.tokens.MintInto(genesis.Gov.Token, treasury, alloc.Address, alloc.Amount); err != nil {
			n.logger.Error("InitChain mint allocation fail", "address", alloc.Address, "err", err)
			return
		}
		evs = append(evs, types.EncodeEventTransfer(&types.EventTransfer{
			From:  "",
			To:    alloc.Address,
			Value: alloc.Amount,
		}))
	}

	if _, err = st.Update(); err != nil {
		n.logger.Error("InitChain update state fail", "err", err)
		return
	}
	hash, err := n.db.SetState(st)
	if err != nil {
		n.logger.Error("InitChain apply state fail", "err", err)
		return
	}
	if err = n.evlog.Append(events.BlockEvents{
		Height: n.db.Header().Height,
		Time:   genesis.GenesisTime,
		Events: evs,
	}); err != nil {
		return
	}
	n.logger.Info("InitChain done", "hash", hash.Hex())
	return
}

// SubmitTx validates a raw transaction against the committed state and
// queues it for the next block. The returned hash identifies the
// transaction whether or not it was admitted; rejections land in the
// response code.
func (n *Node) SubmitTx(ctx context.Context, raw []byte) (res *abcitypes.ResponseCheckTx, hash common.Hash, err error) {
	hash = ethcrypto.Keccak256Hash(raw)
	res, err = n.checkTx(ctx, raw)
	if err != nil || res.Code != 0 {
		return
	}
	if err1 := n.enqueueTx(raw); err1 != nil {
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (n *Node) checkTx(ctx context.Context, raw []byte) (res *abcitypes.ResponseCheckTx, err error) {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	res = &abcitypes.ResponseCheckTx{Code: 0}
	if n.db.Header().Hash == nil {
		err = ErrChainNotInitialized
		return
	}
	btx, err := tx.UnmarshalGovTx(raw)
	if err != nil {
		n.logger.Info("check tx parse fail", "err", err)
		res.Code = 1
		res.Log = err.Error()
		err = nil
		return
	}
	st := n.db.State()
	if _, err1 := st.Verify(btx, true); err1 != nil {
		n.logger.Info("check tx verify fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
		return
	}
	h, ok := n.txHdlrs[btx.Type]
	if !ok {
		n.logger.Info("check tx unsupported", "type", btx.Type)
		res.Code = 1
		res.Log = tx.ErrUnsupportedTxType.Error()
		return
	}
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		n.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}
		err = nil
	}
	return
}

func (n *Node) enqueueTx(raw []byte) error {
	n.mpMtx.Lock()
	defer n.mpMtx.Unlock()
	if len(n.mempool) >= n.cfg.Node.MempoolSize {
		return ErrMempoolFull
	}
	n.mempool = append(n.mempool, raw)
	return nil
}

func (n *Node) drainTxs() [][]byte {
	n.mpMtx.Lock()
	defer n.mpMtx.Unlock()
	txs := n.mempool
	n.mempool = make([][]byte, 0)
	return txs
}

func (n *Node) MempoolLen() int {
	n.mpMtx.Lock()
	defer n.mpMtx.Unlock()
	return len(n.mempool)
}

// deliverTx applies one transaction to a clone of the working state. The
// clone is adopted only when delivery itself succeeded; a failed operation
// (res.Code != 0) still adopts, keeping whatever transitions the operation
// legitimately recorded before failing.
func (n *Node) deliverTx(ctx context.Context, st *gov.State, raw []byte) (res *abcitypes.ExecTxResult, next *gov.State) {
	btx, err := tx.UnmarshalGovTx(raw)
	if err != nil {
		n.logger.Error("deliver tx parse fail", "err", err)
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}, nil
	}
	stTmp := st.Clone()
	if _, err = stTmp.Verify(btx, false); err != nil {
		n.logger.Info("deliver tx verify fail", "err", err)
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}, nil
	}
	h, ok := n.txHdlrs[btx.Type]
	if !ok {
		n.logger.Error("deliver tx no handler", "type", btx.Type)
		return &abcitypes.ExecTxResult{Code: 1, Log: tx.ErrUnsupportedTxType.Error()}, nil
	}
	res, err = h.Deliver(ctx, stTmp, btx)
	if err != nil || res == nil {
		n.logger.Error("deliver tx fail", "type", btx.Type, "err", err)
		return &abcitypes.ExecTxResult{Code: 1, Log: ErrUnexpectedTxDeliver.Error()}, nil
	}
	if err = stTmp.BumpNonce(btx.Caller()); err != nil {
		n.logger.Error("deliver tx bump nonce fail", "err", err)
		return &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}, nil
	}
	return res, stTmp
}

// ProduceBlock drains the mempool into the next block and commits it.
func (n *Node) ProduceBlock(ctx context.Context) (err error) {
	txs := n.drainTxs()
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	st := n.db.NewState()
	height := st.Header().Height
	evs := make([]abcitypes.Event, 0)
	applied := 0
	for _, raw := range txs {
		res, next := n.deliverTx(ctx, st, raw)
		if next == nil {
			continue
		}
		st = next
		applied++
		if len(res.Events) > 0 {
			evs = append(evs, res.Events...)
		}
	}
	if _, err = st.Update(); err != nil {
		n.logger.Error("block update state fail", "height", height, "err", err)
		return
	}
	hash, err := n.db.SetState(st)
	if err != nil {
		n.logger.Error("block apply state fail", "height", height, "err", err)
		return
	}
	if len(evs) > 0 {
		if err = n.evlog.Append(events.BlockEvents{
			Height: height,
			Time:   time.Now().UTC(),
			Events: evs,
		}); err != nil {
			n.logger.Error("block append events fail", "height", height, "err", err)
			return
		}
	}
	if applied > 0 || height%100 == 0 {
		n.logger.Info("block produced", "height", height, "txs", applied, "hash", hash.Hex())
	}
	return
}

// Start runs the block production loop until Stop is called.
func (n *Node) Start() error {
	if !n.Initialized() {
		return ErrChainNotInitialized
	}
	n.mpMtx.Lock()
	if n.started {
		n.mpMtx.Unlock()
		return nil
	}
	n.started = true
	n.mpMtx.Unlock()
	go n.produceLoop()
	n.logger.Info("node started", "interval", n.cfg.Node.BlockInterval, "height", n.Head().Height)
	return nil
}

func (n *Node) produceLoop() {
	defer close(n.done)
	ticker := time.NewTicker(n.cfg.Node.BlockInterval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-n.quit:
			return
		case <-ticker.C:
			if err := n.ProduceBlock(ctx); err != nil {
				n.logger.Error("produce block fail", "err", err)
			}
		}
	}
}

func (n *Node) Stop() (err error) {
	n.mpMtx.Lock()
	started := n.started
	n.started = false
	n.mpMtx.Unlock()
	if started {
		close(n.quit)
		<-n.done
	}
	if err1 := n.evlog.Close(); err1 != nil {
		n.logger.Error("close event log fail", "err", err1)
		err = err1
	}
	if err1 := n.db.Close(); err1 != nil {
		n.logger.Error("close db fail", "err", err1)
		err = err1
	}
	n.logger.Info("node stopped")
	return
}
