package gov

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/polisdao/polis-node/tx"
	"github.com/polisdao/polis-node/types"
)

var (
	KeyState         = "s"
	KeyMemberBody    = "m%s"
	KeyNonce         = "n%s"
	KeyProposalBody  = "p%v"
	KeyProposalCount = "pc"
)

// TokenLedger is the treasury-token surface the engine consumes. Failures
// propagate to callers unchanged.
type TokenLedger interface {
	BalanceOf(token uint32, owner string) (uint64, error)
	TransferFrom(token uint32, spender, from, to string, value uint64) error
	CheckTransferFrom(token uint32, spender, from, to string, value uint64) error
}

// TreasuryMover moves treasury funds without holder authorization. Only the
// execution path holds one.
type TreasuryMover interface {
	Move(token uint32, from, to string, value uint64) error
}

// Header is the persisted chain head plus the immutable engine
// configuration set at init.
type Header struct {
	ChainId      string `json:"chain_id"`
	Height       uint64 `json:"height"`
	Token        uint32 `json:"token"`
	VotingPeriod uint64 `json:"voting_period"`
	MinBalance   uint64 `json:"min_balance"`
	RootHash     []byte `json:"root_hash"`
	Hash         []byte `json:"hash"`
}

func (h *Header) Clone() *Header {
	n := &Header{
		ChainId:      h.ChainId,
		Height:       h.Height,
		Token:        h.Token,
		VotingPeriod: h.VotingPeriod,
		MinBalance:   h.MinBalance,
	}
	if h.RootHash != nil {
		n.RootHash = make([]byte, len(h.RootHash))
		copy(n.RootHash, h.RootHash)
	}
	if h.Hash != nil {
		n.Hash = make([]byte, len(h.Hash))
		copy(n.Hash, h.Hash)
	}
	return n
}

// State is one working version of the governance state. Reads load through
// into caches; writes stay in the caches until Update flushes them to the
// tree. The ledger writes through to the tree directly, so operations keep
// their ledger call as the final fallible step.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header *Header
	ledger TokenLedger
	mover  TreasuryMover

	members   map[string]*types.Member
	proposals map[uint32]*types.Proposal
	nonces    map[string]uint64

	modifiedMembers   map[string]bool
	modifiedProposals map[uint32]bool
	modifiedNonces    map[string]bool

	proposalCount uint32
	countModified bool
}

func newState(db *iavl.MutableTree, ledger TokenLedger, mover TreasuryMover, logger cmtlog.Logger) *State {
	return &State{
		logger:            logger,
		db:                db,
		dbVer:             0,
		header:            new(Header),
		ledger:            ledger,
		mover:             mover,
		members:           make(map[string]*types.Member),
		proposals:         make(map[uint32]*types.Proposal),
		nonces:            make(map[string]uint64),
		modifiedMembers:   make(map[string]bool),
		modifiedProposals: make(map[uint32]bool),
		modifiedNonces:    make(map[string]bool),
	}
}

func (s *State) nextState() *State {
	n := &State{
		logger:            s.logger,
		db:                s.db,
		dbVer:             s.dbVer,
		header:            s.header.Clone(),
		ledger:            s.ledger,
		mover:             s.mover,
		members:           make(map[string]*types.Member),
		proposals:         make(map[uint32]*types.Proposal),
		nonces:            make(map[string]uint64),
		modifiedMembers:   make(map[string]bool),
		modifiedProposals: make(map[uint32]bool),
		modifiedNonces:    make(map[string]bool),
		proposalCount:     s.proposalCount,
	}
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

// Clone copies the working state at the same height so a transaction can be
// applied tentatively and discarded on failure.
func (s *State) Clone() *State {
	n := &State{
		logger:            s.logger,
		db:                s.db,
		dbVer:             s.dbVer,
		header:            s.header.Clone(),
		ledger:            s.ledger,
		mover:             s.mover,
		members:           make(map[string]*types.Member, len(s.members)),
		proposals:         make(map[uint32]*types.Proposal, len(s.proposals)),
		nonces:            make(map[string]uint64, len(s.nonces)),
		modifiedMembers:   make(map[string]bool, len(s.modifiedMembers)),
		modifiedProposals: make(map[uint32]bool, len(s.modifiedProposals)),
		modifiedNonces:    make(map[string]bool, len(s.modifiedNonces)),
		proposalCount:     s.proposalCount,
		countModified:     s.countModified,
	}
	for addr, m := range s.members {
		cp := *m
		n.members[addr] = &cp
	}
	for id, p := range s.proposals {
		n.proposals[id] = p.Clone()
	}
	for addr, nonce := range s.nonces {
		n.nonces[addr] = nonce
	}
	for addr, mod := range s.modifiedMembers {
		n.modifiedMembers[addr] = mod
	}
	for id, mod := range s.modifiedProposals {
		n.modifiedProposals[id] = mod
	}
	for addr, mod := range s.modifiedNonces {
		n.modifiedNonces[addr] = mod
	}
	return n
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyProposalCount))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.proposalCount = uint32(new(big.Int).SetBytes(val).Uint64())
	val, err = s.db.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val != nil {
		err = json.Unmarshal(val, s.header)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		if s.header.RootHash == nil {
			s.header.RootHash = make([]byte, len(rootHash))
		}
		copy(s.header.RootHash, rootHash)
		if s.header.Hash == nil {
			s.header.Hash = make([]byte, len(h))
		}
		copy(s.header.Hash, h[:])
	}
	return
}

// Update flushes the dirty caches into the tree and returns the working
// state hash. The tree rolls back wholesale if any flush fails.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = json.Marshal(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	if s.countModified {
		_, err = s.db.Set([]byte(KeyProposalCount), big.NewInt(int64(s.proposalCount)).Bytes())
		if err != nil {
			return
		}
	}

	if len(s.modifiedProposals) > 0 {
		ids := make([]uint32, 0, len(s.modifiedProposals))
		for id := range s.modifiedProposals {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			key := fmt.Sprintf(KeyProposalBody, id)
			val, err = json.Marshal(s.proposals[id])
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
		}
	}

	if len(s.modifiedMembers) > 0 {
		addrs := make([]string, 0, len(s.modifiedMembers))
		for addr := range s.modifiedMembers {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			key := fmt.Sprintf(KeyMemberBody, addr)
			val, err = json.Marshal(s.members[addr])
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
		}
	}

	if len(s.modifiedNonces) > 0 {
		addrs := make([]string, 0, len(s.modifiedNonces))
		for addr := range s.modifiedNonces {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			key := fmt.Sprintf(KeyNonce, addr)
			val = big.NewInt(int64(s.nonces[addr])).Bytes()
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
		}
	}

	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedMembers = make(map[string]bool)
	s.modifiedProposals = make(map[uint32]bool)
	s.modifiedNonces = make(map[string]bool)
	s.countModified = false
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) Header() *Header {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// SetGovConfig writes the immutable engine configuration. Only genesis
// initialization calls this.
func (s *State) SetGovConfig(gen types.GovGenesis) {
	s.header.Token = gen.Token
	s.header.VotingPeriod = gen.VotingPeriod
	s.header.MinBalance = gen.MinBalance
}

// SetInitialHeight positions the genesis state so the first produced block
// lands at initialHeight. Only genesis initialization calls this.
func (s *State) SetInitialHeight(initialHeight uint64) {
	if initialHeight > 0 {
		s.header.Height = initialHeight - 1
	}
}

func (s *State) ProposalCount() uint32 {
	return s.proposalCount
}

func (s *State) getMember(addr string) (*types.Member, bool, error) {
	if m, ok := s.members[addr]; ok {
		return m, true, nil
	}
	key := fmt.Sprintf(KeyMemberBody, addr)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return nil, false, err
		}
	}
	if len(val) == 0 {
		return nil, false, nil
	}
	m := new(types.Member)
	if err := json.Unmarshal(val, m); err != nil {
		return nil, false, err
	}
	s.members[addr] = m
	return m, true, nil
}

// GetMember returns the membership record for addr, zero-valued when addr
// never joined.
func (s *State) GetMember(addr string) (types.Member, error) {
	m, found, err := s.getMember(addr)
	if err != nil || !found {
		return types.Member{}, err
	}
	return *m, nil
}

func (s *State) GetProposal(id uint32) (proposal *types.Proposal, err error) {
	if id >= s.proposalCount {
		return nil, ErrProposalNotFound
	}
	if p, ok := s.proposals[id]; ok {
		return p, nil
	}
	key := fmt.Sprintf(KeyProposalBody, id)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return nil, err
		}
	}
	if len(val) == 0 {
		return nil, ErrProposalNotFound
	}
	proposal = new(types.Proposal)
	if err = json.Unmarshal(val, proposal); err != nil {
		return nil, err
	}
	s.proposals[id] = proposal
	return proposal, nil
}

func (s *State) Nonce(addr string) (uint64, error) {
	if nonce, ok := s.nonces[addr]; ok {
		return nonce, nil
	}
	key := fmt.Sprintf(KeyNonce, addr)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return 0, err
		}
	}
	nonce := new(big.Int).SetBytes(val).Uint64()
	s.nonces[addr] = nonce
	return nonce, nil
}

// BumpNonce advances the caller's nonce after an accepted delivery.
func (s *State) BumpNonce(addr string) error {
	nonce, err := s.Nonce(addr)
	if err != nil {
		return err
	}
	s.nonces[addr] = nonce + 1
	s.modifiedNonces[addr] = true
	return nil
}

// Verify checks the envelope version, key, nonce and signature against this
// state. Mempool admission allows nonce gaps; delivery does not.
func (s *State) Verify(btx *tx.GovTx, allowNonceGap bool) (succ bool, err error) {
	if btx.Version != tx.GovTxVersion1 {
		return false, tx.ErrUnsupportedTxVersion
	}
	if len(btx.PubKey) != ed25519.PubKeySize {
		return false, ErrTxPubKeyInvalid
	}
	nonce, err := s.Nonce(btx.Caller())
	if err != nil {
		return false, err
	}
	if !(nonce == btx.Nonce || (allowNonceGap && nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	if len(btx.Sig) == 0 {
		err = ErrTxSigInvalid
		return
	}
	succ = ed25519.PubKey(btx.PubKey).VerifySignature(dat, btx.Sig[0])
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

// Join stakes the caller's tokens into the treasury for voting power. The
// ledger transfer is the only failure path; power accrues by saturating
// addition and the last-vote marker is untouched.
func (s *State) Join(jtx *tx.JoinTx, caller string, checkOnly bool) (event *types.EventTransfer, err error) {
	treasury := types.TreasuryAddress()
	if checkOnly {
		err = s.ledger.CheckTransferFrom(s.header.Token, treasury, caller, treasury, jtx.Amount)
		return
	}
	s.logger.Debug("apply join", "caller", caller, "amount", jtx.Amount, "height", s.header.Height)
	m, found, err := s.getMember(caller)
	if err != nil {
		return
	}
	if !found {
		m = new(types.Member)
	}
	if err = s.ledger.TransferFrom(s.header.Token, treasury, caller, treasury, jtx.Amount); err != nil {
		return
	}
	m.VotingPower = types.SatAdd64(m.VotingPower, jtx.Amount)
	s.members[caller] = m
	s.modifiedMembers[caller] = true
	event = &types.EventTransfer{From: caller, To: treasury, Value: jtx.Amount}
	return
}

// CreateProposal registers a payout proposal open for voting from the
// current height through the configured period. Open to non-members. A
// failed call does not consume a proposal id.
func (s *State) CreateProposal(ptx *tx.ProposalTx, caller string, checkOnly bool) (event *types.EventCreated, err error) {
	if len(ptx.Description) >= types.MaxDescriptionLen {
		err = ErrDescriptionTooLong
		return
	}
	beneficiary, err := types.HexAddress(ptx.Beneficiary)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidBeneficiary, err)
		return
	}
	if checkOnly {
		return
	}
	s.logger.Debug("apply create proposal", "caller", caller, "height", s.header.Height)
	id := s.proposalCount
	s.proposalCount = types.SatAdd32(s.proposalCount, 1)
	s.countModified = true
	proposal := &types.Proposal{
		Id:          id,
		Description: ptx.Description,
		Status:      types.ProposalStatusSubmitted,
		Window: &types.VotingWindow{
			Start: s.header.Height,
			End:   types.SatAdd64(s.header.Height, s.header.VotingPeriod),
		},
		Tally:  types.VoteTally{},
		Payout: &types.Payout{Beneficiary: beneficiary, Amount: ptx.Amount},
	}
	s.proposals[id] = proposal
	s.modifiedProposals[id] = true
	event = &types.EventCreated{
		Id:      id,
		Creator: caller,
		Admin:   types.TreasuryAddress(),
		Kind:    types.CreatedKindProposal,
	}
	return
}

// finalizeIfExpired settles an expired Submitted proposal by its tally.
// Ties reject. Reports whether a transition happened.
func (s *State) finalizeIfExpired(proposal *types.Proposal) bool {
	if proposal.Window == nil || s.header.Height <= proposal.Window.End {
		return false
	}
	if proposal.Status != types.ProposalStatusSubmitted {
		return false
	}
	if proposal.Tally.Yes > proposal.Tally.No {
		proposal.Status = types.ProposalStatusApproved
	} else {
		proposal.Status = types.ProposalStatusRejected
	}
	s.modifiedProposals[proposal.Id] = true
	s.logger.Info("proposal finalized", "proposal", proposal.Id, "status", proposal.Status.String(), "height", s.header.Height)
	return true
}

// Vote casts the caller's full voting power on an open proposal. A vote
// arriving after the window closed still settles the proposal (the
// finalized event reports it) even though the call itself fails.
func (s *State) Vote(vtx *tx.VoteTx, caller string, checkOnly bool) (event *types.EventVoted, finalized *types.EventFinalized, err error) {
	proposal, err := s.GetProposal(vtx.Proposal)
	if err != nil {
		return
	}
	if proposal.Window == nil {
		err = ErrMalformedProposal
		return
	}
	h := s.header.Height
	if h > proposal.Window.End {
		if !checkOnly && s.finalizeIfExpired(proposal) {
			finalized = &types.EventFinalized{Proposal: proposal.Id, Status: proposal.Status}
		}
		err = ErrVotingPeriodEnded
		return
	}
	member, found, err := s.getMember(caller)
	if err != nil {
		return
	}
	if !found {
		err = ErrMemberNotFound
		return
	}
	if member.LastVote >= proposal.Window.Start {
		err = ErrAlreadyVoted
		return
	}
	if checkOnly {
		return
	}
	s.logger.Debug("apply vote", "caller", caller, "proposal", proposal.Id, "approve", vtx.Approve, "height", h)
	if vtx.Approve {
		proposal.Tally.Yes = types.SatAdd64(proposal.Tally.Yes, member.VotingPower)
	} else {
		proposal.Tally.No = types.SatAdd64(proposal.Tally.No, member.VotingPower)
	}
	member.LastVote = h
	s.modifiedProposals[proposal.Id] = true
	s.modifiedMembers[caller] = true
	event = &types.EventVoted{Who: caller, Proposal: proposal.Id, Approve: vtx.Approve, When: h}
	return
}

// ExecuteProposal pays out an approved proposal after its window closed.
// The status flips to Executed only after the treasury transfer succeeded.
func (s *State) ExecuteProposal(etx *tx.ExecuteTx, caller string, checkOnly bool) (executed *types.EventExecuted, finalized *types.EventFinalized, err error) {
	proposal, err := s.GetProposal(etx.Proposal)
	if err != nil {
		return
	}
	if proposal.Window == nil || proposal.Payout == nil {
		err = ErrMalformedProposal
		return
	}
	if s.header.Height <= proposal.Window.End {
		err = ErrVotingPeriodNotEnded
		return
	}
	if !checkOnly && s.finalizeIfExpired(proposal) {
		finalized = &types.EventFinalized{Proposal: proposal.Id, Status: proposal.Status}
	}
	if proposal.Status == types.ProposalStatusExecuted {
		err = ErrProposalExecuted
		return
	}
	if proposal.Tally.Yes <= proposal.Tally.No {
		err = ErrProposalRejected
		return
	}
	treasury := types.TreasuryAddress()
	balance, err := s.ledger.BalanceOf(s.header.Token, treasury)
	if err != nil {
		return
	}
	if balance <= proposal.Payout.Amount {
		err = ErrInsufficientTreasuryFunds
		return
	}
	if checkOnly {
		return
	}
	s.logger.Debug("apply execute", "caller", caller, "proposal", proposal.Id, "height", s.header.Height)
	if err = s.mover.Move(s.header.Token, treasury, proposal.Payout.Beneficiary, proposal.Payout.Amount); err != nil {
		return
	}
	proposal.Status = types.ProposalStatusExecuted
	s.modifiedProposals[proposal.Id] = true
	executed = &types.EventExecuted{
		Proposal:    proposal.Id,
		Beneficiary: proposal.Payout.Beneficiary,
		Value:       proposal.Payout.Amount,
	}
	return
}
