package indexer

import (
	"context"
	"errors"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"github.com/polisdao/polis-node/events"
	"github.com/polisdao/polis-node/types"
)

// StateQuerier reads the committed chain state. The event stream only
// carries notifications; the indexer pulls the authoritative records from
// here when an event lands.
type StateQuerier interface {
	GetMember(addr string) (types.Member, uint64, error)
	GetProposal(id uint32) (*types.Proposal, uint64, error)
}

// ChainIndexer tails the node's block event log into sqlite so the API can
// serve filtered listings the state tree does not support.
type ChainIndexer struct {
	logger cmtlog.Logger
	db     *gorm.DB
	reader *events.Reader
	chain  StateQuerier

	// height is the next block height to sync.
	height        uint64
	eventHandlers map[string]eventHandler
}

type eventHandler func(ctx context.Context, event abci.Event, height uint64)

func NewChainIndexer(logger cmtlog.Logger, dbPath string, reader *events.Reader, chain StateQuerier) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath)
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Member{}, &Proposal{}, &Vote{}, &Transfer{}).Error; err != nil {
		return nil, err
	}
	next := uint64(0)
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		next = h.Height + 1
	}

	c := ChainIndexer{
		logger: logger.With("module", "indexer"),
		db:     db,
		reader: reader,
		chain:  chain,
		height: next,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventCreatedType:   c.handleEventCreated,
		types.EventTransferType:  c.handleEventTransfer,
		types.EventVotedType:     c.handleEventVoted,
		types.EventFinalizedType: c.handleEventFinalized,
		types.EventExecutedType:  c.handleEventExecuted,
	}
	return &c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

// SyncOnce folds every unseen block from the event log into the database.
func (c *ChainIndexer) SyncOnce(ctx context.Context) error {
	blocks, err := c.reader.ReadFrom(c.height)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		for _, event := range b.Events {
			c.handleEvent(ctx, event, b.Height)
		}
		if err := c.db.Save(&Height{Id: 1, Height: b.Height}).Error; err != nil {
			return err
		}
		c.height = b.Height + 1
	}
	return nil
}

// Start polls the event log until ctx is done.
func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.SyncOnce(ctx); err != nil {
				c.logger.Error("sync fail", "height", c.height, "err", err)
			}
		}
	}
}

func (c *ChainIndexer) handleEvent(ctx context.Context, event abci.Event, height uint64) {
	if h, ok := c.eventHandlers[event.Type]; ok {
		h(ctx, event, height)
	}
}

func (c *ChainIndexer) handleEventCreated(ctx context.Context, event abci.Event, height uint64) {
	ev := types.DecodeEventCreated(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	if ev.Kind != types.CreatedKindProposal {
		return
	}
	p, _, err := c.chain.GetProposal(ev.Id)
	if err != nil {
		c.logger.Error("get proposal fail", "proposal", ev.Id, "err", err)
		return
	}
	var proposal Proposal
	if err := c.db.Where("proposal_id = ?", p.Id).First(&proposal).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.logger.Error("get proposal row fail", "proposal", p.Id, "err", err)
			return
		}
	}
	proposal.ProposalId = p.Id
	proposal.Creator = ev.Creator
	proposal.Description = string(p.Description)
	proposal.Status = uint64(p.Status)
	proposal.CreatedHeight = height
	if p.Window != nil {
		proposal.StartHeight = p.Window.Start
		proposal.EndHeight = p.Window.End
	}
	if p.Payout != nil {
		proposal.Beneficiary = p.Payout.Beneficiary
		proposal.Amount = p.Payout.Amount
	}
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventTransfer(ctx context.Context, event abci.Event, height uint64) {
	ev := types.DecodeEventTransfer(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	transfer := Transfer{
		Sender:    ev.From,
		Recipient: ev.To,
		Value:     ev.Value,
		Height:    height,
	}
	if err := c.db.Create(&transfer).Error; err != nil {
		c.logger.Error("save transfer fail", "err", err)
	}
	// A transfer into the treasury is how joins surface; refresh the
	// sender's membership from the chain.
	if ev.To == types.TreasuryAddress() && ev.From != "" {
		c.refreshMember(ev.From, height)
	}
}

func (c *ChainIndexer) refreshMember(address string, height uint64) {
	m, _, err := c.chain.GetMember(address)
	if err != nil {
		c.logger.Error("get member fail", "address", address, "err", err)
		return
	}
	if m.VotingPower == 0 && m.LastVote == 0 {
		return
	}
	member := Member{Address: address}
	if err := c.db.First(&member).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.logger.Error("get member row fail", "address", address, "err", err)
			return
		}
		member.JoinedHeight = height
	}
	member.VotingPower = m.VotingPower
	member.LastVote = m.LastVote
	if err := c.db.Save(&member).Error; err != nil {
		c.logger.Error("save member fail", "address", address, "err", err)
	}
}

func (c *ChainIndexer) handleEventVoted(ctx context.Context, event abci.Event, height uint64) {
	ev := types.DecodeEventVoted(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	vote := Vote{
		Proposal: ev.Proposal,
		Voter:    ev.Who,
		Approve:  ev.Approve,
		Height:   ev.When,
	}
	if err := c.db.Create(&vote).Error; err != nil {
		c.logger.Error("save vote fail", "err", err)
	}
	c.refreshMember(ev.Who, height)
	c.refreshProposal(ev.Proposal)
}

func (c *ChainIndexer) refreshProposal(id uint32) {
	p, _, err := c.chain.GetProposal(id)
	if err != nil {
		c.logger.Error("get proposal fail", "proposal", id, "err", err)
		return
	}
	var proposal Proposal
	if err := c.db.Where("proposal_id = ?", id).First(&proposal).Error; err != nil {
		c.logger.Error("get proposal row fail", "proposal", id, "err", err)
		return
	}
	proposal.Status = uint64(p.Status)
	proposal.YesPower = p.Tally.Yes
	proposal.NoPower = p.Tally.No
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventFinalized(ctx context.Context, event abci.Event, height uint64) {
	ev := types.DecodeEventFinalized(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	var proposal Proposal
	if err := c.db.Where("proposal_id = ?", ev.Proposal).First(&proposal).Error; err != nil {
		c.logger.Error("get proposal fail", "proposal", ev.Proposal, "err", err)
		return
	}
	proposal.Status = uint64(ev.Status)
	proposal.SettledHeight = height
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventExecuted(ctx context.Context, event abci.Event, height uint64) {
	ev := types.DecodeEventExecuted(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	var proposal Proposal
	if err := c.db.Where("proposal_id = ?", ev.Proposal).First(&proposal).Error; err != nil {
		c.logger.Error("get proposal fail", "proposal", ev.Proposal, "err", err)
		return
	}
	proposal.Status = uint64(types.ProposalStatusExecuted)
	proposal.ExecutedHeight = height
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) getMember(address string) (Member, error) {
	var member Member
	err := c.db.Where("address = ?", address).First(&member).Error
	if err != nil {
		return Member{}, err
	}
	return member, nil
}

func (c *ChainIndexer) getMembers(page int, pageSize int) ([]Member, uint64, error) {
	var members []Member
	err := c.db.Order("voting_power desc").Offset(page * pageSize).Limit(pageSize).Find(&members).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Member{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (c *ChainIndexer) getProposalById(proposalId uint32) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("proposal_id = ?", proposalId).First(&proposal).Error
	if err != nil {
		return Proposal{}, err
	}
	return proposal, nil
}

func (c *ChainIndexer) getProposals(page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Order("proposal_id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalsByCreator(creator string, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Where("creator = ?", creator).Order("proposal_id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("creator = ?", creator).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalsByStatus(status uint64, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Where("status = ?", status).Order("proposal_id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("status = ?", status).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getVotesByProposal(proposal uint32, page int, pageSize int) ([]Vote, uint64, error) {
	var votes []Vote
	err := c.db.Where("proposal = ?", proposal).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Vote{}).Where("proposal = ?", proposal).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getVotesByVoter(voter string, page int, pageSize int) ([]Vote, uint64, error) {
	var votes []Vote
	err := c.db.Where("voter = ?", voter).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Vote{}).Where("voter = ?", voter).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getTransfers(page int, pageSize int) ([]Transfer, uint64, error) {
	var transfers []Transfer
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&transfers).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Transfer{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return transfers, total, nil
}

func (c *ChainIndexer) getTransfersByAddress(address string, page int, pageSize int) ([]Transfer, uint64, error) {
	var transfers []Transfer
	err := c.db.Where("sender = ? OR recipient = ?", address, address).Order("id desc").
		Offset(page * pageSize).Limit(pageSize).Find(&transfers).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Transfer{}).Where("sender = ? OR recipient = ?", address, address).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return transfers, total, nil
}
