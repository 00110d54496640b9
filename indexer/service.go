package indexer

import (
	"context"
	"encoding/base64"
	"net/http"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/types"
)

// NodeClient is the node surface the API serves from: transaction
// admission plus authoritative state reads.
type NodeClient interface {
	SubmitTx(ctx context.Context, raw []byte) (*abcitypes.ResponseCheckTx, common.Hash, error)
	Head() *gov.Header
	GetMember(addr string) (types.Member, uint64, error)
	GetProposal(id uint32) (*types.Proposal, uint64, error)
	TreasuryBalance() (uint64, uint64, error)
	BalanceOf(addr string) (uint64, uint64, error)
	Nonce(addr string) (uint64, error)
}

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	chain      NodeClient
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer, chain NodeClient) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		chain:      chain,
		listenAddr: listenAddr,
	}
	s.engine.POST("/broadcastTx", s.handleBroadcastTx)
	s.engine.POST("/getHead", s.handleGetHead)
	s.engine.POST("/getMember", s.handleGetMember)
	s.engine.POST("/getMembers", s.handleGetMembers)
	s.engine.POST("/getProposal", s.handleGetProposal)
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getTreasury", s.handleGetTreasury)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getTransfers", s.handleGetTransfers)
	return s
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

func normalizePage(page int, pageSize int) (int, int) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

type BroadcastTxReq struct {
	// Tx is the base64 encoded JSON transaction envelope.
	Tx string `json:"tx"`
}

type BroadcastTxResponse struct {
	Code uint32 `json:"code"`
	Log  string `json:"log"`
	Hash string `json:"hash"`
}

func (s *Service) handleBroadcastTx(c *gin.Context) {
	var requestData BroadcastTxReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	raw, err := base64.StdEncoding.DecodeString(requestData.Tx)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, hash, err := s.chain.SubmitTx(c.Request.Context(), raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, BroadcastTxResponse{
		Code: res.Code,
		Log:  res.Log,
		Hash: hash.Hex(),
	})
}

type GetHeadResponse struct {
	ChainId      string `json:"chain_id"`
	Height       uint64 `json:"height"`
	Hash         string `json:"hash"`
	Token        uint32 `json:"token"`
	VotingPeriod uint64 `json:"voting_period"`
	MinBalance   uint64 `json:"min_balance"`
}

func (s *Service) handleGetHead(c *gin.Context) {
	h := s.chain.Head()
	c.JSON(http.StatusOK, GetHeadResponse{
		ChainId:      h.ChainId,
		Height:       h.Height,
		Hash:         common.Bytes2Hex(h.Hash),
		Token:        h.Token,
		VotingPeriod: h.VotingPeriod,
		MinBalance:   h.MinBalance,
	})
}

type GetMemberReq struct {
	Address string `json:"address"`
}

type GetMemberResponse struct {
	Address      string `json:"address"`
	VotingPower  uint64 `json:"voting_power"`
	LastVote     uint64 `json:"last_vote"`
	Balance      uint64 `json:"balance"`
	Nonce        uint64 `json:"nonce"`
	JoinedHeight uint64 `json:"joined_height"`
	Height       uint64 `json:"height"`
}

func (s *Service) handleGetMember(c *gin.Context) {
	var requestData GetMemberReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	address, err := types.HexAddress(requestData.Address)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	member, height, err := s.chain.GetMember(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	balance, _, err := s.chain.BalanceOf(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	nonce, err := s.chain.Nonce(address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response := GetMemberResponse{
		Address:     address,
		VotingPower: member.VotingPower,
		LastVote:    member.LastVote,
		Balance:     balance,
		Nonce:       nonce,
		Height:      height,
	}
	if row, err := s.indexer.getMember(address); err == nil {
		response.JoinedHeight = row.JoinedHeight
	}
	c.JSON(http.StatusOK, response)
}

type GetMembersReq struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type GetMembersResponse struct {
	Members []Member `json:"members"`
	Total   uint64   `json:"total"`
}

func (s *Service) handleGetMembers(c *gin.Context) {
	var requestData GetMembersReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, pageSize := normalizePage(requestData.Page, requestData.PageSize)
	members, total, err := s.indexer.getMembers(page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if members == nil {
		members = make([]Member, 0)
	}
	c.JSON(http.StatusOK, GetMembersResponse{Members: members, Total: total})
}

type GetProposalReq struct {
	ProposalId *uint32 `json:"proposalId"`
}

type GetProposalResponse struct {
	Proposal *types.Proposal `json:"proposal"`
	Creator  string          `json:"creator"`
	Votes    []Vote          `json:"votes"`
	Height   uint64          `json:"height"`
}

// handleGetProposal serves the chain's stored record: an expired proposal
// still reads Submitted until something settles it. Creator and votes come
// from the index.
func (s *Service) handleGetProposal(c *gin.Context) {
	var requestData GetProposalReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.ProposalId == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId is required"})
		return
	}
	id := *requestData.ProposalId
	proposal, height, err := s.chain.GetProposal(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	response := GetProposalResponse{
		Proposal: proposal,
		Votes:    make([]Vote, 0),
		Height:   height,
	}
	if row, err := s.indexer.getProposalById(id); err == nil {
		response.Creator = row.Creator
	}
	if votes, _, err := s.indexer.getVotesByProposal(id, 0, 1000); err == nil && votes != nil {
		response.Votes = votes
	}
	c.JSON(http.StatusOK, response)
}

type ProposalInfo struct {
	Proposal Proposal `json:"proposal"`
	Votes    []Vote   `json:"votes"`
}

type GetProposalsReq struct {
	Creator  string `json:"creator"`
	Status   uint64 `json:"status"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetProposalsResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, pageSize := normalizePage(requestData.Page, requestData.PageSize)

	var proposals []Proposal
	var total uint64
	var err error
	switch {
	case requestData.Creator != "":
		proposals, total, err = s.indexer.getProposalsByCreator(requestData.Creator, page, pageSize)
	case requestData.Status != 0:
		proposals, total, err = s.indexer.getProposalsByStatus(requestData.Status, page, pageSize)
	default:
		proposals, total, err = s.indexer.getProposals(page, pageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response.Total = total
	for _, proposal := range proposals {
		votes, _, err := s.indexer.getVotesByProposal(proposal.ProposalId, 0, 1000)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if votes == nil {
			votes = make([]Vote, 0)
		}
		response.Proposals = append(response.Proposals, ProposalInfo{
			Proposal: proposal,
			Votes:    votes,
		})
	}
	c.JSON(http.StatusOK, response)
}

type GetTreasuryResponse struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Height  uint64 `json:"height"`
}

func (s *Service) handleGetTreasury(c *gin.Context) {
	balance, height, err := s.chain.TreasuryBalance()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetTreasuryResponse{
		Address: types.TreasuryAddress(),
		Balance: balance,
		Height:  height,
	})
}

type GetVotesReq struct {
	ProposalId *uint32 `json:"proposalId"`
	Voter      string  `json:"voter"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var response GetVotesResponse
	response.Votes = make([]Vote, 0)
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, pageSize := normalizePage(requestData.Page, requestData.PageSize)

	var votes []Vote
	var total uint64
	var err error
	switch {
	case requestData.ProposalId != nil:
		votes, total, err = s.indexer.getVotesByProposal(*requestData.ProposalId, page, pageSize)
	case requestData.Voter != "":
		votes, total, err = s.indexer.getVotesByVoter(requestData.Voter, page, pageSize)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId or voter is required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if votes != nil {
		response.Votes = votes
	}
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetTransfersReq struct {
	Address  string `json:"address"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetTransfersResponse struct {
	Transfers []Transfer `json:"transfers"`
	Total     uint64     `json:"total"`
}

func (s *Service) handleGetTransfers(c *gin.Context) {
	var response GetTransfersResponse
	response.Transfers = make([]Transfer, 0)
	var requestData GetTransfersReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, pageSize := normalizePage(requestData.Page, requestData.PageSize)

	var transfers []Transfer
	var total uint64
	var err error
	if requestData.Address != "" {
		transfers, total, err = s.indexer.getTransfersByAddress(requestData.Address, page, pageSize)
	} else {
		transfers, total, err = s.indexer.getTransfers(page, pageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if transfers != nil {
		response.Transfers = transfers
	}
	response.Total = total
	c.JSON(http.StatusOK, response)
}
