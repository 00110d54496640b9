package node

import (
	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/types"
)

// Head returns the committed chain head.
func (n *Node) Head() *gov.Header {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	return n.db.Header()
}

// GetMember returns the membership record for addr at the committed height.
// A never-joined address reports zero voting power.
func (n *Node) GetMember(addr string) (member types.Member, height uint64, err error) {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	return n.db.GetMember(addr)
}

// GetProposal returns the stored proposal record. An expired Submitted
// proposal reads back as Submitted until a vote or execution settles it.
func (n *Node) GetProposal(id uint32) (proposal *types.Proposal, height uint64, err error) {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	return n.db.GetProposal(id)
}

func (n *Node) ProposalCount() (count uint32, height uint64) {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	return n.db.ProposalCount()
}

func (n *Node) TreasuryBalance() (balance uint64, height uint64, err error) {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	return n.db.TreasuryBalance()
}

// BalanceOf returns addr's free treasury-token balance.
func (n *Node) BalanceOf(addr string) (balance uint64, height uint64, err error) {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	balance, err = n.tokens.BalanceOf(n.db.Header().Token, addr)
	if err != nil {
		return
	}
	height = n.db.Header().Height
	return
}

// Allowance returns what spender may still pull from owner's balance.
func (n *Node) Allowance(owner, spender string) (allowance uint64, err error) {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	return n.tokens.Allowance(n.db.Header().Token, owner, spender)
}

// Nonce returns the committed nonce for addr, the one the next submitted
// transaction must carry.
func (n *Node) Nonce(addr string) (nonce uint64, err error) {
	n.chainMtx.Lock()
	defer n.chainMtx.Unlock()
	return n.db.State().Nonce(addr)
}
