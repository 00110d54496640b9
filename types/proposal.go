package types

// MaxDescriptionLen bounds proposal descriptions to lengths representable
// by a one-byte size field.
const MaxDescriptionLen = 255

type Member struct {
	VotingPower uint64 `json:"voting_power"`
	LastVote    uint64 `json:"last_vote"`
}

type VotingWindow struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

type VoteTally struct {
	Yes uint64 `json:"yes"`
	No  uint64 `json:"no"`
}

type Payout struct {
	Beneficiary string `json:"beneficiary"`
	Amount      uint64 `json:"amount"`
}

type Proposal struct {
	Id          uint32         `json:"id"`
	Description []byte         `json:"description"`
	Status      ProposalStatus `json:"status"`
	Window      *VotingWindow  `json:"window,omitempty"`
	Tally       VoteTally      `json:"tally"`
	Payout      *Payout        `json:"payout,omitempty"`
}

func (p *Proposal) Clone() *Proposal {
	cp := &Proposal{
		Id:     p.Id,
		Status: p.Status,
		Tally:  p.Tally,
	}
	if p.Description != nil {
		cp.Description = make([]byte, len(p.Description))
		copy(cp.Description, p.Description)
	}
	if p.Window != nil {
		w := *p.Window
		cp.Window = &w
	}
	if p.Payout != nil {
		po := *p.Payout
		cp.Payout = &po
	}
	return cp
}

type ProposalStatus uint64

const (
	ProposalStatusSubmitted ProposalStatus = 1
	ProposalStatusApproved  ProposalStatus = 2
	ProposalStatusRejected  ProposalStatus = 3
	ProposalStatusExecuted  ProposalStatus = 4
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusSubmitted:
		return "submitted"
	case ProposalStatusApproved:
		return "approved"
	case ProposalStatusRejected:
		return "rejected"
	case ProposalStatusExecuted:
		return "executed"
	default:
		return "unknown"
	}
}
