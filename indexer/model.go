package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Member struct {
	Address      string `gorm:"primary_key" json:"address"`
	VotingPower  uint64 `json:"voting_power"`
	LastVote     uint64 `json:"last_vote"`
	JoinedHeight uint64 `json:"joined_height"`
}

// Proposal rows carry a surrogate key: chain proposal ids start at zero,
// which the ORM treats as a blank primary key on insert.
type Proposal struct {
	Id             uint64 `gorm:"primary_key;auto_increment" json:"-"`
	ProposalId     uint32 `gorm:"unique_index" json:"id"`
	Creator        string `json:"creator"`
	Beneficiary    string `json:"beneficiary"`
	Amount         uint64 `json:"amount"`
	Description    string `json:"description"`
	Status         uint64 `json:"status"`
	StartHeight    uint64 `json:"start_height"`
	EndHeight      uint64 `json:"end_height"`
	YesPower       uint64 `json:"yes_power"`
	NoPower        uint64 `json:"no_power"`
	CreatedHeight  uint64 `json:"created_height"`
	SettledHeight  uint64 `json:"settled_height"`
	ExecutedHeight uint64 `json:"executed_height"`
}

type Vote struct {
	Id       uint64 `gorm:"primary_key;auto_increment" json:"id"`
	Proposal uint32 `json:"proposal"`
	Voter    string `json:"voter"`
	Approve  bool   `json:"approve"`
	Height   uint64 `json:"height"`
}

// Transfer columns avoid the bare "from"/"to" names, which sqlite treats as
// keywords in some statements.
type Transfer struct {
	Id        uint64 `gorm:"primary_key;auto_increment" json:"id"`
	Sender    string `gorm:"column:sender" json:"sender"`
	Recipient string `gorm:"column:recipient" json:"recipient"`
	Value     uint64 `json:"value"`
	Height    uint64 `json:"height"`
}
