package tx

import (
	"encoding/json"

	"github.com/cometbft/cometbft/crypto/ed25519"
)

// GovTx is the signed envelope every operation travels in. PubKey identifies
// the caller; Sig covers SigData bound to the chain id.
type GovTx struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	PubKey  []byte    `json:"pubKey"`
	Tx      any       `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

// Caller derives the account address from the signing key. Only valid after
// the envelope passed verification.
func (tx *GovTx) Caller() string {
	return ed25519.PubKey(tx.PubKey).Address().String()
}

// JoinTx stakes Amount of the treasury token for voting power. The caller
// must have approved the treasury to spend at least Amount beforehand.
type JoinTx struct {
	Amount uint64 `json:"amount"`
}

type ProposalTx struct {
	Beneficiary string `json:"beneficiary"`
	Amount      uint64 `json:"amount"`
	Description []byte `json:"description"`
}

type VoteTx struct {
	Proposal uint32 `json:"proposal"`
	Approve  bool   `json:"approve"`
}

type ExecuteTx struct {
	Proposal uint32 `json:"proposal"`
}

// ApproveTx grants Spender an allowance over the caller's token balance.
type ApproveTx struct {
	Spender string `json:"spender"`
	Value   uint64 `json:"value"`
}

type TransferTx struct {
	To    string `json:"to"`
	Value uint64 `json:"value"`
}

type govTxTmpl[Tx any] struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	PubKey  []byte    `json:"pubKey"`
	Tx      Tx        `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

func (tx *GovTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseGovTxType(dat []byte) GovTxType {
	var tx struct {
		Type GovTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return GovTxTypeUnknown
	}
	return tx.Type
}

func unmarshalGovTx[Tx any](dat []byte) (btx *GovTx, err error) {
	var txt govTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	btx = new(GovTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.PubKey = txt.PubKey
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalGovTx(dat []byte) (btx *GovTx, err error) {
	tp := parseGovTxType(dat)
	switch tp {
	case GovTxTypeJoin:
		return unmarshalGovTx[JoinTx](dat)
	case GovTxTypeProposal:
		return unmarshalGovTx[ProposalTx](dat)
	case GovTxTypeVote:
		return unmarshalGovTx[VoteTx](dat)
	case GovTxTypeExecute:
		return unmarshalGovTx[ExecuteTx](dat)
	case GovTxTypeApprove:
		return unmarshalGovTx[ApproveTx](dat)
	case GovTxTypeTransfer:
		return unmarshalGovTx[TransferTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalGovTx(btx *GovTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
