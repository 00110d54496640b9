package tx

import "errors"

type GovTxType uint8

const (
	GovTxTypeUnknown  GovTxType = 0
	GovTxTypeJoin     GovTxType = 1
	GovTxTypeProposal GovTxType = 2
	GovTxTypeVote     GovTxType = 3
	GovTxTypeExecute  GovTxType = 4
	GovTxTypeApprove  GovTxType = 5
	GovTxTypeTransfer GovTxType = 6
)

const (
	GovTxVersion0 uint8 = 0
	GovTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx         = errors.New("invalid tx")
	ErrUnsupportedTxType = errors.New("unsupported tx type")
	ErrUnmatchedTxType   = errors.New("unmatched tx type")

	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
