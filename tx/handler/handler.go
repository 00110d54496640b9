package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/tx"
)

// TxHandler applies one transaction type. Check validates against the
// committed state for mempool admission. Deliver applies to the working
// state; an operation failure lands in the result code (not the error) so
// any state transition the failing call legitimately recorded survives.
type TxHandler interface {
	Check(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error)
	Deliver(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error)
}
