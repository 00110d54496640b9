package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/tx"
	"github.com/polisdao/polis-node/types"
)

// TokenWriter is the ledger surface of the plain token transactions that
// bypass the governance engine.
type TokenWriter interface {
	Approve(token uint32, owner, spender string, value uint64) error
	Transfer(token uint32, from, to string, value uint64) error
	CheckTransfer(token uint32, from, to string, value uint64) error
}

type ApproveTxHandler struct {
	logger cmtlog.Logger
	tokens TokenWriter
}

func NewApproveTxHandler(tokens TokenWriter, logger cmtlog.Logger) (h *ApproveTxHandler) {
	h = &ApproveTxHandler{
		logger: logger.With("module", "approveTx"),
		tokens: tokens,
	}
	return
}

func (h *ApproveTxHandler) Check(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	atx, ok := btx.Tx.(*tx.ApproveTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	if _, err1 := types.HexAddress(atx.Spender); err1 != nil {
		h.logger.Info("CheckTx ApproveTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *ApproveTxHandler) Deliver(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	atx, ok := btx.Tx.(*tx.ApproveTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ExecTxResult{}
	spender, err1 := types.HexAddress(atx.Spender)
	if err1 == nil {
		err1 = h.tokens.Approve(st.Header().Token, btx.Caller(), spender, atx.Value)
	}
	if err1 != nil {
		h.logger.Info("approve failed", "caller", btx.Caller(), "err", err1)
		res.Code = 1
		res.Log = err1.Error()
		return
	}
	res.Events = []abcitypes.Event{types.EncodeEventApproval(&types.EventApproval{
		Owner:   btx.Caller(),
		Spender: spender,
		Value:   atx.Value,
	})}
	return
}
