package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/tx"
	"github.com/polisdao/polis-node/types"
)

type TransferTxHandler struct {
	logger cmtlog.Logger
	tokens TokenWriter
}

func NewTransferTxHandler(tokens TokenWriter, logger cmtlog.Logger) (h *TransferTxHandler) {
	h = &TransferTxHandler{
		logger: logger.With("module", "transferTx"),
		tokens: tokens,
	}
	return
}

func (h *TransferTxHandler) Check(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	ttx, ok := btx.Tx.(*tx.TransferTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	to, err1 := types.HexAddress(ttx.To)
	if err1 == nil {
		err1 = h.tokens.CheckTransfer(st.Header().Token, btx.Caller(), to, ttx.Value)
	}
	if err1 != nil {
		h.logger.Info("CheckTx TransferTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *TransferTxHandler) Deliver(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	ttx, ok := btx.Tx.(*tx.TransferTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ExecTxResult{}
	to, err1 := types.HexAddress(ttx.To)
	if err1 == nil {
		err1 = h.tokens.Transfer(st.Header().Token, btx.Caller(), to, ttx.Value)
	}
	if err1 != nil {
		h.logger.Info("transfer failed", "caller", btx.Caller(), "err", err1)
		res.Code = 1
		res.Log = err1.Error()
		return
	}
	res.Events = []abcitypes.Event{types.EncodeEventTransfer(&types.EventTransfer{
		From:  btx.Caller(),
		To:    to,
		Value: ttx.Value,
	})}
	return
}
