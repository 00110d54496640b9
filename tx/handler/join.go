package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/tx"
	"github.com/polisdao/polis-node/types"
)

type JoinTxHandler struct {
	logger cmtlog.Logger
}

func NewJoinTxHandler(logger cmtlog.Logger) (h *JoinTxHandler) {
	h = &JoinTxHandler{
		logger: logger.With("module", "joinTx"),
	}
	return
}

func (h *JoinTxHandler) Check(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	jtx, ok := btx.Tx.(*tx.JoinTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	_, err1 := st.Join(jtx, btx.Caller(), true)
	if err1 != nil {
		h.logger.Info("CheckTx JoinTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *JoinTxHandler) Deliver(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	jtx, ok := btx.Tx.(*tx.JoinTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ExecTxResult{}
	event, err1 := st.Join(jtx, btx.Caller(), false)
	if err1 != nil {
		h.logger.Info("join failed", "caller", btx.Caller(), "err", err1)
		res.Code = 1
		res.Log = err1.Error()
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventTransfer(event)}
	}
	return
}
