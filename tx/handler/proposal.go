package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/tx"
	"github.com/polisdao/polis-node/types"
)

type ProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewProposalTxHandler(logger cmtlog.Logger) (h *ProposalTxHandler) {
	h = &ProposalTxHandler{
		logger: logger.With("module", "proposalTx"),
	}
	return
}

func (h *ProposalTxHandler) Check(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	ptx, ok := btx.Tx.(*tx.ProposalTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	_, err1 := st.CreateProposal(ptx, btx.Caller(), true)
	if err1 != nil {
		h.logger.Info("CheckTx ProposalTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

func (h *ProposalTxHandler) Deliver(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	ptx, ok := btx.Tx.(*tx.ProposalTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ExecTxResult{}
	event, err1 := st.CreateProposal(ptx, btx.Caller(), false)
	if err1 != nil {
		h.logger.Info("create proposal failed", "caller", btx.Caller(), "err", err1)
		res.Code = 1
		res.Log = err1.Error()
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventCreated(event)}
	}
	return
}
