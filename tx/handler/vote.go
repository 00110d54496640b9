package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/tx"
	"github.com/polisdao/polis-node/types"
)

type VoteTxHandler struct {
	logger cmtlog.Logger
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	h = &VoteTxHandler{
		logger: logger.With("module", "voteTx"),
	}
	return
}

func (h *VoteTxHandler) Check(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	vtx, ok := btx.Tx.(*tx.VoteTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	_, _, err1 := st.Vote(vtx, btx.Caller(), true)
	if err1 != nil {
		h.logger.Info("CheckTx VoteTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

// Deliver keeps the finalized event even when the vote itself fails: a
// ballot landing after the window closed settles the proposal while the
// caller still gets voting period ended.
func (h *VoteTxHandler) Deliver(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	vtx, ok := btx.Tx.(*tx.VoteTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ExecTxResult{}
	event, finalized, err1 := st.Vote(vtx, btx.Caller(), false)
	if finalized != nil {
		res.Events = append(res.Events, types.EncodeEventFinalized(finalized))
	}
	if err1 != nil {
		h.logger.Info("vote failed", "caller", btx.Caller(), "proposal", vtx.Proposal, "err", err1)
		res.Code = 1
		res.Log = err1.Error()
		return
	}
	if event != nil {
		res.Events = append(res.Events, types.EncodeEventVoted(event))
	}
	return
}
