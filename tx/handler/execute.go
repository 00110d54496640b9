package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"

	"github.com/polisdao/polis-node/gov"
	"github.com/polisdao/polis-node/tx"
	"github.com/polisdao/polis-node/types"
)

type ExecuteTxHandler struct {
	logger cmtlog.Logger
}

func NewExecuteTxHandler(logger cmtlog.Logger) (h *ExecuteTxHandler) {
	h = &ExecuteTxHandler{
		logger: logger.With("module", "executeTx"),
	}
	return
}

func (h *ExecuteTxHandler) Check(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ResponseCheckTx, err error) {
	etx, ok := btx.Tx.(*tx.ExecuteTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	_, _, err1 := st.ExecuteProposal(etx, btx.Caller(), true)
	if err1 != nil {
		h.logger.Info("CheckTx ExecuteTx fail", "err", err1)
		res.Code = 1
		res.Log = err1.Error()
	}
	return
}

// Deliver emits the payout transfer, the treasury acknowledgment approval
// and the executed record on success. A failing execution still keeps the
// finalized event when it settled the proposal on the way.
func (h *ExecuteTxHandler) Deliver(ctx context.Context, st *gov.State, btx *tx.GovTx) (res *abcitypes.ExecTxResult, err error) {
	etx, ok := btx.Tx.(*tx.ExecuteTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	res = &abcitypes.ExecTxResult{}
	executed, finalized, err1 := st.ExecuteProposal(etx, btx.Caller(), false)
	if finalized != nil {
		res.Events = append(res.Events, types.EncodeEventFinalized(finalized))
	}
	if err1 != nil {
		h.logger.Info("execute failed", "caller", btx.Caller(), "proposal", etx.Proposal, "err", err1)
		res.Code = 1
		res.Log = err1.Error()
		return
	}
	if executed != nil {
		treasury := types.TreasuryAddress()
		res.Events = append(res.Events,
			types.EncodeEventTransfer(&types.EventTransfer{
				From:  treasury,
				To:    executed.Beneficiary,
				Value: executed.Value,
			}),
			types.EncodeEventApproval(&types.EventApproval{
				Owner:   treasury,
				Spender: treasury,
				Value:   executed.Value,
			}),
			types.EncodeEventExecuted(executed),
		)
	}
	return
}
