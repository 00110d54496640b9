package main

import (
	"github.com/polisdao/polis-node/tx"
	"github.com/spf13/cobra"
)

type voteArguments struct {
	Url      string
	Skey     string
	Nonce    int64
	Proposal uint32
	Approve  bool
	NoSend   bool
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast a stake weighted vote on a proposal",
	Long:  ``,
	Run:   voteRun,
}

func init() {
	urlFlag(voteCmd, &voteArgs.Url)
	keyFlag(voteCmd, &voteArgs.Skey)
	nonceFlag(voteCmd, &voteArgs.Nonce)
	noSendFlag(voteCmd, &voteArgs.NoSend)
	voteCmd.Flags().Uint32VarP(&voteArgs.Proposal, "proposal", "p", 0, "proposal id")
	voteCmd.Flags().BoolVarP(&voteArgs.Approve, "approve", "a", false, "vote in favor")
}

func voteRun(cmd *cobra.Command, args []string) {
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeVote,
		Tx:      &tx.VoteTx{Proposal: voteArgs.Proposal, Approve: voteArgs.Approve},
	}
	signAndBroadcast(voteArgs.Url, voteArgs.Skey, btx, voteArgs.Nonce, voteArgs.NoSend)
}
