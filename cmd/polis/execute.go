package main

import (
	"github.com/polisdao/polis-node/tx"
	"github.com/spf13/cobra"
)

type executeArguments struct {
	Url      string
	Skey     string
	Nonce    int64
	Proposal uint32
	NoSend   bool
}

var executeArgs executeArguments

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute an approved proposal's payout",
	Long:  ``,
	Run:   executeRun,
}

func init() {
	urlFlag(executeCmd, &executeArgs.Url)
	keyFlag(executeCmd, &executeArgs.Skey)
	nonceFlag(executeCmd, &executeArgs.Nonce)
	noSendFlag(executeCmd, &executeArgs.NoSend)
	executeCmd.Flags().Uint32VarP(&executeArgs.Proposal, "proposal", "p", 0, "proposal id")
}

func executeRun(cmd *cobra.Command, args []string) {
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeExecute,
		Tx:      &tx.ExecuteTx{Proposal: executeArgs.Proposal},
	}
	signAndBroadcast(executeArgs.Url, executeArgs.Skey, btx, executeArgs.Nonce, executeArgs.NoSend)
}
