package main

import (
	"github.com/polisdao/polis-node/tx"
	"github.com/spf13/cobra"
)

type joinArguments struct {
	Url    string
	Skey   string
	Nonce  int64
	Amount uint64
	NoSend bool
}

var joinArgs joinArguments

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Stake treasury tokens for voting power",
	Long:  ``,
	Run:   joinRun,
}

func init() {
	urlFlag(joinCmd, &joinArgs.Url)
	keyFlag(joinCmd, &joinArgs.Skey)
	nonceFlag(joinCmd, &joinArgs.Nonce)
	noSendFlag(joinCmd, &joinArgs.NoSend)
	joinCmd.Flags().Uint64VarP(&joinArgs.Amount, "amount", "a", 0, "stake amount")
}

func joinRun(cmd *cobra.Command, args []string) {
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeJoin,
		Tx:      &tx.JoinTx{Amount: joinArgs.Amount},
	}
	signAndBroadcast(joinArgs.Url, joinArgs.Skey, btx, joinArgs.Nonce, joinArgs.NoSend)
}
