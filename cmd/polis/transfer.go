package main

import (
	"github.com/polisdao/polis-node/tx"
	"github.com/spf13/cobra"
)

type transferArguments struct {
	Url    string
	Skey   string
	Nonce  int64
	To     string
	Value  uint64
	NoSend bool
}

var transferArgs transferArguments

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Transfer treasury tokens to another account",
	Long:  ``,
	Run:   transferRun,
}

func init() {
	urlFlag(transferCmd, &transferArgs.Url)
	keyFlag(transferCmd, &transferArgs.Skey)
	nonceFlag(transferCmd, &transferArgs.Nonce)
	noSendFlag(transferCmd, &transferArgs.NoSend)
	transferCmd.Flags().StringVarP(&transferArgs.To, "to", "t", "", "recipient address")
	transferCmd.Flags().Uint64VarP(&transferArgs.Value, "value", "v", 0, "transfer value")
}

func transferRun(cmd *cobra.Command, args []string) {
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeTransfer,
		Tx:      &tx.TransferTx{To: transferArgs.To, Value: transferArgs.Value},
	}
	signAndBroadcast(transferArgs.Url, transferArgs.Skey, btx, transferArgs.Nonce, transferArgs.NoSend)
}
