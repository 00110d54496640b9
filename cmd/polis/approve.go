package main

import (
	"github.com/polisdao/polis-node/tx"
	"github.com/polisdao/polis-node/types"
	"github.com/spf13/cobra"
)

type approveArguments struct {
	Url     string
	Skey    string
	Nonce   int64
	Spender string
	Value   uint64
	NoSend  bool
}

var approveArgs approveArguments

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Approve a spender to move treasury tokens on your behalf",
	Long:  `Joining requires an allowance for the treasury, which is the default spender.`,
	Run:   approveRun,
}

func init() {
	urlFlag(approveCmd, &approveArgs.Url)
	keyFlag(approveCmd, &approveArgs.Skey)
	nonceFlag(approveCmd, &approveArgs.Nonce)
	noSendFlag(approveCmd, &approveArgs.NoSend)
	approveCmd.Flags().StringVarP(&approveArgs.Spender, "spender", "p", "", "spender address, defaults to the treasury")
	approveCmd.Flags().Uint64VarP(&approveArgs.Value, "value", "v", 0, "allowance value")
}

func approveRun(cmd *cobra.Command, args []string) {
	spender := approveArgs.Spender
	if spender == "" {
		spender = types.TreasuryAddress()
	}
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeApprove,
		Tx:      &tx.ApproveTx{Spender: spender, Value: approveArgs.Value},
	}
	signAndBroadcast(approveArgs.Url, approveArgs.Skey, btx, approveArgs.Nonce, approveArgs.NoSend)
}
