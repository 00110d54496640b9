package main

import (
	"encoding/hex"

	app_crypto "github.com/polisdao/polis-node/crypto"
	"github.com/spf13/cobra"
)

type keysArguments struct {
	Skey string
}

var keysArgs keysArguments

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show the signer key's public key and address",
	Long:  ``,
	Run:   keysRun,
}

func init() {
	keyFlag(keysCmd, &keysArgs.Skey)
}

func keysRun(cmd *cobra.Command, args []string) {
	pv := app_crypto.LoadFileKey(keysArgs.Skey)
	println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	println("address:", pv.Address())
}
