package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"

	app_crypto "github.com/polisdao/polis-node/crypto"
	"github.com/spf13/cobra"
)

type signArguments struct {
	Skey string
	Data string
}

var signArgs signArguments

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign an arbitrary message with the signer key",
	Long:  ``,
	Run:   signRun,
}

func init() {
	keyFlag(signCmd, &signArgs.Skey)
	signCmd.Flags().StringVarP(&signArgs.Data, "data", "", "", "message to sign")
}

func signRun(cmd *cobra.Command, args []string) {
	dat := []byte(signArgs.Data)
	pv := app_crypto.LoadFileKey(signArgs.Skey)
	sig, err := pv.Sign(dat)
	if err != nil {
		fmt.Printf("sign err:%v\n", err)
		return
	}
	println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	println("address:", pv.Address())
	println("signature base64:", base64.StdEncoding.EncodeToString(sig))
	println("signature:", hex.EncodeToString(sig))
}
