package main

import "github.com/spf13/cobra"

const (
	FlagHome       = "home"
	FlagChainID    = "chain-id"
	FlagOverwrite  = "overwrite"
	FlagAllocation = "allocation"
)

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26659", "polis api url")
}

func keyFlag(cmd *cobra.Command, skey *string) {
	cmd.Flags().StringVarP(skey, "skeyPath", "s", "./config/priv_validator_key.json", "signer private key path")
}

// A negative nonce makes the client look the current one up over the api.
func nonceFlag(cmd *cobra.Command, nonce *int64) {
	cmd.Flags().Int64VarP(nonce, "nonce", "n", -1, "account nonce, negative queries the api")
}

func noSendFlag(cmd *cobra.Command, noSend *bool) {
	cmd.Flags().BoolVar(noSend, "nosend", false, "sign only, print the signature instead of broadcasting")
}
