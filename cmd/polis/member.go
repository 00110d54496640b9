package main

import (
	"fmt"

	app_crypto "github.com/polisdao/polis-node/crypto"
	"github.com/spf13/cobra"
)

type memberArguments struct {
	Url     string
	Address string
	Skey    string
}

var memberArgs memberArguments

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Query a member's voting power, balance and nonce",
	Long:  ``,
	Run:   memberRun,
}

func init() {
	urlFlag(memberCmd, &memberArgs.Url)
	keyFlag(memberCmd, &memberArgs.Skey)
	memberCmd.Flags().StringVarP(&memberArgs.Address, "address", "a", "", "member address, defaults to the signer key's")
}

func memberRun(cmd *cobra.Command, args []string) {
	address := memberArgs.Address
	if address == "" {
		pv := app_crypto.LoadFileKey(memberArgs.Skey)
		address = pv.Address()
	}
	member, err := queryMember(memberArgs.Url, address)
	if err != nil {
		fmt.Printf("query member err:%v\n", err)
		return
	}
	memberStr := fmt.Sprintf("power:%v lastVote:%v balance:%v nonce:%v joined:%v addr:%v\n",
		member.VotingPower, member.LastVote, member.Balance, member.Nonce, member.JoinedHeight, member.Address)
	fmt.Println(memberStr)
}
