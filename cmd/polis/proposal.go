package main

import (
	"encoding/json"
	"fmt"

	"github.com/polisdao/polis-node/indexer"
	"github.com/polisdao/polis-node/tx"
	"github.com/spf13/cobra"
)

type newProposalArguments struct {
	Url         string
	Skey        string
	Nonce       int64
	Beneficiary string
	Amount      uint64
	Description string
	NoSend      bool
}

var newProposalArgs newProposalArguments

var newProposalCmd = &cobra.Command{
	Use:   "newproposal",
	Short: "Submit a treasury payout proposal",
	Long:  ``,
	Run:   newProposalRun,
}

func init() {
	urlFlag(newProposalCmd, &newProposalArgs.Url)
	keyFlag(newProposalCmd, &newProposalArgs.Skey)
	nonceFlag(newProposalCmd, &newProposalArgs.Nonce)
	noSendFlag(newProposalCmd, &newProposalArgs.NoSend)
	newProposalCmd.Flags().StringVarP(&newProposalArgs.Beneficiary, "beneficiary", "b", "", "payout beneficiary address")
	newProposalCmd.Flags().Uint64VarP(&newProposalArgs.Amount, "amount", "a", 0, "payout amount")
	newProposalCmd.Flags().StringVarP(&newProposalArgs.Description, "data", "", "", "proposal description")
}

func newProposalRun(cmd *cobra.Command, args []string) {
	btx := &tx.GovTx{
		Version: tx.GovTxVersion1,
		Type:    tx.GovTxTypeProposal,
		Tx: &tx.ProposalTx{
			Beneficiary: newProposalArgs.Beneficiary,
			Amount:      newProposalArgs.Amount,
			Description: []byte(newProposalArgs.Description),
		},
	}
	signAndBroadcast(newProposalArgs.Url, newProposalArgs.Skey, btx, newProposalArgs.Nonce, newProposalArgs.NoSend)
}

type proposalArguments struct {
	Url string
	Id  uint32
}

var proposalArgs proposalArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Query a proposal with its votes",
	Long:  ``,
	Run:   proposalRun,
}

func init() {
	urlFlag(proposalCmd, &proposalArgs.Url)
	proposalCmd.Flags().Uint32VarP(&proposalArgs.Id, "id", "i", 0, "proposal id")
}

func proposalRun(cmd *cobra.Command, args []string) {
	id := proposalArgs.Id
	var res indexer.GetProposalResponse
	if err := postJSON(proposalArgs.Url, "/getProposal", indexer.GetProposalReq{ProposalId: &id}, &res); err != nil {
		fmt.Printf("query proposal err:%v\n", err)
		return
	}
	out, _ := json.MarshalIndent(res, "", " ")
	fmt.Printf("%v\n", string(out))
}
