package main

import (
	"encoding/json"
	"fmt"

	"github.com/polisdao/polis-node/indexer"
	"github.com/spf13/cobra"
)

type treasuryArguments struct {
	Url string
}

var treasuryArgs treasuryArguments

var treasuryCmd = &cobra.Command{
	Use:   "treasury",
	Short: "Query the treasury address and balance",
	Long:  ``,
	Run:   treasuryRun,
}

func init() {
	urlFlag(treasuryCmd, &treasuryArgs.Url)
}

func treasuryRun(cmd *cobra.Command, args []string) {
	var res indexer.GetTreasuryResponse
	if err := postJSON(treasuryArgs.Url, "/getTreasury", struct{}{}, &res); err != nil {
		fmt.Printf("query treasury err:%v\n", err)
		return
	}
	out, _ := json.MarshalIndent(res, "", " ")
	fmt.Printf("%v\n", string(out))
}

type headArguments struct {
	Url string
}

var headArgs headArguments

var headCmd = &cobra.Command{
	Use:   "head",
	Short: "Query the chain head",
	Long:  ``,
	Run:   headRun,
}

func init() {
	urlFlag(headCmd, &headArgs.Url)
}

func headRun(cmd *cobra.Command, args []string) {
	head, err := queryHead(headArgs.Url)
	if err != nil {
		fmt.Printf("query head err:%v\n", err)
		return
	}
	out, _ := json.MarshalIndent(head, "", " ")
	fmt.Printf("%v\n", string(out))
}
