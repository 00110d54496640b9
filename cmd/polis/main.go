package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(treasuryCmd)
	rootCmd.AddCommand(headCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(newProposalCmd)
	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(transferCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
