package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	cmtos "github.com/cometbft/cometbft/libs/os"
	app_config "github.com/polisdao/polis-node/config"
	app_crypto "github.com/polisdao/polis-node/crypto"
	"github.com/polisdao/polis-node/types"
	"github.com/spf13/cobra"
)

type printInfo struct {
	Moniker     string `json:"moniker" yaml:"moniker"`
	ChainID     string `json:"chain_id" yaml:"chain_id"`
	Address     string `json:"address" yaml:"address"`
	GenesisFile string `json:"genesis_file" yaml:"genesis_file"`
}

func newPrintInfo(moniker, chainID, address, genesisFile string) printInfo {
	return printInfo{
		Moniker:     moniker,
		ChainID:     chainID,
		Address:     address,
		GenesisFile: genesisFile,
	}
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private key, genesis, and application configuration files",
	Long:  `Initialize the node's key and configuration files.`,
	Args:  cobra.ExactArgs(0),
	RunE:  initRun,
}

func init() {
	initCmd.Flags().BoolP(FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(FlagHome, "", "node home directory")
	initCmd.Flags().Uint64(FlagAllocation, 1000000, "treasury tokens minted to the node key at genesis")
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(FlagHome)
	chainID, _ := cmd.Flags().GetString(FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(FlagOverwrite)
	allocation, _ := cmd.Flags().GetUint64(FlagAllocation)

	if home == "" {
		home = os.ExpandEnv("$HOME/.polis")
	}
	if chainID == "" {
		chainID = fmt.Sprintf("polis-chain-%v", rand.Uint64())
	}

	cfg := app_config.DefaultConfig(home)
	app_config.EnsureRoot(home)

	pv, err := app_crypto.LoadOrGenFileKey(cfg.PrivKeyFile(), cfg.PrivStateFile())
	if err != nil {
		return err
	}

	genFile := cfg.GenesisFile()
	if cmtos.FileExists(genFile) && !overwrite {
		return fmt.Errorf("genesis.json file already exists: %v", genFile)
	}

	genesis := &types.GenesisDoc{
		GenesisTime:   time.Now().Round(0).UTC(),
		ChainID:       chainID,
		InitialHeight: 1,
		Gov: types.GovGenesis{
			Token:        types.DefaultToken,
			VotingPeriod: types.DefaultVotingPeriod,
			MinBalance:   types.DefaultMinBalance,
		},
	}
	if allocation > 0 {
		genesis.Allocations = []types.GenesisAllocation{{Address: pv.Address(), Amount: allocation}}
	}
	if err = types.ExportGenesisFile(genesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file: %w", err)
	}
	app_config.WriteConfigFile(cfg.ConfigFile(), cfg)

	return displayInfo(newPrintInfo(cfg.Moniker, chainID, pv.Address(), genFile))
}
