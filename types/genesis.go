package types

import (
	"errors"
	"fmt"
	"os"
	"time"

	cmtjson "github.com/cometbft/cometbft/libs/json"
)

const (
	DefaultToken        uint32 = 1
	DefaultVotingPeriod uint64 = 100
	DefaultMinBalance   uint64 = 10000
)

// GovGenesis is the immutable engine configuration set at chain start.
type GovGenesis struct {
	Token        uint32 `json:"token"`
	VotingPeriod uint64 `json:"voting_period"`
	MinBalance   uint64 `json:"min_balance"`
}

// GenesisAllocation mints Amount of the treasury token to Address at chain
// start, so accounts can stake into the treasury.
type GenesisAllocation struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// GenesisDoc defines the initial conditions of a governance chain.
type GenesisDoc struct {
	GenesisTime   time.Time           `json:"genesis_time"`
	ChainID       string              `json:"chain_id"`
	InitialHeight int64               `json:"initial_height"`
	Gov           GovGenesis          `json:"gov"`
	Allocations   []GenesisAllocation `json:"allocations"`
}

// SaveAs is a utility method for saving GenesisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (genDoc *GenesisDoc) ValidateAndComplete() error {
	if genDoc.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if genDoc.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", genDoc.InitialHeight)
	}

	if genDoc.InitialHeight == 0 {
		genDoc.InitialHeight = 1
	}

	if genDoc.Gov.VotingPeriod == 0 {
		return errors.New("genesis doc must set a non-zero voting_period")
	}

	for i, alloc := range genDoc.Allocations {
		addr, err := HexAddress(alloc.Address)
		if err != nil {
			return fmt.Errorf("allocation %v: %w", i, err)
		}
		genDoc.Allocations[i].Address = addr
	}

	if genDoc.GenesisTime.IsZero() {
		genDoc.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func GenesisDocFromFile(genFile string) (*GenesisDoc, error) {
	genDocBytes, err := os.ReadFile(genFile)
	if err != nil {
		return nil, fmt.Errorf("read genesis file: %w", err)
	}
	genDoc := &GenesisDoc{}
	if err := cmtjson.Unmarshal(genDocBytes, genDoc); err != nil {
		return nil, fmt.Errorf("parse genesis file %v: %w", genFile, err)
	}
	if err := genDoc.ValidateAndComplete(); err != nil {
		return nil, err
	}
	return genDoc, nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}
