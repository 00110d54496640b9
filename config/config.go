package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cmtos "github.com/cometbft/cometbft/libs/os"
)

const (
	DefaultConfigDir = "config"
	DefaultDataDir   = "data"

	defaultConfigFileName = "config.toml"
	defaultGenesisName    = "genesis.json"
	defaultPrivKeyName    = "priv_validator_key.json"
	defaultPrivStateName  = "priv_validator_state.json"
	defaultEventLogName   = "events.jsonl"
	defaultIndexerDBName  = "indexer.db"
)

// Config is the top-level node configuration, loaded from config.toml under
// the home directory.
type Config struct {
	RootDir  string `mapstructure:"-"`
	Moniker  string `mapstructure:"moniker"`
	LogLevel string `mapstructure:"log_level"`

	Node *NodeConfig `mapstructure:"node"`
	API  *APIConfig  `mapstructure:"api"`
}

// NodeConfig tunes the block producer.
type NodeConfig struct {
	// BlockInterval is the wall-clock spacing between produced blocks.
	// Blocks are produced even when the mempool is empty so voting windows
	// keep advancing.
	BlockInterval time.Duration `mapstructure:"block_interval"`
	// MempoolSize bounds the number of admitted transactions waiting for
	// the next block.
	MempoolSize int `mapstructure:"mempool_size"`
}

// APIConfig tunes the HTTP service fronting the node and the indexer.
type APIConfig struct {
	Enable        bool   `mapstructure:"enable"`
	ListenAddress string `mapstructure:"listen_address"`
}

func DefaultNodeConfig() *NodeConfig {
	return &NodeConfig{
		BlockInterval: time.Second,
		MempoolSize:   1000,
	}
}

func DefaultAPIConfig() *APIConfig {
	return &APIConfig{
		Enable:        true,
		ListenAddress: "127.0.0.1:26659",
	}
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.polis")
	}
	cfg := &Config{
		RootDir:  home,
		Moniker:  defaultMoniker(),
		LogLevel: "info",
		Node:     DefaultNodeConfig(),
		API:      DefaultAPIConfig(),
	}
	return cfg
}

func defaultMoniker() string {
	moniker, err := os.Hostname()
	if err != nil {
		moniker = "anonymous"
	}
	return moniker
}

func (cfg *Config) SetRoot(root string) *Config {
	cfg.RootDir = root
	return cfg
}

func (cfg *Config) ConfigDir() string {
	return filepath.Join(cfg.RootDir, DefaultConfigDir)
}

func (cfg *Config) DataDir() string {
	return filepath.Join(cfg.RootDir, DefaultDataDir)
}

func (cfg *Config) ConfigFile() string {
	return filepath.Join(cfg.ConfigDir(), defaultConfigFileName)
}

func (cfg *Config) GenesisFile() string {
	return filepath.Join(cfg.ConfigDir(), defaultGenesisName)
}

func (cfg *Config) PrivKeyFile() string {
	return filepath.Join(cfg.ConfigDir(), defaultPrivKeyName)
}

func (cfg *Config) PrivStateFile() string {
	return filepath.Join(cfg.DataDir(), defaultPrivStateName)
}

// EventLogFile is the append-only block event journal the indexer tails.
func (cfg *Config) EventLogFile() string {
	return filepath.Join(cfg.DataDir(), defaultEventLogName)
}

func (cfg *Config) IndexerDBFile() string {
	return filepath.Join(cfg.RootDir, defaultIndexerDBName)
}

func (cfg *Config) ValidateBasic() error {
	if cfg.Node == nil {
		return errors.New("missing [node] section")
	}
	if cfg.Node.BlockInterval <= 0 {
		return fmt.Errorf("block_interval must be positive (got %v)", cfg.Node.BlockInterval)
	}
	if cfg.Node.MempoolSize <= 0 {
		return fmt.Errorf("mempool_size must be positive (got %v)", cfg.Node.MempoolSize)
	}
	if cfg.API != nil && cfg.API.Enable && cfg.API.ListenAddress == "" {
		return errors.New("api.listen_address must be set when the api is enabled")
	}
	return nil
}

// EnsureRoot creates the home directory layout when missing.
func EnsureRoot(root string) {
	if err := cmtos.EnsureDir(root, DefaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := cmtos.EnsureDir(filepath.Join(root, DefaultConfigDir), DefaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := cmtos.EnsureDir(filepath.Join(root, DefaultDataDir), DefaultDirPerm); err != nil {
		panic(err.Error())
	}
}
