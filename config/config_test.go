package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisdao/polis-node/config"
)

func TestDefaultConfig(t *testing.T) {
	home := t.TempDir()
	cfg := config.DefaultConfig(home)
	assert.Equal(t, home, cfg.RootDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.Node.BlockInterval)
	assert.Equal(t, 1000, cfg.Node.MempoolSize)
	assert.True(t, cfg.API.Enable)
	require.NoError(t, cfg.ValidateBasic())

	assert.Equal(t, filepath.Join(home, "config", "config.toml"), cfg.ConfigFile())
	assert.Equal(t, filepath.Join(home, "config", "genesis.json"), cfg.GenesisFile())
	assert.Equal(t, filepath.Join(home, "data", "events.jsonl"), cfg.EventLogFile())
	assert.Equal(t, filepath.Join(home, "indexer.db"), cfg.IndexerDBFile())
}

func TestWriteAndReloadConfig(t *testing.T) {
	home := t.TempDir()
	config.EnsureRoot(home)

	cfg := config.DefaultConfig(home)
	cfg.Moniker = "relay-7"
	cfg.LogLevel = "debug"
	cfg.Node.BlockInterval = 250 * time.Millisecond
	cfg.Node.MempoolSize = 64
	cfg.API.ListenAddress = "127.0.0.1:36659"
	config.WriteConfigFile(cfg.ConfigFile(), cfg)

	v := viper.New()
	v.SetConfigFile(cfg.ConfigFile())
	require.NoError(t, v.ReadInConfig())
	loaded := config.DefaultConfig(home)
	require.NoError(t, v.Unmarshal(loaded))

	assert.Equal(t, "relay-7", loaded.Moniker)
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, 250*time.Millisecond, loaded.Node.BlockInterval)
	assert.Equal(t, 64, loaded.Node.MempoolSize)
	assert.True(t, loaded.API.Enable)
	assert.Equal(t, "127.0.0.1:36659", loaded.API.ListenAddress)
	require.NoError(t, loaded.ValidateBasic())
}

func TestValidateBasic(t *testing.T) {
	t.Run("missing node section", func(t *testing.T) {
		cfg := config.DefaultConfig("")
		cfg.Node = nil
		assert.Error(t, cfg.ValidateBasic())
	})
	t.Run("zero block interval", func(t *testing.T) {
		cfg := config.DefaultConfig("")
		cfg.Node.BlockInterval = 0
		assert.Error(t, cfg.ValidateBasic())
	})
	t.Run("zero mempool", func(t *testing.T) {
		cfg := config.DefaultConfig("")
		cfg.Node.MempoolSize = 0
		assert.Error(t, cfg.ValidateBasic())
	})
	t.Run("api enabled without listen address", func(t *testing.T) {
		cfg := config.DefaultConfig("")
		cfg.API.ListenAddress = ""
		assert.Error(t, cfg.ValidateBasic())
	})
}

func TestEnsureRoot(t *testing.T) {
	home := filepath.Join(t.TempDir(), "fresh")
	config.EnsureRoot(home)
	for _, dir := range []string{home, filepath.Join(home, "config"), filepath.Join(home, "data")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
