package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	app_config "github.com/polisdao/polis-node/config"
	"github.com/polisdao/polis-node/events"
	"github.com/polisdao/polis-node/indexer"
	"github.com/polisdao/polis-node/node"
	"github.com/polisdao/polis-node/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var homeDir string

var rootCmd = &cobra.Command{
	Use:   "polis",
	Short: "Polis is a treasury governance chain",
	Long: `A stake weighted treasury governance chain.
                Members stake tokens for voting power and decide payouts together.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func run(cmd *cobra.Command, args []string) {
	if homeDir == "" {
		homeDir = os.ExpandEnv("$HOME/.polis")
	}

	cfg := app_config.DefaultConfig(homeDir)
	viper.SetConfigFile(cfg.ConfigFile())

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Reading config: %v", err)
	}
	if err := viper.Unmarshal(cfg); err != nil {
		log.Fatalf("Decoding config: %v", err)
	}
	if err := cfg.ValidateBasic(); err != nil {
		log.Fatalf("Invalid configuration data: %v", err)
	}
	cfg.SetRoot(homeDir)

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err := cmtflags.ParseLogLevel(cfg.LogLevel, logger, "info")
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	genesis, err := types.GenesisDocFromFile(cfg.GenesisFile())
	if err != nil {
		log.Fatalf("load genesis doc err:%v", err)
	}

	n, err := node.NewNode(cfg, logger)
	if err != nil {
		log.Fatalf("new node err:%v", err)
	}
	if err := n.InitChain(genesis); err != nil {
		log.Fatalf("init chain err:%v", err)
	}
	if err := n.Start(); err != nil {
		log.Fatalf("start node err:%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.API.Enable {
		ix, err := indexer.NewChainIndexer(logger, cfg.IndexerDBFile(), events.NewReader(cfg.EventLogFile()), n)
		if err != nil {
			log.Fatalf("new chain indexer err:%v", err)
		}
		go ix.Start(ctx)
		svc := indexer.NewService(cfg.API.ListenAddress, ix, n)
		go func() {
			if err := svc.Start(); err != nil {
				log.Fatalf("start api service err:%v", err)
			}
		}()
	}

	defer func() {
		log.Println("shut down...")
		done := make(chan struct{})
		go func() {
			defer close(done)
			cancel()
			if err := n.Stop(); err != nil {
				log.Printf("stop node err:%v", err)
			}
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
