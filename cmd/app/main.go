package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"WalletPnL/internal/di"
	"WalletPnL/internal/domain/models"
	"WalletPnL/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	wallet := flag.String("wallet", "", "analyze one wallet, print the summary as JSON and exit")
	chain := flag.String("chain", "solana", "chain selector for -wallet: solana, evm or a concrete EVM chain")
	trades := flag.Bool("trades", false, "include classified trades in -wallet output")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *wallet != "" {
		os.Exit(runOnce(cfg, *wallet, *chain, *trades))
	}

	log.Printf("env=%s port=%d kafka=%t clickhouse=%t redis=%t",
		cfg.Environment, cfg.Server.Port, cfg.Kafka.Enabled, cfg.ClickHouse.Enabled, cfg.Redis.Enabled)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

func runOnce(cfg *config.Config, wallet, chain string, withTrades bool) int {
	// stdout carries the JSON result
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}
	analyzer, err := di.InitializeAnalyzer(cfg)
	if err != nil {
		log.Printf("analyzer initialization failed: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.RunTimeout)
	defer cancel()

	result, err := analyzer.Analyze(ctx, models.AnalyzeRequest{Wallet: wallet, Chain: chain}, nil)
	if err != nil {
		log.Printf("analysis failed: %v", err)
		return 1
	}

	var out interface{} = result.Summary
	if withTrades {
		out = result
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Printf("encode summary: %v", err)
		return 1
	}
	return 0
}
