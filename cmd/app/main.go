package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"StockScan/internal/di"
	"StockScan/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	cronSpec := flag.String("cron", "", "cron expression for scheduled scans; empty runs one scan and exits")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	application, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx, *cronSpec); err != nil && ctx.Err() == nil {
		log.Fatalf("run: %v", err)
	}
}
