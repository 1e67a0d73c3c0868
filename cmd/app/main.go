package main

import (
	"flag"
	"log"
	"os"

	"SweepSim/internal/di"
	"SweepSim/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "", "override run mode (replay or live)")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}

	log.Printf("env=%s mode=%s", cfg.Environment, cfg.Mode)

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
