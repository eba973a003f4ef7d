package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/anujk/carrydash/api"
	"github.com/anujk/carrydash/internal/config"
	"github.com/anujk/carrydash/pkg/marketclock"
	"github.com/anujk/carrydash/pkg/nse"
	"github.com/anujk/carrydash/pkg/scanner"
)

var (
	cfgFile string
	logger  *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "carrydash",
		Short: "Cash-futures arbitrage scanner",
		Long:  `Scans NSE spot and stock-futures prices, computes the futures premium and annualized cost-of-carry, and serves a ranked dashboard feed`,
		Run:   runScanner,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runScanner(cmd *cobra.Command, args []string) {
	// Local overrides from .env, if present
	_ = godotenv.Load()

	// Initialize logger
	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level and format
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Exchange trading session
	session, err := marketclock.NewSession(cfg.Market.Timezone, cfg.Market.Open, cfg.Market.Close)
	if err != nil {
		logger.WithError(err).Fatal("Invalid market session configuration")
	}

	// NSE quote client
	client := nse.NewClient(nse.Config{
		BaseURL:        cfg.NSE.BaseURL,
		RequestTimeout: time.Duration(cfg.NSE.RequestTimeoutSeconds) * time.Second,
		RatePerSec:     cfg.NSE.RatePerSecond,
		RateBurst:      cfg.NSE.RateBurst,
		UserAgent:      cfg.NSE.UserAgent,
	}, logger)

	// Scanner and refresh scheduler
	scan := scanner.New(client, marketclock.System(), session, scanner.Config{
		MaxWorkers:         cfg.Scanner.MaxWorkers,
		FetchTimeout:       time.Duration(cfg.Scanner.FetchTimeoutSeconds) * time.Second,
		HighCarryThreshold: decimal.NewFromFloat(cfg.Scanner.HighCarryThresholdPct),
		ExpiryLayouts:      cfg.Scanner.ExpiryFormats,
	}, logger)

	scheduler := scanner.NewScheduler(scan, cfg.Scanner.Symbols, cfg.Scanner.RefreshSchedule, logger)

	// Start API server
	apiServer := api.NewServer(scan, scheduler, cfg.Scanner.Symbols, logger, fmt.Sprintf("%d", cfg.Server.Port))
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start API server")
		}
	}()

	// First scan plus periodic refresh
	if err := scheduler.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start scan scheduler")
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.WithField("symbols", len(cfg.Scanner.Symbols)).Info("Carry scanner is running. Press Ctrl+C to stop.")

	<-sigChan
	logger.Info("Received shutdown signal")

	// Graceful shutdown
	scheduler.Stop()
	cancel()

	logger.Info("Carry scanner stopped")
}
