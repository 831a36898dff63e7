package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/couponradar/config"
	"sjsage522/couponradar/internal/crawler"
	"sjsage522/couponradar/internal/metrics"
	"sjsage522/couponradar/logger"
	"sjsage522/couponradar/services/cache"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	app := &cli.App{
		Name:    "couponradar",
		Usage:   "Find marketplace products whose coupon pushes the discount past a threshold",
		Version: version,
		Commands: []*cli.Command{
			runCommand(),
			serveCommand(),
			watchCommand(),
			categoriesCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Services holds all the initialized services
type Services struct {
	Cache    cache.CacheService
	Metrics  *metrics.Metrics
	Fetcher  *crawler.Fetcher
	Pipeline *crawler.Pipeline
}

// initializeServices initializes the services every command shares
func initializeServices(cfg *config.Config) *Services {
	cacheService := cache.New(cfg.MemcacheAddr)
	m := metrics.New()
	fetcher := crawler.CreateFetcher(cfg, cacheService).WithMetrics(m)

	return &Services{
		Cache:    cacheService,
		Metrics:  m,
		Fetcher:  fetcher,
		Pipeline: crawler.CreatePipeline(cfg, fetcher).WithMetrics(m),
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Received shutdown signal: %s", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func categoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List the known listing categories",
		Action: func(c *cli.Context) error {
			for _, name := range crawler.Categories() {
				fmt.Fprintln(c.App.Writer, name)
			}
			return nil
		},
	}
}
