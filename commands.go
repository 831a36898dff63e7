package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"sjsage522/couponradar/config"
	"sjsage522/couponradar/internal/crawler"
	"sjsage522/couponradar/internal/report"
	"sjsage522/couponradar/internal/server"
	"sjsage522/couponradar/logger"
	"sjsage522/couponradar/services/publisher"
	"sjsage522/couponradar/services/worker"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

// =============================================================================
// RUN COMMAND
// =============================================================================

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the pipeline once and print the qualifying deals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "category",
				Aliases: []string{"c"},
				Usage:   "Listing category (see the categories command)",
			},
			&cli.IntFlag{
				Name:    "max-items",
				Aliases: []string{"n"},
				Usage:   "Maximum number of products to check",
			},
			&cli.Float64Flag{
				Name:  "min-discount",
				Usage: "Minimum discount rate in percent, inclusive",
			},
			&cli.BoolFlag{
				Name:  "loose",
				Usage: "Accept any coupon mention, not only quantified coupons",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Print the outcome of every visited product",
			},
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Also write the results to this CSV file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			category := cfg.DefaultCategory
			if c.IsSet("category") {
				category = c.String("category")
			}
			params, err := crawler.DefaultRunParams(cfg, category)
			if err != nil {
				return err
			}
			if err := applyRunFlags(c, cfg, &params); err != nil {
				return err
			}

			ctx, cancel := signalContext(c.Context)
			defer cancel()

			services := initializeServices(cfg)
			return runDeals(ctx, services.Pipeline, params, c.App.Writer, c.String("csv"))
		},
	}
}

// applyRunFlags overrides the configured run parameters with explicit flags
func applyRunFlags(c *cli.Context, cfg *config.Config, params *crawler.RunParams) error {
	if c.IsSet("max-items") {
		n := c.Int("max-items")
		if n < 1 || n > cfg.MaxItemsLimit {
			return fmt.Errorf("--max-items must be between 1 and %d", cfg.MaxItemsLimit)
		}
		params.MaxItems = n
	}
	if c.IsSet("min-discount") {
		rate := c.Float64("min-discount")
		if rate < 0 || rate > 100 {
			return fmt.Errorf("--min-discount must be between 0 and 100")
		}
		params.MinDiscountRate = decimal.NewFromFloat(rate)
	}
	if c.IsSet("loose") {
		params.Loose = c.Bool("loose")
	}
	if c.IsSet("debug") {
		params.Debug = c.Bool("debug")
	}
	return nil
}

// runDeals runs the pipeline once, prints the table and optionally writes the CSV
func runDeals(ctx context.Context, runner crawler.Runner, params crawler.RunParams, out io.Writer, csvPath string) error {
	result, err := runner.Run(ctx, params)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if result == nil {
		return err
	}

	if params.Debug {
		for _, v := range result.Visits {
			fmt.Fprintf(out, "[debug] %-15s %6s  %s\n", v.Outcome, report.FormatRate(v.DiscountRate), v.URL)
		}
	}

	switch {
	case result.Candidates == 0:
		fmt.Fprintln(out, "No candidates found.")
	case len(result.Deals) == 0:
		fmt.Fprintf(out, "Checked %d of %d products, no qualifying deals found.\n", result.Checked, result.Candidates)
	default:
		fmt.Fprintf(out, "Checked %d of %d products, %d qualifying deals.\n\n", result.Checked, result.Candidates, len(result.Deals))
		if werr := report.WriteTable(out, result.Deals); werr != nil {
			return werr
		}
	}

	if csvPath != "" {
		if werr := writeCSVFile(csvPath, result.Deals); werr != nil {
			return werr
		}
		fmt.Fprintf(out, "\nWrote %s\n", csvPath)
	}

	return err
}

func writeCSVFile(path string, deals []crawler.EvaluatedDeal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.WriteCSV(f, deals); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the dashboard API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on (defaults to SERVER_PORT)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.ServerPort = c.String("port")
			}

			ctx, cancel := signalContext(c.Context)
			defer cancel()

			services := initializeServices(cfg)
			router := server.SetupRouter(cfg, server.NewHandler(cfg, services.Pipeline).WithMetrics(services.Metrics))

			srv := &http.Server{
				Addr:              ":" + cfg.ServerPort,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverDone := make(chan error, 1)
			go func() {
				logger.Default.Info().
					Str("port", cfg.ServerPort).
					Str("environment", cfg.Environment).
					Msg("Starting dashboard API")
				serverDone <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverDone:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Default.Info().Msg("Shutting down gracefully...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// =============================================================================
// WATCH COMMAND
// =============================================================================

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run the pipeline on an interval and publish deals to Redis streams",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			targets, err := watchTargets(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(c.Context)
			defer cancel()

			services := initializeServices(cfg)

			redisPublisher := publisher.NewRedisPublisher(
				cfg.RedisAddr,
				cfg.RedisDB,
				cfg.RedisStream,
				cfg.RedisStreamCount,
				cfg.RedisStreamMaxLength,
			)
			defer redisPublisher.Close()

			if err := redisPublisher.Ping(ctx); err != nil {
				return err
			}
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
				cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

			w := worker.NewWorker(services.Pipeline, targets, redisPublisher, cfg.WatchInterval).
				WithMetrics(services.Metrics)

			logger.Default.Info().
				Int("targets", len(targets)).
				Dur("interval", cfg.WatchInterval).
				Msg("Starting coupon watch worker")

			return w.Start(ctx)
		},
	}
}

// watchTargets builds one worker target per configured category
func watchTargets(cfg *config.Config) ([]worker.Target, error) {
	var targets []worker.Target
	for _, category := range cfg.WatchCategories {
		params, err := crawler.DefaultRunParams(cfg, category)
		if err != nil {
			return nil, err
		}
		targets = append(targets, worker.Target{Category: category, Params: params})
	}
	if len(targets) == 0 {
		return nil, errors.New("WATCH_CATEGORIES is empty")
	}
	return targets, nil
}
