package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/rulings-harvester/internal/config"
	"github.com/Sternrassler/rulings-harvester/pkg/client"
	"github.com/Sternrassler/rulings-harvester/pkg/logging"
	"github.com/Sternrassler/rulings-harvester/pkg/metrics"
	"github.com/Sternrassler/rulings-harvester/pkg/output"
	"github.com/Sternrassler/rulings-harvester/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// metricsExportTimeout bounds the Pushgateway push after a run.
const metricsExportTimeout = 10 * time.Second

// NewRootCmd creates the rulings-harvest command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rulings-harvest",
		Short: "Harvest CBP customs rulings into a CSV file",
		Long: `rulings-harvest pages through the CBP rulings search API with a pool of
concurrent workers and writes every ruling as one CSV row.

Pages are requested from 1 up to the page ceiling. The first page that comes
back empty, fails, or cannot be decoded stops further requests; pages already
in flight still contribute their rows.

Settings are applied in this order: defaults, --config file, RULINGS_*
environment variables (a .env file is loaded if present), flags.

Examples:
  # Full harvest with defaults
  rulings-harvest

  # First 50 pages with 5 workers into a custom file
  rulings-harvest --pages 50 --workers 5 --output data/rulings.csv

  # Push run metrics to a Pushgateway
  rulings-harvest --pushgateway http://localhost:9091

Configuration file example:
  url: "https://rulings.cbp.gov/api/search?term=a*&pageSize={pageSize}&page={page}&format=json"
  workers: 15
  page_ceiling: 2162
  timeout: 30s
  output: cbp_rulings_data.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRootCmd,
	}

	cmd.Flags().StringP("config", "c", "", "YAML configuration file")
	cmd.Flags().StringP("url", "u", config.DefaultURLTemplate,
		"Search URL template with {page} and optional {pageSize} placeholders")
	cmd.Flags().IntP("pages", "p", config.DefaultPageCeiling, "Highest page number to request")
	cmd.Flags().Int("page-size", config.DefaultPageSize, "Rulings per page, substituted for {pageSize}")
	cmd.Flags().IntP("workers", "w", config.DefaultMaxConcurrency, "Number of concurrent page workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each page request")
	cmd.Flags().StringP("output", "o", config.DefaultOutputPath, "CSV output file path")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header sent with requests")
	cmd.Flags().String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("pretty", false, "Human-readable console logs instead of JSON")
	cmd.Flags().String("pushgateway", "", "Prometheus Pushgateway URL to push run metrics to")
	cmd.Flags().String("metrics-file", "", "Write run metrics in text format to this file")

	return cmd
}

// runRootCmd executes the harvest command.
func runRootCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.Pretty,
		Output: cmd.ErrOrStderr(),
	})

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn().Msg("Received shutdown signal, stopping harvest")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runHarvest(ctx, cfg, logger)
}

// buildConfig layers defaults, config file, environment and explicitly set flags.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv()

	if flags.Changed("url") {
		if cfg.URLTemplate, err = flags.GetString("url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("pages") {
		if cfg.PageCeiling, err = flags.GetInt("pages"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("page-size") {
		if cfg.PageSize, err = flags.GetInt("page-size"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.MaxConcurrency, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputPath, err = flags.GetString("output"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("log-level") {
		if cfg.LogLevel, err = flags.GetString("log-level"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("pretty") {
		if cfg.Pretty, err = flags.GetBool("pretty"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("pushgateway") {
		if cfg.PushgatewayURL, err = flags.GetString("pushgateway"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("metrics-file") {
		if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// runHarvest fetches all pages and writes the CSV file.
// An interrupted run still writes the rows collected so far and then
// returns the interruption error.
func runHarvest(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	start := time.Now()

	httpClient, err := client.New(client.Config{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	harvester := pagination.NewHarvester(httpClient, cfg.URLTemplate, pagination.Config{
		MaxConcurrency: cfg.MaxConcurrency,
		PageCeiling:    cfg.PageCeiling,
		PageSize:       cfg.PageSize,
		Timeout:        cfg.Timeout,
	})

	result, harvestErr := harvester.Harvest(ctx)
	defer exportMetrics(cfg, logger)

	if errors.Is(harvestErr, pagination.ErrNoDataCollected) {
		logger.Warn().
			Str("stop_reason", string(result.StopReason)).
			Dur("elapsed", time.Since(start)).
			Msg("No data collected, nothing written")
		return nil
	}

	if result != nil && result.RowCount() > 0 {
		if err := output.WriteFile(cfg.OutputPath, result.Records); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		logger.Info().
			Str("path", cfg.OutputPath).
			Int("rows", result.RowCount()).
			Msg("Data saved")
	}

	logger.Info().
		Dur("elapsed", time.Since(start)).
		Msg("Run finished")

	return harvestErr
}

// exportMetrics pushes or writes run metrics when configured.
// Failures are logged and never fail the run.
func exportMetrics(cfg *config.Config, logger zerolog.Logger) {
	if cfg.PushgatewayURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), metricsExportTimeout)
		defer cancel()

		if err := metrics.Push(ctx, cfg.PushgatewayURL, metrics.DefaultJob); err != nil {
			logger.Warn().Err(err).Msg("Metrics push failed")
		} else {
			logger.Debug().Str("url", cfg.PushgatewayURL).Msg("Metrics pushed")
		}
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn().Err(err).Msg("Metrics textfile export failed")
		}
	}
}
