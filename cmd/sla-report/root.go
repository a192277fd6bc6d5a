package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/billtrust/sla-monitor-report-lambda/internal/app"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/config"
	"github.com/billtrust/sla-monitor-report-lambda/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "sla-report",
	Short: "SLA report engine",
	Long: `Local tooling for the SLA report engine.
Serves the report API, generates sample test result events and replays them through the same
pipeline the Lambda function runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return applyFlagOverrides(cmd.Root().PersistentFlags())
	},
}

// flagEnv maps global flags onto the environment variables read by config.Load
var flagEnv = map[string]string{
	"environment":    "ENVIRONMENT",
	"log-level":      "LOG_LEVEL",
	"metric-source":  "METRIC_SOURCE",
	"report-storage": "REPORT_STORAGE",
	"reports-dir":    "REPORTS_DIR",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("environment", "", "Environment name (overrides ENVIRONMENT)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("metric-source", "", "Metric source: cloudwatch or postgres (overrides METRIC_SOURCE)")
	rootCmd.PersistentFlags().String("report-storage", "", "Report storage: s3 or filesystem (overrides REPORT_STORAGE)")
	rootCmd.PersistentFlags().String("reports-dir", "", "Directory for filesystem storage (overrides REPORTS_DIR)")

	for flag, env := range flagEnv {
		_ = viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag))
		_ = viper.BindEnv(flag, env)
	}
}

// applyFlagOverrides exports explicitly set flags so config.Load sees them
func applyFlagOverrides(flags *pflag.FlagSet) error {
	for flag, env := range flagEnv {
		if !flags.Changed(flag) {
			continue
		}
		if err := os.Setenv(env, viper.GetString(flag)); err != nil {
			return fmt.Errorf("failed to apply --%s: %w", flag, err)
		}
	}
	return nil
}

// loadApp загружает конфигурацию и собирает приложение
func loadApp(ctx context.Context, opts ...app.Option) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.LogLevel)
	application, err := app.New(ctx, cfg, log, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize report engine: %w", err)
	}
	return application, nil
}
