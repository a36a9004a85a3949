package cmd

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dtrwidget/designassist/internal/config"
	"github.com/dtrwidget/designassist/internal/output"
	"github.com/dtrwidget/designassist/internal/server/handlers"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information. Secrets are never printed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), output.RenderSections(envSections(cfg)))
		return nil
	},
}

func envSections(cfg *config.Config) []output.Section {
	info := handlers.CurrentVersion()

	configPath := cfgFile
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}

	return []output.Section{
		{Title: "Application", Rows: []output.KeyValue{
			{Key: "Name", Value: info.App.Name},
			{Key: "Version", Value: info.App.Version},
			{Key: "Commit", Value: info.App.Commit},
			{Key: "Built", Value: info.App.BuildDate},
		}},
		{Title: "SSOT", Rows: []output.KeyValue{
			{Key: "Gofulmen", Value: info.Dependencies.Gofulmen},
			{Key: "Crucible", Value: info.Dependencies.Crucible},
		}},
		{Title: "Runtime", Rows: []output.KeyValue{
			{Key: "Go Version", Value: runtime.Version()},
			{Key: "Platform", Value: info.Runtime.Platform},
			{Key: "NumCPU", Value: strconv.Itoa(info.Runtime.NumCPU)},
		}},
		{Title: "Configuration", Rows: []output.KeyValue{
			{Key: "Config File", Value: configPath},
			{Key: "Listen", Value: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)},
			{Key: "Log Level", Value: cfg.Logging.Level},
			{Key: "Metrics", Value: metricsSummary(cfg)},
			{Key: "Prompts Dir", Value: valueOr(cfg.Prompts.Dir, "(embedded)")},
		}},
		{Title: "Upstream", Rows: []output.KeyValue{
			{Key: "API Key", Value: secretState(cfg.Upstream.APIKey)},
			{Key: "Base URL", Value: cfg.Upstream.BaseURL},
			{Key: "Model", Value: cfg.Upstream.Model},
			{Key: "Max Tokens", Value: strconv.Itoa(cfg.Upstream.MaxTokens)},
			{Key: "Timeout", Value: cfg.Upstream.Timeout.String()},
			{Key: "Max Concurrent", Value: strconv.FormatInt(cfg.Upstream.MaxConcurrent, 10)},
			{Key: "Max Retries", Value: strconv.FormatUint(cfg.Upstream.MaxRetries, 10)},
			{Key: "Breaker", Value: strconv.FormatBool(cfg.Upstream.Breaker.Enabled)},
		}},
		{Title: "Rate limit", Rows: []output.KeyValue{
			{Key: "Max Requests", Value: strconv.Itoa(cfg.RateLimit.MaxRequests)},
			{Key: "Window", Value: cfg.RateLimit.Window.String()},
			{Key: "Sweep Interval", Value: cfg.RateLimit.SweepInterval.String()},
		}},
		{Title: "CORS", Rows: []output.KeyValue{
			{Key: "Allowed Origins", Value: strings.Join(cfg.CORS.AllowedOrigins, ", ")},
			{Key: "Max Age", Value: strconv.Itoa(cfg.CORS.MaxAge)},
		}},
	}
}

func secretState(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "(set)"
}

func metricsSummary(cfg *config.Config) string {
	if !cfg.Metrics.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("enabled on :%d", cfg.Metrics.Port)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
