// Package cmd implements the myrbox CLI.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"myrbox/config"
	"myrbox/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// Global flags
var (
	globalConfig      string
	globalScratchBase string
	globalLogDir      string
	globalTemplateDir string
	globalLog         string
	globalLogFormat   string
	globalDebug       bool
)

// rootCmd is the base command for myrbox.
var rootCmd = &cobra.Command{
	Use:   "myrbox",
	Short: "single-shot untrusted-code execution sandbox",
	Long: `myrbox compiles and runs one untrusted submission inside a chroot
jail bounded by seccomp filters, rlimits, capability dropping, and a
wall-clock watchdog, then captures its output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// LoadConfig resolves the effective operational configuration: the
// compiled-in defaults, the optional --config YAML file, and any
// path-specific flag overrides, in that order.
func LoadConfig() (config.Config, error) {
	cfg, err := config.Load(globalConfig)
	if err != nil {
		return config.Config{}, err
	}
	if globalScratchBase != "" {
		cfg.ScratchBase = globalScratchBase
	}
	if globalLogDir != "" {
		cfg.LogDir = globalLogDir
	}
	if globalTemplateDir != "" {
		cfg.TemplateDir = globalTemplateDir
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalConfig, "config", "", "path to a YAML operational config file")
	rootCmd.PersistentFlags().StringVar(&globalScratchBase, "scratch-base", "", "override the scratch directory base path")
	rootCmd.PersistentFlags().StringVar(&globalLogDir, "log-dir", "", "override the submission log directory")
	rootCmd.PersistentFlags().StringVar(&globalTemplateDir, "template-dir", "", "override the build-jail template directory")
	rootCmd.PersistentFlags().StringVar(&globalLog, "log", "", "set the log file path")
	rootCmd.PersistentFlags().StringVar(&globalLogFormat, "log-format", "text", "set the format for log output (text or json)")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")
}

func setupLogging() {
	var logOutput = os.Stderr
	if globalLog != "" {
		f, err := os.OpenFile(globalLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			logOutput = f
		}
	}

	logLevel := slog.LevelInfo
	if globalDebug {
		logLevel = slog.LevelDebug
	}

	if globalLogFormat == "json" || globalLog != "" {
		logger := logging.NewLogger(logging.Config{
			Level:  logLevel,
			Format: globalLogFormat,
			Output: logOutput,
		})
		logging.SetDefault(logger)
	}
}
