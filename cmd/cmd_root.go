// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	config     *Config
)

var rootCmd = &cobra.Command{
	Use:   "podsudnost",
	Short: "определение подсудности по адресу должника",
	Long: `
podsudnost определяет суд Ростовской области, к подсудности которого
относится дело, по адресу должника и сумме задолженности: мировой судебный
участок для сумм до 50 000 рублей, районный суд для больших сумм.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := setupLogging(logLevel); err != nil {
			return err
		}

		cfg, err := LoadConfig(configPath, os.Getenv)
		if err != nil {
			return err
		}

		config = cfg

		return nil
	},
}

// setupLogging configures the global logger: a console writer when stderr
// is a terminal, JSON lines otherwise.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	zerolog.SetGlobalLevel(lvl)

	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	return nil
}

var Version = "dev"

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
