// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/podsudnost/podsudnost/metrics"
	"github.com/podsudnost/podsudnost/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the court jurisdiction API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		if flags.Changed("listen") {
			config.Listen, _ = flags.GetString("listen")
		}

		if flags.Changed("dataset") {
			config.Dataset, _ = flags.GetString("dataset")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, err := newService(ctx, config)
		if err != nil {
			return err
		}
		defer svc.Close()

		gin.SetMode(gin.ReleaseMode)

		srv := server.NewServer(svc.resolver, &server.Options{
			Version: Version,
			Metrics: metrics.NewRegistry(),
		})

		return srv.Run(ctx, config.Listen)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (default from config, :8000)")
	serveCmd.Flags().String("dataset", "", "court dataset JSON file")

	rootCmd.AddCommand(serveCmd)
}
