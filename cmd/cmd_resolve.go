// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/podsudnost/podsudnost/resolver"
	"github.com/spf13/cobra"
)

var resolveQuery resolver.Query

var resolveCmd = &cobra.Command{
	Use:   "resolve <address>",
	Short: "Resolve the court of an address in-process and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(cmd.Context(), config)
		if err != nil {
			return err
		}
		defer svc.Close()

		q := resolveQuery
		q.Address = args[0]

		res, err := svc.resolver.Resolve(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("resolving %q: %w", q.Address, err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(struct {
			Stage       string `json:"stage"`
			Synthesized bool   `json:"synthesized"`
			Court       any    `json:"court"`
		}{res.Stage.String(), res.Synthesized, res.Court})
	},
}

func init() {
	resolveCmd.Flags().Float64Var(&resolveQuery.DebtAmount, "debt", 0, "debt amount in rubles")
	resolveCmd.Flags().StringVar(&resolveQuery.CaseType, "case-type", "имущественный_спор", "case type")

	rootCmd.AddCommand(resolveCmd)
}
