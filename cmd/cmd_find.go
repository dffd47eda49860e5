// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/podsudnost/podsudnost/server"
	"github.com/podsudnost/podsudnost/utils/httputils"
	"github.com/spf13/cobra"
)

type findOptions struct {
	api        string
	debtAmount float64
	caseType   string
}

var findOpts = findOptions{}

var findCmd = &cobra.Command{
	Use:   "find <address>",
	Short: "Ask a running API for the court of an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := httputils.NewClient(httputils.ClientOptions{
			UserAgent: "podsudnost/" + Version,
			Timeout:   10 * time.Second,
		})

		court, err := findCourt(cmd.Context(), client, findOpts.api, server.CourtRequest{
			Address:    args[0],
			DebtAmount: &findOpts.debtAmount,
			CaseType:   findOpts.caseType,
		})
		if err != nil {
			return err
		}

		printCourt(os.Stdout, court, isatty.IsTerminal(os.Stdout.Fd()))

		return nil
	},
}

// findCourt posts the query to the find_court endpoint of api.
func findCourt(ctx context.Context, client *http.Client, api string, q server.CourtRequest) (*server.CourtResponse, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}

	target := strings.TrimRight(api, "/") + "/api/courts/find_court/"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacting %s: %w", api, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e server.ErrorResponse
		if json.Unmarshal(data, &e) == nil && e.Detail != "" {
			return nil, errors.New(e.Detail)
		}

		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var ret server.FindCourtResponse
	if err := json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &ret.Court, nil
}

// hyperlink renders an OSC 8 terminal link.
func hyperlink(url string) string {
	return "\x1b]8;;" + url + "\x1b\\" + url + "\x1b]8;;\x1b\\"
}

func printCourt(w io.Writer, c *server.CourtResponse, links bool) {
	field := func(label, value string) {
		if value == "" {
			value = "-"
		}

		fmt.Fprintf(w, "%-22s %s\n", label+":", value)
	}

	website := c.Website
	if links && website != "" {
		website = hyperlink(website)
	}

	field("Название", c.Name)
	field("Тип", c.Type)
	field("Адрес", c.Address)
	field("Телефон", c.Phone)
	field("Email", c.Email)
	field("Сайт", website)
	field("Электронная подача", c.ElectronicFiling)

	if c.Latitude != nil && c.Longitude != nil {
		field("Координаты", fmt.Sprintf("%.6f, %.6f", *c.Latitude, *c.Longitude))
	} else {
		field("Координаты", "")
	}
}

func init() {
	findCmd.Flags().StringVar(&findOpts.api, "api", "http://localhost:8000", "base URL of the API")
	findCmd.Flags().Float64Var(&findOpts.debtAmount, "debt", 0, "debt amount in rubles")
	findCmd.Flags().StringVar(&findOpts.caseType, "case-type", "имущественный_спор", "case type")

	rootCmd.AddCommand(findCmd)
}
