// Copyright 2025 The Podsudnost Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/podsudnost/podsudnost/courts"
	"github.com/podsudnost/podsudnost/sudrf"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build and maintain the court dataset",
}

// Each command binds its own flags: pflag writes a flag's default into the
// variable when the flag is defined.
type datasetOptions struct {
	msOut        string
	fsOut        string
	efilingIn    string
	efilingOut   string
	seedIn       string
	seedDatabase string
	workers      int
}

var datasetOpts = datasetOptions{}

func readRecordsFile(path string) ([]courts.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := courts.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return records, nil
}

// writeRecordsFile replaces path with the records, going through a
// temporary file in the same directory.
func writeRecordsFile(path string, records []courts.Record) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".courts-*.json")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if err = courts.WriteRecords(f, records); err != nil {
		return errors.Join(err, f.Close())
	}

	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(f.Name(), path)
}

func newBuilder(cmd *cobra.Command, description string) (*sudrf.Builder, func(), error) {
	g, closer, err := newGeocoder(cmd.Context(), config)
	if err != nil {
		return nil, nil, err
	}

	if g == nil {
		log.Warn().Msg("records will have no coordinates")
	}

	total, progress, finish := newProgress(description)

	b := sudrf.NewBuilder(newRegistryClient(config, 2), g, &sudrf.BuildOptions{
		Workers:  datasetOpts.workers,
		Progress: progress,
		Total:    total,
	})

	done := func() {
		finish()

		if closer != nil {
			_ = closer.Close()
		}
	}

	return b, done, nil
}

var datasetBuildMSCmd = &cobra.Command{
	Use:   "build-ms",
	Short: "Build the magistrate courts dataset from the registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		b, done, err := newBuilder(cmd, "Мировые суды")
		if err != nil {
			return err
		}
		defer done()

		records, err := b.BuildLocal(cmd.Context())
		if err != nil {
			return err
		}

		if err := writeRecordsFile(datasetOpts.msOut, records); err != nil {
			return err
		}

		log.Info().Int("courts", len(records)).Str("out", datasetOpts.msOut).Msg("magistrate courts written")

		return nil
	},
}

var datasetBuildFSCmd = &cobra.Command{
	Use:   "build-fs",
	Short: "Add the district courts of the registry to a dataset",
	Long: `Lists the federal courts of the region and appends those whose name is not
already in the output file. Existing records are kept untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		existing, err := readRecordsFile(datasetOpts.fsOut)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		b, done, err := newBuilder(cmd, "Районные суды")
		if err != nil {
			return err
		}
		defer done()

		fresh, err := b.BuildDistrict(cmd.Context())
		if err != nil {
			return err
		}

		merged, added := sudrf.MergeByName(existing, fresh)

		if err := writeRecordsFile(datasetOpts.fsOut, merged); err != nil {
			return err
		}

		log.Info().
			Int("added", added).
			Int("courts", len(merged)).
			Str("out", datasetOpts.fsOut).
			Msg("district courts merged")

		return nil
	},
}

var datasetEfilingCmd = &cobra.Command{
	Use:   "efiling",
	Short: "Check which courts accept electronic filings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := datasetOpts.efilingIn
		if in == "" {
			in = config.Dataset
		}

		out := datasetOpts.efilingOut
		if out == "" {
			out = in
		}

		records, err := readRecordsFile(in)
		if err != nil {
			return err
		}

		client := sudrf.NewClient(&sudrf.ClientOptions{
			Timeout:           20 * time.Second,
			RequestsPerSecond: 1,
			Retries:           3,
		})

		total, progress, finish := newProgress("Электронная подача")
		if total != nil {
			total(len(records))
		}

		updated := client.UpdateElectronicFiling(cmd.Context(), records, progress)

		finish()

		if err := cmd.Context().Err(); err != nil {
			return err
		}

		var yes, no, unknown int

		for _, r := range updated {
			switch r.ElectronicFiling {
			case courts.FilingYes:
				yes++
			case courts.FilingNo:
				no++
			default:
				unknown++
			}
		}

		if err := writeRecordsFile(out, updated); err != nil {
			return err
		}

		log.Info().Int("yes", yes).Int("no", no).Int("unknown", unknown).Str("out", out).Msg("electronic filing updated")

		return nil
	},
}

var datasetSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a dataset into the DuckDB court store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		in := datasetOpts.seedIn
		if in == "" {
			in = config.Dataset
		}

		database := datasetOpts.seedDatabase
		if database == "" {
			database = config.Database
		}

		if database == "" {
			return errors.New("no database configured, use --database")
		}

		records, err := readRecordsFile(in)
		if err != nil {
			return err
		}

		// validates the records the same way serving does
		if _, err := courts.NewDataset(records); err != nil {
			return err
		}

		if dir := filepath.Dir(database); dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("creating db directory: %w", err)
			}
		}

		repo, db, err := openRepository(database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := repo.ReplaceAll(cmd.Context(), records); err != nil {
			return err
		}

		log.Info().Int("courts", len(records)).Str("database", database).Msg("court store seeded")

		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{datasetBuildMSCmd, datasetBuildFSCmd} {
		c.Flags().IntVar(&datasetOpts.workers, "workers", 4, "courts processed concurrently")
	}

	datasetBuildMSCmd.Flags().StringVar(&datasetOpts.msOut, "out", "data/courts_rostov.json", "output file")
	datasetBuildFSCmd.Flags().StringVar(&datasetOpts.fsOut, "out", "data/courts_rostov.json", "dataset to merge into")
	datasetEfilingCmd.Flags().StringVar(&datasetOpts.efilingIn, "in", "", "dataset to check (default from config)")
	datasetEfilingCmd.Flags().StringVar(&datasetOpts.efilingOut, "out", "", "output file (default: overwrite the input)")
	datasetSeedCmd.Flags().StringVar(&datasetOpts.seedIn, "in", "", "dataset to load (default from config)")
	datasetSeedCmd.Flags().StringVar(&datasetOpts.seedDatabase, "database", "", "DuckDB file (default from config)")

	datasetCmd.AddCommand(datasetBuildMSCmd, datasetBuildFSCmd, datasetEfilingCmd, datasetSeedCmd)
	rootCmd.AddCommand(datasetCmd)
}
