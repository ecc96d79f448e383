package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/pfm-classifier/internal/cli"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/storage"
	"github.com/spf13/cobra"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Synthesize a labelled dataset",
		Long: `Generate synthetic labelled transactions from the category registry.

The same seed and counts always produce the same rows. Rows are written as
CSV (date,merchant,description,amount,label) and/or stored in the database.

Examples:
  pfm generate -o dataset.csv
  pfm generate --store --per-category 200 --override Other=100 --seed 7
  pfm generate -o - | head`,
		Args:    cobra.NoArgs,
		PreRunE: bindSynthesisFlags,
		RunE:    runGenerate,
	}

	addSynthesisFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "write CSV to this file (- for stdout)")
	cmd.Flags().Bool("store", false, "store the dataset in the database")

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	output, _ := cmd.Flags().GetString("output")
	store, _ := cmd.Flags().GetBool("store")
	if output == "" && !store {
		return fmt.Errorf("nothing to do: pass --output and/or --store")
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	rows, err := synthesize(cmd, config.Default(), rt)
	if err != nil {
		return err
	}

	if output != "" {
		if err := writeCSVFile(cmd, output, rows); err != nil {
			return err
		}
		if output != "-" {
			slog.Info("Wrote dataset", "path", output, "rows", len(rows))
		}
	}

	if store {
		db, err := initStorage(cmd.Context(), rt)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		seed := rt.Seed
		id, err := db.SaveDataset(cmd.Context(), storage.Dataset{Source: storage.SourceSynthetic, Seed: &seed}, rows)
		if err != nil {
			return fmt.Errorf("failed to store dataset: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Stored %d rows as dataset %s", len(rows), id)))
	}
	return nil
}
