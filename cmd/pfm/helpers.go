package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/pfm-classifier/internal/bundle"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/inference"
	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/Veraticus/pfm-classifier/internal/storage"
	"github.com/Veraticus/pfm-classifier/internal/synth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// loadRuntime reads the validated runtime settings from viper.
func loadRuntime() (*config.Runtime, error) {
	rt, err := config.LoadRuntime(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return rt, nil
}

// initStorage opens the database and runs migrations.
func initStorage(ctx context.Context, rt *config.Runtime) (*storage.SQLiteStorage, error) {
	store, err := storage.Open(ctx, rt.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", rt.DatabasePath, err)
	}
	return store, nil
}

// newService builds an inference service for the configured model. The
// model is not loaded yet.
func newService(rt *config.Runtime) *inference.Service {
	return inference.NewService(bundle.Source{CredentialsFile: rt.CredentialsFile}, inference.Options{
		ModelPath:   rt.ModelPath,
		DefaultTopK: rt.DefaultTopK,
		MaxTopK:     rt.MaxTopK,
	})
}

// addSynthesisFlags registers the synthetic dataset flags. They are bound
// to viper in bindSynthesisFlags, once the command is known to run.
func addSynthesisFlags(cmd *cobra.Command) {
	cmd.Flags().Int("per-category", 0, "rows per category (default: 60)")
	cmd.Flags().StringSlice("override", nil, "per-category row count, e.g. Other=50 (repeatable)")
	cmd.Flags().Int64("seed", 0, "random seed (default: 42)")
}

func bindSynthesisFlags(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlag("training.per_category", cmd.Flags().Lookup("per-category")); err != nil {
		return err
	}
	return viper.BindPFlag("training.seed", cmd.Flags().Lookup("seed"))
}

// synthesize generates the synthetic dataset described by rt and any
// --override flags.
func synthesize(cmd *cobra.Command, reg *config.Registry, rt *config.Runtime) ([]model.RawTransaction, error) {
	overrides := make(map[string]int, len(rt.Overrides))
	for k, v := range rt.Overrides {
		overrides[k] = v
	}
	flagOverrides, _ := cmd.Flags().GetStringSlice("override")
	for _, raw := range flagOverrides {
		name, n, err := config.ParseOverride(raw)
		if err != nil {
			return nil, err
		}
		overrides[name] = n
	}

	resolved, err := reg.ResolveOverrides(overrides)
	if err != nil {
		return nil, err
	}

	rows, err := synth.NewGenerator(reg, rt.Seed).SynthesizeDataset(synth.DatasetOptions{
		PerCategory: rt.PerCategory,
		Overrides:   resolved,
		Seed:        rt.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize dataset: %w", err)
	}
	slog.Info("Synthesized dataset", "rows", len(rows), "seed", rt.Seed, "per_category", rt.PerCategory)
	return rows, nil
}

// readCSVFile reads transactions from a CSV file.
func readCSVFile(path string) ([]model.RawTransaction, error) {
	f, err := os.Open(filepath.Clean(config.ExpandPath(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := storage.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// writeCSVFile writes transactions to path, or stdout when path is "-".
func writeCSVFile(cmd *cobra.Command, path string, rows []model.RawTransaction) error {
	if path == "-" {
		return storage.WriteCSV(cmd.OutOrStdout(), rows)
	}

	path = config.ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := storage.WriteCSV(f, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// expandFiles expands glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found")
	}
	return files, nil
}
