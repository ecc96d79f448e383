package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Veraticus/pfm-classifier/internal/bundle"
	"github.com/Veraticus/pfm-classifier/internal/cli"
	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/Veraticus/pfm-classifier/internal/storage"
	"github.com/Veraticus/pfm-classifier/internal/training"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train and evaluate a classifier",
		Long: `Train a classifier, print its evaluation on a held-out split and save
the model bundle.

Training rows come from a fresh synthetic dataset unless --dataset-id or
--dataset-csv is given. Every run is recorded in the local database.

Examples:
  # Train on synthetic data with the default settings
  pfm train

  # Train the label-only naive Bayes model on a stored dataset
  pfm train --kind bayes --dataset-id 3f2a...

  # Train from CSV and publish the bundle to Cloud Storage
  pfm train --dataset-csv labelled.csv --publish gs://models/pfm/model.json`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindSynthesisFlags(cmd, args); err != nil {
				return err
			}
			return viper.BindPFlag("model.kind", cmd.Flags().Lookup("kind"))
		},
		RunE: runTrain,
	}

	addSynthesisFlags(cmd)
	cmd.Flags().String("kind", "", "model kind: logistic or bayes (default: logistic)")
	cmd.Flags().String("dataset-id", "", "train on a stored dataset")
	cmd.Flags().String("dataset-csv", "", "train on a labelled CSV file")
	cmd.Flags().String("publish", "", "upload the bundle to this gs:// URI after saving")
	cmd.Flags().Bool("no-store", false, "do not record the dataset or run in the database")
	cmd.Flags().Bool("json", false, "print the evaluation report as JSON")
	cmd.MarkFlagsMutuallyExclusive("dataset-id", "dataset-csv")

	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	noStore, _ := cmd.Flags().GetBool("no-store")
	asJSON, _ := cmd.Flags().GetBool("json")
	publish, _ := cmd.Flags().GetString("publish")

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	if config.IsRemotePath(rt.ModelPath) {
		return fmt.Errorf("model path must be local when training; use --publish to upload")
	}
	if publish != "" {
		if _, _, err := bundle.ParseGCSURI(publish); err != nil {
			return err
		}
	}

	var store *storage.SQLiteStorage
	if !noStore {
		store, err = initStorage(ctx, rt)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	reg := config.Default()
	rows, datasetID, err := trainingRows(ctx, cmd, reg, rt, store)
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Training interrupted")
	ctx, stop := handler.HandleInterrupts(ctx)
	defer stop()

	opts := training.Options{Kind: rt.ModelKind}
	var progress *cli.TrainingProgress
	if rt.ModelKind == config.ModelKindLogistic {
		progress = cli.NewTrainingProgress(cmd.ErrOrStderr(), reg.Model().MaxIter)
		opts.Progress = progress.Update
	}

	result, err := training.NewTrainer(reg).Run(ctx, rows, opts)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	if err := bundle.Save(rt.ModelPath, result.Model, result.Labels); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	common.LogInfo("Saved model", common.Fields{
		"path":     rt.ModelPath,
		"kind":     result.Kind,
		"accuracy": result.Report.Accuracy,
		"duration": result.Duration,
	})

	modelPath := rt.ModelPath
	if publish != "" {
		if err := publishBundle(ctx, rt, publish); err != nil {
			return err
		}
		modelPath = publish
	}

	if store != nil {
		if err := recordRun(ctx, store, result, datasetID, modelPath); err != nil {
			slog.Warn("Failed to record training run", "error", err)
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Report)
	}
	if !result.Split.Stratified {
		fmt.Fprintln(out, cli.FormatWarning("Some categories have too few rows to stratify; the split was shuffled instead"))
	}
	fmt.Fprintln(out, cli.FormatTitle("Held-out evaluation"))
	fmt.Fprintln(out, cli.RenderReport(result.Report))
	fmt.Fprintln(out, cli.RenderTrainingSummary(result, modelPath))
	return nil
}

// trainingRows loads rows from CSV, a stored dataset or fresh synthesis,
// storing synthesized and CSV rows as a new dataset when store is set.
func trainingRows(ctx context.Context, cmd *cobra.Command, reg *config.Registry, rt *config.Runtime, store *storage.SQLiteStorage) ([]model.RawTransaction, string, error) {
	datasetID, _ := cmd.Flags().GetString("dataset-id")
	csvPath, _ := cmd.Flags().GetString("dataset-csv")

	if datasetID != "" {
		if store == nil {
			return nil, "", fmt.Errorf("--dataset-id needs the database; drop --no-store")
		}
		rows, err := store.GetDatasetRows(ctx, datasetID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load dataset: %w", err)
		}
		slog.Info("Loaded stored dataset", "id", datasetID, "rows", len(rows))
		return rows, datasetID, nil
	}

	var (
		rows []model.RawTransaction
		meta storage.Dataset
		err  error
	)
	if csvPath != "" {
		rows, err = readCSVFile(csvPath)
		meta = storage.Dataset{Source: storage.SourceCSV, Name: filepath.Base(csvPath)}
	} else {
		rows, err = synthesize(cmd, reg, rt)
		seed := rt.Seed
		meta = storage.Dataset{Source: storage.SourceSynthetic, Seed: &seed}
	}
	if err != nil {
		return nil, "", err
	}

	if store == nil {
		return rows, "", nil
	}
	id, err := store.SaveDataset(ctx, meta, rows)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store dataset: %w", err)
	}
	slog.Info("Stored dataset", "id", id, "rows", len(rows), "source", meta.Source)
	return rows, id, nil
}

func publishBundle(ctx context.Context, rt *config.Runtime, uri string) error {
	gcs, err := bundle.NewGCS(ctx, rt.CredentialsFile)
	if err != nil {
		return err
	}
	defer func() { _ = gcs.Close() }()

	if err := gcs.Upload(ctx, rt.ModelPath, uri); err != nil {
		return fmt.Errorf("failed to publish model: %w", err)
	}
	slog.Info("Published model", "uri", uri)
	return nil
}

func recordRun(ctx context.Context, store *storage.SQLiteStorage, res *training.Result, datasetID, modelPath string) error {
	report, err := json.Marshal(res.Report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if abs, err := filepath.Abs(modelPath); err == nil && !config.IsRemotePath(modelPath) {
		modelPath = abs
	}
	return store.SaveTrainingRun(ctx, &storage.TrainingRun{
		DatasetID:  datasetID,
		ModelKind:  res.Kind,
		ModelPath:  modelPath,
		Accuracy:   res.Report.Accuracy,
		MacroF1:    res.Report.MacroAvg.F1,
		TrainRows:  res.TrainRows,
		TestRows:   res.TestRows,
		Stratified: res.Split.Stratified,
		Duration:   res.Duration,
		Report:     report,
	})
}
