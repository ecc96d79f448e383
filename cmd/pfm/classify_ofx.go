package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/pfm-classifier/internal/cli"
	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/model"
	"github.com/Veraticus/pfm-classifier/internal/ofx"
	"github.com/spf13/cobra"
)

type classifiedTransaction struct {
	model.PredictionResult
	Transaction model.RawTransaction `json:"transaction"`
}

func classifyOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify-ofx [files...]",
		Short: "Classify transactions from OFX/QFX files",
		Long: `Parse OFX or QFX statements exported from your bank and classify every
transaction with the loaded model.

Examples:
  pfm classify-ofx ~/Downloads/statement.qfx
  pfm classify-ofx ~/Downloads/*.ofx --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassifyOFX,
	}

	cmd.Flags().IntP("topk", "k", config.DefaultTopK, "how many top categories to keep per transaction")
	cmd.Flags().Bool("json", false, "print one JSON object per transaction")

	return cmd
}

func runClassifyOFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	topK, _ := cmd.Flags().GetInt("topk")
	asJSON, _ := cmd.Flags().GetBool("json")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	svc := newService(rt)
	if err := svc.Load(ctx); err != nil {
		return err
	}

	parser := ofx.NewParser()
	var txns []model.RawTransaction
	for _, path := range files {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			common.LogError(err, "Failed to open file", common.Fields{"file": path})
			continue
		}
		parsed, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			common.LogError(err, "Failed to parse OFX file", common.Fields{"file": path})
			continue
		}
		if len(parsed) == 0 {
			slog.Warn("No transactions found in file", "file", filepath.Base(path))
			continue
		}
		txns = append(txns, parsed...)
	}
	if len(txns) == 0 {
		return fmt.Errorf("no transactions to classify")
	}

	results, err := svc.PredictBatch(ctx, txns, topK)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		for i, res := range results {
			if err := enc.Encode(classifiedTransaction{Transaction: txns[i], PredictionResult: res}); err != nil {
				return err
			}
		}
		return nil
	}

	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Classified %d transactions from %d files", len(txns), len(files))))
	fmt.Fprintln(out, cli.RenderPredictions(txns, results))
	return nil
}
