package main

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/Veraticus/pfm-classifier/internal/inference"
	"github.com/spf13/cobra"
)

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the category of one transaction",
		Long: `Load the model bundle and print the prediction for a single transaction
as JSON. Probabilistic models print {input, top1, topk}; label-only models
print {input, prediction}.

Examples:
  pfm predict -m "Pret A Manger" -d "flat white" -a -3.4 -t 2025-08-21T08:15:00
  pfm predict -p gs://models/pfm/model.json -m Uber -d "ride home" -a -14 -k 5`,
		Args: cobra.NoArgs,
		RunE: runPredict,
	}

	cmd.Flags().StringP("merchant", "m", "Tesco", "merchant name")
	cmd.Flags().StringP("description", "d", "groceries", "transaction description")
	cmd.Flags().Float64P("amount", "a", 43.0, "transaction amount")
	cmd.Flags().StringP("time", "t", config.DefaultTimestamp, "ISO-8601 timestamp")
	cmd.Flags().IntP("topk", "k", config.DefaultTopK, "how many top categories to show")

	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	merchant, _ := cmd.Flags().GetString("merchant")
	description, _ := cmd.Flags().GetString("description")
	amount, _ := cmd.Flags().GetFloat64("amount")
	timestamp, _ := cmd.Flags().GetString("time")
	topK, _ := cmd.Flags().GetInt("topk")

	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	svc := newService(rt)
	if err := svc.Load(cmd.Context()); err != nil {
		return err
	}

	resp, err := svc.Predict(cmd.Context(), inference.Request{
		Merchant:    merchant,
		Description: description,
		Amount:      &amount,
		Timestamp:   timestamp,
		TopK:        &topK,
	})
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
