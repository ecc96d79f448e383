package main

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/pfm-classifier/internal/cli"
	"github.com/spf13/cobra"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded training runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), rt)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.ListTrainingRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No training runs yet. Run: pfm train"))
				return nil
			}
			fmt.Fprintln(out, cli.RenderRuns(runs))
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "maximum number of runs to show (0 for all)")
	cmd.Flags().Bool("json", false, "print runs as JSON")

	return cmd
}

func datasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage stored datasets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), rt)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sets, err := store.ListDatasets(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No datasets stored. Run: pfm generate --store"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderDatasets(sets))
			return nil
		},
	}
	list.Flags().IntP("limit", "n", 20, "maximum number of datasets to show (0 for all)")

	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a stored dataset as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), rt)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rows, err := store.GetDatasetRows(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeCSVFile(cmd, output, rows)
		},
	}
	export.Flags().StringP("output", "o", "-", "CSV file to write (- for stdout)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			store, err := initStorage(cmd.Context(), rt)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteDataset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted dataset "+args[0]))
			return nil
		},
	}

	cmd.AddCommand(list, export, del)
	return cmd
}
