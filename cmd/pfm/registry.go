package main

import (
	"fmt"

	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func registryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "Print the category registry as YAML",
		Long: `Print the categories, vocabulary, amount ranges, time settings and model
hyperparameters the generator and trainer use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(config.Default().Snapshot()); err != nil {
				return fmt.Errorf("failed to encode registry: %w", err)
			}
			return enc.Close()
		},
	}
}
