package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"call-analyzer-go/internal/dataset"
)

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all stored results to an Excel file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := dataset.NewCSVStore(cfg.CSVFile).ReadAll()
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := dataset.ExportXLSX(records, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d results to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "call_analysis.xlsx", "output file")
	return cmd
}
