package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"call-analyzer-go/internal/dataset"
	"call-analyzer-go/internal/logger"
	"call-analyzer-go/internal/processor"
	"call-analyzer-go/internal/types"
)

func analyzeCmd() *cobra.Command {
	var noSave bool
	cmd := &cobra.Command{
		Use:   "analyze [transcript | -]",
		Short: "Analyze one transcript and print the result as JSON",
		Long: `Analyze one transcript. Pass the text as arguments, or "-" (or nothing)
to read it from standard input. The result is appended to the CSV file
unless --no-save is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTranscript(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			log := logger.New()
			d := processor.NewDispatcher(newAnalyzer(log))
			res := d.Process(cmd.Context(), text)

			var saveErr error
			if !noSave {
				store := dataset.NewCSVStore(cfg.CSVFile)
				saveErr = store.Append(types.ResultRecord{
					AnalysisResult: res,
					Transcript:     text,
					Timestamp:      time.Now(),
				})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if saveErr != nil {
				return fmt.Errorf("result not saved: %w", saveErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not append the result to the CSV file")
	return cmd
}

func readTranscript(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return types.NormalizeNewlines(strings.TrimSpace(strings.Join(args, " "))), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return types.NormalizeNewlines(strings.TrimSpace(string(b))), nil
}
