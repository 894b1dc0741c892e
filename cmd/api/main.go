package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"call-analyzer-go/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
	rootCmd = &cobra.Command{
		Use:   "call-analyzer",
		Short: "Summarize customer call transcripts and label their sentiment",
		Long: `call-analyzer summarizes customer call transcripts with an AI service,
falls back to keyword sentiment when the service is unavailable, and keeps
every result in a CSV file for download.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentPreRunE = initConfig
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("csv-file", "", "results CSV file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(exportCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	v, err := config.New(cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(cmd.Root(), v); err != nil {
		return err
	}
	cfg, err = config.Load(v)
	if err != nil {
		return err
	}
	// the logger reads these from the environment
	_ = os.Setenv("LOG_LEVEL", cfg.LogLevel)
	_ = os.Setenv("ENVIRONMENT", cfg.Environment)
	return nil
}

func bindFlags(root *cobra.Command, v *viper.Viper) error {
	flags := root.PersistentFlags()
	for key, name := range map[string]string{"log_level": "log-level", "csv_file": "csv-file"} {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}
