package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go-pivot-table/internal/config"
	"go-pivot-table/internal/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "pivot",
	Short: "Pivot table reports - reshape flat rows into grouped, cross-tabulated tables",
	Long: `pivot groups flat records by row fields, spreads column field values into
columns and aggregates value fields per cell, with optional subtotals and
totals.

Run it as an HTTP service, or run report specs directly from the shell.

Examples:
  # Serve the REST API on :8080
  pivot serve

  # Run one report spec and print the pivot as CSV
  pivot run sales.yaml --format csv

  # List the fields of a data file
  pivot fields data/sales.csv`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd != serveCmd {
			// stdout carries the command's output
			pipeline.SetProgressOutput(cmd.ErrOrStderr())
		}
		var err error
		cfg, err = config.Load(viper.New(), configFile)
		return err
	},
}

var (
	// Global flags that apply to all commands
	configFile string
	format     string

	cfg config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./pivot.yaml or $HOME/.pivot/pivot.yaml)")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "json", "Output format: json|csv")

	rootCmd.AddCommand(serveCmd, runCmd, batchCmd, fieldsCmd, hashCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
