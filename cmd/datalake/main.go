package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/user/datalake/internal/config"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var (
	cfgPath      string
	outputFormat string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "datalake",
		Short:         "Natural-language access to the personal data lake",
		Long:          "datalake answers questions, searches and summarizes the event warehouse, and records agent actions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "config file path")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json or yaml (default text on a terminal, json otherwise)")

	cmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newQueryCmd(),
		newSearchCmd(),
		newContextCmd(),
		newLogCmd(),
		newConfigCmd(),
		newScheduleCmd(),
		newSetupCmd(),
		newWarehouseCmd(),
		newStopCmd(),
		newRestartCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "datalake %s (commit: %s)\n", Version, Commit)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func main() {
	// A .env file next to the binary's working directory is optional.
	_ = godotenv.Load()
	os.Exit(execute(newRootCmd()))
}
