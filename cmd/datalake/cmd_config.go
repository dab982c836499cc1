package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/datalake/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigListCmd(), newConfigGetCmd(), newConfigSetCmd())
	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List effective configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			values, err := config.ListValues(cfg, true)
			if err != nil {
				return fmt.Errorf("list config: %w", err)
			}
			for _, k := range config.SortedKeys(values) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", k, values[k])
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get an effective configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			val, err := config.GetValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), val)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetValue(cfgPath, args[0], args[1]); err != nil {
				return err
			}
			display := args[1]
			if config.IsSecretKey(args[0]) {
				display = "***"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], display)
			return nil
		},
	}
}
