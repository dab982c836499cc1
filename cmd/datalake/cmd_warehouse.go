package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/datalake/internal/schema"
	"github.com/user/datalake/internal/warehouse"
)

func newWarehouseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warehouse",
		Short: "Manage the warehouse",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the warehouse tables and views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			setupLogging(cfg)
			if cfg.Warehouse.Driver == schema.DialectSQLite {
				if err := os.MkdirAll(filepath.Dir(cfg.Warehouse.DSN), 0755); err != nil {
					return fmt.Errorf("create warehouse dir: %w", err)
				}
			}
			wh, err := warehouse.Open(warehouse.Options{
				Driver:   cfg.Warehouse.Driver,
				DSN:      cfg.Warehouse.DSN,
				Host:     cfg.Warehouse.Host,
				Port:     cfg.Warehouse.Port,
				User:     cfg.Warehouse.User,
				Password: cfg.Warehouse.Password,
				Database: cfg.Warehouse.Database,
			})
			if err != nil {
				return err
			}
			defer wh.Close()
			if err := wh.Migrate(); err != nil {
				return fmt.Errorf("migrate warehouse: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Warehouse migrated (%s).\n", wh.Dialect())
			return nil
		},
	})
	return cmd
}
