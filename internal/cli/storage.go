package cli

import (
	"errors"
	"fmt"

	"altomayo/internal/config"

	"github.com/spf13/cobra"
)

var errMemoryDriver = errors.New("storage.driver is memory: nothing to persist")

// NewMigrateCommand создает таблицы в SQL-хранилище.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create catalog tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStore(cmd.Context(), opts, func(s *config.StorageConfig) { s.Seed = false })
			if err != nil {
				return err
			}
			defer store.Close()
			if cfg.Storage.Driver == config.DriverMemory {
				return errMemoryDriver
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", cfg.Storage.Driver)
			return nil
		},
	}
}

// NewSeedCommand загружает каталог в пустую базу.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the catalog fixture into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStore(cmd.Context(), opts, func(s *config.StorageConfig) {
				s.Seed = s.Driver != config.DriverMemory
				if catalogPath != "" {
					s.CatalogPath = catalogPath
				}
			})
			if err != nil {
				return err
			}
			defer store.Close()
			if cfg.Storage.Driver == config.DriverMemory {
				return errMemoryDriver
			}
			exps, err := store.Experiences.FetchAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded: %d experiences\n", len(exps))
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog YAML (default: storage.catalog_path or built-in)")
	return cmd
}
