// Package cli команды catalogctl для обслуживания каталога поездок.
package cli

import (
	"context"
	"fmt"

	"altomayo/internal/config"
	"altomayo/internal/repository"

	"github.com/spf13/cobra"
)

// RootOptions общие флаги всех команд.
type RootOptions struct {
	ConfigPath string
	Format     string // "text" | "json"
}

// ValidFormats допустимые форматы вывода.
var ValidFormats = []string{"text", "json"}

// NewRootCommand создает корневую команду catalogctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Alto Mayo catalog maintenance",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", config.PathFromEnv(), "path to config.yaml")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))

	return cmd
}

// openStore загружает конфигурацию и открывает хранилище.
// mutate может поправить настройки хранилища до открытия.
func openStore(ctx context.Context, opts *RootOptions, mutate func(*config.StorageConfig)) (*repository.Store, *config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if mutate != nil {
		mutate(&cfg.Storage)
	}
	store, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}
