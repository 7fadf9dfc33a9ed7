package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graos/internal/config"
)

func newInitCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Cria o config.toml e o diretório de dados",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s já existe (use --force para sobrescrever)", path)
			}

			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			if err := config.SaveConfigTo(path, cfg); err != nil {
				return fmt.Errorf("gravar %s: %w", path, err)
			}
			dataDir, err := config.EnsureDataDir(cfg)
			if err != nil {
				return fmt.Errorf("criar diretório de dados: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuração: %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Dados:        %s\n", dataDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "sobrescrever um config.toml existente")
	return cmd
}
