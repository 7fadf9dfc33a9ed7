package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graos/internal/config"
	"graos/internal/logging"
	"graos/internal/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var (
		port    int
		devMode bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Inicia a API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, info, err := opts.load()
			if err != nil {
				return err
			}

			// a porta do config.toml tem prioridade sobre a flag
			if port > 0 && !info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
				if opts.logLevel == "" {
					cfg.Log.Level = "debug"
				}
				cfg.Log.Format = "console"
			}

			logger := logging.Must(cfg.Log.Level, cfg.Log.Format)
			defer logger.Sync()

			fmt.Println("==========================================")
			fmt.Println("  Grãos S.A. - consolidação de vendas")
			fmt.Println("==========================================")
			fmt.Printf("Dados: %s\n", config.ResolveDataDir(cfg))

			srv, err := server.NewServer(cfg, logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run(addr)
			}()
			fmt.Printf("API em http://localhost:%d/api\n", cfg.Server.Port)
			fmt.Println("\nCtrl+C para encerrar...")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return fmt.Errorf("servidor encerrado: %w", err)
			case sig := <-quit:
				logger.Info("shutting down", zap.String("signal", sig.String()))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "porta HTTP (vale apenas se o config.toml não definir port)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "modo de desenvolvimento (log legível, gin em debug)")
	return cmd
}
