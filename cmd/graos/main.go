package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graos/internal/config"
	"graos/internal/consolidation"
	"graos/internal/dailyfolder"
	"graos/internal/logging"
	"graos/internal/server"
	"graos/internal/store"
)

type globalOptions struct {
	configPath string
	dataDir    string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "graos",
		Short:         "Grãos S.A. - consolidação de vendas diárias e análise de clientes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "arquivo config.toml (padrão: ao lado do executável)")
	root.PersistentFlags().StringVar(&opts.dataDir, "dataDir", "", "diretório de dados (sobrepõe o config.toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "nível de log (debug, info, warn, error)")

	root.AddCommand(
		newInitCmd(opts),
		newServeCmd(opts),
		newIngestCmd(opts),
		newLatestCmd(opts),
		newReportCmd(opts),
	)
	return root
}

// load config.toml + ambiente + flags globais
func (o *globalOptions) load() (*config.AppConfig, config.LoadConfigInfo, error) {
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if o.configPath != "" {
		cfg, info, err = config.LoadConfigFrom(o.configPath)
	} else {
		cfg, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		return nil, info, err
	}
	if o.dataDir != "" {
		cfg.Data.DataDir = o.dataDir
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, info, nil
}

// runtimeDeps dependências dos comandos que trabalham direto no disco
type runtimeDeps struct {
	cfg     *config.AppConfig
	dataDir string
	logger  *zap.Logger
	store   *store.Store
	layout  *dailyfolder.Layout
	engine  *consolidation.Engine
}

func (o *globalOptions) open() (*runtimeDeps, error) {
	cfg, _, err := o.load()
	if err != nil {
		return nil, fmt.Errorf("carregar configuração: %w", err)
	}
	logger := logging.Must(cfg.Log.Level, cfg.Log.Format)

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("criar diretório de dados: %w", err)
	}
	st, err := store.New(filepath.Join(dataDir, server.DBFileName))
	if err != nil {
		return nil, err
	}

	return &runtimeDeps{
		cfg:     cfg,
		dataDir: dataDir,
		logger:  logger,
		store:   st,
		layout:  dailyfolder.NewLayout(filepath.Join(dataDir, config.DirDaily)),
		engine:  server.NewEngine(cfg, dataDir, st, logger),
	}, nil
}

func (d *runtimeDeps) Close() {
	_ = d.store.Close()
	_ = d.logger.Sync()
}
