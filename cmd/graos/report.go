package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"graos/internal/analysis"
	"graos/internal/config"
	"graos/internal/dailyfolder"
	"graos/internal/exporter"
	"graos/internal/opener"
	"graos/internal/sales"
	"graos/internal/store"
)

func newLatestCmd(opts *globalOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Mostra o consolidado mais recente da categoria",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sales.ParseCategory(category)
			if err != nil {
				return err
			}
			deps, err := opts.open()
			if err != nil {
				return err
			}
			defer deps.Close()

			latest, err := deps.layout.LatestConsolidated(c)
			if errors.Is(err, dailyfolder.ErrNotFound) {
				return fmt.Errorf("nenhum consolidado de %s em %s", c.Label(), deps.layout.Root)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), latest.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "categoria: atacado ou varejo")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newReportCmd(opts *globalOptions) *cobra.Command {
	var (
		category string
		out      string
		open     bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Gera o relatório xlsx de análise de clientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := sales.ParseCategory(category)
			if err != nil {
				return err
			}
			deps, err := opts.open()
			if err != nil {
				return err
			}
			defer deps.Close()

			report, err := buildReport(deps, c)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				name := fmt.Sprintf("analise-%s-%s.xlsx", c.Label(), report.Reference.Format("2006-01-02"))
				path = config.GetDataPath(deps.cfg, config.DirExports, name)
			}

			f, err := exporter.ExportAnalysisWithProgress(report, func(p exporter.ProgressEvent) {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %s\n", p.Percent, p.Stage)
			})
			if err != nil {
				return err
			}
			defer f.Close()
			if err := f.SaveAs(path); err != nil {
				return fmt.Errorf("gravar %s: %w", path, err)
			}
			seg := report.Segmentation
			fmt.Fprintf(cmd.OutOrStdout(), "Clientes: %d (%d ativos)\n", seg.TotalCustomers, seg.ActiveCustomers)
			fmt.Fprintf(cmd.OutOrStdout(), "Receita:  R$ %s\n", sales.FormatAmount(seg.TotalRevenue))
			fmt.Fprintln(cmd.OutOrStdout(), path)

			if open {
				if err := opener.OpenWithFallback(path); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "não foi possível abrir o relatório: %v\n", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "categoria: atacado ou varejo")
	cmd.Flags().StringVar(&out, "out", "", "arquivo xlsx de saída (padrão: data/exports)")
	cmd.Flags().BoolVar(&open, "open", false, "abrir o relatório ao terminar")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

// buildReport análises da categoria com a linha do tempo do mês de referência
func buildReport(deps *runtimeDeps, c sales.Category) (*analysis.Report, error) {
	overrides, err := deps.store.GetConfigWithPrefix(store.AnalysisConfigPrefix)
	if err != nil {
		return nil, err
	}
	th, _ := deps.cfg.Analysis.Thresholds().WithOverrides(overrides)

	table, latest, err := deps.layout.LoadLatest(c)
	if errors.Is(err, dailyfolder.ErrNotFound) {
		return nil, fmt.Errorf("nenhum consolidado de %s em %s", c.Label(), deps.layout.Root)
	}
	if err != nil {
		return nil, err
	}

	report := analysis.Analyze(c, table.Records, th)
	report.Source = filepath.Base(latest.Path)
	if report.Reference.IsZero() {
		return &report, nil
	}

	records := map[sales.Category][]sales.SalesRecord{c: table.Records}
	for _, other := range sales.Categories {
		if other == c {
			continue
		}
		t, _, err := deps.layout.LoadLatest(other)
		if err == nil {
			records[other] = t.Records
		}
	}
	tl := analysis.DailyTimeline(records[sales.Wholesale], records[sales.Retail], report.Reference.Year(), report.Reference.Month())
	report.Timeline = &tl
	return &report, nil
}
