package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"graos/internal/consolidation"
	"graos/internal/dailyfolder"
	"graos/internal/sales"
)

type ingestOptions struct {
	category string
	file     string
	existing string
	output   string
	date     string
}

func newIngestCmd(opts *globalOptions) *cobra.Command {
	o := &ingestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Consolida um arquivo diário",
		Long: "Consolida um arquivo diário no consolidado da categoria.\n\n" +
			"Sem --existing/--output, o consolidado de entrada é o mais recente das pastas diárias\n" +
			"e o de saída é gravado na pasta do dia com o nome padrão.",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := opts.open()
			if err != nil {
				return err
			}
			defer deps.Close()

			result, err := o.run(deps)
			if err != nil {
				return fmt.Errorf("%s: %w", consolidation.KindName(err), err)
			}
			printIngestResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&o.category, "category", "", "categoria: atacado ou varejo")
	cmd.Flags().StringVar(&o.file, "file", "", "arquivo diário")
	cmd.Flags().StringVar(&o.existing, "existing", "", "consolidado atual (pode não existir)")
	cmd.Flags().StringVar(&o.output, "output", "", "novo consolidado (padrão: --existing; não pode ser outro consolidado já existente)")
	cmd.Flags().StringVar(&o.date, "date", "", "data do arquivo diário DD/MM/AAAA (padrão: do nome do arquivo)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (o *ingestOptions) run(deps *runtimeDeps) (*consolidation.IngestResult, error) {
	category, err := sales.ParseCategory(o.category)
	if err != nil {
		return nil, err
	}

	if o.existing != "" || o.output != "" {
		return deps.engine.Ingest(consolidation.IngestRequest{
			Category:     category,
			DailyFile:    o.file,
			ExistingFile: o.existing,
			OutputFile:   o.output,
		})
	}

	return deps.engine.IngestPlanned(category, func() (consolidation.IngestRequest, error) {
		return o.plan(deps.layout, category)
	})
}

func (o *ingestOptions) plan(layout *dailyfolder.Layout, category sales.Category) (consolidation.IngestRequest, error) {
	if o.date == "" {
		return layout.PlanIngest(category, o.file)
	}
	day, err := sales.ParseDate(o.date)
	if err != nil {
		return consolidation.IngestRequest{}, err
	}
	return layout.PlanIngestForDay(category, o.file, day)
}

func printIngestResult(w io.Writer, r *consolidation.IngestResult) {
	fmt.Fprintf(w, "Consolidado: %s\n", r.ConsolidatedFile)
	if r.BackupFile != "" {
		fmt.Fprintf(w, "Backup:      %s\n", r.BackupFile)
	} else {
		fmt.Fprintln(w, "Backup:      (sem consolidado anterior)")
	}
	fmt.Fprintf(w, "Registros:   %d históricos + %d novos - %d duplicados = %d\n",
		r.HistoricalRecords, r.NewRecords, r.DuplicatesDropped, r.TotalRecords)
}
