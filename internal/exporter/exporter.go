package exporter

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"graos/internal/analysis"
)

// Nomes das planilhas
const (
	SheetSummary      = "Resumo"
	SheetSegmentation = "Segmentação"
	SheetNewCustomers = "Clientes Novos"
	SheetReactivation = "Reativação"
	SheetTimeline     = "Linha do Tempo"
)

const dateLayout = "02/01/2006"

// ExportAnalysisWithProgress gera a pasta de trabalho com as análises do relatório,
// reportando o andamento (progress pode ser nil).
// A planilha de linha do tempo só é criada quando o relatório a inclui.
func ExportAnalysisWithProgress(report *analysis.Report, progress func(ProgressEvent)) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("relatório vazio")
	}

	f := excelize.NewFile()
	w, err := newWorkbook(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	steps := []struct {
		stage string
		fill  func(*workbook, *analysis.Report) error
	}{
		{"resumo", fillSummary},
		{"segmentacao", fillSegmentation},
		{"clientes_novos", fillNewCustomers},
		{"reativacao", fillReactivation},
		{"linha_do_tempo", fillTimeline},
	}
	for i, step := range steps {
		reportProgress(progress, i*100/len(steps), step.stage)
		if err := step.fill(w, report); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("preencher %s: %w", step.stage, err)
		}
	}
	reportProgress(progress, 100, "concluido")

	f.SetActiveSheet(0)
	return f, nil
}

type workbook struct {
	f      *excelize.File
	header int
	money  int
	title  int
}

func newWorkbook(f *excelize.File) (*workbook, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F6228"}},
	})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, err
	}
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return nil, err
	}

	// a pasta nova vem com "Sheet1"; vira o resumo
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	return &workbook{f: f, header: header, money: money, title: title}, nil
}

func (w *workbook) sheet(name string) error {
	if idx, _ := w.f.GetSheetIndex(name); idx >= 0 {
		return nil
	}
	_, err := w.f.NewSheet(name)
	return err
}

// row escreve values na linha a partir da coluna A
func (w *workbook) row(sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return w.f.SetSheetRow(sheet, cell, &values)
}

func (w *workbook) headerRow(sheet string, row int, titles ...string) error {
	values := make([]interface{}, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	if err := w.row(sheet, row, values...); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(titles), row)
	return w.f.SetCellStyle(sheet, first, last, w.header)
}

func (w *workbook) moneyColumns(sheet string, fromRow, toRow int, cols ...int) error {
	if toRow < fromRow {
		return nil
	}
	for _, col := range cols {
		first, _ := excelize.CoordinatesToCellName(col, fromRow)
		last, _ := excelize.CoordinatesToCellName(col, toRow)
		if err := w.f.SetCellStyle(sheet, first, last, w.money); err != nil {
			return err
		}
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
