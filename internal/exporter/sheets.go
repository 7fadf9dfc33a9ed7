package exporter

import (
	"fmt"

	"graos/internal/analysis"
)

func fillSummary(w *workbook, r *analysis.Report) error {
	sheet := SheetSummary
	if err := w.f.SetCellValue(sheet, "A1", fmt.Sprintf("Análise de clientes - %s", r.Category.Label())); err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, "A1", "A1", w.title); err != nil {
		return err
	}

	seg := r.Segmentation
	rows := [][]interface{}{
		{"Arquivo", r.Source},
		{"Data de referência", formatDate(r.Reference)},
		{"Gerado em", r.GeneratedAt.Format("02/01/2006 15:04")},
		{"Total de clientes", seg.TotalCustomers},
		{"Clientes ativos (30d)", seg.ActiveCustomers},
		{"Faturamento total", money(seg.TotalRevenue)},
		{"Potencial de reativação", money(r.Reactivation.TotalPotential)},
	}
	for i, values := range rows {
		if err := w.row(sheet, 3+i, values...); err != nil {
			return err
		}
	}
	if err := w.f.SetCellStyle(sheet, "B8", "B9", w.money); err != nil {
		return err
	}

	start := 3 + len(rows) + 1
	if err := w.headerRow(sheet, start, "Segmento", "Clientes", "Faturamento"); err != nil {
		return err
	}
	for i, g := range seg.Groups {
		if err := w.row(sheet, start+1+i, g.Label, g.Count, money(g.Revenue)); err != nil {
			return err
		}
	}
	if err := w.moneyColumns(sheet, start+1, start+len(seg.Groups), 3); err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", "C", 26)
}

func fillSegmentation(w *workbook, r *analysis.Report) error {
	sheet := SheetSegmentation
	if err := w.sheet(sheet); err != nil {
		return err
	}
	if err := w.headerRow(sheet, 1,
		"Segmento", "Cliente", "Faturamento", "Compras", "Ticket Médio", "Primeira Compra", "Última Compra", "Dias sem Comprar",
	); err != nil {
		return err
	}

	row := 2
	for _, g := range r.Segmentation.Groups {
		for _, c := range g.Customers {
			if err := w.row(sheet, row,
				g.Label, c.CustomerID, money(c.Revenue), c.Purchases, money(c.AverageTicket),
				formatDate(c.FirstPurchase), formatDate(c.LastPurchase), c.DaysSinceLast,
			); err != nil {
				return err
			}
			row++
		}
	}
	if err := w.moneyColumns(sheet, 2, row-1, 3, 5); err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", "H", 18)
}

func fillNewCustomers(w *workbook, r *analysis.Report) error {
	sheet := SheetNewCustomers
	if err := w.sheet(sheet); err != nil {
		return err
	}
	if err := w.headerRow(sheet, 1, "Mês", "Clientes Novos", "Receita 1ª Compra", "Média por Venda"); err != nil {
		return err
	}
	for i, m := range r.NewCustomers {
		if err := w.row(sheet, 2+i, m.Month, m.Count, money(m.Revenue), money(m.AverageSale)); err != nil {
			return err
		}
	}
	last := 1 + len(r.NewCustomers)
	if err := w.moneyColumns(sheet, 2, last, 3, 4); err != nil {
		return err
	}

	detail := last + 2
	if err := w.headerRow(sheet, detail, "Mês", "Cliente", "Primeira Compra", "Valor"); err != nil {
		return err
	}
	row := detail + 1
	for _, m := range r.NewCustomers {
		for _, c := range m.Customers {
			if err := w.row(sheet, row, m.Month, c.CustomerID, formatDate(c.FirstPurchase), money(c.Total)); err != nil {
				return err
			}
			row++
		}
	}
	if err := w.moneyColumns(sheet, detail+1, row-1, 4); err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", "D", 20)
}

func fillReactivation(w *workbook, r *analysis.Report) error {
	sheet := SheetReactivation
	if err := w.sheet(sheet); err != nil {
		return err
	}
	if err := w.headerRow(sheet, 1, "Tipo", "Cliente", "Faturamento", "Compras", "Última Compra", "Dias sem Comprar"); err != nil {
		return err
	}

	row := 2
	groups := []struct {
		label string
		list  []analysis.CustomerSummary
	}{
		{"Compra única", r.Reactivation.SinglePurchase},
		{"Inativo", r.Reactivation.Inactive},
	}
	for _, g := range groups {
		for _, c := range g.list {
			if err := w.row(sheet, row, g.label, c.CustomerID, money(c.Revenue), c.Purchases, formatDate(c.LastPurchase), c.DaysSinceLast); err != nil {
				return err
			}
			row++
		}
	}

	row++
	totals := [][]interface{}{
		{"Potencial compra única", "", money(r.Reactivation.SinglePurchasePotential)},
		{"Potencial inativos", "", money(r.Reactivation.InactivePotential)},
		{"Potencial total", "", money(r.Reactivation.TotalPotential)},
	}
	for _, values := range totals {
		if err := w.row(sheet, row, values...); err != nil {
			return err
		}
		row++
	}
	if err := w.moneyColumns(sheet, 2, row-1, 3); err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", "F", 20)
}

func fillTimeline(w *workbook, r *analysis.Report) error {
	tl := r.Timeline
	if tl == nil {
		return nil
	}
	sheet := SheetTimeline
	if err := w.sheet(sheet); err != nil {
		return err
	}
	if err := w.headerRow(sheet, 1,
		"Data", "Período", "Atacado", "Vendas Atacado", "Varejo", "Vendas Varejo", "Total", "Vendas",
	); err != nil {
		return err
	}
	for i, d := range tl.Days {
		if err := w.row(sheet, 2+i,
			formatDate(d.Date), d.Period.Label(),
			money(d.WholesaleRevenue), d.WholesaleCount,
			money(d.RetailRevenue), d.RetailCount,
			money(d.TotalRevenue), d.TotalCount,
		); err != nil {
			return err
		}
	}
	last := 1 + len(tl.Days)
	if err := w.moneyColumns(sheet, 2, last, 3, 5, 7); err != nil {
		return err
	}

	start := last + 2
	if err := w.headerRow(sheet, start, "Período", "Dias", "Média Atacado", "Média Varejo", "Média Total"); err != nil {
		return err
	}
	for i, p := range tl.Periods {
		if err := w.row(sheet, start+1+i, p.Label, p.Days, money(p.WholesaleAverage), money(p.RetailAverage), money(p.TotalAverage)); err != nil {
			return err
		}
	}
	if err := w.moneyColumns(sheet, start+1, start+len(tl.Periods), 3, 4, 5); err != nil {
		return err
	}

	if tl.Variation != nil {
		row := start + len(tl.Periods) + 2
		if err := w.row(sheet, row, "Variação início → final (%)", *tl.Variation); err != nil {
			return err
		}
	}
	return w.f.SetColWidth(sheet, "A", "H", 16)
}
