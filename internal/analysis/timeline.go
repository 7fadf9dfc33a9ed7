package analysis

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"graos/internal/sales"
)

// Period faixa do mês
type Period string

const (
	PeriodStart  Period = "inicio"
	PeriodMiddle Period = "meio"
	PeriodEnd    Period = "final"
)

// Periods ordem cronológica
var Periods = []Period{PeriodStart, PeriodMiddle, PeriodEnd}

// PeriodOf faixa do dia: 1-10, 11-20, 21-31
func PeriodOf(day int) Period {
	switch {
	case day <= 10:
		return PeriodStart
	case day <= 20:
		return PeriodMiddle
	}
	return PeriodEnd
}

// Label rótulo em português
func (p Period) Label() string {
	switch p {
	case PeriodStart:
		return "Início (1-10)"
	case PeriodMiddle:
		return "Meio (11-20)"
	case PeriodEnd:
		return "Final (21-31)"
	}
	return string(p)
}

// DayPoint vendas de um dia do mês
type DayPoint struct {
	Date             time.Time       `json:"date"`
	Period           Period          `json:"period"`
	WholesaleRevenue decimal.Decimal `json:"wholesaleRevenue"`
	WholesaleCount   int             `json:"wholesaleCount"`
	RetailRevenue    decimal.Decimal `json:"retailRevenue"`
	RetailCount      int             `json:"retailCount"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	TotalCount       int             `json:"totalCount"`
}

// PeriodAverage média diária de uma faixa do mês
type PeriodAverage struct {
	Period           Period          `json:"period"`
	Label            string          `json:"label"`
	Days             int             `json:"days"`
	WholesaleAverage decimal.Decimal `json:"wholesaleAverage"`
	RetailAverage    decimal.Decimal `json:"retailAverage"`
	TotalAverage     decimal.Decimal `json:"totalAverage"`
}

// Timeline evolução diária de um mês
type Timeline struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  []DayPoint `json:"days"`

	Periods []PeriodAverage `json:"periods"`

	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	AverageDaily decimal.Decimal `json:"averageDaily"`
	BestDay      *DayPoint       `json:"bestDay,omitempty"`

	// Variation percentual entre a média do final e a do início do mês;
	// nil quando uma das faixas não tem vendas.
	Variation *float64 `json:"variation,omitempty"`
}

// DailyTimeline soma as vendas por dia de atacado e varejo no mês informado
func DailyTimeline(wholesale, retail []sales.SalesRecord, year int, month time.Month) Timeline {
	days := make(map[int]*DayPoint)
	point := func(d time.Time) *DayPoint {
		p, ok := days[d.Day()]
		if !ok {
			p = &DayPoint{
				Date:             time.Date(year, month, d.Day(), 0, 0, 0, 0, time.UTC),
				Period:           PeriodOf(d.Day()),
				WholesaleRevenue: decimal.Zero,
				RetailRevenue:    decimal.Zero,
				TotalRevenue:     decimal.Zero,
			}
			days[d.Day()] = p
		}
		return p
	}
	inMonth := func(d time.Time) bool { return d.Year() == year && d.Month() == month }

	for _, r := range wholesale {
		if !inMonth(r.Date) {
			continue
		}
		p := point(r.Date)
		p.WholesaleRevenue = p.WholesaleRevenue.Add(r.TotalSale)
		p.WholesaleCount++
	}
	for _, r := range retail {
		if !inMonth(r.Date) {
			continue
		}
		p := point(r.Date)
		p.RetailRevenue = p.RetailRevenue.Add(r.TotalSale)
		p.RetailCount++
	}

	out := Timeline{Year: year, Month: month, TotalRevenue: decimal.Zero, AverageDaily: decimal.Zero}
	for _, p := range days {
		p.TotalRevenue = p.WholesaleRevenue.Add(p.RetailRevenue)
		p.TotalCount = p.WholesaleCount + p.RetailCount
		out.Days = append(out.Days, *p)
		out.TotalRevenue = out.TotalRevenue.Add(p.TotalRevenue)
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date.Before(out.Days[j].Date) })

	if len(out.Days) == 0 {
		return out
	}
	out.AverageDaily = out.TotalRevenue.Div(decimal.NewFromInt(int64(len(out.Days)))).Round(2)
	best := out.Days[0]
	for _, p := range out.Days[1:] {
		if p.TotalRevenue.GreaterThan(best.TotalRevenue) {
			best = p
		}
	}
	out.BestDay = &best

	averages := make(map[Period]PeriodAverage, len(Periods))
	for _, period := range Periods {
		avg := periodAverage(out.Days, period)
		averages[period] = avg
		out.Periods = append(out.Periods, avg)
	}

	start, end := averages[PeriodStart], averages[PeriodEnd]
	if start.Days > 0 && end.Days > 0 && start.TotalAverage.IsPositive() {
		v := end.TotalAverage.Sub(start.TotalAverage).
			Div(start.TotalAverage).
			Mul(decimal.NewFromInt(100)).
			Round(1).
			InexactFloat64()
		out.Variation = &v
	}
	return out
}

func periodAverage(days []DayPoint, period Period) PeriodAverage {
	avg := PeriodAverage{
		Period:           period,
		Label:            period.Label(),
		WholesaleAverage: decimal.Zero,
		RetailAverage:    decimal.Zero,
		TotalAverage:     decimal.Zero,
	}
	wholesale, retail, total := decimal.Zero, decimal.Zero, decimal.Zero
	for _, p := range days {
		if p.Period != period {
			continue
		}
		avg.Days++
		wholesale = wholesale.Add(p.WholesaleRevenue)
		retail = retail.Add(p.RetailRevenue)
		total = total.Add(p.TotalRevenue)
	}
	if avg.Days == 0 {
		return avg
	}
	n := decimal.NewFromInt(int64(avg.Days))
	avg.WholesaleAverage = wholesale.Div(n).Round(2)
	avg.RetailAverage = retail.Div(n).Round(2)
	avg.TotalAverage = total.Div(n).Round(2)
	return avg
}
