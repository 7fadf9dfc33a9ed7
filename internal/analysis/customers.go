package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"graos/internal/sales"
)

// CustomerSummary resumo de compras de um cliente
type CustomerSummary struct {
	CustomerID    string          `json:"customerId"`
	Revenue       decimal.Decimal `json:"revenue"`
	Purchases     int             `json:"purchases"`
	AverageTicket decimal.Decimal `json:"averageTicket"`
	FirstPurchase time.Time       `json:"firstPurchase"`
	LastPurchase  time.Time       `json:"lastPurchase"`
	DaysSinceLast int             `json:"daysSinceLast"`
}

// ValidSales descarta devoluções, clientes vazios e valores não positivos
func ValidSales(records []sales.SalesRecord, excludeMarker string) []sales.SalesRecord {
	marker := strings.ToUpper(excludeMarker)
	out := make([]sales.SalesRecord, 0, len(records))
	for _, r := range records {
		if r.CustomerID == "" || !r.TotalSale.IsPositive() {
			continue
		}
		if marker != "" && strings.Contains(strings.ToUpper(r.CustomerID), marker) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ReferenceDate data mais recente dos registros (base da recência)
func ReferenceDate(records []sales.SalesRecord) time.Time {
	var ref time.Time
	for _, r := range records {
		if r.Date.After(ref) {
			ref = r.Date
		}
	}
	return ref
}

// Summaries agrega os registros por cliente; ordenado por cliente.
// A recência é contada a partir da data mais recente dos próprios registros.
func Summaries(records []sales.SalesRecord) []CustomerSummary {
	ref := ReferenceDate(records)

	byCustomer := make(map[string]*CustomerSummary)
	for _, r := range records {
		s, ok := byCustomer[r.CustomerID]
		if !ok {
			s = &CustomerSummary{
				CustomerID:    r.CustomerID,
				FirstPurchase: r.Date,
				LastPurchase:  r.Date,
			}
			byCustomer[r.CustomerID] = s
		}
		s.Revenue = s.Revenue.Add(r.TotalSale)
		s.Purchases++
		if r.Date.Before(s.FirstPurchase) {
			s.FirstPurchase = r.Date
		}
		if r.Date.After(s.LastPurchase) {
			s.LastPurchase = r.Date
		}
	}

	out := make([]CustomerSummary, 0, len(byCustomer))
	for _, s := range byCustomer {
		s.AverageTicket = s.Revenue.Div(decimal.NewFromInt(int64(s.Purchases))).Round(2)
		s.DaysSinceLast = daysBetween(s.LastPurchase, ref)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func sumRevenue(list []CustomerSummary) decimal.Decimal {
	total := decimal.Zero
	for _, s := range list {
		total = total.Add(s.Revenue)
	}
	return total
}
