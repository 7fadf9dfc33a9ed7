package analysis

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"graos/internal/sales"
)

// MonthLayout chave de mês (2025-07)
const MonthLayout = "2006-01"

// NewCustomer cliente na primeira compra
type NewCustomer struct {
	CustomerID    string          `json:"customerId"`
	FirstPurchase time.Time       `json:"firstPurchase"`
	Total         decimal.Decimal `json:"total"`
}

// MonthlyNewCustomers clientes novos de um mês
type MonthlyNewCustomers struct {
	Month       string          `json:"month"`
	Count       int             `json:"count"`
	Revenue     decimal.Decimal `json:"revenue"`
	AverageSale decimal.Decimal `json:"averageSale"`
	Customers   []NewCustomer   `json:"customers"`
}

// NewCustomers agrupa por mês os clientes pela data da primeira compra.
//
// Todas as vendas do dia da primeira compra contam para a receita de entrada;
// a média é por venda, não por cliente.
func NewCustomers(records []sales.SalesRecord) []MonthlyNewCustomers {
	first := make(map[string]time.Time)
	for _, r := range records {
		if d, ok := first[r.CustomerID]; !ok || r.Date.Before(d) {
			first[r.CustomerID] = r.Date
		}
	}

	type bucket struct {
		sales     int
		revenue   decimal.Decimal
		customers map[string]*NewCustomer
	}
	months := make(map[string]*bucket)

	for _, r := range records {
		d := first[r.CustomerID]
		if !r.Date.Equal(d) {
			continue
		}
		key := d.Format(MonthLayout)
		b, ok := months[key]
		if !ok {
			b = &bucket{revenue: decimal.Zero, customers: make(map[string]*NewCustomer)}
			months[key] = b
		}
		b.sales++
		b.revenue = b.revenue.Add(r.TotalSale)

		c, ok := b.customers[r.CustomerID]
		if !ok {
			c = &NewCustomer{CustomerID: r.CustomerID, FirstPurchase: d, Total: decimal.Zero}
			b.customers[r.CustomerID] = c
		}
		c.Total = c.Total.Add(r.TotalSale)
	}

	out := make([]MonthlyNewCustomers, 0, len(months))
	for key, b := range months {
		m := MonthlyNewCustomers{
			Month:   key,
			Count:   len(b.customers),
			Revenue: b.revenue,
		}
		if b.sales > 0 {
			m.AverageSale = b.revenue.Div(decimal.NewFromInt(int64(b.sales))).Round(2)
		}
		for _, c := range b.customers {
			m.Customers = append(m.Customers, *c)
		}
		sort.Slice(m.Customers, func(i, j int) bool {
			if !m.Customers[i].Total.Equal(m.Customers[j].Total) {
				return m.Customers[i].Total.GreaterThan(m.Customers[j].Total)
			}
			return m.Customers[i].CustomerID < m.Customers[j].CustomerID
		})
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
