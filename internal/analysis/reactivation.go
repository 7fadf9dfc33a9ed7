package analysis

import (
	"github.com/shopspring/decimal"
)

// Reactivation clientes candidatos a reativação
type Reactivation struct {
	SinglePurchase          []CustomerSummary `json:"singlePurchase"`
	Inactive                []CustomerSummary `json:"inactive"`
	SinglePurchasePotential decimal.Decimal   `json:"singlePurchasePotential"`
	InactivePotential       decimal.Decimal   `json:"inactivePotential"`
	TotalPotential          decimal.Decimal   `json:"totalPotential"`
}

// Reactivate separa clientes de compra única parados e recorrentes inativos
func Reactivate(summaries []CustomerSummary, th Thresholds) Reactivation {
	var out Reactivation
	for _, s := range summaries {
		switch {
		case s.Purchases == 1 && s.DaysSinceLast > th.SinglePurchaseMinDays:
			out.SinglePurchase = append(out.SinglePurchase, s)
		case s.Purchases > 1 && s.DaysSinceLast > th.InactiveMinDays:
			out.Inactive = append(out.Inactive, s)
		}
	}
	sortByRevenueDesc(out.SinglePurchase)
	sortByRevenueDesc(out.Inactive)

	out.SinglePurchasePotential = sumRevenue(out.SinglePurchase)
	out.InactivePotential = sumRevenue(out.Inactive)
	out.TotalPotential = out.SinglePurchasePotential.Add(out.InactivePotential)
	return out
}
