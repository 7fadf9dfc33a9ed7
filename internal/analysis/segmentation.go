package analysis

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Segment classificação de cliente
type Segment string

const (
	SegmentVIP        Segment = "vip"
	SegmentFrequent   Segment = "frequente"
	SegmentOccasional Segment = "ocasional"
	SegmentCold       Segment = "frio"
)

// Segments ordem de exibição
var Segments = []Segment{SegmentVIP, SegmentFrequent, SegmentOccasional, SegmentCold}

// Label rótulo em português
func (s Segment) Label() string {
	switch s {
	case SegmentVIP:
		return "VIP"
	case SegmentFrequent:
		return "Frequente"
	case SegmentOccasional:
		return "Ocasional"
	case SegmentCold:
		return "Frio"
	}
	return string(s)
}

// SegmentGroup clientes de um segmento
type SegmentGroup struct {
	Segment   Segment           `json:"segment"`
	Label     string            `json:"label"`
	Count     int               `json:"count"`
	Revenue   decimal.Decimal   `json:"revenue"`
	Customers []CustomerSummary `json:"customers"`
}

// Segmentation resultado da segmentação geral
type Segmentation struct {
	TotalCustomers  int               `json:"totalCustomers"`
	ActiveCustomers int               `json:"activeCustomers"`
	TotalRevenue    decimal.Decimal   `json:"totalRevenue"`
	Groups          []SegmentGroup    `json:"groups"`
	TopCustomers    []CustomerSummary `json:"topCustomers"`
}

// Classify segmento de um cliente
func Classify(s CustomerSummary, th Thresholds) Segment {
	switch {
	case s.Revenue.GreaterThanOrEqual(th.VIPMinRevenue) && s.Purchases >= th.VIPMinPurchases:
		return SegmentVIP
	case s.Purchases >= th.FrequentMinPurchases && s.DaysSinceLast <= th.FrequentMaxDays:
		return SegmentFrequent
	case s.DaysSinceLast <= th.OccasionalMaxDays:
		return SegmentOccasional
	}
	return SegmentCold
}

// SegmentCustomers agrupa os clientes por segmento.
//
// VIP e Ocasional ordenados por faturamento, Frequente por número de compras,
// Frio pelos dias sem comprar (mais antigos primeiro).
func SegmentCustomers(summaries []CustomerSummary, th Thresholds) Segmentation {
	groups := make(map[Segment][]CustomerSummary, len(Segments))
	out := Segmentation{TotalCustomers: len(summaries), TotalRevenue: decimal.Zero}

	for _, s := range summaries {
		seg := Classify(s, th)
		groups[seg] = append(groups[seg], s)
		out.TotalRevenue = out.TotalRevenue.Add(s.Revenue)
		if s.DaysSinceLast <= th.FrequentMaxDays {
			out.ActiveCustomers++
		}
	}

	for _, seg := range Segments {
		list := groups[seg]
		switch seg {
		case SegmentFrequent:
			sort.SliceStable(list, func(i, j int) bool { return list[i].Purchases > list[j].Purchases })
		case SegmentCold:
			sort.SliceStable(list, func(i, j int) bool { return list[i].DaysSinceLast > list[j].DaysSinceLast })
		default:
			sortByRevenueDesc(list)
		}
		out.Groups = append(out.Groups, SegmentGroup{
			Segment:   seg,
			Label:     seg.Label(),
			Count:     len(list),
			Revenue:   sumRevenue(list),
			Customers: list,
		})
	}

	top := append([]CustomerSummary(nil), summaries...)
	sortByRevenueDesc(top)
	if len(top) > 10 {
		top = top[:10]
	}
	out.TopCustomers = top
	return out
}

func sortByRevenueDesc(list []CustomerSummary) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Revenue.GreaterThan(list[j].Revenue) })
}
