package analysis

import (
	"time"

	"graos/internal/sales"
)

// Report conjunto de análises de uma categoria, usado pela API e pela exportação
type Report struct {
	Category     sales.Category        `json:"category"`
	Source       string                `json:"source,omitempty"`
	GeneratedAt  time.Time             `json:"generatedAt"`
	Reference    time.Time             `json:"reference"`
	Segmentation Segmentation          `json:"segmentation"`
	NewCustomers []MonthlyNewCustomers `json:"newCustomers"`
	Reactivation Reactivation          `json:"reactivation"`
	Timeline     *Timeline             `json:"timeline,omitempty"`
}

// Analyze aplica o filtro de vendas válidas e calcula as análises por cliente
func Analyze(c sales.Category, records []sales.SalesRecord, th Thresholds) Report {
	valid := ValidSales(records, th.ExcludeMarker)
	summaries := Summaries(valid)
	return Report{
		Category:     c,
		GeneratedAt:  time.Now(),
		Reference:    ReferenceDate(valid),
		Segmentation: SegmentCustomers(summaries, th),
		NewCustomers: NewCustomers(valid),
		Reactivation: Reactivate(summaries, th),
	}
}
