package consolidation

import (
	"sort"

	"graos/internal/sales"
)

// Stats contagens de uma consolidação
type Stats struct {
	HistoricalRecords int `json:"historicalRecords"`
	NewRecords        int `json:"newRecords"`
	DuplicatesDropped int `json:"duplicatesDropped"`
	TotalRecords      int `json:"totalRecords"`
}

// Merge concatena histórico e novos registros, histórico primeiro
func Merge(historical, incoming []sales.SalesRecord) []sales.SalesRecord {
	out := make([]sales.SalesRecord, 0, len(historical)+len(incoming))
	out = append(out, historical...)
	return append(out, incoming...)
}

// Dedup mantém apenas a primeira ocorrência de cada linha (igualdade de todos os campos)
func Dedup(records []sales.SalesRecord, header []string) ([]sales.SalesRecord, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]sales.SalesRecord, 0, len(records))
	for _, r := range records {
		key := r.Key(header)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, len(records) - len(out)
}

// SortByDate ordena por data crescente; empates mantêm a ordem de chegada
func SortByDate(records []sales.SalesRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}

// Consolidate junta o consolidado atual (nil se não existir) com o arquivo diário.
// O cabeçalho, a coluna de valor e a quebra de linha do consolidado prevalecem.
func Consolidate(historical, daily *sales.Table) (*sales.Table, Stats) {
	base := historical
	if base == nil {
		base = &sales.Table{
			Header:       daily.Header,
			AmountColumn: daily.AmountColumn,
			LineEnding:   daily.LineEnding,
		}
	}

	header, incoming := sales.Align(base, daily)
	records, dropped := Dedup(Merge(base.Records, incoming), header)
	SortByDate(records)

	return &sales.Table{
			Header:       header,
			AmountColumn: base.AmountColumn,
			LineEnding:   base.LineEnding,
			Records:      records,
		}, Stats{
			HistoricalRecords: len(base.Records),
			NewRecords:        len(daily.Records),
			DuplicatesDropped: dropped,
			TotalRecords:      len(records),
		}
}
