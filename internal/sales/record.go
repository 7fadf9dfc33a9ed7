package sales

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Colunas obrigatórias do layout de exportação
const (
	ColumnDate      = "Data"
	ColumnCustomer  = "Cliente"
	ColumnTotalSale = "Total_Venda"
	ColumnTotal     = "Total"
)

// AmountColumns nomes aceitos para a coluna de valor, em ordem de preferência
var AmountColumns = []string{ColumnTotalSale, ColumnTotal}

// SalesRecord uma linha de venda.
//
// Fields guarda todos os valores da linha exatamente como lidos, indexados pelo
// nome da coluna; Date, CustomerID e TotalSale são a visão tipada das colunas
// obrigatórias.
type SalesRecord struct {
	Date       time.Time
	CustomerID string
	TotalSale  decimal.Decimal
	Fields     map[string]string
}

// Values valores brutos na ordem do cabeçalho informado
func (r SalesRecord) Values(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		out[i] = r.Fields[col]
	}
	return out
}

// Key chave de igualdade de linha completa, na ordem do cabeçalho.
// O separador NUL nunca aparece em um arquivo aceito pelo Unmarshal.
func (r SalesRecord) Key(header []string) string {
	return strings.Join(r.Values(header), "\x00")
}

// Table conteúdo de um arquivo de vendas
type Table struct {
	Header       []string
	AmountColumn string
	LineEnding   string
	Records      []SalesRecord
}

// HasColumn indica se o cabeçalho contém a coluna
func (t *Table) HasColumn(column string) bool {
	for _, h := range t.Header {
		if h == column {
			return true
		}
	}
	return false
}

// Align projeta a tabela `incoming` sobre o cabeçalho de `base`.
//
// A coluna de valor de `incoming` é renomeada para a de `base` quando diferem,
// desde que `incoming` não tenha também uma coluna com o nome de `base`; nesse
// caso as duas seguem como colunas distintas. Colunas que só existem em
// `incoming` são acrescentadas ao final do cabeçalho na ordem em que aparecem.
// Linhas sem uma coluna ficam com valor vazio.
func Align(base, incoming *Table) (header []string, records []SalesRecord) {
	header = append([]string(nil), base.Header...)
	rename := base.AmountColumn != "" && incoming.AmountColumn != "" &&
		base.AmountColumn != incoming.AmountColumn && !incoming.HasColumn(base.AmountColumn)

	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[h] = true
	}
	for _, h := range incoming.Header {
		if rename && h == incoming.AmountColumn {
			h = base.AmountColumn
		}
		if !seen[h] {
			seen[h] = true
			header = append(header, h)
		}
	}

	records = make([]SalesRecord, 0, len(incoming.Records))
	for _, r := range incoming.Records {
		if rename {
			fields := make(map[string]string, len(r.Fields))
			for k, v := range r.Fields {
				if k == incoming.AmountColumn {
					k = base.AmountColumn
				}
				fields[k] = v
			}
			r.Fields = fields
		}
		records = append(records, r)
	}
	return header, records
}
