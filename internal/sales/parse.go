package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
	"2-1-2006",
}

// ParseDate aceita DD/MM/AAAA e DD-MM-AAAA
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParseAmount converte valores no formato brasileiro ("1.234,56") ou com ponto decimal ("1234.56").
// Valor vazio vale zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// FormatAmount formata no padrão brasileiro com duas casas ("1.234,56")
func FormatAmount(d decimal.Decimal) string {
	neg := d.IsNegative()
	raw := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(raw, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(ch)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
