package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Thresholds parâmetros da segmentação e da reativação
type Thresholds struct {
	VIPMinRevenue         decimal.Decimal
	VIPMinPurchases       int
	FrequentMinPurchases  int
	FrequentMaxDays       int
	OccasionalMaxDays     int
	SinglePurchaseMinDays int
	InactiveMinDays       int
	ExcludeMarker         string
}

// DefaultThresholds valores usados pelo painel da Grãos S.A.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VIPMinRevenue:         decimal.NewFromInt(1000),
		VIPMinPurchases:       5,
		FrequentMinPurchases:  3,
		FrequentMaxDays:       30,
		OccasionalMaxDays:     60,
		SinglePurchaseMinDays: 30,
		InactiveMinDays:       60,
		ExcludeMarker:         "DEVOLUCAO",
	}
}

type thresholdField struct {
	key string
	get func(Thresholds) interface{}
	set func(*Thresholds, string) error
}

func intField(key string, ptr func(*Thresholds) *int) thresholdField {
	return thresholdField{
		key: key,
		get: func(th Thresholds) interface{} { return *ptr(&th) },
		set: func(th *Thresholds, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				return fmt.Errorf("%s deve ser um inteiro não negativo", key)
			}
			*ptr(th) = n
			return nil
		},
	}
}

// mesmas chaves da seção [analysis] do config.toml
var thresholdFields = []thresholdField{
	{
		key: "vip_min_revenue",
		get: func(th Thresholds) interface{} { return th.VIPMinRevenue.InexactFloat64() },
		set: func(th *Thresholds, v string) error {
			d, err := decimal.NewFromString(strings.TrimSpace(v))
			if err != nil || d.IsNegative() {
				return fmt.Errorf("vip_min_revenue deve ser um valor não negativo")
			}
			th.VIPMinRevenue = d
			return nil
		},
	},
	intField("vip_min_purchases", func(th *Thresholds) *int { return &th.VIPMinPurchases }),
	intField("frequent_min_purchases", func(th *Thresholds) *int { return &th.FrequentMinPurchases }),
	intField("frequent_max_days", func(th *Thresholds) *int { return &th.FrequentMaxDays }),
	intField("occasional_max_days", func(th *Thresholds) *int { return &th.OccasionalMaxDays }),
	intField("single_purchase_min_days", func(th *Thresholds) *int { return &th.SinglePurchaseMinDays }),
	intField("inactive_min_days", func(th *Thresholds) *int { return &th.InactiveMinDays }),
	{
		key: "exclude_customer_marker",
		get: func(th Thresholds) interface{} { return th.ExcludeMarker },
		set: func(th *Thresholds, v string) error {
			th.ExcludeMarker = strings.ToUpper(strings.TrimSpace(v))
			return nil
		},
	},
}

func lookupThresholdField(key string) (thresholdField, bool) {
	for _, f := range thresholdFields {
		if f.key == key {
			return f, true
		}
	}
	return thresholdField{}, false
}

// IsThresholdKey indica se key é um parâmetro conhecido
func IsThresholdKey(key string) bool {
	_, ok := lookupThresholdField(key)
	return ok
}

// Set altera um parâmetro a partir do valor textual
func (th *Thresholds) Set(key, value string) error {
	field, ok := lookupThresholdField(key)
	if !ok {
		return fmt.Errorf("parâmetro desconhecido: %s", key)
	}
	return field.set(th, value)
}

// Values parâmetros por chave
func (th Thresholds) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(thresholdFields))
	for _, f := range thresholdFields {
		out[f.key] = f.get(th)
	}
	return out
}

// WithOverrides aplica ajustes por chave; chaves desconhecidas e valores inválidos são ignorados.
// Devolve também os ajustes efetivamente aplicados.
func (th Thresholds) WithOverrides(overrides map[string]string) (Thresholds, map[string]string) {
	applied := make(map[string]string)
	for key, value := range overrides {
		if err := th.Set(key, value); err != nil {
			continue
		}
		applied[key] = value
	}
	return th, applied
}
