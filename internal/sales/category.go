package sales

import (
	"fmt"
	"strings"
)

// Category categoria de vendas (atacado/varejo)
type Category string

const (
	Wholesale Category = "wholesale" // atacado
	Retail    Category = "retail"    // varejo
)

// Categories todas as categorias conhecidas, em ordem estável
var Categories = []Category{Wholesale, Retail}

// ParseCategory aceita o nome interno ou o rótulo em português
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wholesale", "atacado":
		return Wholesale, nil
	case "retail", "varejo":
		return Retail, nil
	}
	return "", fmt.Errorf("unknown sales category %q", s)
}

// Valid indica se a categoria é conhecida
func (c Category) Valid() bool {
	return c == Wholesale || c == Retail
}

// Label rótulo usado nos nomes de arquivo (atacado/varejo)
func (c Category) Label() string {
	switch c {
	case Wholesale:
		return "atacado"
	case Retail:
		return "varejo"
	}
	return string(c)
}

func (c Category) String() string {
	return string(c)
}
