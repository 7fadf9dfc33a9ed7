package sales

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	fileExt = ".txt"

	dailyDateLayout  = "02-01-2006"
	backupTimeLayout = "20060102_150405"
)

// NamingStrategy convenção de nomes de arquivo de uma categoria.
//
// Atacado e varejo usam formatos de data diferentes no arquivo consolidado
// (DD-MM-AAAA vs DDMMAAAA); cada categoria tem a sua estratégia.
type NamingStrategy interface {
	DailyFileName(day time.Time) string
	ConsolidatedFileName(day time.Time) string
	ParseDailyFileName(name string) (time.Time, bool)
	ParseConsolidatedFileName(name string) (time.Time, bool)
}

type fileNaming struct {
	dailyPrefix        string
	consolidatedPrefix string
	consolidatedLayout string
}

var (
	wholesaleNaming = fileNaming{
		dailyPrefix:        "atacado-",
		consolidatedPrefix: "Vendas até ",
		consolidatedLayout: "02-01-2006",
	}
	retailNaming = fileNaming{
		dailyPrefix:        "varejo-",
		consolidatedPrefix: "varejo_ate_",
		consolidatedLayout: "02012006",
	}
)

// NamingFor retorna a estratégia de nomes da categoria
func NamingFor(c Category) NamingStrategy {
	if c == Retail {
		return retailNaming
	}
	return wholesaleNaming
}

func (n fileNaming) DailyFileName(day time.Time) string {
	return n.dailyPrefix + day.Format(dailyDateLayout) + fileExt
}

func (n fileNaming) ConsolidatedFileName(day time.Time) string {
	return n.consolidatedPrefix + day.Format(n.consolidatedLayout) + fileExt
}

func (n fileNaming) ParseDailyFileName(name string) (time.Time, bool) {
	return parseDatedName(name, n.dailyPrefix, dailyDateLayout)
}

func (n fileNaming) ParseConsolidatedFileName(name string) (time.Time, bool) {
	return parseDatedName(name, n.consolidatedPrefix, n.consolidatedLayout)
}

// parseDatedName macOS grava nomes em NFD ("até" decomposto); compara sempre em NFC
func parseDatedName(name, prefix, layout string) (time.Time, bool) {
	name = norm.NFC.String(name)
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(strings.ToLower(name), fileExt) {
		return time.Time{}, false
	}
	raw := name[len(prefix) : len(name)-len(fileExt)]
	day, err := time.Parse(layout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// BackupFileName backup_[categoria]_AAAAMMDD_HHMMSS.txt
func BackupFileName(c Category, at time.Time) string {
	return fmt.Sprintf("backup_%s_%s%s", c.Label(), at.Format(backupTimeLayout), fileExt)
}
