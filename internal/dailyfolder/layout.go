package dailyfolder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"graos/internal/consolidation"
	"graos/internal/sales"
)

// FolderDateLayout nome das pastas diárias (dados_diarios/2025-07-28)
const FolderDateLayout = "2006-01-02"

// ErrNotFound nenhum consolidado encontrado para a categoria
var ErrNotFound = errors.New("no consolidated file found")

// DatedFile arquivo com a data extraída do nome
type DatedFile struct {
	Path string    `json:"path"`
	Day  time.Time `json:"day"`
}

// Layout organização em pastas diárias sob Root.
// Arquivos soltos diretamente em Root também são considerados.
type Layout struct {
	Root string
}

// NewLayout cria o layout sobre o diretório raiz
func NewLayout(root string) *Layout {
	return &Layout{Root: root}
}

// FolderFor pasta do dia
func (l *Layout) FolderFor(day time.Time) string {
	return filepath.Join(l.Root, day.Format(FolderDateLayout))
}

// EnsureFolder cria a pasta do dia se necessário
func (l *Layout) EnsureFolder(day time.Time) (string, error) {
	dir := l.FolderFor(day)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create daily folder %s: %w", dir, err)
	}
	return dir, nil
}

// DailyPath caminho canônico do arquivo diário da categoria
func (l *Layout) DailyPath(c sales.Category, day time.Time) string {
	return filepath.Join(l.FolderFor(day), sales.NamingFor(c).DailyFileName(day))
}

// ConsolidatedPath caminho canônico do consolidado da categoria até o dia
func (l *Layout) ConsolidatedPath(c sales.Category, day time.Time) string {
	return filepath.Join(l.FolderFor(day), sales.NamingFor(c).ConsolidatedFileName(day))
}

// LatestConsolidated consolidado mais recente da categoria (pela data no nome)
func (l *Layout) LatestConsolidated(c sales.Category) (DatedFile, error) {
	files, err := l.scan(sales.NamingFor(c).ParseConsolidatedFileName)
	if err != nil {
		return DatedFile{}, err
	}
	if len(files) == 0 {
		return DatedFile{}, ErrNotFound
	}
	return files[len(files)-1], nil
}

// LoadLatest lê o consolidado mais recente da categoria
func (l *Layout) LoadLatest(c sales.Category) (*sales.Table, DatedFile, error) {
	latest, err := l.LatestConsolidated(c)
	if err != nil {
		return nil, DatedFile{}, err
	}
	data, err := os.ReadFile(latest.Path)
	if err != nil {
		return nil, latest, fmt.Errorf("read consolidated file %s: %w", latest.Path, err)
	}
	table, err := sales.Unmarshal(data)
	if err != nil {
		return nil, latest, fmt.Errorf("parse consolidated file %s: %w", latest.Path, err)
	}
	return table, latest, nil
}

// ListDailyFiles arquivos diários da categoria em ordem de data
func (l *Layout) ListDailyFiles(c sales.Category) ([]DatedFile, error) {
	return l.scan(sales.NamingFor(c).ParseDailyFileName)
}

// SaveDaily grava um upload na pasta do dia com o nome canônico
func (l *Layout) SaveDaily(c sales.Category, day time.Time, r io.Reader) (string, error) {
	if _, err := l.EnsureFolder(day); err != nil {
		return "", err
	}
	path := l.DailyPath(c, day)
	tmp := path + ".upload"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create daily file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write daily file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close daily file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("move daily file: %w", err)
	}
	return path, nil
}

// PlanIngest monta a requisição de ingestão a partir do arquivo diário.
//
// A data vem do nome do arquivo diário; o consolidado de entrada é o mais recente
// encontrado e o de saída é nomeado pela maior data entre os dois.
func (l *Layout) PlanIngest(c sales.Category, dailyPath string) (consolidation.IngestRequest, error) {
	day, ok := sales.NamingFor(c).ParseDailyFileName(filepath.Base(dailyPath))
	if !ok {
		return consolidation.IngestRequest{}, fmt.Errorf("daily file name %q does not match %s", filepath.Base(dailyPath), sales.NamingFor(c).DailyFileName(time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC)))
	}
	return l.PlanIngestForDay(c, dailyPath, day)
}

// PlanIngestForDay igual a PlanIngest, com a data informada explicitamente
func (l *Layout) PlanIngestForDay(c sales.Category, dailyPath string, day time.Time) (consolidation.IngestRequest, error) {
	req := consolidation.IngestRequest{Category: c, DailyFile: dailyPath}

	outDay := day
	latest, err := l.LatestConsolidated(c)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return consolidation.IngestRequest{}, err
	default:
		req.ExistingFile = latest.Path
		if latest.Day.After(outDay) {
			outDay = latest.Day
		}
	}
	req.OutputFile = l.ConsolidatedPath(c, outDay)
	return req, nil
}

// scan percorre Root e as pastas diárias procurando nomes reconhecidos por parse
func (l *Layout) scan(parse func(string) (time.Time, bool)) ([]DatedFile, error) {
	entries, err := os.ReadDir(l.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data root %s: %w", l.Root, err)
	}

	var out []DatedFile
	collect := func(dir string, list []os.DirEntry) {
		for _, e := range list {
			if e.IsDir() {
				continue
			}
			if day, ok := parse(e.Name()); ok {
				out = append(out, DatedFile{Path: filepath.Join(dir, e.Name()), Day: day})
			}
		}
	}

	collect(l.Root, entries)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(FolderDateLayout, e.Name()); err != nil {
			continue
		}
		dir := filepath.Join(l.Root, e.Name())
		sub, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read daily folder %s: %w", dir, err)
		}
		collect(dir, sub)
	}

	// mesma data: arquivo em pasta diária vence arquivo solto em Root; entre pastas,
	// a mais recente (ordem lexicográfica dos caminhos)
	loose := func(f DatedFile) bool { return filepath.Dir(f.Path) == filepath.Clean(l.Root) }
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		if li, lj := loose(out[i]), loose(out[j]); li != lj {
			return li
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}
