package dailyfolder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graos/internal/sales"
)

func day(d int) time.Time {
	return time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("Data\tCliente\tTotal\n"), 0644))
}

func TestLatestConsolidated_PicksNewestPerCategory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	l := NewLayout(root)

	touch(t, filepath.Join(root, "Vendas até 24-07-2025.txt"))
	touch(t, l.ConsolidatedPath(sales.Wholesale, day(26)))
	touch(t, l.ConsolidatedPath(sales.Wholesale, day(25)))
	touch(t, l.ConsolidatedPath(sales.Retail, day(28)))
	touch(t, filepath.Join(root, "2025-07-27", "notas.txt"))
	touch(t, filepath.Join(root, "rascunho", "Vendas até 30-07-2025.txt"))

	latest, err := l.LatestConsolidated(sales.Wholesale)
	require.NoError(t, err)
	assert.Equal(t, l.ConsolidatedPath(sales.Wholesale, day(26)), latest.Path)
	assert.Equal(t, day(26), latest.Day)

	latest, err = l.LatestConsolidated(sales.Retail)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "2025-07-28", "varejo_ate_28072025.txt"), latest.Path)
}

func TestLatestConsolidated_NotFound(t *testing.T) {
	t.Parallel()

	_, err := NewLayout(filepath.Join(t.TempDir(), "missing")).LatestConsolidated(sales.Retail)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadLatest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	l := NewLayout(root)
	path := l.ConsolidatedPath(sales.Retail, day(26))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("Data\tCliente\tTotal\n26/07/2025\tC1\t10,50\n"), 0644))

	table, latest, err := l.LoadLatest(sales.Retail)
	require.NoError(t, err)
	assert.Equal(t, path, latest.Path)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "10.5", table.Records[0].TotalSale.String())

	_, _, err = l.LoadLatest(sales.Wholesale)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDailyFiles_SortedByDate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	l := NewLayout(root)
	touch(t, l.DailyPath(sales.Retail, day(27)))
	touch(t, l.DailyPath(sales.Retail, day(25)))
	touch(t, l.DailyPath(sales.Wholesale, day(26)))

	files, err := l.ListDailyFiles(sales.Retail)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, day(25), files[0].Day)
	assert.Equal(t, day(27), files[1].Day)
}

func TestPlanIngest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	l := NewLayout(root)
	touch(t, l.ConsolidatedPath(sales.Wholesale, day(25)))

	req, err := l.PlanIngest(sales.Wholesale, l.DailyPath(sales.Wholesale, day(26)))
	require.NoError(t, err)
	assert.Equal(t, l.ConsolidatedPath(sales.Wholesale, day(25)), req.ExistingFile)
	assert.Equal(t, filepath.Join(root, "2025-07-26", "Vendas até 26-07-2025.txt"), req.OutputFile)

	// reprocessar um dia antigo não faz o consolidado "voltar no tempo"
	req, err = l.PlanIngest(sales.Wholesale, l.DailyPath(sales.Wholesale, day(20)))
	require.NoError(t, err)
	assert.Equal(t, l.ConsolidatedPath(sales.Wholesale, day(25)), req.OutputFile)

	req, err = l.PlanIngest(sales.Retail, l.DailyPath(sales.Retail, day(26)))
	require.NoError(t, err)
	assert.Empty(t, req.ExistingFile)
	assert.Equal(t, l.ConsolidatedPath(sales.Retail, day(26)), req.OutputFile)

	_, err = l.PlanIngest(sales.Retail, filepath.Join(root, "vendas.txt"))
	assert.Error(t, err)
}

func TestLatestConsolidated_DayFolderWinsOverLooseFileOfSameDate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	l := NewLayout(root)
	touch(t, filepath.Join(root, "Vendas até 26-07-2025.txt"))
	touch(t, l.ConsolidatedPath(sales.Wholesale, day(26)))

	latest, err := l.LatestConsolidated(sales.Wholesale)
	require.NoError(t, err)
	assert.Equal(t, l.ConsolidatedPath(sales.Wholesale, day(26)), latest.Path)

	req, err := l.PlanIngest(sales.Wholesale, l.DailyPath(sales.Wholesale, day(26)))
	require.NoError(t, err)
	assert.Equal(t, req.OutputFile, req.ExistingFile)
}

func TestSaveDaily(t *testing.T) {
	t.Parallel()

	l := NewLayout(t.TempDir())
	path, err := l.SaveDaily(sales.Retail, day(26), strings.NewReader("conteudo"))
	require.NoError(t, err)
	assert.Equal(t, l.DailyPath(sales.Retail, day(26)), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "conteudo", string(data))
}
