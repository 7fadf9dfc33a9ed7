package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"graos/internal/analysis"
	"graos/internal/consolidation"
	"graos/internal/dailyfolder"
	"graos/internal/sales"
	"graos/internal/store"
)

type testEnv struct {
	router *gin.Engine
	layout *dailyfolder.Layout
	store  *store.Store
	root   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "graos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	layout := dailyfolder.NewLayout(filepath.Join(dir, "daily"))
	clock := time.Date(2025, 7, 27, 8, 0, 0, 0, time.UTC)
	engine := consolidation.NewEngine(
		consolidation.WithRecorder(st),
		consolidation.WithBackupDir(filepath.Join(dir, "backups")),
		consolidation.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)

	h := NewHandler(Deps{
		Engine:     engine,
		Store:      st,
		Layout:     layout,
		Thresholds: analysis.DefaultThresholds(),
		ExportDir:  filepath.Join(dir, "exports"),
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "exports"), 0755))

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return &testEnv{router: r, layout: layout, store: st, root: dir}
}

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(b)
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) upload(t *testing.T, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, uploadRequest(t, fields, filename, content))
}

func uploadRequest(t *testing.T, fields map[string]string, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

const header = "Data\tCliente\tTotal_Venda\n"

func TestIngest_CreatesAndExtendsConsolidated(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, map[string]string{"category": "atacado"}, "atacado-25-07-2025.txt",
		latin1(t, header+"25/07/2025\tMERCADO SÃO JOÃO\t1.500,50\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var first consolidation.IngestResult
	decode(t, w, &first)
	assert.Equal(t, sales.Wholesale, first.Category)
	assert.Empty(t, first.BackupFile)
	assert.Equal(t, 1, first.TotalRecords)
	assert.Equal(t, env.layout.ConsolidatedPath(sales.Wholesale, time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC)), first.ConsolidatedFile)

	w = env.upload(t, map[string]string{"category": "wholesale", "date": "26/07/2025"}, "qualquer.txt",
		latin1(t, header+"26/07/2025\tPADARIA BOM PÃO\t80,00\n25/07/2025\tMERCADO SÃO JOÃO\t1.500,50\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var second consolidation.IngestResult
	decode(t, w, &second)
	assert.NotEmpty(t, second.BackupFile)
	assert.FileExists(t, second.BackupFile)
	assert.Equal(t, 1, second.HistoricalRecords)
	assert.Equal(t, 1, second.DuplicatesDropped)
	assert.Equal(t, 2, second.TotalRecords)
	assert.Equal(t, "Vendas até 26-07-2025.txt", filepath.Base(second.ConsolidatedFile))

	data, err := os.ReadFile(second.ConsolidatedFile)
	require.NoError(t, err)
	assert.Equal(t, latin1(t, header+"25/07/2025\tMERCADO SÃO JOÃO\t1.500,50\n26/07/2025\tPADARIA BOM PÃO\t80,00\n"), data)

	w = env.get(t, "/api/history?category=atacado")
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Runs []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"runs"`
	}
	decode(t, w, &history)
	require.Len(t, history.Runs, 2)
	assert.Equal(t, second.RunID, history.Runs[0].ID)
	assert.Equal(t, "succeeded", history.Runs[0].Status)

	w = env.get(t, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)
	var status StatusResponse
	decode(t, w, &status)
	assert.True(t, status.Initialized)
	require.Len(t, status.Categories, 2)
	require.NotNil(t, status.Categories[0].Consolidated)
	assert.Equal(t, second.ConsolidatedFile, status.Categories[0].Consolidated.Path)
	assert.Equal(t, 2, status.Categories[0].DailyFiles)
	require.NotNil(t, status.Categories[0].LastIngest)
	assert.Nil(t, status.Categories[1].Consolidated)
	assert.Nil(t, status.Categories[1].LastIngest)
}

func TestIngest_ConcurrentUploadsKeepEveryDay(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, map[string]string{"category": "atacado"}, "atacado-25-07-2025.txt",
		latin1(t, header+"25/07/2025\tC1\t100\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	days := []int{26, 27, 28, 29}
	reqs := make([]*http.Request, len(days))
	for i, d := range days {
		reqs[i] = uploadRequest(t, map[string]string{"category": "atacado"}, fmt.Sprintf("atacado-%02d-07-2025.txt", d),
			latin1(t, header+fmt.Sprintf("%02d/07/2025\tD%d\t1\n", d, d)))
	}

	recs := make([]*httptest.ResponseRecorder, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		i, req := i, req
		recs[i] = httptest.NewRecorder()
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.router.ServeHTTP(recs[i], req)
		}()
	}
	wg.Wait()
	for _, rec := range recs {
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	table, latest, err := env.layout.LoadLatest(sales.Wholesale)
	require.NoError(t, err)
	assert.Equal(t, env.layout.ConsolidatedPath(sales.Wholesale, time.Date(2025, 7, 29, 0, 0, 0, 0, time.UTC)), latest.Path)

	var customers []string
	for _, r := range table.Records {
		customers = append(customers, r.CustomerID)
	}
	assert.Equal(t, []string{"C1", "D26", "D27", "D28", "D29"}, customers)
}

func TestIngest_Errors(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name     string
		fields   map[string]string
		filename string
		content  []byte
		status   int
		kind     string
	}{
		{"invalid category", map[string]string{"category": "granel"}, "atacado-25-07-2025.txt", []byte(header), http.StatusBadRequest, ""},
		{"missing file", map[string]string{"category": "varejo"}, "", nil, http.StatusBadRequest, ""},
		{"undated file name", map[string]string{"category": "varejo"}, "vendas.txt", []byte(header), http.StatusBadRequest, ""},
		{"invalid date field", map[string]string{"category": "varejo", "date": "2025-07-26"}, "vendas.txt", []byte(header), http.StatusBadRequest, ""},
		{"missing amount column", map[string]string{"category": "varejo"}, "varejo-26-07-2025.txt", []byte("Data\tCliente\n26/07/2025\tC1\n"), http.StatusUnprocessableEntity, "malformed_input"},
		{"utf-8 content", map[string]string{"category": "varejo"}, "varejo-26-07-2025.txt", []byte(header + "26/07/2025\tSÃO\t1,00\n"), http.StatusUnprocessableEntity, "encoding"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.upload(t, tc.fields, tc.filename, tc.content)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			if tc.kind != "" {
				var body map[string]string
				decode(t, w, &body)
				assert.Equal(t, tc.kind, body["kind"])
			}
		})
	}

	// falhas também entram no histórico
	w := env.get(t, "/api/history?category=varejo&limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"failed"`)

	assert.Equal(t, http.StatusBadRequest, env.get(t, "/api/history?limit=abc").Code)
}

func seedAnalysisData(t *testing.T, env *testEnv) {
	t.Helper()
	w := env.upload(t, map[string]string{"category": "atacado"}, "atacado-28-07-2025.txt", latin1(t, header+
		"01/05/2025\tMERCADO ANTIGO\t300,00\n"+
		"01/07/2025\tMERCADO SÃO JOÃO\t1.500,50\n"+
		"15/07/2025\tMERCADO SÃO JOÃO\t200,00\n"+
		"28/07/2025\tMERCADO SÃO JOÃO\t100,00\n"+
		"28/07/2025\tDEVOLUCAO MERCADO\t50,00\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.upload(t, map[string]string{"category": "varejo"}, "varejo-28-07-2025.txt", latin1(t, header+
		"01/07/2025\tCLIENTE BALCÃO\t20,00\n"+
		"28/07/2025\tCLIENTE BALCÃO\t30,00\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAnalysisEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusNotFound, env.get(t, "/api/analysis/segmentation?category=atacado").Code)
	assert.Equal(t, http.StatusNotFound, env.get(t, "/api/analysis/timeline").Code)
	assert.Equal(t, http.StatusBadRequest, env.get(t, "/api/analysis/segmentation").Code)

	seedAnalysisData(t, env)

	w := env.get(t, "/api/analysis/segmentation?category=atacado")
	require.Equal(t, http.StatusOK, w.Code)
	var seg struct {
		Segmentation analysis.Segmentation `json:"segmentation"`
	}
	decode(t, w, &seg)
	assert.Equal(t, 2, seg.Segmentation.TotalCustomers)
	assert.Equal(t, 1, seg.Segmentation.ActiveCustomers)

	w = env.get(t, "/api/analysis/reactivation?category=atacado")
	require.Equal(t, http.StatusOK, w.Code)
	var react struct {
		Reactivation analysis.Reactivation `json:"reactivation"`
	}
	decode(t, w, &react)
	require.Len(t, react.Reactivation.SinglePurchase, 1)
	assert.Equal(t, "MERCADO ANTIGO", react.Reactivation.SinglePurchase[0].CustomerID)

	w = env.get(t, "/api/analysis/new-customers?category=varejo")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"month":"2025-07"`)

	w = env.get(t, "/api/analysis/timeline")
	require.Equal(t, http.StatusOK, w.Code)
	var tl analysis.Timeline
	decode(t, w, &tl)
	assert.Equal(t, 2025, tl.Year)
	assert.Equal(t, time.July, tl.Month)
	require.Len(t, tl.Days, 3)
	assert.Equal(t, 2, tl.Days[0].TotalCount)

	w = env.get(t, "/api/analysis/timeline?year=2025&month=5")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tl)
	assert.Len(t, tl.Days, 1)

	assert.Equal(t, http.StatusBadRequest, env.get(t, "/api/analysis/timeline?year=2025&month=13").Code)
}

func TestConfigEndpoints(t *testing.T) {
	env := newTestEnv(t)

	patch := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/config", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return env.do(t, req)
	}

	w := patch(`{"updates":{"vip_min_purchases":3,"exclude_customer_marker":"estorno"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cfg struct {
		Analysis  map[string]interface{} `json:"analysis"`
		Defaults  map[string]interface{} `json:"defaults"`
		Overrides map[string]string      `json:"overrides"`
	}
	decode(t, w, &cfg)
	assert.Equal(t, float64(3), cfg.Analysis["vip_min_purchases"])
	assert.Equal(t, float64(5), cfg.Defaults["vip_min_purchases"])
	assert.Equal(t, "ESTORNO", cfg.Analysis["exclude_customer_marker"])
	assert.Equal(t, "3", cfg.Overrides["vip_min_purchases"])

	assert.Equal(t, http.StatusBadRequest, patch(`{"updates":{"unknown":1}}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{"updates":{"inactive_min_days":-1}}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{"updates":{"inactive_min_days":true}}`).Code)

	w = patch(`{"updates":{"vip_min_purchases":null}}`)
	require.Equal(t, http.StatusOK, w.Code)
	cfg.Analysis, cfg.Overrides = nil, nil
	decode(t, w, &cfg)
	assert.Equal(t, float64(5), cfg.Analysis["vip_min_purchases"])
	assert.NotContains(t, cfg.Overrides, "vip_min_purchases")
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	seedAnalysisData(t, env)

	w := env.get(t, "/api/export?category=atacado")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "analise-atacado-2025-07-28.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Linha do Tempo")

	assert.Equal(t, http.StatusNotFound, newTestEnv(t).get(t, "/api/export?category=varejo").Code)
}

func TestExportStream_DownloadOnce(t *testing.T) {
	env := newTestEnv(t)
	seedAnalysisData(t, env)

	w := env.do(t, httptest.NewRequest(http.MethodPost, "/api/export/stream?category=varejo", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var done exportProgressEvent
	scanner := bufio.NewScanner(strings.NewReader(w.Body.String()))
	for scanner.Scan() {
		line, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		var ev exportProgressEvent
		require.NoError(t, json.Unmarshal([]byte(line), &ev))
		if ev.Type == "done" {
			done = ev
		}
	}
	require.Equal(t, "done", done.Type, w.Body.String())
	url := done.Data.(map[string]interface{})["downloadUrl"].(string)
	assert.True(t, strings.HasPrefix(url, "/api/export/download/"))

	w = env.get(t, url)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, env.get(t, url).Code)
}

func TestBuildExportContentDisposition(t *testing.T) {
	t.Parallel()

	got := buildExportContentDisposition(sales.Retail, time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC))
	want := `attachment; filename="analise-varejo-2025-07-28.xlsx"; filename*=UTF-8''An%C3%A1lise%20varejo%202025-07-28.xlsx`
	assert.Equal(t, want, got)
}

func TestExportDownloadStore_Expires(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 7, 28, 10, 0, 0, 0, time.UTC)
	s := newExportDownloadStore()
	s.now = func() time.Time { return now }

	token := s.put("/tmp/a.xlsx", sales.Wholesale, now, time.Minute)
	_, ok := s.get(token)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = s.get(token)
	assert.False(t, ok)
}
