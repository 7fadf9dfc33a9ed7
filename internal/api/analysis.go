package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"graos/internal/analysis"
	"graos/internal/dailyfolder"
	"graos/internal/sales"
)

var errNoData = errors.New("nenhum consolidado encontrado")

// buildReport análises da categoria sobre o consolidado mais recente
func (h *Handler) buildReport(category sales.Category) (*analysis.Report, error) {
	th, _, err := h.currentThresholds()
	if err != nil {
		return nil, err
	}
	table, latest, err := h.layout.LoadLatest(category)
	if err != nil {
		if errors.Is(err, dailyfolder.ErrNotFound) {
			return nil, errNoData
		}
		return nil, err
	}
	report := analysis.Analyze(category, table.Records, th)
	report.Source = latest.Path
	return &report, nil
}

// loadAll registros de cada categoria; categoria sem consolidado fica vazia
func (h *Handler) loadAll() (map[sales.Category][]sales.SalesRecord, error) {
	out := make(map[sales.Category][]sales.SalesRecord, len(sales.Categories))
	for _, category := range sales.Categories {
		table, _, err := h.layout.LoadLatest(category)
		switch {
		case errors.Is(err, dailyfolder.ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}
		out[category] = table.Records
	}
	return out, nil
}

// buildTimeline linha do tempo do mês; year/month zero usa o mês mais recente com vendas
func (h *Handler) buildTimeline(year int, month time.Month) (*analysis.Timeline, error) {
	records, err := h.loadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errNoData
	}
	if year == 0 || month == 0 {
		var ref time.Time
		for _, list := range records {
			if r := analysis.ReferenceDate(list); r.After(ref) {
				ref = r
			}
		}
		if ref.IsZero() {
			return nil, errNoData
		}
		year, month = ref.Year(), ref.Month()
	}
	tl := analysis.DailyTimeline(records[sales.Wholesale], records[sales.Retail], year, month)
	return &tl, nil
}

func (h *Handler) respondAnalysisError(c *gin.Context, err error) {
	if errors.Is(err, errNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("analysis failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao calcular a análise"})
}

func (h *Handler) withReport(c *gin.Context, respond func(*analysis.Report) interface{}) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}
	report, err := h.buildReport(category)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, respond(report))
}

// GetSegmentation segmentação de clientes
// GET /api/analysis/segmentation?category=
func (h *Handler) GetSegmentation(c *gin.Context) {
	h.withReport(c, func(r *analysis.Report) interface{} {
		return gin.H{"category": r.Category, "reference": r.Reference, "segmentation": r.Segmentation}
	})
}

// GetNewCustomers clientes novos por mês
// GET /api/analysis/new-customers?category=
func (h *Handler) GetNewCustomers(c *gin.Context) {
	h.withReport(c, func(r *analysis.Report) interface{} {
		return gin.H{"category": r.Category, "reference": r.Reference, "months": r.NewCustomers}
	})
}

// GetReactivation clientes para reativação
// GET /api/analysis/reactivation?category=
func (h *Handler) GetReactivation(c *gin.Context) {
	h.withReport(c, func(r *analysis.Report) interface{} {
		return gin.H{"category": r.Category, "reference": r.Reference, "reactivation": r.Reactivation}
	})
}

// GetTimeline vendas diárias de atacado e varejo no mês
// GET /api/analysis/timeline?year=&month=
func (h *Handler) GetTimeline(c *gin.Context) {
	year, month, ok := yearMonthParams(c)
	if !ok {
		return
	}
	tl, err := h.buildTimeline(year, month)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, tl)
}

func yearMonthParams(c *gin.Context) (int, time.Month, bool) {
	rawYear, rawMonth := c.Query("year"), c.Query("month")
	if rawYear == "" && rawMonth == "" {
		return 0, 0, true
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil || year < 2000 || year > 2100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ano inválido"})
		return 0, 0, false
	}
	month, err := strconv.Atoi(rawMonth)
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mês inválido"})
		return 0, 0, false
	}
	return year, time.Month(month), true
}
