package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"graos/internal/consolidation"
	"graos/internal/model"
	"graos/internal/sales"
)

// Ingest recebe um arquivo diário e consolida
// POST /api/ingest (multipart: category, file, date opcional DD/MM/AAAA)
//
// Sem date, a data vem do nome do arquivo (atacado-DD-MM-AAAA.txt).
func (h *Handler) Ingest(c *gin.Context) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arquivo não enviado"})
		return
	}

	day, err := uploadDay(category, fh.Filename, c.PostForm("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "falha ao ler o arquivo enviado"})
		return
	}
	defer src.Close()

	// gravação do diário e escolha do consolidado de entrada ficam sob o lock da categoria
	var (
		planErr error
		planMsg string
	)
	result, err := h.engine.IngestPlanned(category, func() (consolidation.IngestRequest, error) {
		dailyPath, err := h.layout.SaveDaily(category, day, src)
		if err != nil {
			planErr, planMsg = err, "falha ao salvar o arquivo diário"
			return consolidation.IngestRequest{}, err
		}
		req, err := h.layout.PlanIngestForDay(category, dailyPath, day)
		if err != nil {
			planErr, planMsg = err, "falha ao localizar o consolidado"
			return consolidation.IngestRequest{}, err
		}
		return req, nil
	})
	if planErr != nil {
		h.logger.Error("prepare ingest", zap.String("category", category.String()), zap.Error(planErr))
		c.JSON(http.StatusInternalServerError, gin.H{"error": planMsg})
		return
	}
	if err != nil {
		c.JSON(ingestErrorStatus(err), gin.H{
			"error": err.Error(),
			"kind":  consolidation.KindName(err),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func uploadDay(category sales.Category, filename, date string) (time.Time, error) {
	if date = strings.TrimSpace(date); date != "" {
		day, err := sales.ParseDate(date)
		if err != nil {
			return time.Time{}, errors.New("data inválida: use DD/MM/AAAA")
		}
		return day, nil
	}
	naming := sales.NamingFor(category)
	if day, ok := naming.ParseDailyFileName(filename); ok {
		return day, nil
	}
	return time.Time{}, errors.New("informe a data ou envie o arquivo com o nome " +
		naming.DailyFileName(time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC)))
}

// ingestErrorStatus arquivo inválido é erro do cliente; falha de gravação é do servidor
func ingestErrorStatus(err error) int {
	switch {
	case errors.Is(err, consolidation.ErrMalformedInput), errors.Is(err, consolidation.ErrEncoding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, consolidation.ErrOutputExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ListHistory histórico de ingestões
// GET /api/history?category=&limit=
func (h *Handler) ListHistory(c *gin.Context) {
	category := ""
	if raw := c.Query("category"); raw != "" {
		parsed, ok := categoryParam(c)
		if !ok {
			return
		}
		category = parsed.String()
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit inválido"})
			return
		}
		limit = n
	}

	runs, err := h.store.ListIngestRuns(category, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao consultar o histórico"})
		return
	}
	if runs == nil {
		runs = []model.IngestRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
