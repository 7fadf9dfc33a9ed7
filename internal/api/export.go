package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"graos/internal/analysis"
	"graos/internal/exporter"
	"graos/internal/sales"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// exportWorkbook relatório completo da categoria, com a linha do tempo do mês de referência
func (h *Handler) exportWorkbook(category sales.Category, progress func(exporter.ProgressEvent)) (*excelize.File, *analysis.Report, error) {
	report, err := h.buildReport(category)
	if err != nil {
		return nil, nil, err
	}
	if !report.Reference.IsZero() {
		tl, err := h.buildTimeline(report.Reference.Year(), report.Reference.Month())
		if err != nil && !errors.Is(err, errNoData) {
			return nil, nil, err
		}
		report.Timeline = tl
	}
	f, err := exporter.ExportAnalysisWithProgress(report, progress)
	if err != nil {
		return nil, nil, err
	}
	return f, report, nil
}

// Export baixa o relatório xlsx
// GET /api/export?category=
func (h *Handler) Export(c *gin.Context) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}

	file, report, err := h.exportWorkbook(category, nil)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", buildExportContentDisposition(category, report.Reference))
	c.Header("Content-Type", xlsxContentType)
	if err := file.Write(c.Writer); err != nil {
		h.logger.Error("write export", zap.Error(err))
	}
}

// ExportStream gera o relatório com progresso via SSE e devolve um link de download
// POST /api/export/stream?category=
func (h *Handler) ExportStream(c *gin.Context) {
	category, ok := categoryParam(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming não suportado"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}
	fail := func(msg string, err error) {
		send(exportProgressEvent{Type: "error", Message: msg + ": " + err.Error(), Data: map[string]any{}, Timestamp: time.Now()})
	}

	send(exportProgressEvent{
		Type:      "start",
		Message:   "iniciando exportação",
		Data:      map[string]any{"category": category},
		Timestamp: time.Now(),
	})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	file, report, err := h.exportWorkbook(category, progressFn)
	if err != nil {
		fail("falha na exportação", err)
		return
	}
	defer file.Close()

	dir := h.exportDir
	if dir == "" {
		dir = os.TempDir()
	}
	tempPath := filepath.Join(dir, fmt.Sprintf("graos_export_%s.xlsx", uuid.NewString()))
	if err := file.SaveAs(tempPath); err != nil {
		_ = os.Remove(tempPath)
		fail("falha ao gravar o relatório", err)
		return
	}

	token := h.downloads.put(tempPath, category, report.Reference, 10*time.Minute)
	prefix := strings.TrimSuffix(c.FullPath(), "/export/stream")

	send(exportProgressEvent{
		Type:    "done",
		Message: "exportação concluída",
		Data: map[string]any{
			"percent":     100,
			"downloadUrl": fmt.Sprintf("%s/export/download/%s", prefix, token),
		},
		Timestamp: time.Now(),
	})
}

// DownloadExport download único de um relatório gerado por ExportStream
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token ausente"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "link de download expirado"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "arquivo de exportação não encontrado"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.category, item.reference))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}

// buildExportContentDisposition nome ASCII de fallback e nome em português (RFC 5987)
func buildExportContentDisposition(category sales.Category, reference time.Time) string {
	date := "sem-data"
	if !reference.IsZero() {
		date = reference.Format("2006-01-02")
	}
	ascii := fmt.Sprintf("analise-%s-%s.xlsx", category.Label(), date)
	utf8Name := fmt.Sprintf("Análise %s %s.xlsx", category.Label(), date)
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", ascii, url.PathEscape(utf8Name))
}
