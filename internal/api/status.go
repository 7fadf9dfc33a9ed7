package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"graos/internal/dailyfolder"
	"graos/internal/model"
	"graos/internal/sales"
	"graos/internal/store"
)

// CategoryStatus situação de uma categoria
type CategoryStatus struct {
	Category     sales.Category         `json:"category"`
	Label        string                 `json:"label"`
	Consolidated *dailyfolder.DatedFile `json:"consolidated"`
	DailyFiles   int                    `json:"dailyFiles"`
	LastIngest   *model.IngestRun       `json:"lastIngest"`
}

// StatusResponse situação geral
type StatusResponse struct {
	Initialized bool             `json:"initialized"` // existe ao menos um consolidado
	DataRoot    string           `json:"dataRoot"`
	Categories  []CategoryStatus `json:"categories"`
}

// GetStatus consolidado mais recente e última ingestão por categoria
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{DataRoot: h.layout.Root}

	for _, category := range sales.Categories {
		st := CategoryStatus{Category: category, Label: category.Label()}

		latest, err := h.layout.LatestConsolidated(category)
		switch {
		case err == nil:
			st.Consolidated = &latest
			resp.Initialized = true
		case !errors.Is(err, dailyfolder.ErrNotFound):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao ler a pasta de dados"})
			return
		}

		daily, err := h.layout.ListDailyFiles(category)
		if err == nil {
			st.DailyFiles = len(daily)
		}

		run, err := h.store.LastIngest(category.String())
		switch {
		case err == nil:
			st.LastIngest = &run
		case !errors.Is(err, store.ErrNoIngestRuns):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao consultar o histórico"})
			return
		}

		resp.Categories = append(resp.Categories, st)
	}

	c.JSON(http.StatusOK, resp)
}
