package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"graos/internal/analysis"
	"graos/internal/consolidation"
	"graos/internal/dailyfolder"
	"graos/internal/sales"
	"graos/internal/store"
)

// Deps dependências do Handler
type Deps struct {
	Engine     *consolidation.Engine
	Store      *store.Store
	Layout     *dailyfolder.Layout
	Thresholds analysis.Thresholds
	ExportDir  string
	Logger     *zap.Logger
}

// Handler API HTTP da consolidação e das análises
type Handler struct {
	engine     *consolidation.Engine
	store      *store.Store
	layout     *dailyfolder.Layout
	thresholds analysis.Thresholds
	exportDir  string
	logger     *zap.Logger
	downloads  *exportDownloadStore
}

// NewHandler cria o Handler
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:     d.Engine,
		store:      d.Store,
		layout:     d.Layout,
		thresholds: d.Thresholds,
		exportDir:  d.ExportDir,
		logger:     logger,
		downloads:  newExportDownloadStore(),
	}
}

// RegisterRoutes registra as rotas sob /api
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)

	// ingestão de arquivos diários
	router.POST("/ingest", h.Ingest)
	router.GET("/history", h.ListHistory)

	// parâmetros da análise
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// análises
	analyses := router.Group("/analysis")
	analyses.GET("/segmentation", h.GetSegmentation)
	analyses.GET("/new-customers", h.GetNewCustomers)
	analyses.GET("/reactivation", h.GetReactivation)
	analyses.GET("/timeline", h.GetTimeline)

	// exportação
	router.GET("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
}

// categoryParam lê ?category= (aceita atacado/varejo); responde 400 se inválida
func categoryParam(c *gin.Context) (sales.Category, bool) {
	raw := c.Query("category")
	if raw == "" {
		raw = c.PostForm("category")
	}
	category, err := sales.ParseCategory(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "categoria inválida: use atacado ou varejo"})
		return "", false
	}
	return category, true
}
