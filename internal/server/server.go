package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"graos/internal/api"
	"graos/internal/config"
	"graos/internal/consolidation"
	"graos/internal/dailyfolder"
	"graos/internal/store"
)

// DBFileName banco SQLite dentro de data_dir
const DBFileName = "graos.db"

// Server servidor HTTP
type Server struct {
	router *gin.Engine
	store  *store.Store
	engine *consolidation.Engine
	layout *dailyfolder.Layout
	api    *api.Handler
	logger *zap.Logger
}

// NewServer monta store, motor de consolidação, layout das pastas e rotas
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	sqliteStore, err := store.New(filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	layout := dailyfolder.NewLayout(filepath.Join(dataDir, config.DirDaily))
	engine := NewEngine(cfg, dataDir, sqliteStore, logger)

	handler := api.NewHandler(api.Deps{
		Engine:     engine,
		Store:      sqliteStore,
		Layout:     layout,
		Thresholds: cfg.Analysis.Thresholds(),
		ExportDir:  filepath.Join(dataDir, config.DirExports),
		Logger:     logger.Named("api"),
	})

	s := &Server{
		router: gin.New(),
		store:  sqliteStore,
		engine: engine,
		layout: layout,
		api:    handler,
		logger: logger,
	}
	s.setupRoutes()
	return s, nil
}

// NewEngine motor de consolidação conforme a configuração.
// Com auto_backup os backups vão para data_dir/backups; sem, ficam ao lado do consolidado.
func NewEngine(cfg *config.AppConfig, dataDir string, recorder consolidation.Recorder, logger *zap.Logger) *consolidation.Engine {
	opts := []consolidation.Option{
		consolidation.WithLogger(logger.Named("consolidation")),
	}
	if recorder != nil {
		opts = append(opts, consolidation.WithRecorder(recorder))
	}
	if cfg.Data.AutoBackup {
		opts = append(opts, consolidation.WithBackupDir(filepath.Join(dataDir, config.DirBackups)))
	}
	return consolidation.NewEngine(opts...)
}

func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), s.requestLogger())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// Handler roteador HTTP (testes)
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run inicia o servidor
func (s *Server) Run(addr string) error {
	s.logger.Info("server listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close fecha o banco
func (s *Server) Close() error {
	return s.store.Close()
}
