package consolidation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"graos/internal/model"
	"graos/internal/sales"
)

// Recorder recebe o registro de cada execução (sucesso ou falha)
type Recorder interface {
	RecordIngest(run model.IngestRun) error
}

// IngestRequest caminhos explícitos de uma ingestão.
//
// ExistingFile pode não existir (histórico vazio). OutputFile vazio significa
// sobrescrever ExistingFile.
type IngestRequest struct {
	Category     sales.Category
	DailyFile    string
	ExistingFile string
	OutputFile   string
}

// IngestResult artefatos produzidos por uma ingestão
type IngestResult struct {
	RunID            string         `json:"runId"`
	Category         sales.Category `json:"category"`
	ConsolidatedFile string         `json:"consolidatedFile"`
	BackupFile       string         `json:"backupFile,omitempty"`
	Stats
}

// Engine motor de consolidação dos arquivos diários
type Engine struct {
	logger    *zap.Logger
	now       func() time.Time
	backupDir string
	recorder  Recorder

	locks map[sales.Category]*sync.Mutex
}

// Option configuração opcional do Engine
type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithBackupDir grava os backups em um diretório fixo em vez de ao lado do consolidado
func WithBackupDir(dir string) Option {
	return func(e *Engine) { e.backupDir = dir }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine cria o motor de consolidação
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: zap.NewNop(),
		now:    time.Now,
		locks:  make(map[sales.Category]*sync.Mutex, len(sales.Categories)),
	}
	for _, c := range sales.Categories {
		e.locks[c] = &sync.Mutex{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Planner monta a requisição de ingestão já dentro do lock da categoria
type Planner func() (IngestRequest, error)

// Ingest lê o arquivo diário, faz backup do consolidado atual e grava o novo consolidado.
//
// Leitura do consolidado, backup e gravação acontecem sob um lock por categoria.
// Em qualquer falha o consolidado anterior permanece intacto.
func (e *Engine) Ingest(req IngestRequest) (*IngestResult, error) {
	if !req.Category.Valid() {
		return nil, fmt.Errorf("invalid category %q", req.Category)
	}

	lock := e.locks[req.Category]
	lock.Lock()
	defer lock.Unlock()

	return e.ingest(req)
}

// IngestPlanned executa plan e a ingestão resultante sob o mesmo lock.
//
// Usado quando o consolidado de entrada é descoberto no disco ("o mais recente"):
// duas ingestões da mesma categoria nunca partem do mesmo consolidado.
func (e *Engine) IngestPlanned(c sales.Category, plan Planner) (*IngestResult, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %q", c)
	}

	lock := e.locks[c]
	lock.Lock()
	defer lock.Unlock()

	req, err := plan()
	if err != nil {
		return nil, err
	}
	if req.Category != c {
		return nil, fmt.Errorf("planned category %q does not match %q", req.Category, c)
	}
	return e.ingest(req)
}

func (e *Engine) ingest(req IngestRequest) (*IngestResult, error) {
	if req.DailyFile == "" {
		return nil, errors.New("daily file path is required")
	}
	output := req.OutputFile
	if output == "" {
		output = req.ExistingFile
	}
	if output == "" {
		return nil, errMissingOutputTarget
	}

	startedAt := e.now()
	result, err := e.ingestLocked(req, output)
	e.record(req, output, result, err, startedAt)

	if err != nil {
		e.logger.Error("ingest failed",
			zap.String("category", req.Category.String()),
			zap.String("daily_file", req.DailyFile),
			zap.String("consolidated_file", output),
			zap.String("error_kind", KindName(err)),
			zap.Error(err),
		)
		return nil, err
	}

	e.logger.Info("ingest completed",
		zap.String("category", req.Category.String()),
		zap.String("daily_file", req.DailyFile),
		zap.String("consolidated_file", result.ConsolidatedFile),
		zap.String("backup_file", result.BackupFile),
		zap.Int("historical_records", result.HistoricalRecords),
		zap.Int("new_records", result.NewRecords),
		zap.Int("duplicates_dropped", result.DuplicatesDropped),
		zap.Int("records", result.TotalRecords),
		zap.Duration("duration", e.now().Sub(startedAt)),
	)
	return result, nil
}

func (e *Engine) ingestLocked(req IngestRequest, output string) (*IngestResult, error) {
	// 1. arquivo diário
	dailyData, err := os.ReadFile(req.DailyFile)
	if err != nil {
		return nil, &IngestError{Kind: ErrInputRead, Category: req.Category, Path: req.DailyFile, Err: err}
	}
	daily, err := sales.Unmarshal(dailyData)
	if err != nil {
		return nil, classifyParseError(req.Category, req.DailyFile, err)
	}

	// 2. consolidado atual (ausente = histórico vazio)
	var (
		historical   *sales.Table
		existingData []byte
	)
	if req.ExistingFile != "" {
		existingData, err = os.ReadFile(req.ExistingFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			existingData = nil
		case err != nil:
			return nil, &IngestError{Kind: ErrInputRead, Category: req.Category, Path: req.ExistingFile, Err: err}
		default:
			historical, err = sales.Unmarshal(existingData)
			if err != nil {
				return nil, classifyParseError(req.Category, req.ExistingFile, err)
			}
		}
	}

	// um arquivo de saída que não é o consolidado lido seria sobrescrito sem merge
	if filepath.Clean(output) != filepath.Clean(req.ExistingFile) {
		_, err := os.Stat(output)
		switch {
		case err == nil:
			return nil, &IngestError{Kind: ErrOutputExists, Category: req.Category, Path: output,
				Err: errors.New("pass it as the existing consolidated file to merge into it")}
		case !errors.Is(err, os.ErrNotExist):
			return nil, &IngestError{Kind: ErrConsolidatedWrite, Category: req.Category, Path: output, Err: err}
		}
	}

	// 3. backup byte a byte do consolidado anterior
	backupPath := ""
	if historical != nil {
		backupPath, err = e.writeBackup(req.Category, req.ExistingFile, existingData)
		if err != nil {
			return nil, &IngestError{Kind: ErrBackupWrite, Category: req.Category, Path: backupPath, Err: err}
		}
	}

	// 4-6. merge, dedup, ordenação
	merged, stats := Consolidate(historical, daily)

	// 7. grava em temporário e renomeia
	data, err := sales.Marshal(merged)
	if err != nil {
		return nil, &IngestError{Kind: ErrConsolidatedWrite, Category: req.Category, Path: output, Err: err}
	}
	if err := writeBytesAtomic(output, data); err != nil {
		return nil, &IngestError{Kind: ErrConsolidatedWrite, Category: req.Category, Path: output, Err: err}
	}

	return &IngestResult{
		RunID:            uuid.NewString(),
		Category:         req.Category,
		ConsolidatedFile: output,
		BackupFile:       backupPath,
		Stats:            stats,
	}, nil
}

func (e *Engine) writeBackup(c sales.Category, existing string, data []byte) (string, error) {
	dir := e.backupDir
	if dir == "" {
		dir = filepath.Dir(existing)
	}
	if err := ensureDir(dir); err != nil {
		return dir, err
	}
	path := uniquePath(dir, sales.BackupFileName(c, e.now()))
	if err := writeBytesAtomic(path, data); err != nil {
		return path, err
	}
	return path, nil
}

func (e *Engine) record(req IngestRequest, output string, result *IngestResult, ingestErr error, startedAt time.Time) {
	if e.recorder == nil {
		return
	}

	run := model.IngestRun{
		ID:               uuid.NewString(),
		Category:         req.Category.String(),
		DailyFile:        req.DailyFile,
		ConsolidatedFile: output,
		Status:           model.IngestSucceeded,
		StartedAt:        startedAt.UTC(),
		CompletedAt:      e.now().UTC(),
	}
	if result != nil {
		run.ID = result.RunID
		run.BackupFile = result.BackupFile
		run.HistoricalRecords = result.HistoricalRecords
		run.NewRecords = result.NewRecords
		run.DuplicatesDropped = result.DuplicatesDropped
		run.TotalRecords = result.TotalRecords
	}
	if ingestErr != nil {
		run.Status = model.IngestFailed
		run.ErrorKind = KindName(ingestErr)
		run.ErrorMessage = ingestErr.Error()
	}

	if err := e.recorder.RecordIngest(run); err != nil {
		e.logger.Warn("record ingest run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}
