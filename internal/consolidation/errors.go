package consolidation

import (
	"errors"
	"fmt"

	"graos/internal/sales"
)

// Tipos de falha de uma ingestão. Nenhum é repetido automaticamente.
var (
	ErrInputRead           = errors.New("input read failed")
	ErrMalformedInput      = errors.New("malformed input")
	ErrEncoding            = errors.New("encoding error")
	ErrOutputExists        = errors.New("output file exists and is not the consolidated input")
	ErrBackupWrite         = errors.New("backup write failed")
	ErrConsolidatedWrite   = errors.New("consolidated write failed")
	errMissingOutputTarget = errors.New("no consolidated file path given")
)

// IngestError falha de ingestão com contexto suficiente para uma mensagem ao usuário
type IngestError struct {
	Kind     error
	Category sales.Category
	Path     string
	Err      error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("%v (%s, %s): %v", e.Kind, e.Category, e.Path, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Is permite errors.Is(err, ErrBackupWrite) etc.
func (e *IngestError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// KindName nome estável do tipo de falha (usado no histórico e na API)
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInputRead):
		return "input_read"
	case errors.Is(err, ErrOutputExists):
		return "output_exists"
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrBackupWrite):
		return "backup_write"
	case errors.Is(err, ErrConsolidatedWrite):
		return "consolidated_write"
	case err == nil:
		return ""
	}
	return "internal"
}

// classifyParseError converte erros do codec para a taxonomia de ingestão
func classifyParseError(c sales.Category, path string, err error) error {
	kind := ErrMalformedInput
	if errors.Is(err, sales.ErrEncoding) {
		kind = ErrEncoding
	}
	return &IngestError{Kind: kind, Category: c, Path: path, Err: err}
}
