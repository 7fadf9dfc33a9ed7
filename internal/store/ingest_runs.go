package store

import (
	"database/sql"
	"errors"
	"fmt"

	"graos/internal/model"
)

// ErrNoIngestRuns nenhuma ingestão registrada
var ErrNoIngestRuns = errors.New("no ingest runs recorded")

const ingestRunColumns = `
	id, category, daily_file, consolidated_file, backup_file,
	historical_records, new_records, duplicates_dropped, total_records,
	status, error_kind, error_message, started_at, completed_at`

// RecordIngest grava uma execução de ingestão (idempotente pelo id)
func (s *Store) RecordIngest(run model.IngestRun) error {
	_, err := s.db.Exec(`
		INSERT INTO ingest_runs (`+ingestRunColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			backup_file = excluded.backup_file,
			historical_records = excluded.historical_records,
			new_records = excluded.new_records,
			duplicates_dropped = excluded.duplicates_dropped,
			total_records = excluded.total_records,
			status = excluded.status,
			error_kind = excluded.error_kind,
			error_message = excluded.error_message,
			completed_at = excluded.completed_at
	`,
		run.ID, run.Category, run.DailyFile, run.ConsolidatedFile, run.BackupFile,
		run.HistoricalRecords, run.NewRecords, run.DuplicatesDropped, run.TotalRecords,
		string(run.Status), run.ErrorKind, run.ErrorMessage, run.StartedAt.UTC(), run.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record ingest run: %w", err)
	}
	return nil
}

// ListIngestRuns execuções mais recentes primeiro; category vazia lista todas
func (s *Store) ListIngestRuns(category string, limit int) ([]model.IngestRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + ingestRunColumns + ` FROM ingest_runs`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY started_at DESC, completed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []model.IngestRun
	for rows.Next() {
		run, err := scanIngestRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastIngest execução mais recente da categoria
func (s *Store) LastIngest(category string) (model.IngestRun, error) {
	row := s.db.QueryRow(`
		SELECT `+ingestRunColumns+` FROM ingest_runs
		WHERE category = ?
		ORDER BY started_at DESC, completed_at DESC
		LIMIT 1
	`, category)
	run, err := scanIngestRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.IngestRun{}, ErrNoIngestRuns
	}
	return run, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIngestRun(row rowScanner) (model.IngestRun, error) {
	var (
		run    model.IngestRun
		status string
	)
	err := row.Scan(
		&run.ID, &run.Category, &run.DailyFile, &run.ConsolidatedFile, &run.BackupFile,
		&run.HistoricalRecords, &run.NewRecords, &run.DuplicatesDropped, &run.TotalRecords,
		&status, &run.ErrorKind, &run.ErrorMessage, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("failed to scan ingest run: %w", err)
	}
	run.Status = model.IngestStatus(status)
	return run, nil
}
