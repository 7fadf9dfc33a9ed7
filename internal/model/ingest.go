package model

import "time"

// IngestStatus situação de uma execução de ingestão
type IngestStatus string

const (
	IngestSucceeded IngestStatus = "succeeded"
	IngestFailed    IngestStatus = "failed"
)

// IngestRun registro de uma execução de consolidação de arquivo diário
type IngestRun struct {
	ID                string       `json:"id"`
	Category          string       `json:"category"`
	DailyFile         string       `json:"dailyFile"`
	ConsolidatedFile  string       `json:"consolidatedFile"`
	BackupFile        string       `json:"backupFile,omitempty"`
	HistoricalRecords int          `json:"historicalRecords"`
	NewRecords        int          `json:"newRecords"`
	DuplicatesDropped int          `json:"duplicatesDropped"`
	TotalRecords      int          `json:"totalRecords"`
	Status            IngestStatus `json:"status"`
	ErrorKind         string       `json:"errorKind,omitempty"`
	ErrorMessage      string       `json:"errorMessage,omitempty"`
	StartedAt         time.Time    `json:"startedAt"`
	CompletedAt       time.Time    `json:"completedAt"`
}
