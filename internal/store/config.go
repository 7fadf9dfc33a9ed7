package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrConfigNotFound chave ausente na tabela config
var ErrConfigNotFound = errors.New("config key not found")

// GetConfig valor de uma chave
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, key)
		}
		return "", err
	}
	return value, nil
}

// SetConfig grava uma chave (insere ou atualiza)
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

// DeleteConfig remove uma chave (volta ao valor do config.toml)
func (s *Store) DeleteConfig(key string) error {
	if _, err := s.db.Exec("DELETE FROM config WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete config %s: %w", key, err)
	}
	return nil
}

// AnalysisConfigPrefix chaves que sobrepõem a seção [analysis] do config.toml
const AnalysisConfigPrefix = "analysis."

// GetConfigWithPrefix chaves com o prefixo, sem o prefixo
func (s *Store) GetConfigWithPrefix(prefix string) (map[string]string, error) {
	all, err := s.GetAllConfig()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for key, value := range all {
		if name, ok := strings.CutPrefix(key, prefix); ok {
			out[name] = value
		}
	}
	return out, nil
}

// GetAllConfig todas as chaves
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}

	return config, rows.Err()
}
