package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"graos/internal/analysis"
)

// AppConfig configuração da aplicação
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Analysis AnalysisConfig `toml:"analysis"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig servidor HTTP
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig diretórios de dados
type DataConfig struct {
	DataDir    string `toml:"data_dir"`
	AutoBackup bool   `toml:"auto_backup"`
}

// AnalysisConfig parâmetros da segmentação de clientes
type AnalysisConfig struct {
	VIPMinRevenue         float64 `toml:"vip_min_revenue"`
	VIPMinPurchases       int     `toml:"vip_min_purchases"`
	FrequentMinPurchases  int     `toml:"frequent_min_purchases"`
	FrequentMaxDays       int     `toml:"frequent_max_days"`
	OccasionalMaxDays     int     `toml:"occasional_max_days"`
	SinglePurchaseMinDays int     `toml:"single_purchase_min_days"`
	InactiveMinDays       int     `toml:"inactive_min_days"`
	ExcludeCustomerMarker string  `toml:"exclude_customer_marker"`
}

// LogConfig nível e formato (json | console)
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LoadConfigInfo metadados do carregamento
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// Subdiretórios criados sob data_dir
const (
	DirUploads = "uploads"
	DirExports = "exports"
	DirBackups = "backups"
	DirDaily   = "daily"
)

// Variáveis de ambiente (também lidas de .env)
const (
	EnvDataDir  = "GRAOS_DATA_DIR"
	EnvPort     = "GRAOS_PORT"
	EnvLogLevel = "GRAOS_LOG_LEVEL"
)

// DefaultConfig configuração padrão
func DefaultConfig() *AppConfig {
	th := analysis.DefaultThresholds()
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:    "data",
			AutoBackup: true,
		},
		Analysis: AnalysisConfig{
			VIPMinRevenue:         th.VIPMinRevenue.InexactFloat64(),
			VIPMinPurchases:       th.VIPMinPurchases,
			FrequentMinPurchases:  th.FrequentMinPurchases,
			FrequentMaxDays:       th.FrequentMaxDays,
			OccasionalMaxDays:     th.OccasionalMaxDays,
			SinglePurchaseMinDays: th.SinglePurchaseMinDays,
			InactiveMinDays:       th.InactiveMinDays,
			ExcludeCustomerMarker: th.ExcludeMarker,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Thresholds converte a seção [analysis] para o pacote analysis
func (c AnalysisConfig) Thresholds() analysis.Thresholds {
	return analysis.Thresholds{
		VIPMinRevenue:         decimal.NewFromFloat(c.VIPMinRevenue),
		VIPMinPurchases:       c.VIPMinPurchases,
		FrequentMinPurchases:  c.FrequentMinPurchases,
		FrequentMaxDays:       c.FrequentMaxDays,
		OccasionalMaxDays:     c.OccasionalMaxDays,
		SinglePurchaseMinDays: c.SinglePurchaseMinDays,
		InactiveMinDays:       c.InactiveMinDays,
		ExcludeMarker:         c.ExcludeCustomerMarker,
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir diretório do executável
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func exeDirOrCwd() string {
	dir, err := GetExeDir()
	if err != nil || dir == "" {
		return "."
	}
	return dir
}

// DefaultConfigPath config.toml ao lado do executável
func DefaultConfigPath() string {
	return filepath.Join(exeDirOrCwd(), "config.toml")
}

// LoadConfigWithInfo lê config.toml ao lado do executável e aplica o ambiente
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadConfigFrom(DefaultConfigPath())
}

// LoadConfigFrom lê um config.toml específico; arquivo ausente usa os padrões.
// .env (diretório atual) e variáveis de ambiente sobrepõem o arquivo.
func LoadConfigFrom(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, info, err
	}

	_ = godotenv.Load()
	if err := applyEnv(config, &info); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

func applyEnv(config *AppConfig, info *LoadConfigInfo) error {
	if v := os.Getenv(EnvDataDir); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s inválido: %w", EnvPort, err)
		}
		config.Server.Port = port
		info.PortSpecified = true
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		config.Log.Level = v
	}
	return nil
}

// SaveConfigTo grava a configuração em path
func SaveConfigTo(path string, config *AppConfig) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveDataDir data_dir absoluto; relativo é resolvido a partir do executável
func ResolveDataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	return filepath.Join(exeDirOrCwd(), config.Data.DataDir)
}

// EnsureDataDir cria data_dir e seus subdiretórios
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolveDataDir(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	for _, subdir := range []string{DirUploads, DirExports, DirBackups, DirDaily} {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// GetDataPath caminho de um arquivo dentro de data_dir
func GetDataPath(config *AppConfig, subdir, filename string) string {
	return filepath.Join(ResolveDataDir(config), subdir, filename)
}
