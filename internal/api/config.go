package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"graos/internal/analysis"
	"graos/internal/store"
)

// currentThresholds parâmetros do config.toml com os ajustes gravados no banco
func (h *Handler) currentThresholds() (analysis.Thresholds, map[string]string, error) {
	overrides, err := h.store.GetConfigWithPrefix(store.AnalysisConfigPrefix)
	if err != nil {
		return h.thresholds, nil, err
	}
	th, applied := h.thresholds.WithOverrides(overrides)
	return th, applied, nil
}

// UpdateConfigRequest atualização parcial; valor null volta ao padrão
type UpdateConfigRequest struct {
	Updates map[string]interface{} `json:"updates"`
}

// GetConfig parâmetros da análise em uso
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	th, overrides, err := h.currentThresholds()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao ler a configuração"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"analysis":  th.Values(),
		"defaults":  h.thresholds.Values(),
		"overrides": overrides,
	})
}

// UpdateConfig ajusta parâmetros da análise
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "formato de requisição inválido"})
		return
	}

	// valida tudo antes de gravar qualquer chave
	values := make(map[string]*string, len(req.Updates))
	for key, value := range req.Updates {
		if !analysis.IsThresholdKey(key) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parâmetro desconhecido: " + key})
			return
		}

		var strValue string
		switch v := value.(type) {
		case nil:
			values[key] = nil
			continue
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "tipo inválido para " + key})
			return
		}

		candidate := h.thresholds
		if err := candidate.Set(key, strValue); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		values[key] = &strValue
	}

	for key, value := range values {
		var err error
		if value == nil {
			err = h.store.DeleteConfig(store.AnalysisConfigPrefix + key)
		} else {
			err = h.store.SetConfig(store.AnalysisConfigPrefix+key, *value)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "falha ao gravar " + key})
			return
		}
	}

	h.GetConfig(c)
}
