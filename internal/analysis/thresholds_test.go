package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholds_Set(t *testing.T) {
	t.Parallel()

	th := DefaultThresholds()
	require.NoError(t, th.Set("vip_min_revenue", "2500"))
	assert.Equal(t, "2500", th.VIPMinRevenue.String())
	require.NoError(t, th.Set("inactive_min_days", " 90 "))
	assert.Equal(t, 90, th.InactiveMinDays)
	require.NoError(t, th.Set("exclude_customer_marker", "estorno"))
	assert.Equal(t, "ESTORNO", th.ExcludeMarker)

	assert.Error(t, th.Set("inactive_min_days", "-1"))
	assert.Error(t, th.Set("vip_min_revenue", "muito"))
	assert.Error(t, th.Set("desconhecido", "1"))
	assert.False(t, IsThresholdKey("desconhecido"))
	assert.True(t, IsThresholdKey("frequent_max_days"))
}

func TestThresholds_WithOverrides(t *testing.T) {
	t.Parallel()

	base := DefaultThresholds()
	th, applied := base.WithOverrides(map[string]string{
		"vip_min_purchases": "7",
		"frequent_max_days": "abc",
		"outro":             "1",
	})
	assert.Equal(t, 7, th.VIPMinPurchases)
	assert.Equal(t, base.FrequentMaxDays, th.FrequentMaxDays)
	assert.Equal(t, map[string]string{"vip_min_purchases": "7"}, applied)
	// o valor original não muda
	assert.Equal(t, 5, base.VIPMinPurchases)

	values := th.Values()
	assert.Equal(t, 7, values["vip_min_purchases"])
	assert.Equal(t, float64(1000), values["vip_min_revenue"])
	assert.Len(t, values, 8)
}
