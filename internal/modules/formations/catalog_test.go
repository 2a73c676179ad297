package formations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_FormationsAreWellFormed(t *testing.T) {
	for _, f := range All() {
		t.Run(f.ID, func(t *testing.T) {
			require.Len(t, f.Percentages, f.TierCount)
			assert.GreaterOrEqual(t, f.TierCount, 1)
			assert.LessOrEqual(t, f.TierCount, 5)

			sum := 0.0
			for _, p := range f.Percentages {
				assert.Greater(t, p, 0.0)
				sum += p
			}
			assert.LessOrEqual(t, sum, 100.0)
		})
	}
}

func TestGet(t *testing.T) {
	f, ok := Get(DefaultFormationID)
	require.True(t, ok)
	assert.Equal(t, []float64{50, 30, 20}, f.Percentages)

	_, ok = Get("formation-unknown")
	assert.False(t, ok)
	assert.False(t, Exists("formation-unknown"))
}

func TestGet_ReturnsCopy(t *testing.T) {
	f, _ := Get(DefaultFormationID)
	f.Percentages[0] = 99

	again, _ := Get(DefaultFormationID)
	assert.Equal(t, 50.0, again.Percentages[0])
}

func TestNormalizeTicker(t *testing.T) {
	symbol, ok := NormalizeTicker(" nvda ")
	assert.True(t, ok)
	assert.Equal(t, "NVDA", symbol)

	_, ok = NormalizeTicker("AAPL")
	assert.False(t, ok)
}

func TestTickers(t *testing.T) {
	assert.Len(t, Tickers(), 21)
	assert.Len(t, TickersBySector("financial services"), 4)
	assert.Equal(t, []string{"Communication", "Consumer Discretionary", "Financial Services", "Technology"}, Sectors())
}
