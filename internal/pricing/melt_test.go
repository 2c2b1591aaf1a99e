package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerGram(t *testing.T) {
	tests := []struct {
		name   string
		spot   float64
		purity float64
		want   float64
	}{
		{"14K at 5000", 5000, 0.583, 93.73},
		{"24K at 5000", 5000, 0.999, 160.61},
		{"10K at 5000", 5000, 0.417, 67.04},
		{"sterling at 90", 90, 0.925, 2.68},
		{"zero spot", 0, 0.583, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PerGram(tt.spot, tt.purity), 0.001)
		})
	}
}

func TestPerGram_Deterministic(t *testing.T) {
	first := PerGram(4873, 0.583)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, PerGram(4873, 0.583))
	}
}

func TestPurityFraction(t *testing.T) {
	assert.Equal(t, 0.417, PurityFraction(Gold10K))
	assert.Equal(t, 0.583, PurityFraction(Gold14K))
	assert.Equal(t, 0.750, PurityFraction(Gold18K))
	assert.Equal(t, 0.999, PurityFraction(Gold24K))
	assert.Equal(t, 0.925, PurityFraction(SterlingSilver))
	assert.Equal(t, 0.999, PurityFraction(FineSilver))
	assert.Zero(t, PurityFraction(Tier("12K")))
}

func TestTable(t *testing.T) {
	table := Table(SpotPrice{Date: "2026-08-29", Gold: 5000, Silver: 90})

	assert.Len(t, table, 6)
	assert.InDelta(t, 93.73, table[Gold14K], 0.001)
	assert.InDelta(t, 2.68, table[SterlingSilver], 0.001)
	// Silver tiers price off the silver quote, not gold.
	assert.Less(t, table[FineSilver], table[Gold10K])
}
