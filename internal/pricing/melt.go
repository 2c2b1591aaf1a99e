// Package pricing computes the precious-metal inputs to an appraisal: daily
// spot prices with fallback semantics, and per-gram melt values derived from
// them.
package pricing

import "math"

// gramsPerTroyOunce converts spot quotes (per troy oz) to per-gram values.
const gramsPerTroyOunce = 31.1

// Tier is a discrete purity classification for gold karats and silver
// standards.
type Tier string

const (
	Gold10K        Tier = "10K"
	Gold14K        Tier = "14K"
	Gold18K        Tier = "18K"
	Gold24K        Tier = "24K"
	SterlingSilver Tier = "sterling"
	FineSilver     Tier = "fine"
)

// purityFractions maps each tier to its metal content by mass.
var purityFractions = map[Tier]float64{
	Gold10K:        0.417,
	Gold14K:        0.583,
	Gold18K:        0.750,
	Gold24K:        0.999,
	SterlingSilver: 0.925,
	FineSilver:     0.999,
}

// PurityFraction returns the fixed purity fraction for a tier, or 0 for an
// unknown tier.
func PurityFraction(t Tier) float64 {
	return purityFractions[t]
}

// PerGram derives the melt value of one gram of metal at the given purity
// from a per-troy-ounce spot price, rounded to cents for display.
func PerGram(spotPerOunce, purityFraction float64) float64 {
	v := spotPerOunce / gramsPerTroyOunce * purityFraction
	return math.Round(v*100) / 100
}

// MeltTable maps purity tiers to per-gram melt values in USD.
type MeltTable map[Tier]float64

// Table derives the full per-gram melt table from a spot price. It is cheap
// and deterministic, so it is recomputed on every prompt composition rather
// than cached alongside the spot price.
func Table(sp SpotPrice) MeltTable {
	t := make(MeltTable, len(purityFractions))
	for tier, purity := range purityFractions {
		spot := sp.Gold
		if tier == SterlingSilver || tier == FineSilver {
			spot = sp.Silver
		}
		t[tier] = PerGram(spot, purity)
	}
	return t
}
