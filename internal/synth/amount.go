package synth

import (
	"math/rand/v2"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/Veraticus/pfm-classifier/internal/config"
	"github.com/shopspring/decimal"
)

// ChooseRandomAmount samples uniformly from [low, high] (swapping inverted
// bounds), applies sign and rounds to decimalPlaces.
func ChooseRandomAmount(r *rand.Rand, low, high float64, decimalPlaces int, sign config.Sign) (float64, error) {
	if decimalPlaces < 0 {
		return 0, common.InvalidInputf("decimal places must be >= 0, got %d", decimalPlaces)
	}
	if low > high {
		low, high = high, low
	}

	sampled := low + (high-low)*r.Float64()
	return RoundAmount(float64(sign)*sampled, decimalPlaces), nil
}

// RoundAmount rounds v to places decimal places, half away from zero.
func RoundAmount(v float64, places int) float64 {
	return decimal.NewFromFloat(v).Round(int32(places)).InexactFloat64()
}

// RandAmount samples a signed amount for category using its AmountSpec
// and the registry's default precision.
func (g *Generator) RandAmount(category string) float64 {
	// Registry validation guarantees non-negative precision.
	v, _ := g.RandAmountPlaces(category, g.registry.DecimalPlaces())
	return v
}

// RandAmountPlaces is RandAmount with an explicit precision.
func (g *Generator) RandAmountPlaces(category string, decimalPlaces int) (float64, error) {
	spec := g.registry.AmountSpec(category)
	return ChooseRandomAmount(g.rng, spec.Low, spec.High, decimalPlaces, spec.Sign)
}
