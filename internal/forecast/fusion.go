package forecast

import "github.com/sawpanic/invforecast/internal/domain"

// SignalInputs bundles the scalar signal values consulted during fusion.
type SignalInputs struct {
	PopFactor   float64
	MenuFactor  float64
	Seasonality float64
}

// Fuse computes the fused prediction and its per-signal contribution
// vector:
//
//	pred = w.usage*base + w.pop*pop_factor*base + w.menu*menu_factor*base + w.seasonality*season*base
//
// par_level's weight is reserved for policy and is never read here.
// Because the overall WeightVector invariant is that all five weights
// (including par_level) sum to 1.0, the four fusion-active weights
// alone always sum to exactly (1 - w.par_level) — never 1.0. Left
// as-is, every prediction would be systematically discounted by the
// policy-reserved mass. We resolve that by dividing each active weight
// by (1 - w.par_level) before fusing, so par_level's reservation
// affects only which signal "owns" how much of the prediction mass, not
// the prediction's overall scale.
func Fuse(base float64, weights domain.WeightVector, in SignalInputs) (pred float64, contribution domain.SignalContribution) {
	activeMass := 1 - weights[domain.SignalParLevel]
	if activeMass <= 0 {
		activeMass = 1
	}

	usageW := weights[domain.SignalUsageHistory] / activeMass
	popW := weights[domain.SignalPopulation] / activeMass
	menuW := weights[domain.SignalMenuRotation] / activeMass
	seasonW := weights[domain.SignalSeasonality] / activeMass

	usageContribution := usageW * base
	popContribution := popW * in.PopFactor * base
	menuContribution := menuW * in.MenuFactor * base
	seasonContribution := seasonW * in.Seasonality * base

	pred = usageContribution + popContribution + menuContribution + seasonContribution

	contribution = domain.SignalContribution{
		domain.SignalUsageHistory: usageContribution,
		domain.SignalPopulation:   popContribution,
		domain.SignalMenuRotation: menuContribution,
		domain.SignalSeasonality:  seasonContribution,
	}
	return pred, contribution
}
