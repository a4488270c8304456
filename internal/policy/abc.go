// Package policy classifies items into ABC consumption-value tiers and
// generates reorder recommendations from service-level safety stock,
// independent of any particular ForecastRun.
package policy

import (
	"math"
	"sort"

	"github.com/sawpanic/invforecast/internal/domain"
)

// Service-level z-scores for each ABC class.
const (
	zScoreA = 2.33 // ~99th percentile
	zScoreB = 1.65 // ~95th percentile
	zScoreC = 1.28 // ~90th percentile
)

// Cumulative-value cutoffs defining the ABC tiers.
const (
	cutoffA = 0.80
	cutoffB = 0.95
)

// ItemConsumption is one item's trailing annual consumption value and
// the daily-usage sample the safety-stock calculation draws quantiles
// from. HorizonDays is the number of days the usage sample spans and
// backs out the p95/p05 spread into a per-day demand deviation; it
// defaults to 7 when unset.
type ItemConsumption struct {
	ItemCode     string
	AnnualValue  float64
	DailyUsage   []float64
	LeadTimeDays int
	HorizonDays  int
	CurrentStock float64
}

// ServiceLevels overrides the default per-ABC-class service-level
// z-score. A zero or negative field falls back to the package default
// for that class, so the zero value requests the defaults throughout.
type ServiceLevels struct {
	A, B, C float64
}

func (s ServiceLevels) zScoreFor(class domain.ABCClass) float64 {
	switch class {
	case domain.ClassA:
		if s.A > 0 {
			return s.A
		}
		return zScoreA
	case domain.ClassB:
		if s.B > 0 {
			return s.B
		}
		return zScoreB
	default:
		if s.C > 0 {
			return s.C
		}
		return zScoreC
	}
}

// Classify assigns an ABCClass to every item by cumulative share of
// total annual consumption value: the top items contributing up to 80%
// of value are A, the next slice to 95% is B, the remainder is C.
func Classify(items []ItemConsumption) map[string]domain.ABCClass {
	result := make(map[string]domain.ABCClass, len(items))
	if len(items) == 0 {
		return result
	}

	ordered := make([]ItemConsumption, len(items))
	copy(ordered, items)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AnnualValue > ordered[j].AnnualValue })

	var total float64
	for _, it := range ordered {
		total += it.AnnualValue
	}
	if total <= 0 {
		for _, it := range ordered {
			result[it.ItemCode] = domain.ClassC
		}
		return result
	}

	var cumulative float64
	for _, it := range ordered {
		cumulative += it.AnnualValue
		share := cumulative / total
		switch {
		case share <= cutoffA:
			result[it.ItemCode] = domain.ClassA
		case share <= cutoffB:
			result[it.ItemCode] = domain.ClassB
		default:
			result[it.ItemCode] = domain.ClassC
		}
	}
	return result
}

// Recommend computes the service-level safety stock and reorder point
// for one item and returns a Recommendation only when current stock has
// fallen below the reorder point; otherwise it returns nil. levels
// overrides the class z-scores; pass the zero value for the package
// defaults.
func Recommend(item ItemConsumption, class domain.ABCClass, levels ServiceLevels) *domain.Recommendation {
	dailyDemand := mean(item.DailyUsage)
	leadTime := item.LeadTimeDays
	if leadTime <= 0 {
		leadTime = 3
	}
	horizon := item.HorizonDays
	if horizon <= 0 {
		horizon = 7
	}

	sigmaD := demandStddev(item.DailyUsage, horizon)
	sigmaLT := math.Sqrt(float64(leadTime) * sigmaD * sigmaD)
	z := levels.zScoreFor(class)
	safety := z * sigmaLT
	reorderPoint := dailyDemand*float64(leadTime) + safety

	if item.CurrentStock >= reorderPoint {
		return nil
	}

	qty := int(math.Ceil(math.Max(0, dailyDemand+safety-item.CurrentStock)))

	return &domain.Recommendation{
		ItemCode:     item.ItemCode,
		Class:        class,
		AnnualValue:  item.AnnualValue,
		DailyDemand:  dailyDemand,
		LeadTimeDays: leadTime,
		SafetyStock:  safety,
		ReorderPoint: reorderPoint,
		CurrentStock: item.CurrentStock,
		Quantity:     qty,
		Reason:       "below_reorder_point",
		Status:       domain.OrderPending,
	}
}

// GenerateRecommendations classifies every item and returns a
// recommendation for each whose current stock is below its computed
// reorder point, at the given service levels (zero value = defaults).
func GenerateRecommendations(items []ItemConsumption, levels ServiceLevels) []domain.Recommendation {
	classes := Classify(items)
	var out []domain.Recommendation
	for _, item := range items {
		rec := Recommend(item, classes[item.ItemCode], levels)
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// demandStddev approximates the per-day demand standard deviation from
// the sample's 5th/95th percentile spread, backed out of the
// horizon-day window the sample spans.
func demandStddev(values []float64, horizonDays int) float64 {
	if len(values) < 2 {
		return 0
	}
	spread := percentile(values, 0.95) - percentile(values, 0.05)
	return spread / (2 * 1.65 * math.Sqrt(float64(horizonDays)))
}

// percentile returns the linearly-interpolated p-quantile (0≤p≤1) of a
// sample. Sorts a copy; the caller's slice order is preserved.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
