// Package accuracy scores realized forecast accuracy once actual usage
// has been reconciled against a ForecastLine's prediction.
package accuracy

import (
	"math"
	"sort"
	"time"

	"github.com/sawpanic/invforecast/internal/domain"
)

const accurateThresholdPct = 10.0

// Calculate buckets every line with a reconciled actual into an overall
// accuracy record, plus a per-ABC-class breakdown. classOf may be nil,
// in which case every line buckets under its item category instead of
// its consumption class.
func Calculate(lines []domain.ForecastLine, from, to time.Time, classOf func(itemCode string) (domain.ABCClass, bool)) domain.AccuracyRecord {
	record := domain.AccuracyRecord{From: from, To: to}

	type bucket struct {
		evaluated   int
		accurate    int
		varianceSum float64
	}
	buckets := make(map[string]*bucket)

	var totalVariance float64
	for _, line := range lines {
		if line.VariancePct == nil {
			continue
		}
		record.Evaluated++
		absVariance := math.Abs(*line.VariancePct)
		totalVariance += absVariance
		if absVariance <= accurateThresholdPct {
			record.Accurate++
		}

		label := line.Category
		if classOf != nil {
			if class, ok := classOf(line.ItemCode); ok {
				label = string(class)
			}
		}
		b, ok := buckets[label]
		if !ok {
			b = &bucket{}
			buckets[label] = b
		}
		b.evaluated++
		b.varianceSum += absVariance
		if absVariance <= accurateThresholdPct {
			b.accurate++
		}
	}

	if record.Evaluated > 0 {
		record.AccuracyPct = 100 * float64(record.Accurate) / float64(record.Evaluated)
		record.MeanVariancePct = totalVariance / float64(record.Evaluated)
	}

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		b := buckets[label]
		ca := domain.CategoryAccuracy{Category: label, Evaluated: b.evaluated, Accurate: b.accurate}
		if b.evaluated > 0 {
			ca.AccuracyPct = 100 * float64(b.accurate) / float64(b.evaluated)
			ca.MeanVariancePct = b.varianceSum / float64(b.evaluated)
		}
		record.CategoryBreakdown = append(record.CategoryBreakdown, ca)
	}

	return record
}
