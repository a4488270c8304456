package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/invforecast/internal/domain"
)

func TestClassify_CumulativeValueCutoffs(t *testing.T) {
	items := []ItemConsumption{
		{ItemCode: "HIGH", AnnualValue: 8000},
		{ItemCode: "MED", AnnualValue: 1500},
		{ItemCode: "LOW", AnnualValue: 500},
	}
	classes := Classify(items)
	assert.Equal(t, domain.ClassA, classes["HIGH"])
	assert.Equal(t, domain.ClassB, classes["MED"])
	assert.Equal(t, domain.ClassC, classes["LOW"])
}

func TestClassify_EmptyInput(t *testing.T) {
	assert.Empty(t, Classify(nil))
}

func TestClassify_ZeroTotalValueDefaultsToC(t *testing.T) {
	items := []ItemConsumption{{ItemCode: "X", AnnualValue: 0}}
	classes := Classify(items)
	assert.Equal(t, domain.ClassC, classes["X"])
}

func TestRecommend_NilWhenStockAboveReorderPoint(t *testing.T) {
	item := ItemConsumption{ItemCode: "X", DailyUsage: []float64{10, 10, 10, 10, 10}, LeadTimeDays: 3, CurrentStock: 1000}
	assert.Nil(t, Recommend(item, domain.ClassA, ServiceLevels{}))
}

func TestRecommend_ReturnsQuantityWhenBelowReorderPoint(t *testing.T) {
	item := ItemConsumption{ItemCode: "X", DailyUsage: []float64{10, 12, 8, 11, 9, 10}, LeadTimeDays: 3, CurrentStock: 5}
	rec := Recommend(item, domain.ClassA, ServiceLevels{})
	require := assert.New(t)
	require.NotNil(rec)
	require.Greater(rec.Quantity, 0)
	require.Equal(domain.ClassA, rec.Class)
}

func TestRecommend_HigherClassZScoreYieldsHigherSafetyStock(t *testing.T) {
	item := ItemConsumption{ItemCode: "X", DailyUsage: []float64{10, 12, 8, 11, 9, 10}, LeadTimeDays: 3, CurrentStock: 5}
	recA := Recommend(item, domain.ClassA, ServiceLevels{})
	recC := Recommend(item, domain.ClassC, ServiceLevels{})
	assert.Greater(t, recA.SafetyStock, recC.SafetyStock)
}

func TestRecommend_CustomServiceLevelOverridesDefaultZScore(t *testing.T) {
	item := ItemConsumption{ItemCode: "X", DailyUsage: []float64{10, 12, 8, 11, 9, 10}, LeadTimeDays: 3, CurrentStock: 5}
	recDefault := Recommend(item, domain.ClassC, ServiceLevels{})
	recOverridden := Recommend(item, domain.ClassC, ServiceLevels{C: zScoreA})
	assert.Greater(t, recOverridden.SafetyStock, recDefault.SafetyStock)
}

func TestGenerateRecommendations_OnlyIncludesBelowReorderPoint(t *testing.T) {
	items := []ItemConsumption{
		{ItemCode: "LOWSTOCK", AnnualValue: 5000, DailyUsage: []float64{10, 12, 8, 11, 9, 10}, LeadTimeDays: 3, CurrentStock: 2},
		{ItemCode: "WELLSTOCKED", AnnualValue: 3000, DailyUsage: []float64{10, 12, 8, 11, 9, 10}, LeadTimeDays: 3, CurrentStock: 1000},
	}
	recs := GenerateRecommendations(items, ServiceLevels{})
	assert.Len(t, recs, 1)
	assert.Equal(t, "LOWSTOCK", recs[0].ItemCode)
}
