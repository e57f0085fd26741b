package analysis

import "github.com/valentin-maty/arriendo/internal/models"

// Compute derives the financial metrics for an analysis from its property
// and input figures. Callers that already hold figures may skip this and
// supply their own CalculationResults.
func Compute(property models.PropertyDetails, inputs models.AnalysisInputs) models.CalculationResults {
	rent := inputs.MonthlyRentCLP()
	value := property.ValueCLP
	annualExpenses := inputs.Expenses.Total()

	result := models.CalculationResults{
		MonthlyNetIncomeCLP: rent - annualExpenses/12,
		// One vacant month per year, averaged monthly.
		MonthlyVacancyCostCLP: rent / 12,
	}

	if value > 0 {
		noi := rent*12 - annualExpenses
		result.CapRate = noi / value * 100
		result.AnnualYield = rent * 12 / value * 100
	}
	if rent > 0 {
		// How far rent can fall before monthly net income reaches zero.
		result.BreakEvenRentDropPct = result.MonthlyNetIncomeCLP / rent * 100
	}

	result.Scenarios = []models.ScenarioComparison{
		scenario("optimistic", rent*1.10, value, annualExpenses),
		scenario("base", rent, value, annualExpenses),
		scenario("pessimistic", rent*0.90, value, annualExpenses),
	}
	return result
}

func scenario(name string, rent, value, annualExpenses float64) models.ScenarioComparison {
	s := models.ScenarioComparison{
		Name:                name,
		RentCLP:             rent,
		MonthlyNetIncomeCLP: rent - annualExpenses/12,
	}
	if value > 0 {
		s.CapRate = (rent*12 - annualExpenses) / value * 100
	}
	return s
}

// SuggestRentFromComparables benchmarks a monthly rent from comparable
// listings: the similarity-weighted average price-per-area across the
// comparables, multiplied by the subject's floor area. Comparables missing
// price or area are skipped; a missing similarity weighs as 1. Returns 0
// when nothing is usable.
func SuggestRentFromComparables(areaM2 float64, comparables []models.ComparableProperty) float64 {
	if areaM2 <= 0 {
		return 0
	}

	var weightedSum, weightTotal float64
	for _, c := range comparables {
		if c.PriceCLP <= 0 || c.AreaM2 <= 0 {
			continue
		}
		weight := c.Similarity
		if weight <= 0 {
			weight = 1
		}
		weightedSum += c.PriceCLP / c.AreaM2 * weight
		weightTotal += weight
	}
	if weightTotal == 0 {
		return 0
	}
	return weightedSum / weightTotal * areaM2
}
