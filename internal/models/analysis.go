// Package models defines the domain types for arriendo.
package models

import "time"

// SavedAnalysis is the persisted unit of a rental-profitability analysis.
type SavedAnalysis struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Property     PropertyDetails    `json:"property"`
	Analysis     AnalysisInputs     `json:"analysis"`
	Calculations CalculationResults `json:"calculations"`
	Metadata     AnalysisMetadata   `json:"metadata"`
}

// PropertyDetails describes the subject property.
// ValueCLP is the nominal price in Chilean pesos; ValueUF is the
// inflation-indexed equivalent and is optional.
type PropertyDetails struct {
	Address      string  `json:"address"`
	ValueCLP     float64 `json:"value_clp"`
	ValueUF      float64 `json:"value_uf,omitempty"`
	AreaM2       float64 `json:"area_m2"`
	Bedrooms     int     `json:"bedrooms"`
	Bathrooms    int     `json:"bathrooms"`
	ParkingSpots int     `json:"parking_spots"`
	StorageUnits int     `json:"storage_units"`
}

// AnalysisInputs holds the caller-supplied figures an analysis is built from.
// Suggested rent may be expressed in CLP or UF; UFRate is the reference
// conversion rate (CLP per UF) captured at analysis time.
type AnalysisInputs struct {
	SuggestedRentCLP float64              `json:"suggested_rent_clp,omitempty"`
	SuggestedRentUF  float64              `json:"suggested_rent_uf,omitempty"`
	RentCurrency     string               `json:"rent_currency,omitempty"` // "CLP" or "UF"
	ListingPrice     float64              `json:"listing_price,omitempty"`
	Comparables      []ComparableProperty `json:"comparables,omitempty"`
	Expenses         AnnualExpenses       `json:"expenses"`
	UFRate           float64              `json:"uf_rate,omitempty"`
}

// MonthlyRentCLP returns the suggested rent normalized to CLP, converting
// from UF with the stored reference rate when no CLP figure was captured.
func (a AnalysisInputs) MonthlyRentCLP() float64 {
	if a.SuggestedRentCLP > 0 {
		return a.SuggestedRentCLP
	}
	return a.SuggestedRentUF * a.UFRate
}

// ComparableProperty is a reference listing used to benchmark suggested rent.
// All fields are optional; records missing price or area are skipped by the
// price-per-area heuristic.
type ComparableProperty struct {
	Address    string  `json:"address,omitempty"`
	PriceCLP   float64 `json:"price_clp,omitempty"`
	AreaM2     float64 `json:"area_m2,omitempty"`
	Bedrooms   int     `json:"bedrooms,omitempty"`
	Bathrooms  int     `json:"bathrooms,omitempty"`
	Similarity float64 `json:"similarity,omitempty"` // 0..1 weight for the pricing heuristic
}

// AnnualExpenses is the yearly expense breakdown in CLP.
type AnnualExpenses struct {
	MaintenanceCLP float64 `json:"maintenance_clp"`
	TaxCLP         float64 `json:"tax_clp"`
	InsuranceCLP   float64 `json:"insurance_clp"`
}

// Total returns the yearly expense sum.
func (e AnnualExpenses) Total() float64 {
	return e.MaintenanceCLP + e.TaxCLP + e.InsuranceCLP
}

// CalculationResults holds the derived financial metrics. Zero values are
// valid placeholders for analyses created without calculations.
type CalculationResults struct {
	CapRate               float64              `json:"cap_rate"`
	AnnualYield           float64              `json:"annual_yield"`
	MonthlyNetIncomeCLP   float64              `json:"monthly_net_income_clp"`
	MonthlyVacancyCostCLP float64              `json:"monthly_vacancy_cost_clp"`
	BreakEvenRentDropPct  float64              `json:"break_even_rent_drop_pct"`
	Scenarios             []ScenarioComparison `json:"scenarios,omitempty"`
}

// ScenarioComparison compares the key metrics under an alternate rent level.
type ScenarioComparison struct {
	Name                string  `json:"name"`
	RentCLP             float64 `json:"rent_clp"`
	CapRate             float64 `json:"cap_rate"`
	MonthlyNetIncomeCLP float64 `json:"monthly_net_income_clp"`
}

// AnalysisMetadata carries ownership and lifecycle fields.
// CreatedAt is immutable after creation; UpdatedAt is re-stamped on every
// successful mutation.
type AnalysisMetadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	BrokerID  string    `json:"broker_id"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// Analysis status constants.
const (
	StatusDraft           = "draft"
	StatusSentToClient    = "sent_to_client"
	StatusClientResponded = "client_responded"
	StatusPublished       = "published"
	StatusArchived        = "archived"
)

// ValidStatuses is the set of allowed status values.
var ValidStatuses = map[string]bool{
	StatusDraft:           true,
	StatusSentToClient:    true,
	StatusClientResponded: true,
	StatusPublished:       true,
	StatusArchived:        true,
}

// HasTag reports whether the analysis carries the given tag.
func (a *SavedAnalysis) HasTag(tag string) bool {
	for _, t := range a.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ExportSnapshot is the bulk export/import payload: the full record
// collection plus the dashboard summary and an export timestamp.
type ExportSnapshot struct {
	Analyses   []SavedAnalysis   `json:"analyses"`
	Dashboard  *DashboardSummary `json:"dashboard,omitempty"`
	ExportedAt time.Time         `json:"exported_at"`
}
