package models

import "time"

// MaxActivityEntries caps the dashboard activity log. Oldest entries are
// evicted first.
const MaxActivityEntries = 20

// DashboardSummary is a derived aggregate over the saved-analysis
// collection. It is not authoritative and is fully recomputable at any time.
type DashboardSummary struct {
	TotalAnalyses      int             `json:"total_analyses"`
	ActiveRentals      int             `json:"active_rentals"` // status in {sent_to_client, published}
	TotalRentCLP       float64         `json:"total_rent_clp"`
	AverageRentability float64         `json:"average_rentability"` // unweighted mean of cap_rate, zeros included
	RecentActivity     []ActivityEntry `json:"recent_activity,omitempty"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ActivityEntry is one row of the append-only, bounded activity log.
type ActivityEntry struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	PropertyAddress string    `json:"property_address,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Activity type constants.
const (
	ActivityAnalysisCreated = "analysis_created"
	ActivityRentalSent      = "rental_sent"
	ActivityClientResponse  = "client_response"
	ActivityPriceUpdated    = "price_updated"
	ActivityAnalysisDeleted = "analysis_deleted"
)

// ValidActivityTypes is the set of allowed activity entry types.
var ValidActivityTypes = map[string]bool{
	ActivityAnalysisCreated: true,
	ActivityRentalSent:      true,
	ActivityClientResponse:  true,
	ActivityPriceUpdated:    true,
	ActivityAnalysisDeleted: true,
}

// AppendActivity prepends an entry (most-recent-first) and evicts the oldest
// entries beyond MaxActivityEntries.
func (d *DashboardSummary) AppendActivity(entry ActivityEntry) {
	d.RecentActivity = append([]ActivityEntry{entry}, d.RecentActivity...)
	if len(d.RecentActivity) > MaxActivityEntries {
		d.RecentActivity = d.RecentActivity[:MaxActivityEntries]
	}
}
