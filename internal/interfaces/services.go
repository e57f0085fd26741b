package interfaces

import (
	"context"

	"github.com/valentin-maty/arriendo/internal/models"
)

// AnalysisService is the domain-level surface consumed by the CLI and any
// future presentation layer.
type AnalysisService interface {
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	Get(ctx context.Context, id string) (*models.SavedAnalysis, error)
	Create(ctx context.Context, input CreateAnalysisInput) (*models.SavedAnalysis, error)
	Update(ctx context.Context, id string, input UpdateAnalysisInput) (*models.SavedAnalysis, error)
	Patch(ctx context.Context, id string, patch AnalysisPatch) (*models.SavedAnalysis, error)
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) (*DeleteSummary, error)

	Dashboard(ctx context.Context) (*models.DashboardSummary, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, blob []byte) error
}

// CreateAnalysisInput is the payload for creating an analysis. Title,
// property address and property value are mandatory; initial status is
// always draft regardless of caller input.
type CreateAnalysisInput struct {
	Title        string                     `json:"title"`
	Property     models.PropertyDetails     `json:"property"`
	Analysis     models.AnalysisInputs      `json:"analysis"`
	Calculations *models.CalculationResults `json:"calculations,omitempty"` // zeroed placeholders when nil
	BrokerID     string                     `json:"broker_id"`
	Tags         []string                   `json:"tags,omitempty"`
	Notes        string                     `json:"notes,omitempty"`
}

// UpdateAnalysisInput is the full-replace payload for property and analysis
// fields. Status, creation timestamp and existing calculation figures are
// preserved unless new calculations are supplied.
type UpdateAnalysisInput struct {
	Title        string                     `json:"title"`
	Property     models.PropertyDetails     `json:"property"`
	Analysis     models.AnalysisInputs      `json:"analysis"`
	Calculations *models.CalculationResults `json:"calculations,omitempty"`
}

// AnalysisPatch is the partial-update payload. Only these fields can be
// patched; anything else in a caller's input is ignored by construction.
type AnalysisPatch struct {
	Title  *string   `json:"title,omitempty"`
	Status *string   `json:"status,omitempty"`
	Tags   *[]string `json:"tags,omitempty"`
	Notes  *string   `json:"notes,omitempty"`
}

// DeleteSummary describes what a successful delete removed.
type DeleteSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Address string `json:"address"`
}
