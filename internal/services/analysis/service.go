// Package analysis provides the saved-analysis repository service: CRUD,
// status transitions, dashboard aggregates and bulk export/import.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/valentin-maty/arriendo/internal/common"
	"github.com/valentin-maty/arriendo/internal/interfaces"
	"github.com/valentin-maty/arriendo/internal/models"
	"github.com/valentin-maty/arriendo/internal/storage"
)

// Compile-time interface check
var _ interfaces.AnalysisService = (*Service)(nil)

// Service implements AnalysisService on top of the persistence adapter and
// the read-through cache.
type Service struct {
	store  interfaces.AnalysisStore
	cache  interfaces.AnalysisCache
	clock  common.Clock
	ids    common.IDGenerator
	logger *common.Logger
}

// NewService creates a new analysis service.
func NewService(store interfaces.AnalysisStore, cache interfaces.AnalysisCache, clock common.Clock, ids common.IDGenerator, logger *common.Logger) *Service {
	if clock == nil {
		clock = common.RealClock{}
	}
	if ids == nil {
		ids = common.UUIDGenerator{}
	}
	return &Service{store: store, cache: cache, clock: clock, ids: ids, logger: logger}
}

// List answers a filtered, sorted, paginated list query. The unfiltered
// full list is served cache-first; filtered and paginated views are always
// computed fresh from it.
func (s *Service) List(ctx context.Context, opts interfaces.ListOptions) (*interfaces.ListResult, error) {
	analyses, hit := s.cache.GetList(storage.ListAllKey)
	if !hit {
		analyses = s.store.GetAll(ctx)
		s.cache.SetList(storage.ListAllKey, analyses)
	}
	return storage.ApplyListOptions(analyses, opts), nil
}

// Get returns a single analysis, cache-first. Returns models.ErrNotFound
// when the id does not resolve.
func (s *Service) Get(ctx context.Context, id string) (*models.SavedAnalysis, error) {
	if cached, hit := s.cache.GetEntry(id); hit {
		return cached, nil
	}
	found, ok := s.store.GetByID(ctx, id)
	if !ok {
		return nil, models.ErrNotFound
	}
	s.cache.SetEntry(id, found)
	return found, nil
}

// Create validates the payload, assigns id and timestamps and persists the
// analysis. Initial status is always draft regardless of caller input.
func (s *Service) Create(ctx context.Context, input interfaces.CreateAnalysisInput) (*models.SavedAnalysis, error) {
	if err := validateCore(input.Title, input.Property); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	saved := &models.SavedAnalysis{
		ID:       fmt.Sprintf("an_%s", s.ids.New()),
		Title:    strings.TrimSpace(input.Title),
		Property: input.Property,
		Analysis: input.Analysis,
		Metadata: models.AnalysisMetadata{
			CreatedAt: now,
			UpdatedAt: now,
			BrokerID:  input.BrokerID,
			Status:    models.StatusDraft,
			Tags:      input.Tags,
			Notes:     input.Notes,
		},
	}
	if input.Calculations != nil {
		saved.Calculations = *input.Calculations
	}

	if !s.store.Save(ctx, saved) {
		return nil, fmt.Errorf("failed to save analysis '%s'", saved.ID)
	}

	s.store.AppendActivity(ctx, models.ActivityEntry{
		ID:              fmt.Sprintf("act_%s", s.ids.New()),
		Type:            models.ActivityAnalysisCreated,
		Title:           saved.Title,
		Description:     "Analysis created",
		PropertyAddress: saved.Property.Address,
		Timestamp:       s.clock.Now(),
	})

	s.invalidate(saved.ID)
	s.cache.SetEntry(saved.ID, saved)
	s.logger.Info().Str("id", saved.ID).Str("title", saved.Title).Msg("Analysis created")
	return saved, nil
}

// Update replaces the property and analysis fields of an existing record.
// Status, creation timestamp and existing calculation figures are preserved
// unless new calculations are supplied.
func (s *Service) Update(ctx context.Context, id string, input interfaces.UpdateAnalysisInput) (*models.SavedAnalysis, error) {
	if err := validateCore(input.Title, input.Property); err != nil {
		return nil, err
	}

	existing, ok := s.store.GetByID(ctx, id)
	if !ok {
		return nil, models.ErrNotFound
	}

	rentChanged := existing.Analysis.MonthlyRentCLP() != input.Analysis.MonthlyRentCLP()

	existing.Title = strings.TrimSpace(input.Title)
	existing.Property = input.Property
	existing.Analysis = input.Analysis
	if input.Calculations != nil {
		existing.Calculations = *input.Calculations
	}

	if !s.store.Save(ctx, existing) {
		return nil, fmt.Errorf("failed to save analysis '%s'", id)
	}

	if rentChanged {
		s.store.AppendActivity(ctx, models.ActivityEntry{
			ID:              fmt.Sprintf("act_%s", s.ids.New()),
			Type:            models.ActivityPriceUpdated,
			Title:           existing.Title,
			Description:     "Suggested rent updated",
			PropertyAddress: existing.Property.Address,
			Timestamp:       s.clock.Now(),
		})
	}

	s.invalidate(id)
	s.cache.SetEntry(id, existing)
	s.logger.Info().Str("id", id).Msg("Analysis updated")
	return existing, nil
}

// Patch applies a partial update limited to title, status, tags and notes.
// The typed patch struct ignores any other field a caller might send.
func (s *Service) Patch(ctx context.Context, id string, patch interfaces.AnalysisPatch) (*models.SavedAnalysis, error) {
	existing, ok := s.store.GetByID(ctx, id)
	if !ok {
		return nil, models.ErrNotFound
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, models.NewValidationError("title")
		}
		existing.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Status != nil {
		if !models.ValidStatuses[*patch.Status] {
			return nil, &models.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status '%s'", *patch.Status)}
		}
		existing.Metadata.Status = *patch.Status
	}
	if patch.Tags != nil {
		existing.Metadata.Tags = *patch.Tags
	}
	if patch.Notes != nil {
		existing.Metadata.Notes = *patch.Notes
	}

	if !s.store.Save(ctx, existing) {
		return nil, fmt.Errorf("failed to save analysis '%s'", id)
	}

	s.invalidate(id)
	s.cache.SetEntry(id, existing)
	s.logger.Info().Str("id", id).Msg("Analysis patched")
	return existing, nil
}

// UpdateStatus changes only the status and the updated_at timestamp, and
// logs the client-facing transitions to the activity feed. A nonexistent id
// fails without appending any activity entry.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) error {
	if !models.ValidStatuses[status] {
		return &models.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status '%s'", status)}
	}

	existing, ok := s.store.GetByID(ctx, id)
	if !ok {
		return models.ErrNotFound
	}

	if !s.store.UpdateStatus(ctx, id, status) {
		return fmt.Errorf("failed to update status of analysis '%s'", id)
	}

	if activityType, tracked := statusActivityType(status); tracked {
		s.store.AppendActivity(ctx, models.ActivityEntry{
			ID:              fmt.Sprintf("act_%s", s.ids.New()),
			Type:            activityType,
			Title:           existing.Title,
			Description:     fmt.Sprintf("Status changed to %s", status),
			PropertyAddress: existing.Property.Address,
			Timestamp:       s.clock.Now(),
		})
	}

	s.invalidate(id)
	s.logger.Info().Str("id", id).Str("status", status).Msg("Analysis status updated")
	return nil
}

// statusActivityType maps client-facing status transitions to their
// activity feed tags. Other transitions are not logged.
func statusActivityType(status string) (string, bool) {
	switch status {
	case models.StatusSentToClient:
		return models.ActivityRentalSent, true
	case models.StatusClientResponded:
		return models.ActivityClientResponse, true
	default:
		return "", false
	}
}

// Delete removes an analysis and returns a summary of what was deleted.
// Deleting a published analysis fails with models.ErrForbidden and leaves
// the record unchanged.
func (s *Service) Delete(ctx context.Context, id string) (*interfaces.DeleteSummary, error) {
	existing, ok := s.store.GetByID(ctx, id)
	if !ok {
		return nil, models.ErrNotFound
	}
	if existing.Metadata.Status == models.StatusPublished {
		return nil, fmt.Errorf("cannot delete published analysis '%s': %w", id, models.ErrForbidden)
	}

	if !s.store.Delete(ctx, id) {
		return nil, fmt.Errorf("failed to delete analysis '%s'", id)
	}

	s.store.AppendActivity(ctx, models.ActivityEntry{
		ID:              fmt.Sprintf("act_%s", s.ids.New()),
		Type:            models.ActivityAnalysisDeleted,
		Title:           existing.Title,
		Description:     "Analysis deleted",
		PropertyAddress: existing.Property.Address,
		Timestamp:       s.clock.Now(),
	})

	s.invalidate(id)
	s.logger.Info().Str("id", id).Msg("Analysis deleted")
	return &interfaces.DeleteSummary{
		ID:      existing.ID,
		Title:   existing.Title,
		Address: existing.Property.Address,
	}, nil
}

// Dashboard returns the stored summary, recomputing it when absent.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	if summary := s.store.GetDashboard(ctx); summary != nil {
		return summary, nil
	}
	return s.store.RecomputeStats(ctx), nil
}

// Export serializes a snapshot of all records plus the dashboard summary.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	blob, err := s.store.ExportAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export analyses: %w", err)
	}
	return blob, nil
}

// Import replaces the full record collection with the snapshot's and
// invalidates every cached read.
func (s *Service) Import(ctx context.Context, blob []byte) error {
	replaced := s.store.GetAll(ctx)
	if !s.store.ImportAll(ctx, blob) {
		return fmt.Errorf("import rejected: payload is not a valid snapshot")
	}
	s.cache.InvalidateAllLists()
	for _, a := range replaced {
		s.cache.InvalidateEntry(a.ID)
	}
	for _, a := range s.store.GetAll(ctx) {
		s.cache.InvalidateEntry(a.ID)
	}
	return nil
}

// invalidate drops the cached entry for id and every cached list.
func (s *Service) invalidate(id string) {
	s.cache.InvalidateEntry(id)
	s.cache.InvalidateAllLists()
}

// validateCore enforces the mandatory fields shared by create and update:
// a non-empty title, a non-empty address and a positive property value.
func validateCore(title string, property models.PropertyDetails) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("title")
	}
	if strings.TrimSpace(property.Address) == "" {
		return models.NewValidationError("property.address")
	}
	if property.ValueCLP <= 0 {
		return &models.ValidationError{Field: "property.value_clp", Reason: "must be positive"}
	}
	return nil
}
