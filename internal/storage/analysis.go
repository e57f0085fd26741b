// Package storage provides the saved-analysis persistence adapter, the
// read-through cache facade and the in-memory query layer, all built on a
// pluggable key-value backend.
package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/valentin-maty/arriendo/internal/common"
	"github.com/valentin-maty/arriendo/internal/interfaces"
	"github.com/valentin-maty/arriendo/internal/models"
)

// Store keys for the two persisted records.
const (
	analysesKey  = "saved_analyses"
	dashboardKey = "dashboard_summary"
)

// AnalysisStore is the persistence adapter over a KeyValueStore. The whole
// collection is deserialized, mutated in memory and reserialized on every
// write; the mutex preserves last-writer-wins semantics when the host is
// multi-threaded.
type AnalysisStore struct {
	mu     sync.Mutex
	kv     interfaces.KeyValueStore
	clock  common.Clock
	logger *common.Logger
}

// NewAnalysisStore creates an adapter over the given key-value store.
func NewAnalysisStore(kv interfaces.KeyValueStore, clock common.Clock, logger *common.Logger) *AnalysisStore {
	if clock == nil {
		clock = common.RealClock{}
	}
	return &AnalysisStore{kv: kv, clock: clock, logger: logger}
}

// readAll loads the full collection. Unavailable store, missing key and
// malformed content all degrade to an empty collection.
func (s *AnalysisStore) readAll(ctx context.Context) []models.SavedAnalysis {
	if !s.kv.Available() {
		return nil
	}
	raw, err := s.kv.Get(ctx, analysesKey)
	if err != nil {
		if err != interfaces.ErrKeyNotFound {
			s.logger.Warn().Err(err).Msg("Failed to read analyses, treating as empty")
		}
		return nil
	}
	var analyses []models.SavedAnalysis
	if err := json.Unmarshal([]byte(raw), &analyses); err != nil {
		s.logger.Warn().Err(err).Msg("Stored analyses are corrupt, treating as empty")
		return nil
	}
	return analyses
}

// writeAll serializes and stores the full collection.
func (s *AnalysisStore) writeAll(ctx context.Context, analyses []models.SavedAnalysis) bool {
	if !s.kv.Available() {
		return false
	}
	if analyses == nil {
		analyses = []models.SavedAnalysis{}
	}
	data, err := json.Marshal(analyses)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal analyses")
		return false
	}
	if err := s.kv.Set(ctx, analysesKey, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write analyses")
		return false
	}
	return true
}

// GetAll returns every saved analysis. Never errors; degrades to empty.
func (s *AnalysisStore) GetAll(ctx context.Context) []models.SavedAnalysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll(ctx)
}

// GetByID returns the analysis with the given id, or false when absent.
func (s *AnalysisStore) GetByID(ctx context.Context, id string) (*models.SavedAnalysis, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.readAll(ctx) {
		if a.ID == id {
			found := a
			return &found, true
		}
	}
	return nil, false
}

// Save upserts by id. An existing record is replaced with created_at
// preserved; updated_at is always stamped to now, regardless of the value
// the caller supplied. A successful write triggers a stats recompute.
func (s *AnalysisStore) Save(ctx context.Context, analysis *models.SavedAnalysis) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	analyses := s.readAll(ctx)
	now := s.clock.Now()
	analysis.Metadata.UpdatedAt = now

	replaced := false
	for i := range analyses {
		if analyses[i].ID == analysis.ID {
			analysis.Metadata.CreatedAt = analyses[i].Metadata.CreatedAt
			analyses[i] = *analysis
			replaced = true
			break
		}
	}
	if !replaced {
		if analysis.Metadata.CreatedAt.IsZero() {
			analysis.Metadata.CreatedAt = now
		}
		analyses = append(analyses, *analysis)
	}

	if !s.writeAll(ctx, analyses) {
		return false
	}
	s.recomputeStatsLocked(ctx, analyses)
	s.logger.Debug().Str("id", analysis.ID).Bool("replaced", replaced).Msg("Analysis saved")
	return true
}

// Delete removes the analysis with the given id. Returns false when the id
// is absent or the write fails. A successful delete triggers a stats
// recompute.
func (s *AnalysisStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	analyses := s.readAll(ctx)
	idx := -1
	for i := range analyses {
		if analyses[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	analyses = append(analyses[:idx], analyses[idx+1:]...)

	if !s.writeAll(ctx, analyses) {
		return false
	}
	s.recomputeStatsLocked(ctx, analyses)
	s.logger.Debug().Str("id", id).Msg("Analysis deleted")
	return true
}

// UpdateStatus changes only metadata.status and metadata.updated_at.
func (s *AnalysisStore) UpdateStatus(ctx context.Context, id, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	analyses := s.readAll(ctx)
	for i := range analyses {
		if analyses[i].ID == id {
			analyses[i].Metadata.Status = status
			analyses[i].Metadata.UpdatedAt = s.clock.Now()
			if !s.writeAll(ctx, analyses) {
				return false
			}
			s.recomputeStatsLocked(ctx, analyses)
			s.logger.Debug().Str("id", id).Str("status", status).Msg("Analysis status updated")
			return true
		}
	}
	return false
}

// GetDashboard returns the stored dashboard summary, or nil when absent or
// unreadable.
func (s *AnalysisStore) GetDashboard(ctx context.Context) *models.DashboardSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readDashboardLocked(ctx)
}

func (s *AnalysisStore) readDashboardLocked(ctx context.Context) *models.DashboardSummary {
	if !s.kv.Available() {
		return nil
	}
	raw, err := s.kv.Get(ctx, dashboardKey)
	if err != nil {
		return nil
	}
	var summary models.DashboardSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		s.logger.Warn().Err(err).Msg("Stored dashboard is corrupt, ignoring")
		return nil
	}
	return &summary
}

func (s *AnalysisStore) writeDashboardLocked(ctx context.Context, summary *models.DashboardSummary) bool {
	if !s.kv.Available() {
		return false
	}
	data, err := json.Marshal(summary)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal dashboard")
		return false
	}
	if err := s.kv.Set(ctx, dashboardKey, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write dashboard")
		return false
	}
	return true
}

// recomputeStatsLocked derives a fresh summary from the given collection,
// carrying over the existing activity log, and stores it.
func (s *AnalysisStore) recomputeStatsLocked(ctx context.Context, analyses []models.SavedAnalysis) *models.DashboardSummary {
	summary := &models.DashboardSummary{
		TotalAnalyses: len(analyses),
		UpdatedAt:     s.clock.Now(),
	}

	var capRateSum float64
	for _, a := range analyses {
		if a.Metadata.Status == models.StatusSentToClient || a.Metadata.Status == models.StatusPublished {
			summary.ActiveRentals++
		}
		summary.TotalRentCLP += a.Analysis.MonthlyRentCLP()
		// Placeholder zero cap rates count toward the mean on purpose.
		capRateSum += a.Calculations.CapRate
	}
	if len(analyses) > 0 {
		summary.AverageRentability = capRateSum / float64(len(analyses))
	}

	if existing := s.readDashboardLocked(ctx); existing != nil {
		summary.RecentActivity = existing.RecentActivity
	}

	s.writeDashboardLocked(ctx, summary)
	return summary
}

// RecomputeStats recomputes and stores the dashboard summary from the
// current collection, returning the fresh summary.
func (s *AnalysisStore) RecomputeStats(ctx context.Context) *models.DashboardSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recomputeStatsLocked(ctx, s.readAll(ctx))
}

// AppendActivity prepends an activity entry to the dashboard log, evicting
// the oldest entries beyond the cap.
func (s *AnalysisStore) AppendActivity(ctx context.Context, entry models.ActivityEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := s.readDashboardLocked(ctx)
	if summary == nil {
		summary = s.recomputeStatsLocked(ctx, s.readAll(ctx))
	}
	summary.AppendActivity(entry)
	return s.writeDashboardLocked(ctx, summary)
}

// ExportAll serializes the full collection plus the dashboard summary and an
// export timestamp.
func (s *AnalysisStore) ExportAll(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := models.ExportSnapshot{
		Analyses:   s.readAll(ctx),
		Dashboard:  s.readDashboardLocked(ctx),
		ExportedAt: s.clock.Now(),
	}
	if snapshot.Analyses == nil {
		snapshot.Analyses = []models.SavedAnalysis{}
	}
	return json.MarshalIndent(snapshot, "", "  ")
}

// ImportAll replaces the full collection with the snapshot's records (not
// merged) and recomputes stats. Returns false, leaving the existing
// collection untouched, when the payload's analyses field is not a
// well-formed sequence.
func (s *AnalysisStore) ImportAll(ctx context.Context, blob []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot struct {
		Analyses []models.SavedAnalysis `json:"analyses"`
	}
	if err := json.Unmarshal(blob, &snapshot); err != nil {
		s.logger.Warn().Err(err).Msg("Import payload rejected")
		return false
	}
	if snapshot.Analyses == nil {
		s.logger.Warn().Msg("Import payload has no analyses sequence")
		return false
	}

	if !s.writeAll(ctx, snapshot.Analyses) {
		return false
	}
	s.recomputeStatsLocked(ctx, snapshot.Analyses)
	s.logger.Info().Int("count", len(snapshot.Analyses)).Msg("Analyses imported")
	return true
}

// ClearAll removes the collection and the dashboard summary.
func (s *AnalysisStore) ClearAll(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.kv.Available() {
		return false
	}
	if err := s.kv.Delete(ctx, analysesKey); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear analyses")
		return false
	}
	if err := s.kv.Delete(ctx, dashboardKey); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear dashboard")
		return false
	}
	return true
}

// Compile-time check
var _ interfaces.AnalysisStore = (*AnalysisStore)(nil)
