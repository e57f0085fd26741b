// Package interfaces defines storage and service contracts for arriendo
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/valentin-maty/arriendo/internal/models"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when the key is absent.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the injected store handle: a string-keyed text space
// with get/set/remove. Backends must be safe for concurrent use.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error) // ErrKeyNotFound when absent
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)

	// Available reports whether the backing store can serve requests.
	// When false, reads degrade to empty results and writes to failure.
	Available() bool

	Close() error
}

// AnalysisStore is the persistence adapter for the saved-analysis
// collection and the derived dashboard summary. Reads never raise storage
// errors to the caller; writes report success as a boolean.
type AnalysisStore interface {
	GetAll(ctx context.Context) []models.SavedAnalysis
	GetByID(ctx context.Context, id string) (*models.SavedAnalysis, bool)
	Save(ctx context.Context, analysis *models.SavedAnalysis) bool
	Delete(ctx context.Context, id string) bool
	UpdateStatus(ctx context.Context, id, status string) bool

	GetDashboard(ctx context.Context) *models.DashboardSummary
	AppendActivity(ctx context.Context, entry models.ActivityEntry) bool
	RecomputeStats(ctx context.Context) *models.DashboardSummary

	ExportAll(ctx context.Context) ([]byte, error)
	ImportAll(ctx context.Context, blob []byte) bool
	ClearAll(ctx context.Context) bool
}

// AnalysisCache memoizes repository reads with a fixed TTL. A false second
// return means cache miss, not "not found" — callers must distinguish.
type AnalysisCache interface {
	GetEntry(id string) (*models.SavedAnalysis, bool)
	SetEntry(id string, analysis *models.SavedAnalysis)
	InvalidateEntry(id string)

	GetList(queryKey string) ([]models.SavedAnalysis, bool)
	SetList(queryKey string, analyses []models.SavedAnalysis)
	InvalidateAllLists()
}

// Sort key constants for ListOptions.
const (
	SortByCreatedAt     = "created_at"
	SortByUpdatedAt     = "updated_at"
	SortByPropertyValue = "property_value"
	SortByTitle         = "title"
)

// ListOptions configures filtering, sorting and pagination for list
// queries. Unset (nil / zero) fields impose no constraint. A non-nil empty
// Tags slice matches nothing; a nil Tags slice matches everything.
type ListOptions struct {
	Search        string     // case-insensitive substring match on title or address
	Status        string     // exact status match
	CreatedAfter  *time.Time // inclusive lower bound on created_at
	CreatedBefore *time.Time // inclusive upper bound on created_at
	MinValue      *float64   // inclusive lower bound on property value (CLP)
	MaxValue      *float64   // inclusive upper bound on property value (CLP)
	Bedrooms      *int       // exact match
	Bathrooms     *int       // exact match
	Tags          []string   // match if the record carries at least one of these

	SortBy  string // one of the SortBy* constants, default updated_at
	SortAsc bool   // default false (descending)

	Page     int // 1-based, default 1
	PageSize int // default 10
}

// IsUnfiltered reports whether the options carry no filter constraints,
// i.e. the query is the cacheable "list all" shape.
func (o ListOptions) IsUnfiltered() bool {
	return o.Search == "" && o.Status == "" &&
		o.CreatedAfter == nil && o.CreatedBefore == nil &&
		o.MinValue == nil && o.MaxValue == nil &&
		o.Bedrooms == nil && o.Bathrooms == nil &&
		o.Tags == nil
}

// ListResult is a page of matching analyses plus pagination metadata.
// Total counts all records matching the filters, pre-pagination.
type ListResult struct {
	Analyses []models.SavedAnalysis `json:"analyses"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	HasMore  bool                   `json:"has_more"`
}
