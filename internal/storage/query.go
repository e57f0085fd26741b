package storage

import (
	"sort"
	"strings"

	"github.com/valentin-maty/arriendo/internal/interfaces"
	"github.com/valentin-maty/arriendo/internal/models"
)

// Default pagination values for list queries.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// ApplyListOptions filters, sorts and paginates the full record set in
// memory. Every supplied predicate is applied conjunctively; unset fields
// impose no constraint. The sort is stable so repeated identical queries
// produce identical listings.
func ApplyListOptions(analyses []models.SavedAnalysis, opts interfaces.ListOptions) *interfaces.ListResult {
	filtered := make([]models.SavedAnalysis, 0, len(analyses))
	for _, a := range analyses {
		if matches(&a, opts) {
			filtered = append(filtered, a)
		}
	}

	sortAnalyses(filtered, opts.SortBy, opts.SortAsc)

	page := opts.Page
	if page < 1 {
		page = DefaultPage
	}
	pageSize := opts.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	total := len(filtered)
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &interfaces.ListResult{
		Analyses: filtered[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  page*pageSize < total,
	}
}

func matches(a *models.SavedAnalysis, opts interfaces.ListOptions) bool {
	if opts.Search != "" {
		needle := strings.ToLower(opts.Search)
		title := strings.ToLower(a.Title)
		address := strings.ToLower(a.Property.Address)
		if !strings.Contains(title, needle) && !strings.Contains(address, needle) {
			return false
		}
	}
	if opts.Status != "" && a.Metadata.Status != opts.Status {
		return false
	}
	if opts.CreatedAfter != nil && a.Metadata.CreatedAt.Before(*opts.CreatedAfter) {
		return false
	}
	if opts.CreatedBefore != nil && a.Metadata.CreatedAt.After(*opts.CreatedBefore) {
		return false
	}
	if opts.MinValue != nil && a.Property.ValueCLP < *opts.MinValue {
		return false
	}
	if opts.MaxValue != nil && a.Property.ValueCLP > *opts.MaxValue {
		return false
	}
	if opts.Bedrooms != nil && a.Property.Bedrooms != *opts.Bedrooms {
		return false
	}
	if opts.Bathrooms != nil && a.Property.Bathrooms != *opts.Bathrooms {
		return false
	}
	if opts.Tags != nil {
		// An empty (non-nil) tag set matches nothing, by contract.
		found := false
		for _, tag := range opts.Tags {
			if a.HasTag(tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sortAnalyses stable-sorts by the chosen key and direction. Ties keep
// their pre-sort relative order.
func sortAnalyses(analyses []models.SavedAnalysis, sortBy string, asc bool) {
	less := lessFunc(sortBy)
	sort.SliceStable(analyses, func(i, j int) bool {
		if asc {
			return less(&analyses[i], &analyses[j])
		}
		return less(&analyses[j], &analyses[i])
	})
}

func lessFunc(sortBy string) func(a, b *models.SavedAnalysis) bool {
	switch sortBy {
	case interfaces.SortByCreatedAt:
		return func(a, b *models.SavedAnalysis) bool {
			return a.Metadata.CreatedAt.Before(b.Metadata.CreatedAt)
		}
	case interfaces.SortByPropertyValue:
		return func(a, b *models.SavedAnalysis) bool {
			return a.Property.ValueCLP < b.Property.ValueCLP
		}
	case interfaces.SortByTitle:
		return func(a, b *models.SavedAnalysis) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	default: // updated_at
		return func(a, b *models.SavedAnalysis) bool {
			return a.Metadata.UpdatedAt.Before(b.Metadata.UpdatedAt)
		}
	}
}
