package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valentin-maty/arriendo/internal/common"
	"github.com/valentin-maty/arriendo/internal/interfaces"
	"github.com/valentin-maty/arriendo/internal/models"
	"github.com/valentin-maty/arriendo/internal/storage"
	"github.com/valentin-maty/arriendo/internal/storage/memkv"
	"github.com/valentin-maty/arriendo/internal/testutil"
)

type harness struct {
	service *Service
	store   *storage.AnalysisStore
	cache   *storage.Cache
	kv      *memkv.Store
	clock   *testutil.StubClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := common.NewSilentLogger()
	kv := memkv.NewStore()
	clock := testutil.FixedClock()
	store := storage.NewAnalysisStore(kv, clock, logger)
	cache := storage.NewCache(5*time.Minute, true, clock)
	service := NewService(store, cache, clock, testutil.NewStubIDGenerator(), logger)
	return &harness{service: service, store: store, cache: cache, kv: kv, clock: clock}
}

func createInput(title string) interfaces.CreateAnalysisInput {
	return interfaces.CreateAnalysisInput{
		Title: title,
		Property: models.PropertyDetails{
			Address:  "Av. Providencia 1234",
			ValueCLP: 100_000_000,
			AreaM2:   55,
			Bedrooms: 2, Bathrooms: 1,
		},
		Analysis: models.AnalysisInputs{
			SuggestedRentCLP: 500_000,
			RentCurrency:     "CLP",
		},
		BrokerID: "broker_1",
		Tags:     []string{"centro"},
	}
}

func TestCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	saved, err := h.service.Create(ctx, createInput("Depto Providencia"))
	require.NoError(t, err)

	assert.True(t, len(saved.ID) > 3 && saved.ID[:3] == "an_", "ID should carry the an_ prefix")
	assert.Equal(t, models.StatusDraft, saved.Metadata.Status, "initial status is always draft")
	assert.Equal(t, h.clock.Now(), saved.Metadata.CreatedAt)
	assert.Equal(t, h.clock.Now(), saved.Metadata.UpdatedAt)
	assert.Zero(t, saved.Calculations.CapRate, "calculations default to zeroed placeholders")

	got, err := h.service.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.Title, got.Title)

	// Creation is logged to the activity feed.
	summary, err := h.service.Dashboard(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, summary.RecentActivity)
	assert.Equal(t, models.ActivityAnalysisCreated, summary.RecentActivity[0].Type)
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	t.Run("missing_title", func(t *testing.T) {
		input := createInput("  ")
		_, err := h.service.Create(ctx, input)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "title", verr.Field)
	})

	t.Run("missing_address", func(t *testing.T) {
		input := createInput("Depto")
		input.Property.Address = ""
		_, err := h.service.Create(ctx, input)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "property.address", verr.Field)
	})

	t.Run("missing_value", func(t *testing.T) {
		input := createInput("Depto")
		input.Property.ValueCLP = 0
		_, err := h.service.Create(ctx, input)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "property.value_clp", verr.Field)
	})

	// Nothing was persisted by the rejected attempts.
	result, err := h.service.List(ctx, interfaces.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func TestCacheCoherenceAfterMutations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.service.Create(ctx, createInput("First"))
	require.NoError(t, err)

	// Prime the list cache.
	result, err := h.service.List(ctx, interfaces.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Total)

	t.Run("create", func(t *testing.T) {
		_, err := h.service.Create(ctx, createInput("Second"))
		require.NoError(t, err)

		result, err := h.service.List(ctx, interfaces.ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total, "list reflects the new record immediately")
	})

	t.Run("update_status", func(t *testing.T) {
		require.NoError(t, h.service.UpdateStatus(ctx, a.ID, models.StatusSentToClient))

		result, err := h.service.List(ctx, interfaces.ListOptions{Status: models.StatusSentToClient})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)

		got, err := h.service.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSentToClient, got.Metadata.Status, "entry cache was invalidated")
	})

	t.Run("delete", func(t *testing.T) {
		_, err := h.service.Delete(ctx, a.ID)
		require.NoError(t, err)

		result, err := h.service.List(ctx, interfaces.ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Total)

		_, err = h.service.Get(ctx, a.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestDeletePublishedForbidden(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.service.Create(ctx, createInput("Depto"))
	require.NoError(t, err)
	require.NoError(t, h.service.UpdateStatus(ctx, a.ID, models.StatusPublished))

	_, err = h.service.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, models.ErrForbidden)

	// Record remains unchanged.
	got, err := h.service.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, got.Metadata.Status)
}

func TestDeleteReturnsSummary(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.service.Create(ctx, createInput("Depto"))
	require.NoError(t, err)

	summary, err := h.service.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, summary.ID)
	assert.Equal(t, "Depto", summary.Title)
	assert.Equal(t, "Av. Providencia 1234", summary.Address)

	_, err = h.service.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateStatusNonexistent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	before, err := h.service.Dashboard(ctx)
	require.NoError(t, err)
	activityBefore := len(before.RecentActivity)

	err = h.service.UpdateStatus(ctx, "an_missing", models.StatusSentToClient)
	assert.ErrorIs(t, err, models.ErrNotFound)

	after, err := h.service.Dashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, after.RecentActivity, activityBefore, "no activity entry on failure")
}

func TestUpdateStatusActivity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.service.Create(ctx, createInput("Depto"))
	require.NoError(t, err)

	require.NoError(t, h.service.UpdateStatus(ctx, a.ID, models.StatusSentToClient))
	require.NoError(t, h.service.UpdateStatus(ctx, a.ID, models.StatusClientResponded))

	summary, err := h.service.Dashboard(ctx)
	require.NoError(t, err)
	require.True(t, len(summary.RecentActivity) >= 3)
	assert.Equal(t, models.ActivityClientResponse, summary.RecentActivity[0].Type)
	assert.Equal(t, models.ActivityRentalSent, summary.RecentActivity[1].Type)

	err = h.service.UpdateStatus(ctx, a.ID, "not_a_status")
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateReplacesAndPreserves(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	input := createInput("Depto")
	input.Calculations = &models.CalculationResults{CapRate: 5.5}
	a, err := h.service.Create(ctx, input)
	require.NoError(t, err)
	require.NoError(t, h.service.UpdateStatus(ctx, a.ID, models.StatusSentToClient))

	created := a.Metadata.CreatedAt
	h.clock.Advance(time.Minute)

	updated, err := h.service.Update(ctx, a.ID, interfaces.UpdateAnalysisInput{
		Title: "Depto (actualizado)",
		Property: models.PropertyDetails{
			Address:  "Av. Apoquindo 5000",
			ValueCLP: 120_000_000,
			AreaM2:   60,
		},
		Analysis: models.AnalysisInputs{SuggestedRentCLP: 600_000},
	})
	require.NoError(t, err)

	assert.Equal(t, "Depto (actualizado)", updated.Title)
	assert.Equal(t, 120_000_000.0, updated.Property.ValueCLP)
	assert.Equal(t, models.StatusSentToClient, updated.Metadata.Status, "status preserved")
	assert.Equal(t, created, updated.Metadata.CreatedAt, "created_at preserved")
	assert.Equal(t, 5.5, updated.Calculations.CapRate, "calculations preserved when not supplied")
	assert.Equal(t, h.clock.Now(), updated.Metadata.UpdatedAt)

	// The rent change is logged as a price update.
	summary, err := h.service.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPriceUpdated, summary.RecentActivity[0].Type)

	_, err = h.service.Update(ctx, "an_missing", interfaces.UpdateAnalysisInput{
		Title:    "x",
		Property: models.PropertyDetails{Address: "y", ValueCLP: 1},
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.service.Create(ctx, createInput("Depto"))
	require.NoError(t, err)

	title := "Renamed"
	status := models.StatusArchived
	tags := []string{"oriente"}
	notes := "client asked for a discount"

	patched, err := h.service.Patch(ctx, a.ID, interfaces.AnalysisPatch{
		Title:  &title,
		Status: &status,
		Tags:   &tags,
		Notes:  &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", patched.Title)
	assert.Equal(t, models.StatusArchived, patched.Metadata.Status)
	assert.Equal(t, []string{"oriente"}, patched.Metadata.Tags)
	assert.Equal(t, notes, patched.Metadata.Notes)
	assert.Equal(t, "Av. Providencia 1234", patched.Property.Address, "untouched fields survive")

	t.Run("invalid_status", func(t *testing.T) {
		bad := "shipped"
		_, err := h.service.Patch(ctx, a.ID, interfaces.AnalysisPatch{Status: &bad})
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("nonexistent", func(t *testing.T) {
		_, err := h.service.Patch(ctx, "an_missing", interfaces.AnalysisPatch{Title: &title})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.service.Create(ctx, createInput("First"))
	require.NoError(t, err)
	second, err := h.service.Create(ctx, createInput("Second"))
	require.NoError(t, err)

	blob, err := h.service.Export(ctx)
	require.NoError(t, err)

	_, err = h.service.Delete(ctx, second.ID)
	require.NoError(t, err)

	require.NoError(t, h.service.Import(ctx, blob))

	result, err := h.service.List(ctx, interfaces.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total, "import restored the snapshot")

	t.Run("rejects_malformed", func(t *testing.T) {
		err := h.service.Import(ctx, []byte(`{"analyses": 42}`))
		assert.Error(t, err)

		result, err := h.service.List(ctx, interfaces.ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total, "collection untouched")
	})
}

func TestDashboardAverageIncludesPlaceholders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	withCalc := createInput("With calc")
	withCalc.Calculations = &models.CalculationResults{CapRate: 6.0}
	_, err := h.service.Create(ctx, withCalc)
	require.NoError(t, err)

	_, err = h.service.Create(ctx, createInput("Fresh, no calc"))
	require.NoError(t, err)

	summary, err := h.service.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalAnalyses)
	assert.InDelta(t, 3.0, summary.AverageRentability, 0.0001,
		"zero placeholder cap rates drag the mean down, as in the source")
}

func TestGetNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.service.Get(context.Background(), "an_missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorageFailureSurfacesGenerically(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.service.Create(ctx, createInput("Depto"))
	require.NoError(t, err)

	h.kv.SetAvailable(false)

	_, err = h.service.Create(ctx, createInput("Another"))
	assert.Error(t, err, "create fails when the store is unavailable")

	// Reads degrade to empty, never panic or error out.
	result, err := h.service.List(ctx, interfaces.ListOptions{})
	require.NoError(t, err)
	_ = result

	h.kv.SetAvailable(true)
	got, err := h.service.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}
