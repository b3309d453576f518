package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shahanursiam/sampletrack/config"
	"github.com/shahanursiam/sampletrack/internal/auth"
	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

func testConfig() config.Config {
	return config.Config{
		Approval: config.ApprovalConfig{EditWindowMinutes: 120},
		Distribution: config.DistributionConfig{
			AllowedDestinations: []string{"front desk", "store room", "display room", "general room"},
			CartonRequired:      []string{"store room"},
			HangerRequired:      []string{"display room", "general room"},
		},
	}
}

func admin() auth.Identity {
	return auth.Identity{ID: uuid.New(), Role: models.RoleAdmin}
}

func merchandiser() auth.Identity {
	return auth.Identity{ID: uuid.New(), Role: models.RoleMerchandiser}
}

func newSampleService(store repositories.Store) *SampleService {
	return NewSampleService(store, nil, nil, testConfig())
}

func seedLocation(t *testing.T, store repositories.Store, name string) *models.Location {
	t.Helper()
	loc := &models.Location{ID: uuid.New(), Name: name, Type: "warehouse"}
	require.NoError(t, store.Locations().Create(context.Background(), loc))
	return loc
}

func seedSample(t *testing.T, store repositories.Store, owner uuid.UUID, sku string, qty int) *models.Sample {
	t.Helper()
	sample := &models.Sample{
		ID:          uuid.New(),
		SKU:         sku,
		Name:        "Denim Jacket",
		SampleType:  models.SampleTypeProto,
		Quantity:    qty,
		Status:      models.SampleCreated,
		CreatedByID: owner,
	}
	require.NoError(t, store.Samples().Create(context.Background(), sample))
	return sample
}

func TestCreateSampleGeneratesSKUAndBarcodes(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	svc.now = func() time.Time { return time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC) }

	sample, err := svc.Create(context.Background(), merchandiser(), CreateSampleInput{
		Name:       "Denim Jacket",
		SampleType: models.SampleTypeProto,
		Quantity:   3,
	})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(sample.SKU, "SMP-260814-"), "got %s", sample.SKU)
	require.Len(t, sample.Barcodes, 3)
	require.Equal(t, sample.SKU+"-1", sample.Barcodes[0])
	require.Equal(t, sample.SKU+"-3", sample.Barcodes[2])

	history, err := store.Movements().ListBySample(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ActionCreated, history[0].Action)
}

func TestCreateSampleDefaultsQuantityToOne(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)

	sample, err := svc.Create(context.Background(), admin(), CreateSampleInput{
		Name:       "Silk Scarf",
		SampleType: models.SampleTypeFit,
	})
	require.NoError(t, err)
	require.Equal(t, 1, sample.Quantity)
	require.Len(t, sample.Barcodes, 1)
}

func TestCreateSampleForbiddenForWarehouseStaff(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)

	_, err := svc.Create(context.Background(), auth.Identity{ID: uuid.New(), Role: models.RoleWarehouseStaff}, CreateSampleInput{
		Name:       "Denim Jacket",
		SampleType: models.SampleTypeProto,
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestDistributeSplitsThenMerges(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := admin()

	display := seedLocation(t, store, "Display Room")
	source := seedSample(t, store, ident.ID, "SMP-260814-1234", 10)
	hanger := "H-7"

	// First transfer splits a new cell off the source row.
	dest, err := svc.Distribute(context.Background(), ident, source.ID, DistributeInput{
		LocationID: display.ID,
		Quantity:   intPtr(4),
		Hanger:     &hanger,
	})
	require.NoError(t, err)
	require.NotEqual(t, source.ID, dest.ID)
	require.Equal(t, 4, dest.Quantity)
	require.Equal(t, &hanger, dest.Hanger)

	got, err := store.Samples().GetByID(context.Background(), source.ID)
	require.NoError(t, err)
	require.Equal(t, 6, got.Quantity)

	// Second transfer to the same cell merges instead of splitting again.
	dest2, err := svc.Distribute(context.Background(), ident, source.ID, DistributeInput{
		LocationID: display.ID,
		Quantity:   intPtr(2),
		Hanger:     &hanger,
	})
	require.NoError(t, err)
	require.Equal(t, dest.ID, dest2.ID)
	require.Equal(t, 6, dest2.Quantity)

	got, err = store.Samples().GetByID(context.Background(), source.ID)
	require.NoError(t, err)
	require.Equal(t, 4, got.Quantity)

	// Quantity is conserved across the batch.
	require.Equal(t, 10, got.Quantity+dest2.Quantity)

	history, err := store.Movements().ListBySample(context.Background(), source.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, entry := range history {
		require.Equal(t, models.ActionInternalTransfer, entry.Action)
	}
}

func TestDistributeRejectsUnknownDestination(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := admin()

	loft := seedLocation(t, store, "Roof Loft")
	sample := seedSample(t, store, ident.ID, "SMP-260814-2345", 5)

	_, err := svc.Distribute(context.Background(), ident, sample.ID, DistributeInput{LocationID: loft.ID})
	require.ErrorIs(t, err, ErrInvalidDestination)
}

func TestDistributeRequiresCartonForStoreRoom(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := admin()

	storeRoom := seedLocation(t, store, "Store Room")
	sample := seedSample(t, store, ident.ID, "SMP-260814-3456", 5)

	_, err := svc.Distribute(context.Background(), ident, sample.ID, DistributeInput{LocationID: storeRoom.ID})
	require.ErrorIs(t, err, ErrInvalidDestination)
	require.Contains(t, err.Error(), "carton")

	carton := "C-12"
	_, err = svc.Distribute(context.Background(), ident, sample.ID, DistributeInput{
		LocationID: storeRoom.ID,
		Carton:     &carton,
	})
	require.NoError(t, err)
}

func TestDistributeInsufficientStock(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := admin()

	front := seedLocation(t, store, "Front Desk")
	sample := seedSample(t, store, ident.ID, "SMP-260814-4567", 3)

	_, err := svc.Distribute(context.Background(), ident, sample.ID, DistributeInput{
		LocationID: front.ID,
		Quantity:   intPtr(5),
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	got, err := store.Samples().GetByID(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.Quantity)
}

func TestReturnValidation(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := admin()

	sample := seedSample(t, store, ident.ID, "SMP-260814-5678", 2)
	other := seedSample(t, store, ident.ID, "SMP-260814-6789", 2)

	_, err := svc.Return(context.Background(), ident, sample.ID, ReturnInput{InvoiceNo: "INV-2608-9999", Quantity: 1})
	require.ErrorIs(t, err, ErrNotFound)

	nonReturnable := &models.Invoice{
		ID:          uuid.New(),
		InvoiceNo:   "INV-2608-0001",
		InvoiceType: models.InvoiceNonReturnable,
		Status:      models.InvoiceApproved,
		Items:       []models.InvoiceItem{{ID: uuid.New(), SampleID: sample.ID, Quantity: 1}},
		CreatedByID: ident.ID,
	}
	require.NoError(t, store.Invoices().Create(context.Background(), nonReturnable))

	_, err = svc.Return(context.Background(), ident, sample.ID, ReturnInput{InvoiceNo: "INV-2608-0001", Quantity: 1})
	require.ErrorIs(t, err, ErrNotReturnable)
	require.Contains(t, err.Error(), "Non-returnable")

	returnable := &models.Invoice{
		ID:          uuid.New(),
		InvoiceNo:   "INV-2608-0002",
		InvoiceType: models.InvoiceReturnable,
		Status:      models.InvoiceApproved,
		Items:       []models.InvoiceItem{{ID: uuid.New(), SampleID: sample.ID, Quantity: 1}},
		CreatedByID: ident.ID,
	}
	require.NoError(t, store.Invoices().Create(context.Background(), returnable))

	// The invoice exists and is returnable, but carries a different sample.
	_, err = svc.Return(context.Background(), ident, other.ID, ReturnInput{InvoiceNo: "INV-2608-0002", Quantity: 1})
	require.ErrorIs(t, err, ErrItemMismatch)

	got, err := svc.Return(context.Background(), ident, sample.ID, ReturnInput{InvoiceNo: "INV-2608-0002", Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, 3, got.Quantity)

	history, err := store.Movements().ListBySample(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ActionReturn, history[0].Action)
}

func TestScanWritesOneLogWithStatusPrecedence(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := admin()

	front := seedLocation(t, store, "Front Desk")
	sample := seedSample(t, store, ident.ID, "SMP-260814-7890", 1)
	status := models.SampleInQC

	got, err := svc.Scan(context.Background(), ident, ScanInput{
		Barcode:      sample.SKU,
		ToLocationID: &front.ID,
		Status:       &status,
	})
	require.NoError(t, err)
	require.Equal(t, models.SampleInQC, got.Status)
	require.Equal(t, &front.ID, got.CurrentLocationID)

	history, err := store.Movements().ListBySample(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ActionStatusChange, history[0].Action)
}

func TestUpdateAppliesAtEditWindowBoundary(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := merchandiser()

	base := time.Date(2026, 8, 14, 9, 0, 0, 0, time.UTC)
	sample := &models.Sample{
		ID:          uuid.New(),
		SKU:         "SMP-260814-8901",
		Name:        "Denim Jacket",
		SampleType:  models.SampleTypeProto,
		Quantity:    1,
		Status:      models.SampleCreated,
		CreatedByID: ident.ID,
		CreatedAt:   base,
	}
	require.NoError(t, store.Samples().Create(context.Background(), sample))

	// Exactly at the limit the edit still applies directly.
	svc.now = func() time.Time { return base.Add(120 * time.Minute) }
	name := "Denim Jacket v2"
	result, err := svc.Update(context.Background(), ident, sample.ID, models.SampleUpdate{Name: &name})
	require.NoError(t, err)
	require.False(t, result.Deferred)
	require.Equal(t, "Denim Jacket v2", result.Sample.Name)
}

func TestUpdateDefersPastEditWindow(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := merchandiser()

	base := time.Date(2026, 8, 14, 9, 0, 0, 0, time.UTC)
	sample := &models.Sample{
		ID:          uuid.New(),
		SKU:         "SMP-260814-9012",
		Name:        "Denim Jacket",
		SampleType:  models.SampleTypeProto,
		Quantity:    1,
		Status:      models.SampleCreated,
		CreatedByID: ident.ID,
		CreatedAt:   base,
	}
	require.NoError(t, store.Samples().Create(context.Background(), sample))

	svc.now = func() time.Time { return base.Add(121 * time.Minute) }
	name := "Denim Jacket v2"
	result, err := svc.Update(context.Background(), ident, sample.ID, models.SampleUpdate{Name: &name})
	require.NoError(t, err)
	require.True(t, result.Deferred)
	require.Equal(t, models.ApprovalPending, result.Request.Status)
	require.Equal(t, models.ApprovalUpdate, result.Request.Action)

	// The sample itself stays untouched until an admin decides.
	got, err := store.Samples().GetByID(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Equal(t, "Denim Jacket", got.Name)
}

func TestUpdateHonorsPersistedEditWindowSetting(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := merchandiser()

	require.NoError(t, store.Settings().Upsert(context.Background(), models.SettingEditWindowMinutes, "10", ""))

	base := time.Date(2026, 8, 14, 9, 0, 0, 0, time.UTC)
	sample := &models.Sample{
		ID:          uuid.New(),
		SKU:         "SMP-260814-1122",
		Name:        "Denim Jacket",
		SampleType:  models.SampleTypeProto,
		Quantity:    1,
		Status:      models.SampleCreated,
		CreatedByID: ident.ID,
		CreatedAt:   base,
	}
	require.NoError(t, store.Samples().Create(context.Background(), sample))

	svc.now = func() time.Time { return base.Add(30 * time.Minute) }
	name := "Denim Jacket v2"
	result, err := svc.Update(context.Background(), ident, sample.ID, models.SampleUpdate{Name: &name})
	require.NoError(t, err)
	require.True(t, result.Deferred)
}

func TestAdminUpdateNeverDeferred(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := admin()

	base := time.Date(2026, 8, 14, 9, 0, 0, 0, time.UTC)
	sample := seedSample(t, store, ident.ID, "SMP-260814-2233", 1)
	svc.now = func() time.Time { return base.Add(48 * time.Hour) }

	name := "Renamed"
	result, err := svc.Update(context.Background(), ident, sample.ID, models.SampleUpdate{Name: &name})
	require.NoError(t, err)
	require.False(t, result.Deferred)
}

func TestListScopesMerchandiserToOwnSamples(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	mine := merchandiser()

	seedSample(t, store, mine.ID, "SMP-260814-3344", 1)
	seedSample(t, store, uuid.New(), "SMP-260814-4455", 1)

	list, err := svc.List(context.Background(), mine, "", 1)
	require.NoError(t, err)
	require.Len(t, list.Samples, 1)
	require.Equal(t, mine.ID, list.Samples[0].CreatedByID)

	all, err := svc.List(context.Background(), admin(), "", 1)
	require.NoError(t, err)
	require.Len(t, all.Samples, 2)
}

func TestLookupByBarcodeMatchesSubBarcode(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	ident := admin()

	sample := seedSample(t, store, ident.ID, "SMP-260814-5566", 2)
	sample.Barcodes = []string{"SMP-260814-5566-1", "SMP-260814-5566-2"}
	require.NoError(t, store.Samples().Save(context.Background(), sample))

	got, err := svc.LookupByBarcode(context.Background(), ident, "SMP-260814-5566-2")
	require.NoError(t, err)
	require.Equal(t, sample.ID, got.ID)

	_, err = svc.LookupByBarcode(context.Background(), ident, "SMP-000000-0000")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMovementFeedIsScopedAndNewestFirst(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := newSampleService(store)
	actor := admin()
	sample := seedSample(t, store, actor.ID, "SMP-260814-9001", 5)

	for _, comment := range []string{"first", "second", "third"} {
		require.NoError(t, store.Movements().Create(context.Background(), &models.MovementLog{
			SampleID:      sample.ID,
			Action:        models.ActionMoved,
			PerformedByID: actor.ID,
			Comments:      comment,
		}))
	}

	_, err := svc.Movements(context.Background(), merchandiser(), 1)
	require.ErrorIs(t, err, ErrForbidden)

	feed, err := svc.Movements(context.Background(), actor, 1)
	require.NoError(t, err)
	require.Equal(t, int64(3), feed.Total)
	require.Equal(t, 1, feed.Pages)
	require.Equal(t, "third", feed.Entries[0].Comments)
	require.Equal(t, "first", feed.Entries[2].Comments)
}

func intPtr(n int) *int { return &n }
