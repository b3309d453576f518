package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

func fixedAugust() func() time.Time {
	return func() time.Time { return time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC) }
}

func TestInvoiceNumberingPerMonth(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewInvoiceService(store)
	svc.now = fixedAugust()
	ident := admin()

	a := seedSample(t, store, ident.ID, "SMP-260814-1001", 10)
	b := seedSample(t, store, ident.ID, "SMP-260814-1002", 10)

	first, err := svc.Create(context.Background(), ident, CreateInvoiceInput{
		RecipientName: "Acme Buying House",
		InvoiceType:   models.InvoiceReturnable,
		Items:         []InvoiceItemInput{{SampleID: a.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "INV-2608-0001", first.InvoiceNo)

	second, err := svc.Create(context.Background(), ident, CreateInvoiceInput{
		RecipientName: "Acme Buying House",
		InvoiceType:   models.InvoiceReturnable,
		Items:         []InvoiceItemInput{{SampleID: b.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "INV-2608-0002", second.InvoiceNo)

	// A new month restarts the sequence under a fresh prefix.
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC) }
	third, err := svc.Create(context.Background(), ident, CreateInvoiceInput{
		RecipientName: "Acme Buying House",
		InvoiceType:   models.InvoiceReturnable,
		Items:         []InvoiceItemInput{{SampleID: a.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, "INV-2609-0001", third.InvoiceNo)
}

func TestInvoiceCreateChecksSourceResidency(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewInvoiceService(store)
	svc.now = fixedAugust()
	ident := admin()

	storeRoom := seedLocation(t, store, "Store Room")
	frontDesk := seedLocation(t, store, "Front Desk")
	sample := seedSample(t, store, ident.ID, "SMP-260814-1010", 10)
	sample.CurrentLocationID = &storeRoom.ID
	require.NoError(t, store.Samples().Save(context.Background(), sample))

	// Invoicing out of a location the sample is not at must fail before
	// any stock is touched.
	_, err := svc.Create(context.Background(), ident, CreateInvoiceInput{
		RecipientName:    "Acme Buying House",
		SourceLocationID: &frontDesk.ID,
		InvoiceType:      models.InvoiceReturnable,
		Items:            []InvoiceItemInput{{SampleID: sample.ID, Quantity: 4}},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	got, err := store.Samples().GetByID(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.Quantity)

	invoice, err := svc.Create(context.Background(), ident, CreateInvoiceInput{
		RecipientName:    "Acme Buying House",
		SourceLocationID: &storeRoom.ID,
		InvoiceType:      models.InvoiceReturnable,
		Items:            []InvoiceItemInput{{SampleID: sample.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, "INV-2608-0001", invoice.InvoiceNo)
}

func TestInvoiceNumberingStaysMonotonicPastFourDigits(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewInvoiceService(store)
	svc.now = fixedAugust()
	ident := admin()

	sample := seedSample(t, store, ident.ID, "SMP-260814-1011", 10)

	// INV-2608-10000 sorts below INV-2608-9999 lexicographically; the
	// sequence must compare suffixes numerically.
	for _, no := range []string{"INV-2608-9999", "INV-2608-10000"} {
		require.NoError(t, store.Invoices().Create(context.Background(), &models.Invoice{
			ID:          uuid.New(),
			InvoiceNo:   no,
			InvoiceType: models.InvoiceReturnable,
			Status:      models.InvoicePending,
			CreatedByID: ident.ID,
		}))
	}

	invoice, err := svc.Create(context.Background(), ident, CreateInvoiceInput{
		RecipientName: "Acme Buying House",
		InvoiceType:   models.InvoiceReturnable,
		Items:         []InvoiceItemInput{{SampleID: sample.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, "INV-2608-10001", invoice.InvoiceNo)
}

func TestInvoiceCreateDeductsWithoutLogging(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewInvoiceService(store)
	svc.now = fixedAugust()
	ident := merchandiser()

	sample := seedSample(t, store, ident.ID, "SMP-260814-1003", 10)

	invoice, err := svc.Create(context.Background(), ident, CreateInvoiceInput{
		RecipientName: "Acme Buying House",
		InvoiceType:   models.InvoiceNonReturnable,
		Items:         []InvoiceItemInput{{SampleID: sample.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, models.InvoicePending, invoice.Status)
	require.Equal(t, 4, invoice.TotalQuantity)

	got, err := store.Samples().GetByID(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Equal(t, 6, got.Quantity)

	// The trail records the decision, not the request.
	history, err := store.Movements().ListBySample(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestInvoiceCreateRejectsInsufficientLine(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewInvoiceService(store)
	svc.now = fixedAugust()
	ident := admin()

	a := seedSample(t, store, ident.ID, "SMP-260814-1004", 10)
	b := seedSample(t, store, ident.ID, "SMP-260814-1005", 1)

	_, err := svc.Create(context.Background(), ident, CreateInvoiceInput{
		RecipientName: "Acme Buying House",
		InvoiceType:   models.InvoiceReturnable,
		Items: []InvoiceItemInput{
			{SampleID: a.ID, Quantity: 2},
			{SampleID: b.ID, Quantity: 5},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing was deducted: every line is validated before any deduction.
	got, err := store.Samples().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.Quantity)
}

func TestInvoiceApproveLogsPerItem(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewInvoiceService(store)
	svc.now = fixedAugust()
	owner := merchandiser()
	reviewer := admin()

	a := seedSample(t, store, owner.ID, "SMP-260814-1006", 10)
	b := seedSample(t, store, owner.ID, "SMP-260814-1007", 10)

	invoice, err := svc.Create(context.Background(), owner, CreateInvoiceInput{
		RecipientName: "Acme Buying House",
		InvoiceType:   models.InvoiceReturnable,
		Items: []InvoiceItemInput{
			{SampleID: a.ID, Quantity: 3},
			{SampleID: b.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), owner, invoice.ID)
	require.ErrorIs(t, err, ErrForbidden)

	approved, err := svc.Approve(context.Background(), reviewer, invoice.ID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceApproved, approved.Status)

	for _, id := range []uuid.UUID{a.ID, b.ID} {
		history, err := store.Movements().ListBySample(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, models.ActionInvoiceApproved, history[0].Action)
	}

	_, err = svc.Approve(context.Background(), reviewer, invoice.ID)
	require.ErrorIs(t, err, ErrAlreadyApproved)
}

func TestInvoiceRejectRestoresStock(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewInvoiceService(store)
	svc.now = fixedAugust()
	owner := merchandiser()
	reviewer := admin()

	sample := seedSample(t, store, owner.ID, "SMP-260814-1008", 10)

	invoice, err := svc.Create(context.Background(), owner, CreateInvoiceInput{
		RecipientName: "Acme Buying House",
		InvoiceType:   models.InvoiceReturnable,
		Items:         []InvoiceItemInput{{SampleID: sample.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	rejected, err := svc.Reject(context.Background(), reviewer, invoice.ID, "wrong recipient")
	require.NoError(t, err)
	require.Equal(t, models.InvoiceRejected, rejected.Status)

	got, err := store.Samples().GetByID(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Equal(t, 10, got.Quantity)

	history, err := store.Movements().ListBySample(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ActionInvoiceRejected, history[0].Action)
	require.Contains(t, history[0].Comments, "wrong recipient")

	// A decided invoice cannot be rejected again.
	_, err = svc.Reject(context.Background(), reviewer, invoice.ID, "")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestInvoiceVisibilityScoping(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewInvoiceService(store)
	svc.now = fixedAugust()
	owner := merchandiser()
	stranger := merchandiser()

	sample := seedSample(t, store, owner.ID, "SMP-260814-1009", 10)
	invoice, err := svc.Create(context.Background(), owner, CreateInvoiceInput{
		RecipientName: "Acme Buying House",
		InvoiceType:   models.InvoiceReturnable,
		Items:         []InvoiceItemInput{{SampleID: sample.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.GetByID(context.Background(), stranger, invoice.ID)
	require.ErrorIs(t, err, ErrForbidden)

	list, err := svc.List(context.Background(), stranger, "", 1)
	require.NoError(t, err)
	require.Empty(t, list.Invoices)

	list, err = svc.List(context.Background(), admin(), "", 1)
	require.NoError(t, err)
	require.Len(t, list.Invoices, 1)
}
