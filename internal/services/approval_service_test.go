package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

func seedRequest(t *testing.T, store repositories.Store, sampleID uuid.UUID, action models.ApprovalAction, data *models.SampleUpdate) *models.ApprovalRequest {
	t.Helper()
	req := &models.ApprovalRequest{
		ID:             uuid.New(),
		MerchandiserID: uuid.New(),
		SampleID:       sampleID,
		Action:         action,
		Data:           data,
		Status:         models.ApprovalPending,
	}
	require.NoError(t, store.Approvals().Create(context.Background(), req))
	return req
}

func TestListPendingAdminOnly(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewApprovalService(store)

	_, err := svc.ListPending(context.Background(), merchandiser())
	require.ErrorIs(t, err, ErrForbidden)

	sample := seedSample(t, store, uuid.New(), "SMP-260814-3001", 2)
	seedRequest(t, store, sample.ID, models.ApprovalUpdate, &models.SampleUpdate{})

	pendingInvoice := &models.Invoice{
		ID:          uuid.New(),
		InvoiceNo:   "INV-2608-0042",
		Status:      models.InvoicePending,
		InvoiceType: models.InvoiceReturnable,
		CreatedByID: uuid.New(),
	}
	require.NoError(t, store.Invoices().Create(context.Background(), pendingInvoice))

	dashboard, err := svc.ListPending(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, dashboard.Requests, 1)
	require.Len(t, dashboard.PendingInvoices, 1)
}

func TestHandleRequestApproveUpdate(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewApprovalService(store)
	reviewer := admin()

	sample := seedSample(t, store, uuid.New(), "SMP-260814-3002", 2)
	name := "Corrected Name"
	req := seedRequest(t, store, sample.ID, models.ApprovalUpdate, &models.SampleUpdate{Name: &name})

	handled, err := svc.HandleRequest(context.Background(), reviewer, req.ID, true, "looks right")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalApproved, handled.Status)
	require.Equal(t, "looks right", handled.AdminResponse)

	got, err := store.Samples().GetByID(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Equal(t, "Corrected Name", got.Name)

	history, err := store.Movements().ListBySample(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ActionUpdatedViaApproval, history[0].Action)
}

func TestHandleRequestRejectLeavesSampleAlone(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewApprovalService(store)
	reviewer := admin()

	sample := seedSample(t, store, uuid.New(), "SMP-260814-3003", 2)
	name := "Should Not Apply"
	req := seedRequest(t, store, sample.ID, models.ApprovalUpdate, &models.SampleUpdate{Name: &name})

	handled, err := svc.HandleRequest(context.Background(), reviewer, req.ID, false, "not convinced")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalRejected, handled.Status)

	got, err := store.Samples().GetByID(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Equal(t, "Denim Jacket", got.Name)

	history, err := store.Movements().ListBySample(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestHandleRequestApproveDelete(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewApprovalService(store)
	reviewer := admin()

	sample := seedSample(t, store, uuid.New(), "SMP-260814-3004", 2)
	req := seedRequest(t, store, sample.ID, models.ApprovalDelete, nil)

	handled, err := svc.HandleRequest(context.Background(), reviewer, req.ID, true, "")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalApproved, handled.Status)

	_, err = store.Samples().GetByID(context.Background(), sample.ID)
	require.ErrorIs(t, err, repositories.ErrNotFound)

	history, err := store.Movements().ListBySample(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ActionDeletedViaApproval, history[0].Action)
}

func TestHandleRequestApproveDeleteToleratesMissingSample(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewApprovalService(store)
	reviewer := admin()

	// The sample vanished between the request and the review.
	req := seedRequest(t, store, uuid.New(), models.ApprovalDelete, nil)

	handled, err := svc.HandleRequest(context.Background(), reviewer, req.ID, true, "")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalApproved, handled.Status)
}

func TestHandleRequestAlreadyHandled(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewApprovalService(store)
	reviewer := admin()

	sample := seedSample(t, store, uuid.New(), "SMP-260814-3005", 2)
	name := "Twice"
	req := seedRequest(t, store, sample.ID, models.ApprovalUpdate, &models.SampleUpdate{Name: &name})

	_, err := svc.HandleRequest(context.Background(), reviewer, req.ID, true, "")
	require.NoError(t, err)

	_, err = svc.HandleRequest(context.Background(), reviewer, req.ID, false, "")
	require.ErrorIs(t, err, ErrAlreadyHandled)
}

func TestHandleRequestNotFound(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewApprovalService(store)

	_, err := svc.HandleRequest(context.Background(), admin(), uuid.New(), true, "")
	require.ErrorIs(t, err, ErrNotFound)
}
