package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/shahanursiam/sampletrack/internal/auth"
	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/movelog"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

// ApprovalService resolves deferred merchandiser mutations. Requests carry a
// snapshot of the requested change, so approval applies exactly what was
// asked for even if the sample moved on in the meantime.
type ApprovalService struct {
	store repositories.Store
}

// NewApprovalService creates a new approval service.
func NewApprovalService(store repositories.Store) *ApprovalService {
	return &ApprovalService{store: store}
}

// Dashboard is the admin review queue: deferred sample mutations plus
// invoices awaiting a decision.
type Dashboard struct {
	Requests        []models.ApprovalRequest `json:"requests"`
	PendingInvoices []models.Invoice         `json:"pending_invoices"`
}

// ListPending returns the admin review queue.
func (s *ApprovalService) ListPending(ctx context.Context, ident auth.Identity) (*Dashboard, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.IsAdmin() {
		return nil, faultf(ErrForbidden, "only admins can review approvals")
	}

	requests, err := s.store.Approvals().ListPending(ctx)
	if err != nil {
		return nil, err
	}
	invoices, err := s.store.Invoices().ListPending(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Requests: requests, PendingInvoices: invoices}, nil
}

// HandleRequest approves or rejects one deferred mutation. Approving an
// UPDATE applies the stored snapshot; approving a DELETE removes the sample.
// Rejection only marks the request.
func (s *ApprovalService) HandleRequest(ctx context.Context, ident auth.Identity, requestID uuid.UUID, approve bool, response string) (*models.ApprovalRequest, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.IsAdmin() {
		return nil, faultf(ErrForbidden, "only admins can review approvals")
	}

	var request *models.ApprovalRequest
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		var err error
		request, err = tx.Approvals().GetByID(ctx, requestID)
		if errors.Is(err, repositories.ErrNotFound) {
			return faultf(ErrNotFound, "approval request not found")
		}
		if err != nil {
			return err
		}
		if request.Status != models.ApprovalPending {
			return faultf(ErrAlreadyHandled, "request already %s", request.Status)
		}

		if !approve {
			request.Status = models.ApprovalRejected
			request.AdminResponse = response
			return tx.Approvals().Save(ctx, request)
		}

		switch request.Action {
		case models.ApprovalUpdate:
			sample, err := tx.Samples().GetByID(ctx, request.SampleID)
			if errors.Is(err, repositories.ErrNotFound) {
				return faultf(ErrNotFound, "sample no longer exists")
			}
			if err != nil {
				return err
			}
			if request.Data != nil {
				request.Data.Apply(sample)
			}
			if err := tx.Samples().Save(ctx, sample); err != nil {
				return err
			}
			if err := movelog.Record(ctx, tx.Movements(), movelog.Entry{
				SampleID: sample.ID,
				Action:   models.ActionUpdatedViaApproval,
				By:       ident.ID,
				Comment:  "Update approved by admin",
			}); err != nil {
				return err
			}
		case models.ApprovalDelete:
			err := tx.Samples().Delete(ctx, request.SampleID)
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
			// Sample already gone is fine; the decision still completes.
			if err := movelog.Record(ctx, tx.Movements(), movelog.Entry{
				SampleID: request.SampleID,
				Action:   models.ActionDeletedViaApproval,
				By:       ident.ID,
				Comment:  "Deletion approved by admin",
			}); err != nil {
				return err
			}
		default:
			return faultf(ErrInvalidInput, "unknown approval action %s", request.Action)
		}

		request.Status = models.ApprovalApproved
		request.AdminResponse = response
		return tx.Approvals().Save(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", request.ID.String()).
		Str("status", string(request.Status)).
		Msg("approval request handled")
	return request, nil
}
