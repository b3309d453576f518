package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/shahanursiam/sampletrack/internal/auth"
	"github.com/shahanursiam/sampletrack/internal/locks"
	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/movelog"
	"github.com/shahanursiam/sampletrack/internal/repositories"
	"github.com/shahanursiam/sampletrack/internal/utils"
)

// InvoiceService owns the invoice lifecycle. Stock is deducted when the
// invoice is created; the movement log is written only at the approve or
// reject transition, so the audit trail reflects decided outcomes.
type InvoiceService struct {
	store       repositories.Store
	sampleLocks *locks.Keyed
	now         func() time.Time
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(store repositories.Store) *InvoiceService {
	return &InvoiceService{
		store:       store,
		sampleLocks: locks.NewKeyed(),
		now:         time.Now,
	}
}

// InvoiceItemInput is one requested line item.
type InvoiceItemInput struct {
	SampleID uuid.UUID `json:"sample_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
	Notes    string    `json:"notes"`
}

// CreateInvoiceInput carries a new outbound invoice.
type CreateInvoiceInput struct {
	ToLocationID     *uuid.UUID         `json:"to_location_id"`
	RecipientName    string             `json:"recipient_name"`
	SourceLocationID *uuid.UUID         `json:"source_location_id"`
	Items            []InvoiceItemInput `json:"items" validate:"required,min=1,dive"`
	InvoiceType      models.InvoiceType `json:"invoice_type" validate:"required,oneof=Returnable Non-returnable"`
	IssueDate        *time.Time         `json:"issue_date"`
	Remarks          string             `json:"remarks"`
}

// nextInvoiceNo allocates INV-YYMM-NNNN, resetting the counter each month.
func (s *InvoiceService) nextInvoiceNo(ctx context.Context, tx repositories.Store) (string, error) {
	prefix := fmt.Sprintf("INV-%s-", s.now().Format("0601"))
	max, err := tx.Invoices().MaxSeqWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, max+1), nil
}

// lockSamples acquires per-sample locks in sorted order so concurrent
// invoices over overlapping samples cannot deadlock.
func (s *InvoiceService) lockSamples(items []InvoiceItemInput) func() {
	keys := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		k := item.SampleID.String()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.sampleLocks.Lock(k)
	}
	return func() {
		for i := len(keys) - 1; i >= 0; i-- {
			s.sampleLocks.Unlock(keys[i])
		}
	}
}

// Create validates every line item and then deducts every line item; a
// failure on any line rolls the whole invoice back. No movement log is
// written here: the trail records the approve/reject decision instead.
func (s *InvoiceService) Create(ctx context.Context, ident auth.Identity, input CreateInvoiceInput) (*models.Invoice, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.CanManageSamples() {
		return nil, faultf(ErrForbidden, "not authorized to create invoices")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, faultf(ErrInvalidInput, "invalid invoice: %v", err)
	}

	unlock := s.lockSamples(input.Items)
	defer unlock()

	var invoice *models.Invoice
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		// Validate all lines before touching any stock.
		samples := make([]*models.Sample, 0, len(input.Items))
		for _, item := range input.Items {
			sample, err := tx.Samples().GetByID(ctx, item.SampleID)
			if errors.Is(err, repositories.ErrNotFound) {
				return faultf(ErrNotFound, "sample %s not found", item.SampleID)
			}
			if err != nil {
				return err
			}
			if sample.Quantity < item.Quantity {
				return faultf(ErrInsufficientStock, "insufficient stock for %s; available: %d, requested: %d",
					sample.SKU, sample.Quantity, item.Quantity)
			}
			if input.SourceLocationID != nil &&
				(sample.CurrentLocationID == nil || *sample.CurrentLocationID != *input.SourceLocationID) {
				return faultf(ErrInvalidInput, "sample %s does not reside at the source location", sample.SKU)
			}
			samples = append(samples, sample)
		}

		invoiceNo, err := s.nextInvoiceNo(ctx, tx)
		if err != nil {
			return err
		}

		total := 0
		lines := make([]models.InvoiceItem, 0, len(input.Items))
		invoiceID := uuid.New()
		for i, item := range input.Items {
			samples[i].Quantity -= item.Quantity
			if err := tx.Samples().Save(ctx, samples[i]); err != nil {
				return err
			}
			total += item.Quantity
			lines = append(lines, models.InvoiceItem{
				ID:        uuid.New(),
				InvoiceID: invoiceID,
				SampleID:  item.SampleID,
				Quantity:  item.Quantity,
				Notes:     item.Notes,
			})
		}

		issueDate := s.now()
		if input.IssueDate != nil {
			issueDate = *input.IssueDate
		}

		invoice = &models.Invoice{
			ID:               invoiceID,
			InvoiceNo:        invoiceNo,
			ToLocationID:     input.ToLocationID,
			RecipientName:    input.RecipientName,
			SourceLocationID: input.SourceLocationID,
			Items:            lines,
			TotalQuantity:    total,
			Status:           models.InvoicePending,
			InvoiceType:      input.InvoiceType,
			IssueDate:        issueDate,
			Remarks:          input.Remarks,
			CreatedByID:      ident.ID,
		}
		return tx.Invoices().Create(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("invoice_no", invoice.InvoiceNo).
		Int("total_quantity", invoice.TotalQuantity).
		Int("items", len(invoice.Items)).
		Msg("invoice created")
	return invoice, nil
}

// Approve confirms a pending invoice. The deduction already happened at
// creation; approval finalizes it and writes one log entry per line item.
func (s *InvoiceService) Approve(ctx context.Context, ident auth.Identity, invoiceID uuid.UUID) (*models.Invoice, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.IsAdmin() {
		return nil, faultf(ErrForbidden, "only admins can approve invoices")
	}

	var invoice *models.Invoice
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		var err error
		invoice, err = tx.Invoices().GetByID(ctx, invoiceID)
		if errors.Is(err, repositories.ErrNotFound) {
			return faultf(ErrNotFound, "invoice not found")
		}
		if err != nil {
			return err
		}
		if invoice.Status == models.InvoiceApproved {
			return faultf(ErrAlreadyApproved, "invoice %s is already approved", invoice.InvoiceNo)
		}
		if invoice.Status != models.InvoicePending {
			return faultf(ErrInvalidState, "invoice %s is %s; only pending invoices can be approved",
				invoice.InvoiceNo, invoice.Status)
		}

		invoice.Status = models.InvoiceApproved
		if err := tx.Invoices().Save(ctx, invoice); err != nil {
			return err
		}

		for _, item := range invoice.Items {
			entry := movelog.Entry{
				SampleID: item.SampleID,
				Action:   models.ActionInvoiceApproved,
				To:       invoice.ToLocationID,
				By:       ident.ID,
				Quantity: movelog.Qty(item.Quantity),
				Comment:  fmt.Sprintf("Invoice %s approved", invoice.InvoiceNo),
			}
			if sample, err := tx.Samples().GetByID(ctx, item.SampleID); err == nil {
				entry.From = sample.CurrentLocationID
			}
			if err := movelog.Record(ctx, tx.Movements(), entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("invoice_no", invoice.InvoiceNo).Msg("invoice approved")
	return invoice, nil
}

// Reject refuses a pending invoice and puts the deducted stock back.
func (s *InvoiceService) Reject(ctx context.Context, ident auth.Identity, invoiceID uuid.UUID, reason string) (*models.Invoice, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.IsAdmin() {
		return nil, faultf(ErrForbidden, "only admins can reject invoices")
	}

	var invoice *models.Invoice
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		var err error
		invoice, err = tx.Invoices().GetByID(ctx, invoiceID)
		if errors.Is(err, repositories.ErrNotFound) {
			return faultf(ErrNotFound, "invoice not found")
		}
		if err != nil {
			return err
		}
		if invoice.Status != models.InvoicePending {
			return faultf(ErrInvalidState, "invoice %s is %s; only pending invoices can be rejected",
				invoice.InvoiceNo, invoice.Status)
		}

		invoice.Status = models.InvoiceRejected
		if err := tx.Invoices().Save(ctx, invoice); err != nil {
			return err
		}

		comment := fmt.Sprintf("Invoice %s rejected", invoice.InvoiceNo)
		if reason != "" {
			comment += ": " + reason
		}

		for _, item := range invoice.Items {
			sample, err := tx.Samples().GetByID(ctx, item.SampleID)
			if errors.Is(err, repositories.ErrNotFound) {
				// Row deleted since the invoice was raised; nothing to
				// restock, but the decision still goes on record.
				log.Warn().
					Str("sample_id", item.SampleID.String()).
					Str("invoice_no", invoice.InvoiceNo).
					Msg("rejected invoice references missing sample")
			} else if err != nil {
				return err
			} else {
				sample.Quantity += item.Quantity
				if err := tx.Samples().Save(ctx, sample); err != nil {
					return err
				}
			}

			entry := movelog.Entry{
				SampleID: item.SampleID,
				Action:   models.ActionInvoiceRejected,
				By:       ident.ID,
				Quantity: movelog.Qty(item.Quantity),
				Comment:  comment,
			}
			if sample != nil {
				entry.To = sample.CurrentLocationID
			}
			if err := movelog.Record(ctx, tx.Movements(), entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("invoice_no", invoice.InvoiceNo).Msg("invoice rejected")
	return invoice, nil
}

// GetByID fetches an invoice with its line items. Non-admins only see their
// own invoices.
func (s *InvoiceService) GetByID(ctx context.Context, ident auth.Identity, invoiceID uuid.UUID) (*models.Invoice, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	invoice, err := s.store.Invoices().GetByID(ctx, invoiceID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, faultf(ErrNotFound, "invoice not found")
	}
	if err != nil {
		return nil, err
	}
	if !ident.IsAdmin() && invoice.CreatedByID != ident.ID {
		return nil, faultf(ErrForbidden, "not authorized to view this invoice")
	}
	return invoice, nil
}

// InvoiceList is a paginated invoice listing.
type InvoiceList struct {
	Invoices []models.Invoice `json:"invoices"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
	Total    int64            `json:"total"`
}

// List returns invoices newest-first; non-admins only see their own.
func (s *InvoiceService) List(ctx context.Context, ident auth.Identity, status models.InvoiceStatus, page int) (*InvoiceList, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if page < 1 {
		page = 1
	}
	const pageSize = 20

	filter := repositories.InvoiceFilter{Status: status, Page: page, PageSize: pageSize}
	if !ident.IsAdmin() {
		owner := ident.ID
		filter.CreatedByID = &owner
	}

	invoices, total, err := s.store.Invoices().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	pages := int((total + pageSize - 1) / pageSize)
	return &InvoiceList{Invoices: invoices, Page: page, Pages: pages, Total: total}, nil
}
