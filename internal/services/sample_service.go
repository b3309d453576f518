package services

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/shahanursiam/sampletrack/config"
	"github.com/shahanursiam/sampletrack/internal/auth"
	"github.com/shahanursiam/sampletrack/internal/cache"
	"github.com/shahanursiam/sampletrack/internal/locks"
	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/movelog"
	"github.com/shahanursiam/sampletrack/internal/repositories"
	"github.com/shahanursiam/sampletrack/internal/search"
	"github.com/shahanursiam/sampletrack/internal/utils"
)

// SampleService owns every quantity-affecting mutation on sample rows. Total
// quantity across the rows of a batch is conserved except at creation,
// invoice rejection/return (injection) and deletion (removal).
type SampleService struct {
	store       repositories.Store
	cache       *cache.RedisCache
	elastic     *search.ElasticClient
	dist        config.DistributionConfig
	approval    config.ApprovalConfig
	sampleLocks *locks.Keyed
	now         func() time.Time
}

// NewSampleService creates a new sample service.
func NewSampleService(store repositories.Store, redisCache *cache.RedisCache, elastic *search.ElasticClient, cfg config.Config) *SampleService {
	return &SampleService{
		store:       store,
		cache:       redisCache,
		elastic:     elastic,
		dist:        cfg.Distribution,
		approval:    cfg.Approval,
		sampleLocks: locks.NewKeyed(),
		now:         time.Now,
	}
}

// generateSKU builds SMP-YYMMDD-RRRR from the given day and a 4-digit random.
func generateSKU(t time.Time) string {
	return fmt.Sprintf("SMP-%s-%d", t.Format("060102"), 1000+rand.Intn(9000))
}

// CreateSampleInput carries the attributes for a new sample batch.
type CreateSampleInput struct {
	Name          string            `json:"name" validate:"required"`
	StyleNo       string            `json:"style_no"`
	PONumber      string            `json:"po_number"`
	ItemNumber    string            `json:"item_number"`
	Size          string            `json:"size"`
	Color         string            `json:"color"`
	Buyer         string            `json:"buyer"`
	Season        string            `json:"season"`
	Supplier      string            `json:"supplier"`
	Vendor        string            `json:"vendor"`
	Factory       string            `json:"factory"`
	FabricType    string            `json:"fabric_type"`
	FabricDetails string            `json:"fabric_details"`
	Remarks       string            `json:"remarks"`
	SampleType    models.SampleType `json:"sample_type" validate:"required,oneof=proto fit pp shipment production"`
	SampleDate    *time.Time        `json:"sample_date"`
	Quantity      int               `json:"quantity" validate:"min=0"`
	LocationID    *uuid.UUID        `json:"location_id"`
}

// Create registers a new sample batch as a single stock cell. One sub-barcode
// is generated per unit so individual pieces can be scanned later.
func (s *SampleService) Create(ctx context.Context, ident auth.Identity, input CreateSampleInput) (*models.Sample, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.CanManageSamples() {
		return nil, faultf(ErrForbidden, "not authorized to create samples")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, faultf(ErrInvalidInput, "invalid sample: %v", err)
	}

	qty := input.Quantity
	if qty <= 0 {
		qty = 1
	}

	now := s.now()
	sku := generateSKU(now)
	barcodes := make([]string, 0, qty)
	for i := 1; i <= qty; i++ {
		barcodes = append(barcodes, fmt.Sprintf("%s-%d", sku, i))
	}

	sampleDate := now
	if input.SampleDate != nil {
		sampleDate = *input.SampleDate
	}

	sample := &models.Sample{
		ID:                uuid.New(),
		SKU:               sku,
		StyleNo:           input.StyleNo,
		PONumber:          input.PONumber,
		ItemNumber:        input.ItemNumber,
		Name:              input.Name,
		Size:              input.Size,
		Color:             input.Color,
		Buyer:             input.Buyer,
		Season:            input.Season,
		Supplier:          input.Supplier,
		Vendor:            input.Vendor,
		Factory:           input.Factory,
		SampleDate:        sampleDate,
		FabricType:        input.FabricType,
		FabricDetails:     input.FabricDetails,
		Remarks:           input.Remarks,
		SampleType:        input.SampleType,
		Barcodes:          barcodes,
		Quantity:          qty,
		CurrentLocationID: input.LocationID,
		Status:            models.SampleCreated,
		CreatedByID:       ident.ID,
	}

	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		if err := tx.Samples().Create(ctx, sample); err != nil {
			return err
		}
		return movelog.Record(ctx, tx.Movements(), movelog.Entry{
			SampleID: sample.ID,
			Action:   models.ActionCreated,
			By:       ident.ID,
			Comment:  "Sample created",
		})
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, sample)

	log.Info().
		Str("sample_id", sample.ID.String()).
		Str("sku", sample.SKU).
		Int("quantity", sample.Quantity).
		Msg("sample created")
	return sample, nil
}

// GetByID fetches one sample row.
func (s *SampleService) GetByID(ctx context.Context, ident auth.Identity, id uuid.UUID) (*models.Sample, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	sample, err := s.store.Samples().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, faultf(ErrNotFound, "sample not found")
	}
	return sample, err
}

// LookupByBarcode resolves a sample by SKU or any per-unit sub-barcode.
func (s *SampleService) LookupByBarcode(ctx context.Context, ident auth.Identity, code string) (*models.Sample, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}

	if s.cache.Enabled() {
		var cached models.Sample
		if err := s.cache.Get(ctx, cache.SampleBarcodeCacheKey(code), &cached); err == nil {
			return &cached, nil
		}
	}

	sample, err := s.store.Samples().FindByBarcode(ctx, code)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, faultf(ErrNotFound, "sample not found")
	}
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cache.SampleBarcodeCacheKey(code), sample, time.Minute); err != nil {
			log.Warn().Err(err).Msg("failed to cache barcode lookup")
		}
	}
	return sample, nil
}

// SampleList is a paginated sample listing.
type SampleList struct {
	Samples []models.Sample `json:"samples"`
	Page    int             `json:"page"`
	Pages   int             `json:"pages"`
	Total   int64           `json:"total"`
}

// List returns samples newest-first. Merchandisers only see their own.
func (s *SampleService) List(ctx context.Context, ident auth.Identity, keyword string, page int) (*SampleList, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if page < 1 {
		page = 1
	}
	const pageSize = 20

	filter := repositories.SampleFilter{Keyword: keyword, Page: page, PageSize: pageSize}
	if ident.Role == models.RoleMerchandiser {
		owner := ident.ID
		filter.CreatedByID = &owner
	}

	samples, total, err := s.store.Samples().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	pages := int((total + pageSize - 1) / pageSize)
	return &SampleList{Samples: samples, Page: page, Pages: pages, Total: total}, nil
}

// Search consults the Elasticsearch index when available and falls back to
// the database keyword filter otherwise.
func (s *SampleService) Search(ctx context.Context, ident auth.Identity, keyword string) ([]map[string]interface{}, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if s.elastic != nil {
		docs, err := s.elastic.SearchSamples(ctx, keyword, 50)
		if err == nil {
			return docs, nil
		}
		log.Warn().Err(err).Msg("search index unavailable, falling back to database")
	}

	list, err := s.List(ctx, ident, keyword, 1)
	if err != nil {
		return nil, err
	}
	docs := make([]map[string]interface{}, 0, len(list.Samples))
	for _, sample := range list.Samples {
		docs = append(docs, map[string]interface{}{
			"id":       sample.ID.String(),
			"sku":      sample.SKU,
			"name":     sample.Name,
			"quantity": sample.Quantity,
			"status":   sample.Status,
		})
	}
	return docs, nil
}

// ScanInput carries a barcode scan: a location move, a status change or both.
type ScanInput struct {
	Barcode      string               `json:"barcode" validate:"required"`
	ToLocationID *uuid.UUID           `json:"to_location_id"`
	Status       *models.SampleStatus `json:"status"`
	Comments     string               `json:"comments"`
}

// Scan applies location/status changes from a barcode scan. One log entry is
// written per scan; a status change takes precedence over MOVED in the label.
func (s *SampleService) Scan(ctx context.Context, ident auth.Identity, input ScanInput) (*models.Sample, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, faultf(ErrInvalidInput, "invalid scan: %v", err)
	}

	var sample *models.Sample
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		var err error
		sample, err = tx.Samples().FindByBarcode(ctx, input.Barcode)
		if errors.Is(err, repositories.ErrNotFound) {
			return faultf(ErrNotFound, "sample not found")
		}
		if err != nil {
			return err
		}

		prevLocation := sample.CurrentLocationID
		prevStatus := sample.Status

		changed := false
		if input.ToLocationID != nil && (prevLocation == nil || *input.ToLocationID != *prevLocation) {
			sample.CurrentLocationID = input.ToLocationID
			changed = true
		}
		if input.Status != nil && *input.Status != prevStatus {
			sample.Status = *input.Status
			changed = true
		}

		if changed {
			if err := tx.Samples().Save(ctx, sample); err != nil {
				return err
			}
		}

		action := models.ActionMoved
		if input.Status != nil && *input.Status != prevStatus {
			action = models.ActionStatusChange
		}

		to := input.ToLocationID
		if to == nil {
			to = prevLocation
		}
		return movelog.Record(ctx, tx.Movements(), movelog.Entry{
			SampleID: sample.ID,
			Action:   action,
			From:     prevLocation,
			To:       to,
			By:       ident.ID,
			Comment:  input.Comments,
		})
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, sample)
	return sample, nil
}

// DistributeInput moves quantity of a sample to an internal room.
type DistributeInput struct {
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Quantity   *int      `json:"quantity"`
	Hanger     *string   `json:"hanger"`
	Carton     *string   `json:"carton"`
	Notes      string    `json:"notes"`
}

func nameMatches(name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Distribute transfers quantity between internal locations. The destination
// cell is keyed by (sku, location, hanger, carton): an existing cell absorbs
// the quantity (merge), otherwise the source row is cloned (split).
func (s *SampleService) Distribute(ctx context.Context, ident auth.Identity, sampleID uuid.UUID, input DistributeInput) (*models.Sample, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, faultf(ErrInvalidInput, "invalid transfer: %v", err)
	}

	s.sampleLocks.Lock(sampleID.String())
	defer s.sampleLocks.Unlock(sampleID.String())

	var dest *models.Sample
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		source, err := tx.Samples().GetByID(ctx, sampleID)
		if errors.Is(err, repositories.ErrNotFound) {
			return faultf(ErrNotFound, "sample not found")
		}
		if err != nil {
			return err
		}

		location, err := tx.Locations().GetByID(ctx, input.LocationID)
		if errors.Is(err, repositories.ErrNotFound) {
			return faultf(ErrNotFound, "destination location not found")
		}
		if err != nil {
			return err
		}

		locName := strings.ToLower(location.Name)
		if !nameMatches(locName, s.dist.AllowedDestinations) {
			return faultf(ErrInvalidDestination, "invalid location %q; allowed: %s",
				location.Name, strings.Join(s.dist.AllowedDestinations, ", "))
		}
		if nameMatches(locName, s.dist.CartonRequired) && input.Carton == nil {
			return faultf(ErrInvalidDestination, "carton number is required for %s", location.Name)
		}
		if nameMatches(locName, s.dist.HangerRequired) && input.Hanger == nil {
			return faultf(ErrInvalidDestination, "hanger number is required for %s", location.Name)
		}

		qty := source.Quantity
		if input.Quantity != nil {
			qty = *input.Quantity
		}
		if qty <= 0 {
			return faultf(ErrInvalidInput, "transfer quantity must be positive")
		}
		if source.Quantity < qty {
			return faultf(ErrInsufficientStock, "insufficient stock; available: %d", source.Quantity)
		}

		fromLocation := source.CurrentLocationID

		// Deduct only after every check has passed.
		source.Quantity -= qty
		if err := tx.Samples().Save(ctx, source); err != nil {
			return err
		}

		dest, err = tx.Samples().FindCell(ctx, source.SKU, input.LocationID, input.Hanger, input.Carton)
		switch {
		case err == nil:
			// Merge into the existing cell.
			dest.Quantity += qty
			if err := tx.Samples().Save(ctx, dest); err != nil {
				return err
			}
		case errors.Is(err, repositories.ErrNotFound):
			// Split: clone the source row into a new cell. The clone is
			// loose stock, not part of the source's container.
			clone := *source
			clone.ID = uuid.New()
			clone.CreatedAt = time.Time{}
			clone.UpdatedAt = time.Time{}
			clone.Quantity = qty
			locID := input.LocationID
			clone.CurrentLocationID = &locID
			clone.Hanger = input.Hanger
			clone.Carton = input.Carton
			clone.ContainerID = nil
			clone.CreatedByID = ident.ID
			if err := tx.Samples().Create(ctx, &clone); err != nil {
				return err
			}
			dest = &clone
		default:
			return err
		}

		hanger, carton := "-", "-"
		if input.Hanger != nil {
			hanger = *input.Hanger
		}
		if input.Carton != nil {
			carton = *input.Carton
		}
		comment := fmt.Sprintf("Moved to %s (Hanger: %s, Carton: %s)", location.Name, hanger, carton)
		if input.Notes != "" {
			comment += " - " + input.Notes
		}

		locID := input.LocationID
		return movelog.Record(ctx, tx.Movements(), movelog.Entry{
			SampleID: source.ID,
			Action:   models.ActionInternalTransfer,
			From:     fromLocation,
			To:       &locID,
			By:       ident.ID,
			Quantity: movelog.Qty(qty),
			Comment:  comment,
		})
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, dest)
	return dest, nil
}

// ReturnInput brings previously invoiced stock back in.
type ReturnInput struct {
	InvoiceNo  string     `json:"invoice_no" validate:"required"`
	Quantity   int        `json:"quantity" validate:"required,min=1"`
	LocationID *uuid.UUID `json:"location_id"`
	Comments   string     `json:"comments"`
}

// Return reverses part of an earlier invoice deduction. The invoice must be
// Returnable and must actually carry the sample among its line items.
func (s *SampleService) Return(ctx context.Context, ident auth.Identity, sampleID uuid.UUID, input ReturnInput) (*models.Sample, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, faultf(ErrInvalidInput, "invalid return: %v", err)
	}

	s.sampleLocks.Lock(sampleID.String())
	defer s.sampleLocks.Unlock(sampleID.String())

	var sample *models.Sample
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		var err error
		sample, err = tx.Samples().GetByID(ctx, sampleID)
		if errors.Is(err, repositories.ErrNotFound) {
			return faultf(ErrNotFound, "sample not found")
		}
		if err != nil {
			return err
		}

		invoice, err := tx.Invoices().GetByInvoiceNo(ctx, input.InvoiceNo)
		if errors.Is(err, repositories.ErrNotFound) {
			return faultf(ErrNotFound, "invoice %s not found", input.InvoiceNo)
		}
		if err != nil {
			return err
		}

		if invoice.InvoiceType != models.InvoiceReturnable {
			return faultf(ErrNotReturnable, "invoice %s is Non-returnable; stock cannot be returned", invoice.InvoiceNo)
		}

		onInvoice := false
		for _, item := range invoice.Items {
			if item.SampleID == sample.ID {
				onInvoice = true
				break
			}
		}
		if !onInvoice {
			return faultf(ErrItemMismatch, "sample %s is not part of invoice %s", sample.SKU, invoice.InvoiceNo)
		}

		sample.Quantity += input.Quantity
		if input.LocationID != nil {
			sample.CurrentLocationID = input.LocationID
		}
		if err := tx.Samples().Save(ctx, sample); err != nil {
			return err
		}

		comment := fmt.Sprintf("Returned against invoice %s", invoice.InvoiceNo)
		if input.Comments != "" {
			comment += " - " + input.Comments
		}
		return movelog.Record(ctx, tx.Movements(), movelog.Entry{
			SampleID: sample.ID,
			Action:   models.ActionReturn,
			From:     invoice.ToLocationID,
			To:       sample.CurrentLocationID,
			By:       ident.ID,
			Quantity: movelog.Qty(input.Quantity),
			Comment:  comment,
		})
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, sample)
	return sample, nil
}

// UpdateResult reports whether a mutation was applied or deferred to admin
// review by the approval gate.
type UpdateResult struct {
	Sample   *models.Sample          `json:"sample,omitempty"`
	Deferred bool                    `json:"deferred"`
	Request  *models.ApprovalRequest `json:"request,omitempty"`
}

// editWindowMinutes reads the merchandiser edit window: the persisted system
// setting when present, the configured default otherwise.
func (s *SampleService) editWindowMinutes(ctx context.Context) int {
	key := cache.SettingCacheKey(models.SettingEditWindowMinutes)
	if s.cache.Enabled() {
		var cached int
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached
		}
	}

	minutes := s.approval.EditWindowMinutes
	setting, err := s.store.Settings().Get(ctx, models.SettingEditWindowMinutes)
	if err == nil {
		if v, convErr := strconv.Atoi(setting.Value); convErr == nil {
			minutes = v
		}
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, minutes, time.Minute); err != nil {
			log.Warn().Err(err).Msg("failed to cache edit window setting")
		}
	}
	return minutes
}

// gated reports whether the caller's mutation must go through admin review:
// merchandiser edits older than the edit window are deferred. An edit at
// exactly the boundary still applies immediately.
func (s *SampleService) gated(ctx context.Context, ident auth.Identity, sample *models.Sample) bool {
	if ident.Role != models.RoleMerchandiser {
		return false
	}
	limit := s.editWindowMinutes(ctx)
	age := s.now().Sub(sample.CreatedAt).Minutes()
	return age > float64(limit)
}

// Update edits a sample. Merchandiser edits outside the edit window become a
// pending approval request instead of mutating the row.
func (s *SampleService) Update(ctx context.Context, ident auth.Identity, sampleID uuid.UUID, upd models.SampleUpdate) (*UpdateResult, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.CanManageSamples() {
		return nil, faultf(ErrForbidden, "not authorized to update samples")
	}

	sample, err := s.store.Samples().GetByID(ctx, sampleID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, faultf(ErrNotFound, "sample not found")
	}
	if err != nil {
		return nil, err
	}

	if s.gated(ctx, ident, sample) {
		request := &models.ApprovalRequest{
			ID:             uuid.New(),
			MerchandiserID: ident.ID,
			SampleID:       sample.ID,
			Action:         models.ApprovalUpdate,
			Data:           &upd,
			Status:         models.ApprovalPending,
		}
		if err := s.store.Approvals().Create(ctx, request); err != nil {
			return nil, err
		}
		log.Info().
			Str("sample_id", sample.ID.String()).
			Str("request_id", request.ID.String()).
			Msg("sample edit deferred to admin approval")
		return &UpdateResult{Deferred: true, Request: request}, nil
	}

	err = s.store.Atomic(ctx, func(tx repositories.Store) error {
		prevStatus := sample.Status
		upd.Apply(sample)
		if err := tx.Samples().Save(ctx, sample); err != nil {
			return err
		}

		if sample.Status != prevStatus {
			return movelog.Record(ctx, tx.Movements(), movelog.Entry{
				SampleID: sample.ID,
				Action:   models.ActionStatusChange,
				By:       ident.ID,
				Comment:  fmt.Sprintf("Status changed from %s to %s", prevStatus, sample.Status),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.index(ctx, sample)
	return &UpdateResult{Sample: sample}, nil
}

// Delete removes a sample row, subject to the same approval gate as Update.
func (s *SampleService) Delete(ctx context.Context, ident auth.Identity, sampleID uuid.UUID) (*UpdateResult, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.CanManageSamples() {
		return nil, faultf(ErrForbidden, "not authorized to delete samples")
	}

	sample, err := s.store.Samples().GetByID(ctx, sampleID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, faultf(ErrNotFound, "sample not found")
	}
	if err != nil {
		return nil, err
	}

	if s.gated(ctx, ident, sample) {
		request := &models.ApprovalRequest{
			ID:             uuid.New(),
			MerchandiserID: ident.ID,
			SampleID:       sample.ID,
			Action:         models.ApprovalDelete,
			Status:         models.ApprovalPending,
		}
		if err := s.store.Approvals().Create(ctx, request); err != nil {
			return nil, err
		}
		return &UpdateResult{Deferred: true, Request: request}, nil
	}

	if err := s.store.Samples().Delete(ctx, sample.ID); err != nil {
		return nil, err
	}
	return &UpdateResult{Sample: sample}, nil
}

// History returns the sample's audit trail, newest first.
func (s *SampleService) History(ctx context.Context, ident auth.Identity, sampleID uuid.UUID) ([]models.MovementLog, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	return s.store.Movements().ListBySample(ctx, sampleID)
}

// MovementList is one page of the global movement feed.
type MovementList struct {
	Entries []models.MovementLog `json:"entries"`
	Page    int                  `json:"page"`
	Pages   int                  `json:"pages"`
	Total   int64                `json:"total"`
}

// Movements returns the global movement feed, newest first. The feed spans
// every sample, so it is limited to admins and managers; merchandisers read
// per-sample history instead.
func (s *SampleService) Movements(ctx context.Context, ident auth.Identity, page int) (*MovementList, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.IsAdmin() && ident.Role != models.RoleManager {
		return nil, faultf(ErrForbidden, "only admins and managers may read the movement feed")
	}
	if page < 1 {
		page = 1
	}
	const pageSize = 20
	entries, total, err := s.store.Movements().List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	pages := int((total + pageSize - 1) / pageSize)
	return &MovementList{Entries: entries, Page: page, Pages: pages, Total: total}, nil
}

// InventorySummary aggregates stock by location and status.
type InventorySummary struct {
	Inventory    []repositories.InventoryRow `json:"inventory"`
	StatusCounts []repositories.StatusCount  `json:"status_counts"`
}

// Summary builds the per-location and per-status inventory aggregation.
func (s *SampleService) Summary(ctx context.Context, ident auth.Identity) (*InventorySummary, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	inventory, err := s.store.Samples().SummaryByLocation(ctx)
	if err != nil {
		return nil, err
	}
	statusCounts, err := s.store.Samples().CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &InventorySummary{Inventory: inventory, StatusCounts: statusCounts}, nil
}

// index pushes a sample document into Elasticsearch, best effort.
func (s *SampleService) index(ctx context.Context, sample *models.Sample) {
	if s.elastic == nil || sample == nil {
		return
	}
	locationName := ""
	if sample.CurrentLocationID != nil {
		if loc, err := s.store.Locations().GetByID(ctx, *sample.CurrentLocationID); err == nil {
			locationName = loc.Name
		}
	}
	if err := s.elastic.IndexSample(ctx, sample, locationName); err != nil {
		log.Warn().Err(err).Str("sample_id", sample.ID.String()).Msg("failed to index sample")
	}
}
