package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/shahanursiam/sampletrack/internal/models"
)

// GormStore implements Store on top of a gorm-managed Postgres database.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new gorm-backed store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Samples() SampleRepository       { return &gormSampleRepo{db: s.db} }
func (s *GormStore) Containers() ContainerRepository { return &gormContainerRepo{db: s.db} }
func (s *GormStore) Invoices() InvoiceRepository     { return &gormInvoiceRepo{db: s.db} }
func (s *GormStore) Movements() MovementRepository   { return &gormMovementRepo{db: s.db} }
func (s *GormStore) Approvals() ApprovalRepository   { return &gormApprovalRepo{db: s.db} }
func (s *GormStore) Locations() LocationRepository   { return &gormLocationRepo{db: s.db} }
func (s *GormStore) Users() UserRepository           { return &gormUserRepo{db: s.db} }
func (s *GormStore) Settings() SettingRepository     { return &gormSettingRepo{db: s.db} }

// Atomic runs fn inside a single database transaction.
func (s *GormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

func translate(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return errors.Wrap(err, msg)
}

type gormSampleRepo struct {
	db *gorm.DB
}

func (r *gormSampleRepo) Create(ctx context.Context, sample *models.Sample) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(sample).Error, "failed to create sample")
}

func (r *gormSampleRepo) Save(ctx context.Context, sample *models.Sample) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(sample).Error, "failed to save sample")
}

func (r *gormSampleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.Wrap(r.db.WithContext(ctx).Delete(&models.Sample{}, "id = ?", id).Error, "failed to delete sample")
}

func (r *gormSampleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Sample, error) {
	var sample models.Sample
	if err := r.db.WithContext(ctx).First(&sample, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to get sample by ID")
	}
	return &sample, nil
}

func (r *gormSampleRepo) FindByBarcode(ctx context.Context, code string) (*models.Sample, error) {
	var sample models.Sample
	// Sub-barcodes live in a jsonb array; a quoted LIKE match is enough
	// because codes never contain quotes.
	like := fmt.Sprintf("%%\"%s\"%%", code)
	err := r.db.WithContext(ctx).
		Where("sku = ? OR barcodes::text LIKE ?", code, like).
		First(&sample).Error
	if err != nil {
		return nil, translate(err, "failed to find sample by barcode")
	}
	return &sample, nil
}

func (r *gormSampleRepo) FindCell(ctx context.Context, sku string, locationID uuid.UUID, hanger, carton *string) (*models.Sample, error) {
	q := r.db.WithContext(ctx).Where("sku = ? AND current_location_id = ?", sku, locationID)
	if hanger == nil {
		q = q.Where("hanger IS NULL")
	} else {
		q = q.Where("hanger = ?", *hanger)
	}
	if carton == nil {
		q = q.Where("carton IS NULL")
	} else {
		q = q.Where("carton = ?", *carton)
	}
	var sample models.Sample
	if err := q.First(&sample).Error; err != nil {
		return nil, translate(err, "failed to find destination cell")
	}
	return &sample, nil
}

func (r *gormSampleRepo) FindInStockBySKU(ctx context.Context, sku string) ([]models.Sample, error) {
	var samples []models.Sample
	err := r.db.WithContext(ctx).
		Where("sku = ? AND quantity > 0", sku).
		Order("created_at ASC").
		Find(&samples).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find samples by SKU")
	}
	return samples, nil
}

func (r *gormSampleRepo) List(ctx context.Context, f SampleFilter) ([]models.Sample, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Sample{})
	if f.Keyword != "" {
		kw := "%" + f.Keyword + "%"
		q = q.Where("name ILIKE ? OR sku ILIKE ? OR style_no ILIKE ? OR buyer ILIKE ?", kw, kw, kw, kw)
	}
	if f.CreatedByID != nil {
		q = q.Where("created_by_id = ?", *f.CreatedByID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count samples")
	}

	var samples []models.Sample
	err := q.Order("created_at DESC").
		Limit(f.PageSize).
		Offset(f.PageSize * (f.Page - 1)).
		Find(&samples).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list samples")
	}
	return samples, count, nil
}

func (r *gormSampleRepo) SummaryByLocation(ctx context.Context) ([]InventoryRow, error) {
	var rows []InventoryRow
	err := r.db.WithContext(ctx).Model(&models.Sample{}).
		Select("samples.current_location_id AS location_id, locations.name AS location_name, locations.type AS location_type, COUNT(*) AS count, SUM(samples.quantity) AS total_quantity").
		Joins("JOIN locations ON locations.id = samples.current_location_id").
		Where("samples.current_location_id IS NOT NULL").
		Group("samples.current_location_id, locations.name, locations.type").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to aggregate inventory")
	}
	return rows, nil
}

func (r *gormSampleRepo) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).Model(&models.Sample{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count samples by status")
	}
	return rows, nil
}

type gormContainerRepo struct {
	db *gorm.DB
}

func (r *gormContainerRepo) Create(ctx context.Context, c *models.Container) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(c).Error, "failed to create container")
}

func (r *gormContainerRepo) Save(ctx context.Context, c *models.Container) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(c).Error, "failed to save container")
}

func (r *gormContainerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Container, error) {
	var c models.Container
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to get container by ID")
	}
	return &c, nil
}

func (r *gormContainerRepo) GetByBarcode(ctx context.Context, containerID string) (*models.Container, error) {
	var c models.Container
	if err := r.db.WithContext(ctx).First(&c, "container_id = ?", containerID).Error; err != nil {
		return nil, translate(err, "failed to get container by barcode")
	}
	return &c, nil
}

type gormInvoiceRepo struct {
	db *gorm.DB
}

func (r *gormInvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(inv).Error, "failed to create invoice")
}

func (r *gormInvoiceRepo) Save(ctx context.Context, inv *models.Invoice) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(inv).Error, "failed to save invoice")
}

func (r *gormInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.WithContext(ctx).Preload("Items").First(&inv, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to get invoice by ID")
	}
	return &inv, nil
}

func (r *gormInvoiceRepo) GetByInvoiceNo(ctx context.Context, no string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.WithContext(ctx).Preload("Items").First(&inv, "invoice_no = ?", no).Error; err != nil {
		return nil, translate(err, "failed to get invoice by number")
	}
	return &inv, nil
}

func (r *gormInvoiceRepo) MaxSeqWithPrefix(ctx context.Context, prefix string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("invoice_no LIKE ?", prefix+"%").
		Select("COALESCE(MAX(CAST(SUBSTRING(invoice_no FROM ?) AS INTEGER)), 0)", len(prefix)+1).
		Scan(&max).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to find last invoice number")
	}
	return max, nil
}

func (r *gormInvoiceRepo) List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Invoice{})
	if f.CreatedByID != nil {
		q = q.Where("created_by_id = ?", *f.CreatedByID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count invoices")
	}

	var invoices []models.Invoice
	err := q.Preload("Items").
		Order("created_at DESC").
		Limit(f.PageSize).
		Offset(f.PageSize * (f.Page - 1)).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list invoices")
	}
	return invoices, count, nil
}

func (r *gormInvoiceRepo) ListPending(ctx context.Context) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).Preload("Items").
		Where("status = ?", models.InvoicePending).
		Order("created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending invoices")
	}
	return invoices, nil
}

type gormMovementRepo struct {
	db *gorm.DB
}

func (r *gormMovementRepo) Create(ctx context.Context, entry *models.MovementLog) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(entry).Error, "failed to create movement log")
}

func (r *gormMovementRepo) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]models.MovementLog, error) {
	var logs []models.MovementLog
	err := r.db.WithContext(ctx).
		Where("sample_id = ?", sampleID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sample history")
	}
	return logs, nil
}

func (r *gormMovementRepo) List(ctx context.Context, page, pageSize int) ([]models.MovementLog, int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.MovementLog{}).Count(&count).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count movement logs")
	}

	var logs []models.MovementLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(pageSize).
		Offset(pageSize * (page - 1)).
		Find(&logs).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list movement logs")
	}
	return logs, count, nil
}

func (r *gormMovementRepo) GetUnpublished(ctx context.Context, limit int) ([]models.MovementLog, error) {
	var logs []models.MovementLog
	err := r.db.WithContext(ctx).
		Where("published = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get unpublished movement logs")
	}
	return logs, nil
}

func (r *gormMovementRepo) MarkPublished(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.MovementLog{}).
		Where("id = ?", id).
		Update("published", true)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark movement log published")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type gormApprovalRepo struct {
	db *gorm.DB
}

func (r *gormApprovalRepo) Create(ctx context.Context, req *models.ApprovalRequest) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(req).Error, "failed to create approval request")
}

func (r *gormApprovalRepo) Save(ctx context.Context, req *models.ApprovalRequest) error {
	return errors.Wrap(r.db.WithContext(ctx).Save(req).Error, "failed to save approval request")
}

func (r *gormApprovalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	var req models.ApprovalRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to get approval request")
	}
	return &req, nil
}

func (r *gormApprovalRepo) ListPending(ctx context.Context) ([]models.ApprovalRequest, error) {
	var reqs []models.ApprovalRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ApprovalPending).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending approval requests")
	}
	return reqs, nil
}

type gormLocationRepo struct {
	db *gorm.DB
}

func (r *gormLocationRepo) Create(ctx context.Context, loc *models.Location) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(loc).Error, "failed to create location")
}

func (r *gormLocationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var loc models.Location
	if err := r.db.WithContext(ctx).First(&loc, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to get location by ID")
	}
	return &loc, nil
}

func (r *gormLocationRepo) List(ctx context.Context) ([]models.Location, error) {
	var locs []models.Location
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&locs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list locations")
	}
	return locs, nil
}

type gormUserRepo struct {
	db *gorm.DB
}

func (r *gormUserRepo) Create(ctx context.Context, u *models.User) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(u).Error, "failed to create user")
}

func (r *gormUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err, "failed to get user by ID")
	}
	return &u, nil
}

func (r *gormUserRepo) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	return users, nil
}

type gormSettingRepo struct {
	db *gorm.DB
}

func (r *gormSettingRepo) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	var s models.SystemSetting
	if err := r.db.WithContext(ctx).First(&s, "key = ?", key).Error; err != nil {
		return nil, translate(err, "failed to get setting")
	}
	return &s, nil
}

func (r *gormSettingRepo) Upsert(ctx context.Context, key, value, description string) error {
	var s models.SystemSetting
	err := r.db.WithContext(ctx).First(&s, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = models.SystemSetting{
			ID:          uuid.New(),
			Key:         key,
			Value:       value,
			Description: description,
		}
		return errors.Wrap(r.db.WithContext(ctx).Create(&s).Error, "failed to create setting")
	}
	if err != nil {
		return errors.Wrap(err, "failed to load setting")
	}
	s.Value = value
	s.Description = description
	return errors.Wrap(r.db.WithContext(ctx).Save(&s).Error, "failed to update setting")
}

func (r *gormSettingRepo) List(ctx context.Context) ([]models.SystemSetting, error) {
	var settings []models.SystemSetting
	if err := r.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list settings")
	}
	return settings, nil
}
