package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/shahanursiam/sampletrack/internal/models"
)

// ErrNotFound is returned by repositories when a referenced record is absent.
var ErrNotFound = errors.New("record not found")

// Store bundles the entity repositories behind one handle. Atomic yields a
// Store bound to a single transaction so multi-document mutations (deduct
// then log, deduct source then credit destination) commit or fail together.
type Store interface {
	Samples() SampleRepository
	Containers() ContainerRepository
	Invoices() InvoiceRepository
	Movements() MovementRepository
	Approvals() ApprovalRepository
	Locations() LocationRepository
	Users() UserRepository
	Settings() SettingRepository

	Atomic(ctx context.Context, fn func(Store) error) error
}

// SampleFilter narrows sample listings.
type SampleFilter struct {
	Keyword     string
	CreatedByID *uuid.UUID
	Page        int
	PageSize    int
}

// InventoryRow is one line of the per-location stock summary.
type InventoryRow struct {
	LocationID    uuid.UUID `json:"location_id"`
	LocationName  string    `json:"location_name"`
	LocationType  string    `json:"location_type"`
	Count         int64     `json:"count"`
	TotalQuantity int64     `json:"total_quantity"`
}

// StatusCount is a per-status sample count.
type StatusCount struct {
	Status models.SampleStatus `json:"status"`
	Count  int64               `json:"count"`
}

// SampleRepository provides access to sample stock cells.
type SampleRepository interface {
	Create(ctx context.Context, sample *models.Sample) error
	Save(ctx context.Context, sample *models.Sample) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sample, error)
	// FindByBarcode matches the SKU exactly or any of the per-unit
	// sub-barcodes. First match wins.
	FindByBarcode(ctx context.Context, code string) (*models.Sample, error)
	// FindCell locates the stock cell keyed by (sku, location, hanger,
	// carton). Nil hanger/carton match only rows without one.
	FindCell(ctx context.Context, sku string, locationID uuid.UUID, hanger, carton *string) (*models.Sample, error)
	FindInStockBySKU(ctx context.Context, sku string) ([]models.Sample, error)
	List(ctx context.Context, f SampleFilter) ([]models.Sample, int64, error)
	SummaryByLocation(ctx context.Context) ([]InventoryRow, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
}

// ContainerRepository provides access to cartons and hanger racks.
type ContainerRepository interface {
	Create(ctx context.Context, c *models.Container) error
	Save(ctx context.Context, c *models.Container) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Container, error)
	// GetByBarcode looks a container up by its caller-supplied barcode.
	GetByBarcode(ctx context.Context, containerID string) (*models.Container, error)
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	CreatedByID *uuid.UUID
	Status      models.InvoiceStatus
	Page        int
	PageSize    int
}

// InvoiceRepository provides access to invoices and their line items.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	Save(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	GetByInvoiceNo(ctx context.Context, no string) (*models.Invoice, error)
	// MaxSeqWithPrefix returns the highest numeric suffix among invoice
	// numbers carrying the prefix, or 0 when the month has no invoices
	// yet. Comparison is numeric so the sequence stays monotonic past
	// four digits.
	MaxSeqWithPrefix(ctx context.Context, prefix string) (int, error)
	List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, int64, error)
	ListPending(ctx context.Context) ([]models.Invoice, error)
}

// MovementRepository provides access to the append-only audit trail. There is
// deliberately no update or delete beyond the publish flag.
type MovementRepository interface {
	Create(ctx context.Context, entry *models.MovementLog) error
	ListBySample(ctx context.Context, sampleID uuid.UUID) ([]models.MovementLog, error)
	List(ctx context.Context, page, pageSize int) ([]models.MovementLog, int64, error)
	GetUnpublished(ctx context.Context, limit int) ([]models.MovementLog, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
}

// ApprovalRepository provides access to pending mutation requests.
type ApprovalRepository interface {
	Create(ctx context.Context, req *models.ApprovalRequest) error
	Save(ctx context.Context, req *models.ApprovalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error)
	ListPending(ctx context.Context) ([]models.ApprovalRequest, error)
}

// LocationRepository provides access to locations.
type LocationRepository interface {
	Create(ctx context.Context, loc *models.Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	List(ctx context.Context) ([]models.Location, error)
}

// UserRepository provides access to user records.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// SettingRepository provides access to global key/value settings.
type SettingRepository interface {
	Get(ctx context.Context, key string) (*models.SystemSetting, error)
	Upsert(ctx context.Context, key, value, description string) error
	List(ctx context.Context) ([]models.SystemSetting, error)
}
