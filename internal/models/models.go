package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Role identifies what a caller is allowed to do. Authentication itself is
// handled upstream; the API only receives a resolved identity.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleMerchandiser   Role = "merchandiser"
	RoleWarehouseStaff Role = "warehouse_staff"
	RoleManager        Role = "manager"
)

// User represents a system user referenced by audit and ownership fields.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"not null;uniqueIndex" json:"email"`
	Role      Role           `gorm:"not null;default:merchandiser" json:"role"`
	Avatar    *string        `json:"avatar,omitempty"`
}

// Location is a physical place samples live in or move through.
type Location struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Type      string         `gorm:"not null" json:"type"` // warehouse, office, display, vendor, factory
	Address   string         `json:"address"`
	Capacity  *int           `json:"capacity,omitempty"`
	ManagerID *uuid.UUID     `gorm:"type:uuid" json:"manager_id,omitempty"`
}

// SampleType classifies the development stage of a garment sample.
type SampleType string

const (
	SampleTypeProto      SampleType = "proto"
	SampleTypeFit        SampleType = "fit"
	SampleTypePP         SampleType = "pp"
	SampleTypeShipment   SampleType = "shipment"
	SampleTypeProduction SampleType = "production"
)

// SampleStatus tracks where a sample is in its lifecycle.
type SampleStatus string

const (
	SampleCreated   SampleStatus = "Created"
	SampleReceived  SampleStatus = "Received"
	SampleInQC      SampleStatus = "In QC"
	SampleInTransit SampleStatus = "In Transit"
	SampleDelivered SampleStatus = "Delivered"
	SampleApproved  SampleStatus = "Approved"
	SampleRejected  SampleStatus = "Rejected"
	SampleClosed    SampleStatus = "Closed"
)

// Sample is one stock cell of a garment sample batch: a quantity of a single
// SKU held at a specific location, optionally inside a container and tagged
// with a hanger or carton label. The SKU is deliberately NOT unique at the
// storage level — splitting a batch across cells produces rows sharing a SKU.
type Sample struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
	SKU               string         `gorm:"column:sku;not null;index" json:"sku"`
	StyleNo           string         `json:"style_no"`
	PONumber          string         `gorm:"column:po_number" json:"po_number"`
	ItemNumber        string         `json:"item_number"`
	Name              string         `gorm:"not null" json:"name"`
	Size              string         `json:"size"`
	Color             string         `json:"color"`
	Buyer             string         `json:"buyer"`
	Season            string         `json:"season"`
	Supplier          string         `json:"supplier"`
	Vendor            string         `json:"vendor"`
	Factory           string         `json:"factory"`
	SampleDate        time.Time      `json:"sample_date"`
	FabricType        string         `json:"fabric_type"`
	FabricDetails     string         `json:"fabric_details"`
	Remarks           string         `json:"remarks"`
	SampleType        SampleType     `gorm:"not null" json:"sample_type"`
	Barcodes          []string       `gorm:"type:jsonb;serializer:json" json:"barcodes"`
	Quantity          int            `gorm:"not null;default:1" json:"quantity"`
	Hanger            *string        `json:"hanger,omitempty"`
	Carton            *string        `json:"carton,omitempty"`
	ContainerID       *uuid.UUID     `gorm:"type:uuid;index" json:"container_id,omitempty"`
	CurrentLocationID *uuid.UUID     `gorm:"type:uuid;index" json:"current_location_id,omitempty"`
	Status            SampleStatus   `gorm:"not null;default:Created" json:"status"`
	CreatedByID       uuid.UUID      `gorm:"type:uuid;not null" json:"created_by_id"`
}

// SampleUpdate is the partial-update snapshot applied either directly or via
// an approval request. Only fields listed here may be changed after creation;
// identity, timestamps and creator are never touched.
type SampleUpdate struct {
	Name          *string       `json:"name,omitempty"`
	StyleNo       *string       `json:"style_no,omitempty"`
	PONumber      *string       `json:"po_number,omitempty"`
	ItemNumber    *string       `json:"item_number,omitempty"`
	Size          *string       `json:"size,omitempty"`
	Color         *string       `json:"color,omitempty"`
	Buyer         *string       `json:"buyer,omitempty"`
	Season        *string       `json:"season,omitempty"`
	Supplier      *string       `json:"supplier,omitempty"`
	Vendor        *string       `json:"vendor,omitempty"`
	Factory       *string       `json:"factory,omitempty"`
	FabricType    *string       `json:"fabric_type,omitempty"`
	FabricDetails *string       `json:"fabric_details,omitempty"`
	Remarks       *string       `json:"remarks,omitempty"`
	SampleType    *SampleType   `json:"sample_type,omitempty"`
	SampleDate    *time.Time    `json:"sample_date,omitempty"`
	Quantity      *int          `json:"quantity,omitempty"`
	Status        *SampleStatus `json:"status,omitempty"`
	LocationID    *uuid.UUID    `json:"location_id,omitempty"`
}

// Apply copies the set fields onto the sample.
func (u *SampleUpdate) Apply(s *Sample) {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.StyleNo != nil {
		s.StyleNo = *u.StyleNo
	}
	if u.PONumber != nil {
		s.PONumber = *u.PONumber
	}
	if u.ItemNumber != nil {
		s.ItemNumber = *u.ItemNumber
	}
	if u.Size != nil {
		s.Size = *u.Size
	}
	if u.Color != nil {
		s.Color = *u.Color
	}
	if u.Buyer != nil {
		s.Buyer = *u.Buyer
	}
	if u.Season != nil {
		s.Season = *u.Season
	}
	if u.Supplier != nil {
		s.Supplier = *u.Supplier
	}
	if u.Vendor != nil {
		s.Vendor = *u.Vendor
	}
	if u.Factory != nil {
		s.Factory = *u.Factory
	}
	if u.FabricType != nil {
		s.FabricType = *u.FabricType
	}
	if u.FabricDetails != nil {
		s.FabricDetails = *u.FabricDetails
	}
	if u.Remarks != nil {
		s.Remarks = *u.Remarks
	}
	if u.SampleType != nil {
		s.SampleType = *u.SampleType
	}
	if u.SampleDate != nil {
		s.SampleDate = *u.SampleDate
	}
	if u.Quantity != nil {
		s.Quantity = *u.Quantity
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.LocationID != nil {
		s.CurrentLocationID = u.LocationID
	}
}

// ContainerType distinguishes warehouse boxes from display racks.
type ContainerType string

const (
	ContainerCarton ContainerType = "Carton"
	ContainerHanger ContainerType = "Hanger"
)

// ContainerStatus tracks the physical state of a container.
type ContainerStatus string

const (
	ContainerActive  ContainerStatus = "Active"
	ContainerSealed  ContainerStatus = "Sealed"
	ContainerShipped ContainerStatus = "Shipped"
	ContainerClosed  ContainerStatus = "Closed"
)

// Container is a physical carton or hanger rack identified by a
// caller-supplied barcode. ItemIDs and Sample.ContainerID are kept
// bidirectionally consistent: a sample listed here must point back at this
// container.
type Container struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
	ContainerID string          `gorm:"not null;uniqueIndex" json:"container_id"` // barcode
	Type        ContainerType   `gorm:"not null" json:"type"`
	ItemIDs     []uuid.UUID     `gorm:"type:jsonb;serializer:json" json:"item_ids"`
	LocationID  *uuid.UUID      `gorm:"type:uuid" json:"location_id,omitempty"`
	Status      ContainerStatus `gorm:"not null;default:Active" json:"status"`
	CreatedByID uuid.UUID       `gorm:"type:uuid;not null" json:"created_by_id"`
}

// InvoiceStatus is the invoice lifecycle state. Pending invoices have already
// reserved their stock; Approved and Rejected are terminal.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "Pending"
	InvoiceApproved  InvoiceStatus = "Approved"
	InvoiceRejected  InvoiceStatus = "Rejected"
	InvoiceSent      InvoiceStatus = "Sent"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

// InvoiceType says whether distributed stock can come back.
type InvoiceType string

const (
	InvoiceReturnable    InvoiceType = "Returnable"
	InvoiceNonReturnable InvoiceType = "Non-returnable"
)

// Invoice is a transfer document (challan) moving quantity out of internal
// stock to a location or a named external recipient.
type Invoice struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
	InvoiceNo        string         `gorm:"not null;uniqueIndex" json:"invoice_no"`
	ToLocationID     *uuid.UUID     `gorm:"type:uuid" json:"to_location_id,omitempty"`
	RecipientName    string         `json:"recipient_name,omitempty"`
	SourceLocationID *uuid.UUID     `gorm:"type:uuid" json:"source_location_id,omitempty"`
	Items            []InvoiceItem  `gorm:"foreignKey:InvoiceID" json:"items"`
	TotalQuantity    int            `gorm:"not null" json:"total_quantity"`
	Status           InvoiceStatus  `gorm:"not null;default:Pending" json:"status"`
	InvoiceType      InvoiceType    `gorm:"not null;default:Non-returnable" json:"invoice_type"`
	IssueDate        time.Time      `json:"issue_date"`
	Remarks          string         `json:"remarks"`
	CreatedByID      uuid.UUID      `gorm:"type:uuid;not null" json:"created_by_id"`
}

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
	SampleID  uuid.UUID `gorm:"type:uuid;not null;index" json:"sample_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Notes     string    `json:"notes"`
}

// MovementAction labels an audit trail entry.
type MovementAction string

const (
	ActionCreated            MovementAction = "CREATED"
	ActionMoved              MovementAction = "MOVED"
	ActionStatusChange       MovementAction = "STATUS_CHANGE"
	ActionQCPass             MovementAction = "QC_PASS"
	ActionQCFail             MovementAction = "QC_FAIL"
	ActionDistribute         MovementAction = "DISTRIBUTE"
	ActionInternalTransfer   MovementAction = "INTERNAL_TRANSFER"
	ActionInvoiceSent        MovementAction = "INVOICE_SENT"
	ActionInvoiceApproved    MovementAction = "INVOICE_APPROVED"
	ActionInvoiceRejected    MovementAction = "INVOICE_REJECTED"
	ActionReturn             MovementAction = "RETURN"
	ActionContainerAssigned  MovementAction = "CONTAINER_ASSIGNED"
	ActionUpdatedViaApproval MovementAction = "UPDATED_VIA_APPROVAL"
	ActionDeletedViaApproval MovementAction = "DELETED_VIA_APPROVAL"
)

// MovementLog is an append-only audit record. Rows are never updated except
// for the Published flag consumed by the event publisher, and never deleted.
type MovementLog struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	SampleID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"sample_id"`
	Action         MovementAction `gorm:"not null" json:"action"`
	FromLocationID *uuid.UUID     `gorm:"type:uuid" json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID     `gorm:"type:uuid" json:"to_location_id,omitempty"`
	PerformedByID  uuid.UUID      `gorm:"type:uuid;not null" json:"performed_by_id"`
	Quantity       *int           `json:"quantity,omitempty"`
	Comments       string         `json:"comments"`
	Published      bool           `gorm:"not null;default:false" json:"-"`
}

// ApprovalAction is the deferred mutation kind captured by an approval request.
type ApprovalAction string

const (
	ApprovalUpdate ApprovalAction = "UPDATE"
	ApprovalDelete ApprovalAction = "DELETE"
)

// ApprovalStatus is the approval request lifecycle state.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// ApprovalRequest is a merchandiser mutation awaiting an admin decision.
// Data holds the requested field set for UPDATE and stays nil for DELETE.
type ApprovalRequest struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	MerchandiserID uuid.UUID      `gorm:"type:uuid;not null" json:"merchandiser_id"`
	SampleID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"sample_id"`
	Action         ApprovalAction `gorm:"not null" json:"action"`
	Data           *SampleUpdate  `gorm:"type:jsonb;serializer:json" json:"data,omitempty"`
	Status         ApprovalStatus `gorm:"not null;default:PENDING" json:"status"`
	AdminResponse  string         `json:"admin_response"`
}

// SystemSetting is a single global key/value setting, e.g. editWindowMinutes.
type SystemSetting struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	Key         string    `gorm:"not null;uniqueIndex" json:"key"`
	Value       string    `gorm:"not null" json:"value"`
	Description string    `json:"description"`
}

// SettingEditWindowMinutes keys the merchandiser edit window setting.
const SettingEditWindowMinutes = "editWindowMinutes"

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	// Apply all migrations
	err := db.AutoMigrate(
		&User{},
		&Location{},
		&Sample{},
		&Container{},
		&Invoice{},
		&InvoiceItem{},
		&MovementLog{},
		&ApprovalRequest{},
		&SystemSetting{},
	)

	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
