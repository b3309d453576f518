package repositories

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shahanursiam/sampletrack/internal/models"
)

// MemoryStore is an in-memory Store used by tests. It serializes every
// operation behind one mutex; Atomic runs the callback inline without
// rollback, which is acceptable because service code validates before it
// mutates.
type MemoryStore struct {
	mu sync.Mutex

	samples    map[uuid.UUID]*models.Sample
	containers map[uuid.UUID]*models.Container
	invoices   map[uuid.UUID]*models.Invoice
	approvals  map[uuid.UUID]*models.ApprovalRequest
	locations  map[uuid.UUID]*models.Location
	users      map[uuid.UUID]*models.User
	settings   map[string]*models.SystemSetting
	movements  []*models.MovementLog

	seq   int64
	order map[uuid.UUID]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		samples:    make(map[uuid.UUID]*models.Sample),
		containers: make(map[uuid.UUID]*models.Container),
		invoices:   make(map[uuid.UUID]*models.Invoice),
		approvals:  make(map[uuid.UUID]*models.ApprovalRequest),
		locations:  make(map[uuid.UUID]*models.Location),
		users:      make(map[uuid.UUID]*models.User),
		settings:   make(map[string]*models.SystemSetting),
		order:      make(map[uuid.UUID]int64),
	}
}

func (s *MemoryStore) Samples() SampleRepository       { return &memSampleRepo{s} }
func (s *MemoryStore) Containers() ContainerRepository { return &memContainerRepo{s} }
func (s *MemoryStore) Invoices() InvoiceRepository     { return &memInvoiceRepo{s} }
func (s *MemoryStore) Movements() MovementRepository   { return &memMovementRepo{s} }
func (s *MemoryStore) Approvals() ApprovalRepository   { return &memApprovalRepo{s} }
func (s *MemoryStore) Locations() LocationRepository   { return &memLocationRepo{s} }
func (s *MemoryStore) Users() UserRepository           { return &memUserRepo{s} }
func (s *MemoryStore) Settings() SettingRepository     { return &memSettingRepo{s} }

func (s *MemoryStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *MemoryStore) track(id uuid.UUID, createdAt *time.Time, updatedAt *time.Time) {
	s.seq++
	s.order[id] = s.seq
	now := time.Now()
	if createdAt != nil && createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt != nil && updatedAt.IsZero() {
		*updatedAt = now
	}
}

func copySample(in *models.Sample) *models.Sample {
	out := *in
	out.Barcodes = append([]string(nil), in.Barcodes...)
	return &out
}

func copyContainer(in *models.Container) *models.Container {
	out := *in
	out.ItemIDs = append([]uuid.UUID(nil), in.ItemIDs...)
	return &out
}

func copyInvoice(in *models.Invoice) *models.Invoice {
	out := *in
	out.Items = append([]models.InvoiceItem(nil), in.Items...)
	return &out
}

type memSampleRepo struct{ s *MemoryStore }

func (r *memSampleRepo) Create(ctx context.Context, sample *models.Sample) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	r.s.track(sample.ID, &sample.CreatedAt, &sample.UpdatedAt)
	r.s.samples[sample.ID] = copySample(sample)
	return nil
}

func (r *memSampleRepo) Save(ctx context.Context, sample *models.Sample) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.samples[sample.ID]; !ok {
		return ErrNotFound
	}
	sample.UpdatedAt = time.Now()
	r.s.samples[sample.ID] = copySample(sample)
	return nil
}

func (r *memSampleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.samples, id)
	return nil
}

func (r *memSampleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Sample, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sample, ok := r.s.samples[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySample(sample), nil
}

func (r *memSampleRepo) FindByBarcode(ctx context.Context, code string) (*models.Sample, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sample := range r.s.sortedSamples() {
		if sample.SKU == code {
			return copySample(sample), nil
		}
		for _, b := range sample.Barcodes {
			if b == code {
				return copySample(sample), nil
			}
		}
	}
	return nil, ErrNotFound
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *memSampleRepo) FindCell(ctx context.Context, sku string, locationID uuid.UUID, hanger, carton *string) (*models.Sample, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sample := range r.s.sortedSamples() {
		if sample.SKU != sku || sample.CurrentLocationID == nil || *sample.CurrentLocationID != locationID {
			continue
		}
		if strPtrEq(sample.Hanger, hanger) && strPtrEq(sample.Carton, carton) {
			return copySample(sample), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memSampleRepo) FindInStockBySKU(ctx context.Context, sku string) ([]models.Sample, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Sample
	for _, sample := range r.s.sortedSamples() {
		if sample.SKU == sku && sample.Quantity > 0 {
			out = append(out, *copySample(sample))
		}
	}
	return out, nil
}

// sortedSamples returns samples oldest-first by insertion order.
func (s *MemoryStore) sortedSamples() []*models.Sample {
	out := make([]*models.Sample, 0, len(s.samples))
	for _, sample := range s.samples {
		out = append(out, sample)
	}
	sort.Slice(out, func(i, j int) bool {
		return s.order[out[i].ID] < s.order[out[j].ID]
	})
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (r *memSampleRepo) List(ctx context.Context, f SampleFilter) ([]models.Sample, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []models.Sample
	all := r.s.sortedSamples()
	// newest first
	for i := len(all) - 1; i >= 0; i-- {
		sample := all[i]
		if f.Keyword != "" &&
			!containsFold(sample.Name, f.Keyword) &&
			!containsFold(sample.SKU, f.Keyword) &&
			!containsFold(sample.StyleNo, f.Keyword) &&
			!containsFold(sample.Buyer, f.Keyword) {
			continue
		}
		if f.CreatedByID != nil && sample.CreatedByID != *f.CreatedByID {
			continue
		}
		matched = append(matched, *copySample(sample))
	}
	total := int64(len(matched))
	if f.PageSize > 0 {
		start := f.PageSize * (f.Page - 1)
		if start < 0 {
			start = 0
		}
		if start > len(matched) {
			start = len(matched)
		}
		end := start + f.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *memSampleRepo) SummaryByLocation(ctx context.Context) ([]InventoryRow, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	byLoc := make(map[uuid.UUID]*InventoryRow)
	for _, sample := range r.s.samples {
		if sample.CurrentLocationID == nil {
			continue
		}
		row, ok := byLoc[*sample.CurrentLocationID]
		if !ok {
			row = &InventoryRow{LocationID: *sample.CurrentLocationID}
			if loc, ok := r.s.locations[*sample.CurrentLocationID]; ok {
				row.LocationName = loc.Name
				row.LocationType = loc.Type
			}
			byLoc[*sample.CurrentLocationID] = row
		}
		row.Count++
		row.TotalQuantity += int64(sample.Quantity)
	}
	out := make([]InventoryRow, 0, len(byLoc))
	for _, row := range byLoc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationName < out[j].LocationName })
	return out, nil
}

func (r *memSampleRepo) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[models.SampleStatus]int64)
	for _, sample := range r.s.samples {
		counts[sample.Status]++
	}
	out := make([]StatusCount, 0, len(counts))
	for status, count := range counts {
		out = append(out, StatusCount{Status: status, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

type memContainerRepo struct{ s *MemoryStore }

func (r *memContainerRepo) Create(ctx context.Context, c *models.Container) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.s.track(c.ID, &c.CreatedAt, &c.UpdatedAt)
	r.s.containers[c.ID] = copyContainer(c)
	return nil
}

func (r *memContainerRepo) Save(ctx context.Context, c *models.Container) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.containers[c.ID]; !ok {
		return ErrNotFound
	}
	c.UpdatedAt = time.Now()
	r.s.containers[c.ID] = copyContainer(c)
	return nil
}

func (r *memContainerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Container, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.containers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyContainer(c), nil
}

func (r *memContainerRepo) GetByBarcode(ctx context.Context, containerID string) (*models.Container, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.containers {
		if c.ContainerID == containerID {
			return copyContainer(c), nil
		}
	}
	return nil, ErrNotFound
}

type memInvoiceRepo struct{ s *MemoryStore }

func (r *memInvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	for i := range inv.Items {
		if inv.Items[i].ID == uuid.Nil {
			inv.Items[i].ID = uuid.New()
		}
		inv.Items[i].InvoiceID = inv.ID
	}
	r.s.track(inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	r.s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (r *memInvoiceRepo) Save(ctx context.Context, inv *models.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[inv.ID]; !ok {
		return ErrNotFound
	}
	inv.UpdatedAt = time.Now()
	r.s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (r *memInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyInvoice(inv), nil
}

func (r *memInvoiceRepo) GetByInvoiceNo(ctx context.Context, no string) (*models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invoices {
		if inv.InvoiceNo == no {
			return copyInvoice(inv), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memInvoiceRepo) MaxSeqWithPrefix(ctx context.Context, prefix string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	max := 0
	for _, inv := range r.s.invoices {
		if !strings.HasPrefix(inv.InvoiceNo, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(inv.InvoiceNo, prefix))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

func (r *memInvoiceRepo) List(ctx context.Context, f InvoiceFilter) ([]models.Invoice, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []models.Invoice
	for _, inv := range r.s.invoices {
		if f.CreatedByID != nil && inv.CreatedByID != *f.CreatedByID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		matched = append(matched, *copyInvoice(inv))
	}
	sort.Slice(matched, func(i, j int) bool {
		return r.s.order[matched[i].ID] > r.s.order[matched[j].ID]
	})
	total := int64(len(matched))
	if f.PageSize > 0 {
		start := f.PageSize * (f.Page - 1)
		if start < 0 {
			start = 0
		}
		if start > len(matched) {
			start = len(matched)
		}
		end := start + f.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *memInvoiceRepo) ListPending(ctx context.Context) ([]models.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Invoice
	for _, inv := range r.s.invoices {
		if inv.Status == models.InvoicePending {
			out = append(out, *copyInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.order[out[i].ID] > r.s.order[out[j].ID]
	})
	return out, nil
}

type memMovementRepo struct{ s *MemoryStore }

func (r *memMovementRepo) Create(ctx context.Context, entry *models.MovementLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.s.track(entry.ID, &entry.CreatedAt, nil)
	stored := *entry
	r.s.movements = append(r.s.movements, &stored)
	return nil
}

func (r *memMovementRepo) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]models.MovementLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.MovementLog
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if r.s.movements[i].SampleID == sampleID {
			out = append(out, *r.s.movements[i])
		}
	}
	return out, nil
}

func (r *memMovementRepo) List(ctx context.Context, page, pageSize int) ([]models.MovementLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.MovementLog
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		out = append(out, *r.s.movements[i])
	}
	total := int64(len(out))
	if pageSize > 0 {
		start := pageSize * (page - 1)
		if start < 0 {
			start = 0
		}
		if start > len(out) {
			start = len(out)
		}
		end := start + pageSize
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (r *memMovementRepo) GetUnpublished(ctx context.Context, limit int) ([]models.MovementLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.MovementLog
	for _, entry := range r.s.movements {
		if !entry.Published {
			out = append(out, *entry)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memMovementRepo) MarkPublished(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, entry := range r.s.movements {
		if entry.ID == id {
			entry.Published = true
			return nil
		}
	}
	return ErrNotFound
}

type memApprovalRepo struct{ s *MemoryStore }

func (r *memApprovalRepo) Create(ctx context.Context, req *models.ApprovalRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	r.s.track(req.ID, &req.CreatedAt, &req.UpdatedAt)
	stored := *req
	r.s.approvals[req.ID] = &stored
	return nil
}

func (r *memApprovalRepo) Save(ctx context.Context, req *models.ApprovalRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.approvals[req.ID]; !ok {
		return ErrNotFound
	}
	req.UpdatedAt = time.Now()
	stored := *req
	r.s.approvals[req.ID] = &stored
	return nil
}

func (r *memApprovalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ApprovalRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.approvals[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *req
	return &out, nil
}

func (r *memApprovalRepo) ListPending(ctx context.Context) ([]models.ApprovalRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.ApprovalRequest
	for _, req := range r.s.approvals {
		if req.Status == models.ApprovalPending {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.order[out[i].ID] > r.s.order[out[j].ID]
	})
	return out, nil
}

type memLocationRepo struct{ s *MemoryStore }

func (r *memLocationRepo) Create(ctx context.Context, loc *models.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	r.s.track(loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
	stored := *loc
	r.s.locations[loc.ID] = &stored
	return nil
}

func (r *memLocationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	loc, ok := r.s.locations[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *loc
	return &out, nil
}

func (r *memLocationRepo) List(ctx context.Context) ([]models.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Location, 0, len(r.s.locations))
	for _, loc := range r.s.locations {
		out = append(out, *loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memUserRepo struct{ s *MemoryStore }

func (r *memUserRepo) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.s.track(u.ID, &u.CreatedAt, &u.UpdatedAt)
	stored := *u
	r.s.users[u.ID] = &stored
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *memUserRepo) List(ctx context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memSettingRepo struct{ s *MemoryStore }

func (r *memSettingRepo) Get(ctx context.Context, key string) (*models.SystemSetting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	setting, ok := r.s.settings[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := *setting
	return &out, nil
}

func (r *memSettingRepo) Upsert(ctx context.Context, key, value, description string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	setting, ok := r.s.settings[key]
	if !ok {
		setting = &models.SystemSetting{ID: uuid.New(), Key: key, CreatedAt: time.Now()}
		r.s.settings[key] = setting
	}
	setting.Value = value
	setting.Description = description
	setting.UpdatedAt = time.Now()
	return nil
}

func (r *memSettingRepo) List(ctx context.Context) ([]models.SystemSetting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.SystemSetting, 0, len(r.s.settings))
	for _, setting := range r.s.settings {
		out = append(out, *setting)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
