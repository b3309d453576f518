package services

import (
	"context"
	"strings"
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

// ContainerService manages cartons and hanger racks and the assignment of
// sample stock into them. A sample row belongs to at most one container,
// and container membership lists mirror the rows' ContainerID fields.
type ContainerService struct {
	store       repositories.Store
	sampleLocks *locks.Keyed
	now         func() time.Time
}

// NewContainerService creates a new container service.
func NewContainerService(store repositories.Store) *ContainerService {
	return &ContainerService{
		store:       store,
		sampleLocks: locks.NewKeyed(),
		now:         time.Now,
	}
}

// CreateContainerInput carries a new physical container.
type CreateContainerInput struct {
	ContainerID string               `json:"container_id" validate:"required"`
	Type        models.ContainerType `json:"type" validate:"required,oneof=Carton Hanger"`
	LocationID  *uuid.UUID           `json:"location_id"`
}

// Create registers a container under its caller-supplied barcode.
func (s *ContainerService) Create(ctx context.Context, ident auth.Identity, input CreateContainerInput) (*models.Container, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, faultf(ErrInvalidInput, "invalid container: %v", err)
	}

	if _, err := s.store.Containers().GetByBarcode(ctx, input.ContainerID); err == nil {
		return nil, faultf(ErrDuplicateID, "container %s already exists", input.ContainerID)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	container := &models.Container{
		ID:          uuid.New(),
		ContainerID: input.ContainerID,
		Type:        input.Type,
		ItemIDs:     []uuid.UUID{},
		LocationID:  input.LocationID,
		Status:      models.ContainerActive,
		CreatedByID: ident.ID,
	}
	if err := s.store.Containers().Create(ctx, container); err != nil {
		return nil, err
	}

	log.Info().
		Str("container_id", container.ContainerID).
		Str("type", string(container.Type)).
		Msg("container created")
	return container, nil
}

// AddItemInput identifies the stock to place into a container. Identifier is
// either a sample row id or a SKU; Quantity below the row's stock splits it.
type AddItemInput struct {
	Identifier string `json:"identifier" validate:"required"`
	Quantity   *int   `json:"quantity"`
}

// resolveSource resolves the identifier to a single in-stock sample row. A
// uuid token is treated as an explicit row id; anything else is searched as
// a SKU. SKUs matching several rows raise MultipleSourcesError so the caller
// can retry with a row id.
func (s *ContainerService) resolveSource(ctx context.Context, tx repositories.Store, identifier string) (*models.Sample, error) {
	if id, err := uuid.Parse(identifier); err == nil {
		sample, err := tx.Samples().GetByID(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, faultf(ErrNotFound, "sample not found")
		}
		return sample, err
	}

	candidates, err := tx.Samples().FindInStockBySKU(ctx, identifier)
	if err != nil {
		return nil, err
	}
	switch len(candidates) {
	case 0:
		return nil, faultf(ErrNotFound, "no in-stock sample found for %s", identifier)
	case 1:
		return &candidates[0], nil
	}

	sources := make([]SourceOption, 0, len(candidates))
	for _, c := range candidates {
		opt := SourceOption{
			ID:       c.ID,
			Location: "Main Inventory",
			Quantity: c.Quantity,
			SKU:      c.SKU,
			Name:     c.Name,
		}
		if c.CurrentLocationID != nil {
			if loc, err := tx.Locations().GetByID(ctx, *c.CurrentLocationID); err == nil {
				opt.Location = loc.Name
			}
		}
		if c.ContainerID != nil {
			if cont, err := tx.Containers().GetByID(ctx, *c.ContainerID); err == nil {
				opt.Container = cont.ContainerID
			}
		}
		sources = append(sources, opt)
	}
	return nil, &MultipleSourcesError{SKU: identifier, Sources: sources}
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// AddItem places sample stock into a container. Moving a full row re-homes
// it; moving part of one splits off a new row inside the container so the
// remainder stays where it was.
func (s *ContainerService) AddItem(ctx context.Context, ident auth.Identity, containerBarcode string, input AddItemInput) (*models.Container, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, faultf(ErrInvalidInput, "invalid request: %v", err)
	}

	var container *models.Container
	err := s.store.Atomic(ctx, func(tx repositories.Store) error {
		var err error
		container, err = tx.Containers().GetByBarcode(ctx, containerBarcode)
		if errors.Is(err, repositories.ErrNotFound) {
			return faultf(ErrNotFound, "container %s not found", containerBarcode)
		}
		if err != nil {
			return err
		}

		sample, err := s.resolveSource(ctx, tx, strings.TrimSpace(input.Identifier))
		if err != nil {
			return err
		}

		if sample.ContainerID != nil && *sample.ContainerID == container.ID {
			return faultf(ErrAlreadyInContainer, "sample %s is already in container %s", sample.SKU, container.ContainerID)
		}

		qty := sample.Quantity
		if input.Quantity != nil {
			qty = *input.Quantity
		}
		if qty <= 0 {
			return faultf(ErrInvalidInput, "quantity must be positive")
		}
		if qty > sample.Quantity {
			return faultf(ErrInsufficientStock, "insufficient stock for %s; available: %d", sample.SKU, sample.Quantity)
		}

		fromLocation := sample.CurrentLocationID
		var placed *models.Sample

		if qty < sample.Quantity {
			// Partial: split the moved quantity off into a new row.
			sample.Quantity -= qty
			if err := tx.Samples().Save(ctx, sample); err != nil {
				return err
			}

			clone := *sample
			clone.ID = uuid.New()
			clone.CreatedAt = time.Time{}
			clone.UpdatedAt = time.Time{}
			clone.Quantity = qty
			clone.ContainerID = &container.ID
			clone.CurrentLocationID = container.LocationID
			clone.Hanger = nil
			clone.Carton = nil
			clone.CreatedByID = ident.ID
			if err := tx.Samples().Create(ctx, &clone); err != nil {
				return err
			}
			placed = &clone
		} else {
			// Full move: re-home the row, detaching it from any previous
			// container so membership lists stay consistent.
			if sample.ContainerID != nil {
				prev, err := tx.Containers().GetByID(ctx, *sample.ContainerID)
				if err == nil {
					prev.ItemIDs = removeID(prev.ItemIDs, sample.ID)
					if err := tx.Containers().Save(ctx, prev); err != nil {
						return err
					}
				} else if !errors.Is(err, repositories.ErrNotFound) {
					return err
				}
			}
			sample.ContainerID = &container.ID
			if container.LocationID != nil {
				sample.CurrentLocationID = container.LocationID
			}
			if err := tx.Samples().Save(ctx, sample); err != nil {
				return err
			}
			placed = sample
		}

		container.ItemIDs = append(container.ItemIDs, placed.ID)
		if err := tx.Containers().Save(ctx, container); err != nil {
			return err
		}

		// Container membership is a custody change, not a scan move; it
		// gets its own action so the two stay distinguishable in the trail.
		return movelog.Record(ctx, tx.Movements(), movelog.Entry{
			SampleID: placed.ID,
			Action:   models.ActionContainerAssigned,
			From:     fromLocation,
			To:       container.LocationID,
			By:       ident.ID,
			Quantity: movelog.Qty(qty),
			Comment:  "Added to container " + container.ContainerID,
		})
	})
	if err != nil {
		return nil, err
	}
	return container, nil
}

// ContainerItem is one sample row inside a container, with its creator's
// display name resolved.
type ContainerItem struct {
	Sample    models.Sample `json:"sample"`
	CreatedBy string        `json:"created_by"`
}

// ContainerDetail is a container with its contents populated.
type ContainerDetail struct {
	Container models.Container `json:"container"`
	Location  string           `json:"location,omitempty"`
	Items     []ContainerItem  `json:"items"`
}

// GetByBarcode looks a container up and populates its contents. Item ids
// whose rows have since been deleted are skipped.
func (s *ContainerService) GetByBarcode(ctx context.Context, ident auth.Identity, barcode string) (*ContainerDetail, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}

	container, err := s.store.Containers().GetByBarcode(ctx, barcode)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, faultf(ErrNotFound, "container %s not found", barcode)
	}
	if err != nil {
		return nil, err
	}

	detail := &ContainerDetail{Container: *container, Items: make([]ContainerItem, 0, len(container.ItemIDs))}
	if container.LocationID != nil {
		if loc, err := s.store.Locations().GetByID(ctx, *container.LocationID); err == nil {
			detail.Location = loc.Name
		}
	}

	names := make(map[uuid.UUID]string)
	for _, itemID := range container.ItemIDs {
		sample, err := s.store.Samples().GetByID(ctx, itemID)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		name, ok := names[sample.CreatedByID]
		if !ok {
			if u, err := s.store.Users().GetByID(ctx, sample.CreatedByID); err == nil {
				name = u.Name
			}
			names[sample.CreatedByID] = name
		}
		detail.Items = append(detail.Items, ContainerItem{Sample: *sample, CreatedBy: name})
	}
	return detail, nil
}
