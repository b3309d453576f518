package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/shahanursiam/sampletrack/internal/auth"
	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
	"github.com/shahanursiam/sampletrack/internal/utils"
)

// LocationService manages the named places stock can sit in.
type LocationService struct {
	store repositories.Store
}

// NewLocationService creates a new location service.
func NewLocationService(store repositories.Store) *LocationService {
	return &LocationService{store: store}
}

// CreateLocationInput carries a new location.
type CreateLocationInput struct {
	Name      string     `json:"name" validate:"required"`
	Type      string     `json:"type" validate:"required,oneof=warehouse office display vendor factory"`
	Address   string     `json:"address"`
	Capacity  *int       `json:"capacity"`
	ManagerID *uuid.UUID `json:"manager_id"`
}

// Create registers a location. Admin only.
func (s *LocationService) Create(ctx context.Context, ident auth.Identity, input CreateLocationInput) (*models.Location, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	if !ident.IsAdmin() {
		return nil, faultf(ErrForbidden, "only admins can create locations")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return nil, faultf(ErrInvalidInput, "invalid location: %v", err)
	}

	location := &models.Location{
		ID:        uuid.New(),
		Name:      input.Name,
		Type:      input.Type,
		Address:   input.Address,
		Capacity:  input.Capacity,
		ManagerID: input.ManagerID,
	}
	if err := s.store.Locations().Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

// List returns all locations.
func (s *LocationService) List(ctx context.Context, ident auth.Identity) ([]models.Location, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}
	return s.store.Locations().List(ctx)
}
