package services

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/shahanursiam/sampletrack/config"
	"github.com/shahanursiam/sampletrack/internal/auth"
	"github.com/shahanursiam/sampletrack/internal/cache"
	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
	"github.com/shahanursiam/sampletrack/internal/utils"
)

// SettingService exposes the global key/value settings. Keys absent from the
// store fall back to configured defaults.
type SettingService struct {
	store    repositories.Store
	cache    *cache.RedisCache
	approval config.ApprovalConfig
}

// NewSettingService creates a new setting service.
func NewSettingService(store repositories.Store, redisCache *cache.RedisCache, cfg config.Config) *SettingService {
	return &SettingService{store: store, cache: redisCache, approval: cfg.Approval}
}

// List returns all settings, filling in defaults for keys never persisted.
func (s *SettingService) List(ctx context.Context, ident auth.Identity) ([]models.SystemSetting, error) {
	if !ident.Valid() {
		return nil, faultf(ErrUnauthorized, "user not found")
	}

	settings, err := s.store.Settings().List(ctx)
	if err != nil {
		return nil, err
	}

	seen := false
	for _, setting := range settings {
		if setting.Key == models.SettingEditWindowMinutes {
			seen = true
			break
		}
	}
	if !seen {
		settings = append(settings, models.SystemSetting{
			Key:         models.SettingEditWindowMinutes,
			Value:       strconv.Itoa(s.approval.EditWindowMinutes),
			Description: "Minutes after creation during which merchandisers can edit samples directly",
		})
	}
	return settings, nil
}

// UpdateSettingInput carries one setting change.
type UpdateSettingInput struct {
	Key         string `json:"key" validate:"required"`
	Value       string `json:"value" validate:"required"`
	Description string `json:"description"`
}

// Update upserts one setting. Admin only; numeric keys are checked.
func (s *SettingService) Update(ctx context.Context, ident auth.Identity, input UpdateSettingInput) error {
	if !ident.Valid() {
		return faultf(ErrUnauthorized, "user not found")
	}
	if !ident.IsAdmin() {
		return faultf(ErrForbidden, "only admins can change settings")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return faultf(ErrInvalidInput, "invalid setting: %v", err)
	}

	if input.Key == models.SettingEditWindowMinutes {
		if v, err := strconv.Atoi(input.Value); err != nil || v < 0 {
			return faultf(ErrInvalidInput, "%s must be a non-negative integer", input.Key)
		}
	}

	if err := s.store.Settings().Upsert(ctx, input.Key, input.Value, input.Description); err != nil {
		return err
	}

	if s.cache.Enabled() {
		if err := s.cache.Delete(ctx, cache.SettingCacheKey(input.Key)); err != nil {
			log.Warn().Err(err).Str("key", input.Key).Msg("failed to invalidate setting cache")
		}
	}
	return nil
}
