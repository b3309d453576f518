package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

func TestSettingListFillsDefault(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewSettingService(store, nil, testConfig())

	settings, err := svc.List(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, settings, 1)
	require.Equal(t, models.SettingEditWindowMinutes, settings[0].Key)
	require.Equal(t, "120", settings[0].Value)
}

func TestSettingUpdateAdminOnly(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewSettingService(store, nil, testConfig())

	err := svc.Update(context.Background(), merchandiser(), UpdateSettingInput{
		Key:   models.SettingEditWindowMinutes,
		Value: "60",
	})
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.Update(context.Background(), admin(), UpdateSettingInput{
		Key:   models.SettingEditWindowMinutes,
		Value: "60",
	})
	require.NoError(t, err)

	settings, err := svc.List(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, settings, 1)
	require.Equal(t, "60", settings[0].Value)
}

func TestSettingUpdateRejectsNonNumericWindow(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewSettingService(store, nil, testConfig())

	err := svc.Update(context.Background(), admin(), UpdateSettingInput{
		Key:   models.SettingEditWindowMinutes,
		Value: "soon",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
}
