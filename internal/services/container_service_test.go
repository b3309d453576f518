package services

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

func TestContainerCreateRejectsDuplicateBarcode(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewContainerService(store)
	ident := admin()

	_, err := svc.Create(context.Background(), ident, CreateContainerInput{
		ContainerID: "CTN-0001",
		Type:        models.ContainerCarton,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), ident, CreateContainerInput{
		ContainerID: "CTN-0001",
		Type:        models.ContainerCarton,
	})
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestAddItemAmbiguousSKU(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewContainerService(store)
	ident := admin()

	container, err := svc.Create(context.Background(), ident, CreateContainerInput{
		ContainerID: "CTN-0002",
		Type:        models.ContainerCarton,
	})
	require.NoError(t, err)

	// Two in-stock rows share the SKU after a split.
	seedSample(t, store, ident.ID, "SMP-260814-2001", 5)
	seedSample(t, store, ident.ID, "SMP-260814-2001", 3)

	_, err = svc.AddItem(context.Background(), ident, container.ContainerID, AddItemInput{Identifier: "SMP-260814-2001"})
	require.ErrorIs(t, err, ErrMultipleCandidates)

	var multi *MultipleSourcesError
	require.True(t, errors.As(err, &multi))
	require.Equal(t, "SMP-260814-2001", multi.SKU)
	require.Len(t, multi.Sources, 2)
	require.Equal(t, "Main Inventory", multi.Sources[0].Location)
}

func TestAddItemFullMove(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewContainerService(store)
	ident := admin()

	container, err := svc.Create(context.Background(), ident, CreateContainerInput{
		ContainerID: "CTN-0003",
		Type:        models.ContainerCarton,
	})
	require.NoError(t, err)

	sample := seedSample(t, store, ident.ID, "SMP-260814-2002", 5)

	got, err := svc.AddItem(context.Background(), ident, container.ContainerID, AddItemInput{Identifier: sample.ID.String()})
	require.NoError(t, err)
	require.Equal(t, sample.ID, got.ItemIDs[0])

	moved, err := store.Samples().GetByID(context.Background(), sample.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ContainerID)
	require.Equal(t, container.ID, *moved.ContainerID)
	require.Equal(t, 5, moved.Quantity)

	// Adding the same row to the same container again is refused.
	_, err = svc.AddItem(context.Background(), ident, container.ContainerID, AddItemInput{Identifier: sample.ID.String()})
	require.ErrorIs(t, err, ErrAlreadyInContainer)
}

func TestAddItemLogsContainerAssignment(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewContainerService(store)
	ident := admin()

	container, err := svc.Create(context.Background(), ident, CreateContainerInput{
		ContainerID: "CTN-0006",
		Type:        models.ContainerCarton,
	})
	require.NoError(t, err)

	sample := seedSample(t, store, ident.ID, "SMP-260814-2005", 5)

	_, err = svc.AddItem(context.Background(), ident, container.ContainerID, AddItemInput{Identifier: sample.ID.String()})
	require.NoError(t, err)

	// Custody changes carry their own action so they never blend into
	// scan moves in the trail.
	history, err := store.Movements().ListBySample(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ActionContainerAssigned, history[0].Action)
	require.Contains(t, history[0].Comments, "CTN-0006")
}

func TestAddItemPartialSplit(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewContainerService(store)
	ident := admin()

	container, err := svc.Create(context.Background(), ident, CreateContainerInput{
		ContainerID: "CTN-0004",
		Type:        models.ContainerHanger,
	})
	require.NoError(t, err)

	sample := seedSample(t, store, ident.ID, "SMP-260814-2003", 10)

	got, err := svc.AddItem(context.Background(), ident, container.ContainerID, AddItemInput{
		Identifier: sample.ID.String(),
		Quantity:   intPtr(3),
	})
	require.NoError(t, err)
	require.Len(t, got.ItemIDs, 1)

	// The source keeps the remainder outside the container.
	source, err := store.Samples().GetByID(context.Background(), sample.ID)
	require.NoError(t, err)
	require.Equal(t, 7, source.Quantity)
	require.Nil(t, source.ContainerID)

	placed, err := store.Samples().GetByID(context.Background(), got.ItemIDs[0])
	require.NoError(t, err)
	require.Equal(t, 3, placed.Quantity)
	require.Equal(t, container.ID, *placed.ContainerID)
	require.Equal(t, sample.SKU, placed.SKU)
}

func TestAddItemMoveBetweenContainers(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewContainerService(store)
	ident := admin()

	first, err := svc.Create(context.Background(), ident, CreateContainerInput{
		ContainerID: "CTN-0005",
		Type:        models.ContainerCarton,
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), ident, CreateContainerInput{
		ContainerID: "CTN-0006",
		Type:        models.ContainerCarton,
	})
	require.NoError(t, err)

	sample := seedSample(t, store, ident.ID, "SMP-260814-2004", 2)

	_, err = svc.AddItem(context.Background(), ident, first.ContainerID, AddItemInput{Identifier: sample.ID.String()})
	require.NoError(t, err)
	_, err = svc.AddItem(context.Background(), ident, second.ContainerID, AddItemInput{Identifier: sample.ID.String()})
	require.NoError(t, err)

	// The row left the first container's membership list.
	prev, err := store.Containers().GetByBarcode(context.Background(), first.ContainerID)
	require.NoError(t, err)
	require.Empty(t, prev.ItemIDs)

	curr, err := store.Containers().GetByBarcode(context.Background(), second.ContainerID)
	require.NoError(t, err)
	require.Len(t, curr.ItemIDs, 1)
}

func TestGetByBarcodePopulatesItems(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewContainerService(store)
	ident := admin()

	require.NoError(t, store.Users().Create(context.Background(), &models.User{
		ID:   ident.ID,
		Name: "Rahim Uddin",
		Role: models.RoleAdmin,
	}))

	container, err := svc.Create(context.Background(), ident, CreateContainerInput{
		ContainerID: "CTN-0007",
		Type:        models.ContainerCarton,
	})
	require.NoError(t, err)

	sample := seedSample(t, store, ident.ID, "SMP-260814-2005", 4)
	_, err = svc.AddItem(context.Background(), ident, container.ContainerID, AddItemInput{Identifier: sample.ID.String()})
	require.NoError(t, err)

	detail, err := svc.GetByBarcode(context.Background(), ident, container.ContainerID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	require.Equal(t, sample.ID, detail.Items[0].Sample.ID)
	require.Equal(t, "Rahim Uddin", detail.Items[0].CreatedBy)

	_, err = svc.GetByBarcode(context.Background(), ident, "CTN-9999")
	require.ErrorIs(t, err, ErrNotFound)
}
