package services

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

type stubIndex struct {
	docs    map[string]string
	failSKU string
}

func (s *stubIndex) IndexSample(ctx context.Context, sample *models.Sample, locationName string) error {
	if sample.SKU == s.failSKU {
		return errors.New("index rejected document")
	}
	if s.docs == nil {
		s.docs = make(map[string]string)
	}
	s.docs[sample.SKU] = locationName
	return nil
}

func TestReindexAllWalksEverySample(t *testing.T) {
	store := repositories.NewMemoryStore()
	owner := admin()
	front := seedLocation(t, store, "Front Desk")

	first := seedSample(t, store, owner.ID, "SMP-260814-1001", 5)
	first.CurrentLocationID = &front.ID
	require.NoError(t, store.Samples().Save(context.Background(), first))
	seedSample(t, store, owner.ID, "SMP-260814-1002", 3)

	idx := &stubIndex{}
	indexer := NewSampleIndexer(store, idx, 1)
	require.NoError(t, indexer.ReindexAll(context.Background()))

	require.Len(t, idx.docs, 2)
	require.Equal(t, "Front Desk", idx.docs["SMP-260814-1001"])
	require.Equal(t, "", idx.docs["SMP-260814-1002"])
}

func TestReindexAllSkipsFailedDocuments(t *testing.T) {
	store := repositories.NewMemoryStore()
	owner := admin()
	seedSample(t, store, owner.ID, "SMP-260814-2001", 5)
	seedSample(t, store, owner.ID, "SMP-260814-2002", 3)

	idx := &stubIndex{failSKU: "SMP-260814-2001"}
	indexer := NewSampleIndexer(store, idx, 100)
	require.NoError(t, indexer.ReindexAll(context.Background()))

	require.Len(t, idx.docs, 1)
	require.Contains(t, idx.docs, "SMP-260814-2002")
}
