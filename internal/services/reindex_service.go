package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

// SampleIndex is the slice of the search client the indexer uses.
type SampleIndex interface {
	IndexSample(ctx context.Context, sample *models.Sample, locationName string) error
}

// SampleIndexer rewrites every sample document in the search index. The API
// indexes best-effort on each write; this pass repairs documents lost to a
// search outage.
type SampleIndexer struct {
	store     repositories.Store
	index     SampleIndex
	batchSize int
}

// NewSampleIndexer creates a new sample indexer.
func NewSampleIndexer(store repositories.Store, index SampleIndex, batchSize int) *SampleIndexer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SampleIndexer{store: store, index: index, batchSize: batchSize}
}

// ReindexAll walks every sample page by page and reissues its index
// document. Individual index failures are logged and skipped so one bad
// document cannot stall the rest of the pass.
func (x *SampleIndexer) ReindexAll(ctx context.Context) error {
	locationNames := make(map[uuid.UUID]string)
	indexed := 0

	for page := 1; ; page++ {
		samples, _, err := x.store.Samples().List(ctx, repositories.SampleFilter{Page: page, PageSize: x.batchSize})
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			break
		}

		for i := range samples {
			sample := &samples[i]
			locationName := ""
			if sample.CurrentLocationID != nil {
				id := *sample.CurrentLocationID
				name, ok := locationNames[id]
				if !ok {
					if loc, err := x.store.Locations().GetByID(ctx, id); err == nil {
						name = loc.Name
					}
					locationNames[id] = name
				}
				locationName = name
			}
			if err := x.index.IndexSample(ctx, sample, locationName); err != nil {
				log.Warn().Err(err).Str("sample_id", sample.ID.String()).Msg("failed to reindex sample")
				continue
			}
			indexed++
		}

		if len(samples) < x.batchSize {
			break
		}
	}

	log.Info().Int("indexed", indexed).Msg("sample reindex run complete")
	return nil
}
