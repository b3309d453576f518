// Package movelog writes the append-only audit trail. Every quantity- or
// status-affecting operation records exactly one entry per affected sample
// (one per line item for invoices); entries are never rewritten.
package movelog

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/shahanursiam/sampletrack/internal/models"
	"github.com/shahanursiam/sampletrack/internal/repositories"
)

// Entry describes one audit record to append.
type Entry struct {
	SampleID uuid.UUID
	Action   models.MovementAction
	From     *uuid.UUID
	To       *uuid.UUID
	By       uuid.UUID
	Quantity *int
	Comment  string
}

// Qty is a convenience for building Entry quantities.
func Qty(n int) *int {
	return &n
}

// Record appends one entry to the movement log. Callers pass the repository
// bound to their current transaction so the log commits with the mutation it
// describes; a failed log write fails the whole operation.
func Record(ctx context.Context, movements repositories.MovementRepository, e Entry) error {
	entry := &models.MovementLog{
		ID:             uuid.New(),
		SampleID:       e.SampleID,
		Action:         e.Action,
		FromLocationID: e.From,
		ToLocationID:   e.To,
		PerformedByID:  e.By,
		Quantity:       e.Quantity,
		Comments:       e.Comment,
	}

	if err := movements.Create(ctx, entry); err != nil {
		return errors.Wrap(err, "failed to record movement")
	}

	log.Info().
		Str("sample_id", e.SampleID.String()).
		Str("action", string(e.Action)).
		Msg("movement recorded")
	return nil
}
