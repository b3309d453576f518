package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors matched with errors.Is. The HTTP layer maps these to
// status codes; service code only decides the kind and the message.
var (
	// ErrUnauthorized is returned when no caller identity is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller's role is insufficient or
	// the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a referenced entity is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for missing or malformed required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientStock is returned when a requested quantity exceeds
	// what a sample row holds.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidDestination is returned when a distribute target is not in
	// the allowed set or is missing its required carton/hanger label.
	ErrInvalidDestination = errors.New("invalid destination")

	// ErrDuplicateID is returned on container barcode collisions.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrAlreadyInContainer is returned when a sample already sits in the
	// target container.
	ErrAlreadyInContainer = errors.New("already in container")

	// ErrMultipleCandidates signals an ambiguous SKU resolution. It is a
	// disambiguation signal rather than a failure; the candidate list
	// travels in MultipleSourcesError.
	ErrMultipleCandidates = errors.New("multiple candidates")

	// ErrInvalidState is returned when an invoice action is not valid for
	// its current status.
	ErrInvalidState = errors.New("invalid state")

	// ErrAlreadyApproved is returned when approving an approved invoice.
	ErrAlreadyApproved = errors.New("already approved")

	// ErrAlreadyHandled is returned when resolving a non-pending approval
	// request.
	ErrAlreadyHandled = errors.New("already handled")

	// ErrItemMismatch is returned when a return references an invoice that
	// does not carry the sample.
	ErrItemMismatch = errors.New("item mismatch")

	// ErrNotReturnable is returned when returning against a
	// Non-returnable invoice.
	ErrNotReturnable = errors.New("invoice not returnable")
)

// Fault couples a sentinel kind with a human-readable message describing
// which field, entity or quantity triggered it.
type Fault struct {
	Kind    error
	Message string
}

func (f *Fault) Error() string {
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Kind
}

func faultf(kind error, format string, args ...interface{}) error {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// SourceOption is one candidate row offered to the caller when a SKU
// resolves to more than one stock cell.
type SourceOption struct {
	ID        uuid.UUID `json:"id"`
	Location  string    `json:"location"`
	Container string    `json:"container"`
	Quantity  int       `json:"quantity"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
}

// MultipleSourcesError carries the candidate list for an ambiguous SKU. The
// caller retries with an explicit source sample id.
type MultipleSourcesError struct {
	SKU     string
	Sources []SourceOption
}

func (e *MultipleSourcesError) Error() string {
	return fmt.Sprintf("multiple sources found for SKU %s (%d candidates)", e.SKU, len(e.Sources))
}

func (e *MultipleSourcesError) Unwrap() error {
	return ErrMultipleCandidates
}
