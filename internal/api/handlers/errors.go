package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/shahanursiam/sampletrack/internal/services"
)

// writeError maps service errors onto HTTP responses. An ambiguous SKU is
// answered with 300 Multiple Choices carrying the candidate list.
func writeError(c *gin.Context, err error) {
	var multi *services.MultipleSourcesError
	if errors.As(err, &multi) {
		c.JSON(http.StatusMultipleChoices, gin.H{
			"error":   multi.Error(),
			"sku":     multi.SKU,
			"sources": multi.Sources,
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateID),
		errors.Is(err, services.ErrAlreadyApproved),
		errors.Is(err, services.ErrAlreadyHandled),
		errors.Is(err, services.ErrAlreadyInContainer),
		errors.Is(err, services.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidDestination),
		errors.Is(err, services.ErrInsufficientStock),
		errors.Is(err, services.ErrItemMismatch),
		errors.Is(err, services.ErrNotReturnable):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
