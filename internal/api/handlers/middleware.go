package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shahanursiam/sampletrack/internal/auth"
	"github.com/shahanursiam/sampletrack/internal/models"
)

const identityKey = "identity"

// IdentityMiddleware reads the authenticated caller from the gateway-injected
// X-User-Id and X-User-Role headers. Requests without them are rejected
// before reaching any handler.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader("X-User-Id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid user identity"})
			return
		}
		role := models.Role(c.GetHeader("X-User-Role"))
		switch role {
		case models.RoleAdmin, models.RoleMerchandiser, models.RoleWarehouseStaff, models.RoleManager:
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid user role"})
			return
		}

		c.Set(identityKey, auth.Identity{ID: id, Role: role})
		c.Next()
	}
}

// identityFrom extracts the caller identity stored by IdentityMiddleware.
func identityFrom(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(auth.Identity); ok {
			return ident
		}
	}
	return auth.Identity{}
}
