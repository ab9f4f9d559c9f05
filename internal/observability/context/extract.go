package context

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// RealmIDFromGin returns the tenant resolved for the request, if any.
func RealmIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if ctx := c.Request.Context(); ctx != nil {
		if value := RealmIDFromContext(ctx); value != "" {
			return value
		}
	}
	return strings.TrimSpace(c.GetString("realm_id"))
}
