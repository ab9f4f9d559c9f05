package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GetReference returns one tenant reference list with its cache state.
func (s *Server) GetReference(c *gin.Context) {
	resource := strings.ToLower(strings.TrimSpace(c.Param("resource")))
	refresh, err := parseOptionalBool(c.Query("refresh"))
	if err != nil {
		AbortWithError(c, newValidationError("refresh", "invalid_refresh", "invalid refresh"))
		return
	}

	auth := authFrom(c)
	snapshot, err := s.registry.For(auth).Load(c.Request.Context(), auth, resource, refresh != nil && *refresh)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}
