package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	authoauth "github.com/smallbiznis/invoicedesk/internal/auth/oauth"
	"github.com/smallbiznis/invoicedesk/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	oauthSuccessRedirectTo = "/"
	oauthErrorRedirectTo   = "/?auth_error="
)

func (s *Server) Login(c *gin.Context) {
	authURL, err := s.oauthsvc.InitiateLogin(c.Request.Context(), sessionID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

func (s *Server) OAuthCallback(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	if providerErr := strings.TrimSpace(c.Query("error")); providerErr != "" {
		log.Warn("oauth provider returned error",
			zap.String("error", providerErr),
			zap.String("error_description", c.Query("error_description")),
		)
		c.Redirect(http.StatusFound, oauthErrorRedirectTo+url.QueryEscape(providerErr))
		return
	}

	var req authoauth.CallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, authoauth.ErrMissingParameters)
		return
	}

	result, err := s.oauthsvc.HandleCallback(ctx, sessionID(c), req)
	if err != nil {
		if !errors.Is(err, authoauth.ErrSessionWriteTimeout) || result == nil {
			AbortWithError(c, err)
			return
		}
		log.Warn("session may not be persisted yet", zap.String("realm_id", result.RealmID))
	}

	c.Redirect(http.StatusFound, oauthSuccessRedirectTo)
}

func (s *Server) AuthStatus(c *gin.Context) {
	status, err := s.oauthsvc.Status(c.Request.Context(), sessionID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) Logout(c *gin.Context) {
	realmID, err := s.oauthsvc.Logout(c.Request.Context(), sessionID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if realmID != "" {
		s.registry.Forget(realmID)
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
