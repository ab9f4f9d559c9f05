package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicedesk/internal/accounting"
	credentialdomain "github.com/smallbiznis/invoicedesk/internal/credential/domain"
	obscontext "github.com/smallbiznis/invoicedesk/internal/observability/context"
	"github.com/smallbiznis/invoicedesk/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contextSessionIDKey = "session_id"
	contextAuthKey      = "accounting_auth"
)

// Session guarantees every request carries a session cookie.
func (s *Server) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := s.sessions.Ensure(c)
		c.Set(contextSessionIDKey, sid)
		c.Request = c.Request.WithContext(obscontext.WithSessionID(c.Request.Context(), sid))
		c.Next()
	}
}

// AuthRequired loads the session credential and rejects requests without a
// connected tenant. The credential TTL slides on every authenticated request.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := sessionID(c)
		if sid == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		cred, err := credentialdomain.Load(ctx, s.store, sid)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if !cred.Authenticated() {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.store.Touch(ctx, sid, s.sessions.TTL()); err != nil {
			logger.FromContext(ctx).Debug("session touch failed", zap.Error(err))
		}

		c.Set(contextAuthKey, accounting.AuthFrom(cred))
		c.Set("realm_id", cred.RealmID)
		c.Request = c.Request.WithContext(obscontext.WithRealmID(ctx, cred.RealmID))
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(contextSessionIDKey)
}

func authFrom(c *gin.Context) accounting.Auth {
	value, ok := c.Get(contextAuthKey)
	if !ok {
		return accounting.Auth{}
	}
	auth, _ := value.(accounting.Auth)
	return auth
}
