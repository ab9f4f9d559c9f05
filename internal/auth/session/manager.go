package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/invoicedesk/internal/config"
)

const (
	DefaultCookieName = "_sid"
	defaultTTL        = 7 * 24 * time.Hour
)

// Manager issues and reads the opaque session cookie. The cookie value is only
// a lookup key; credentials stay server-side.
type Manager struct {
	cookieName string
	secure     bool
	ttl        time.Duration
	newID      func() string
}

func NewManager(cfg config.Config) *Manager {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		cookieName: DefaultCookieName,
		secure:     cfg.AuthCookieSecure,
		ttl:        ttl,
		newID:      uuid.NewString,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	token, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	if strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// Ensure returns the request's session id, issuing a new cookie when absent.
func (m *Manager) Ensure(c *gin.Context) string {
	if token, ok := m.ReadToken(c); ok {
		return token
	}
	token := m.newID()
	m.Set(c, token, time.Now().Add(m.ttl))
	return token
}

func (m *Manager) Set(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, maxAge, "/", "", m.secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}
