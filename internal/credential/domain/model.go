package domain

import (
	"strings"
	"time"
)

// Credential is the per-session record linking a browser session to an
// accounting tenant. RealmID and AccessToken are written and cleared together.
type Credential struct {
	SessionID    string     `gorm:"column:session_id;primaryKey;size:128" json:"session_id"`
	CSRFState    *string    `gorm:"column:csrf_state;size:128" json:"csrf_state,omitempty"`
	RealmID      string     `gorm:"column:realm_id;size:64" json:"realm_id,omitempty"`
	AccessToken  string     `gorm:"column:access_token;type:text" json:"access_token,omitempty"`
	RefreshToken string     `gorm:"column:refresh_token;type:text" json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Credential) TableName() string { return "session_credentials" }

// New returns the empty credential a session starts with.
func New(sessionID string) *Credential {
	return &Credential{SessionID: strings.TrimSpace(sessionID)}
}

// Authenticated reports whether both the access token and the tenant id are present.
func (c *Credential) Authenticated() bool {
	return c != nil && strings.TrimSpace(c.AccessToken) != "" && strings.TrimSpace(c.RealmID) != ""
}

// SetTokens overwrites the tenant and token fields as one unit.
func (c *Credential) SetTokens(realmID, accessToken, refreshToken string) {
	c.RealmID = strings.TrimSpace(realmID)
	c.AccessToken = accessToken
	c.RefreshToken = refreshToken
}

func (c *Credential) ClearTokens() {
	c.RealmID = ""
	c.AccessToken = ""
	c.RefreshToken = ""
}

// SetState records the CSRF state of a login in progress.
func (c *Credential) SetState(state string) {
	c.CSRFState = &state
}

// TakeState returns the stored CSRF state and clears it. The second result is
// false when no state was stored.
func (c *Credential) TakeState() (string, bool) {
	if c.CSRFState == nil {
		return "", false
	}
	state := *c.CSRFState
	c.CSRFState = nil
	return state, state != ""
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	if c.CSRFState != nil {
		state := *c.CSRFState
		out.CSRFState = &state
	}
	if c.ExpiresAt != nil {
		expires := *c.ExpiresAt
		out.ExpiresAt = &expires
	}
	return &out
}
