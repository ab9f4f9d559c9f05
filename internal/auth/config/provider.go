package config

import (
	"strings"

	appconfig "github.com/smallbiznis/invoicedesk/internal/config"
)

// ProviderConfig is the OAuth2 client registration against the accounting platform.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURI  string
	Scopes       []string
}

func NewProviderConfig(cfg appconfig.Config) ProviderConfig {
	scopes := cfg.OAuth.Scopes
	if len(scopes) == 0 {
		scopes = []string{appconfig.DefaultScope}
	}
	return ProviderConfig{
		ClientID:     strings.TrimSpace(cfg.OAuth.ClientID),
		ClientSecret: strings.TrimSpace(cfg.OAuth.ClientSecret),
		AuthURL:      strings.TrimSpace(cfg.OAuth.AuthURL),
		TokenURL:     strings.TrimSpace(cfg.OAuth.TokenURL),
		RedirectURI:  strings.TrimSpace(cfg.OAuth.RedirectURI),
		Scopes:       scopes,
	}
}

// Valid reports whether every field needed for the authorization-code flow is set.
func (p ProviderConfig) Valid() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.AuthURL != "" && p.TokenURL != "" && p.RedirectURI != ""
}
