package oauth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	authconfig "github.com/smallbiznis/invoicedesk/internal/auth/config"
	"github.com/smallbiznis/invoicedesk/internal/config"
	credentialdomain "github.com/smallbiznis/invoicedesk/internal/credential/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultTokenSize    = 32
	defaultWriteTimeout = 5 * time.Second
	maxErrorBody        = 4096
)

type Service interface {
	// InitiateLogin stores a fresh CSRF state on the session and returns the
	// authorization URL the browser is redirected to.
	InitiateLogin(ctx context.Context, sessionID string) (string, error)
	HandleCallback(ctx context.Context, sessionID string, req CallbackRequest) (*CallbackResult, error)
	Logout(ctx context.Context, sessionID string) (string, error)
	Status(ctx context.Context, sessionID string) (Status, error)
}

type CallbackRequest struct {
	Code    string `form:"code"`
	State   string `form:"state"`
	RealmID string `form:"realmId"`
}

type CallbackResult struct {
	RealmID string
}

type Status struct {
	Authenticated bool   `json:"authenticated"`
	RealmID       string `json:"realm_id,omitempty"`
}

type Params struct {
	fx.In

	Config  config.Config
	Store   credentialdomain.Store
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type service struct {
	provider     authconfig.ProviderConfig
	store        credentialdomain.Store
	log          *zap.Logger
	metrics      *metrics.Metrics
	httpClient   *http.Client
	writeTimeout time.Duration
}

func NewService(p Params) Service {
	timeout := p.Config.Session.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &service{
		provider:     authconfig.NewProviderConfig(p.Config),
		store:        p.Store,
		log:          p.Log.Named("auth.oauth"),
		metrics:      p.Metrics,
		httpClient:   obstracing.WrapHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		writeTimeout: timeout,
	}
}

func (s *service) InitiateLogin(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	if !s.provider.Valid() {
		return "", ErrProviderNotConfigured
	}

	state, err := randomToken(defaultTokenSize)
	if err != nil {
		return "", err
	}
	authURL, err := buildAuthURL(s.provider, state)
	if err != nil {
		return "", err
	}

	cred, err := credentialdomain.Load(ctx, s.store, sessionID)
	if err != nil {
		return "", err
	}
	cred.SetState(state)
	if err := s.store.Save(ctx, cred); err != nil {
		return "", fmt.Errorf("persist oauth state: %w", err)
	}
	return authURL, nil
}

func (s *service) HandleCallback(ctx context.Context, sessionID string, req CallbackRequest) (*CallbackResult, error) {
	result, err := s.handleCallback(ctx, sessionID, req)
	s.metrics.RecordOAuthCallback(ctx, callbackOutcome(err))
	return result, err
}

func (s *service) handleCallback(ctx context.Context, sessionID string, req CallbackRequest) (*CallbackResult, error) {
	code := strings.TrimSpace(req.Code)
	realmID := strings.TrimSpace(req.RealmID)
	if code == "" || realmID == "" {
		return nil, ErrMissingParameters
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrCSRFMismatch
	}

	cred, err := credentialdomain.Load(ctx, s.store, sessionID)
	if err != nil {
		return nil, err
	}
	stored, ok := cred.TakeState()
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(req.State)) != 1 {
		if ok {
			// The state is single-use even when the comparison fails.
			if err := s.store.Save(ctx, cred); err != nil {
				s.log.Warn("failed to clear oauth state", zap.String("session_id", sessionID), zap.Error(err))
			}
		}
		return nil, ErrCSRFMismatch
	}
	// Burn the state before the exchange so a failed attempt cannot be replayed.
	if err := s.store.Save(ctx, cred); err != nil {
		return nil, fmt.Errorf("clear oauth state: %w", err)
	}

	token, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	cred.SetTokens(realmID, token.AccessToken, token.RefreshToken)

	result := &CallbackResult{RealmID: realmID}
	if err := s.saveBounded(ctx, cred); err != nil {
		if errors.Is(err, ErrSessionWriteTimeout) {
			s.log.Warn("session write exceeded timeout, continuing",
				zap.String("backend", s.store.Backend()),
				zap.Duration("timeout", s.writeTimeout),
			)
			s.metrics.RecordSessionWriteTimeout(ctx, s.store.Backend())
			return result, err
		}
		return nil, err
	}
	return result, nil
}

// saveBounded persists cred but gives up waiting after writeTimeout. The write
// itself is not cancelled and may still land.
func (s *service) saveBounded(ctx context.Context, cred *credentialdomain.Credential) error {
	done := make(chan error, 1)
	snapshot := cred.Clone()
	go func() {
		done <- s.store.Save(context.WithoutCancel(ctx), snapshot)
	}()

	timer := time.NewTimer(s.writeTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrSessionWriteTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *service) Logout(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", nil
	}
	cred, err := credentialdomain.Load(ctx, s.store, sessionID)
	if err != nil {
		return "", err
	}
	realmID := cred.RealmID
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return "", err
	}
	return realmID, nil
}

func (s *service) Status(ctx context.Context, sessionID string) (Status, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Status{}, nil
	}
	cred, err := credentialdomain.Load(ctx, s.store, sessionID)
	if err != nil {
		return Status{}, err
	}
	if !cred.Authenticated() {
		return Status{}, nil
	}
	return Status{Authenticated: true, RealmID: cred.RealmID}, nil
}

func callbackOutcome(err error) string {
	var exchangeErr *TokenExchangeError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSessionWriteTimeout):
		return "write_timeout"
	case errors.Is(err, ErrCSRFMismatch):
		return "csrf_mismatch"
	case errors.Is(err, ErrMissingParameters):
		return "missing_parameters"
	case errors.As(err, &exchangeErr):
		return "exchange_failed"
	default:
		return "error"
	}
}

func buildAuthURL(cfg authconfig.ProviderConfig, state string) (string, error) {
	parsed, err := url.Parse(cfg.AuthURL)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("client_id", cfg.ClientID)
	query.Set("response_type", "code")
	query.Set("scope", strings.Join(cfg.Scopes, " "))
	query.Set("redirect_uri", cfg.RedirectURI)
	query.Set("state", state)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (s *service) exchangeCode(ctx context.Context, code string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", s.provider.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.provider.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.provider.ClientID, s.provider.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		s.log.Warn("token exchange rejected", zap.Int("status", resp.StatusCode))
		return nil, &TokenExchangeError{Status: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil || strings.TrimSpace(token.AccessToken) == "" {
		return nil, &TokenExchangeError{Status: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}
	return &token, nil
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
