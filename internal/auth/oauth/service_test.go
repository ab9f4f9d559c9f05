package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/config"
	credentialdomain "github.com/smallbiznis/invoicedesk/internal/credential/domain"
	"github.com/smallbiznis/invoicedesk/internal/credential/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type slowStore struct {
	credentialdomain.Store
	slow  atomic.Bool
	delay time.Duration
}

func (s *slowStore) Save(ctx context.Context, cred *credentialdomain.Credential) error {
	// Only the token write is slowed; clearing the state stays fast.
	if s.slow.Load() && cred.Authenticated() {
		time.Sleep(s.delay)
	}
	return s.Store.Save(ctx, cred)
}

func newTokenServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "http://localhost:8080/oauth/callback", r.PostForm.Get("redirect_uri"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"AT","refresh_token":"RT","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestService(t *testing.T, tokenURL string, store credentialdomain.Store, timeout time.Duration) Service {
	t.Helper()
	cfg := config.Config{
		OAuth: config.OAuthConfig{
			ClientID:     "client",
			ClientSecret: "secret",
			RedirectURI:  "http://localhost:8080/oauth/callback",
			AuthURL:      "https://appcenter.example.com/connect/oauth2",
			TokenURL:     tokenURL,
		},
	}
	cfg.Session.WriteTimeout = timeout
	return NewService(Params{Config: cfg, Store: store, Log: zap.NewNop()})
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	return parsed.Query().Get("state")
}

func TestInitiateLoginBuildsAuthorizationURL(t *testing.T) {
	store := repository.NewMemoryStore(time.Hour)
	svc := newTestService(t, "http://unused", store, time.Second)

	authURL, err := svc.InitiateLogin(context.Background(), "sid")
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "client", query.Get("client_id"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, config.DefaultScope, query.Get("scope"))
	assert.Equal(t, "http://localhost:8080/oauth/callback", query.Get("redirect_uri"))
	assert.NotEmpty(t, query.Get("state"))

	cred, err := store.Get(context.Background(), "sid")
	require.NoError(t, err)
	require.NotNil(t, cred.CSRFState)
	assert.Equal(t, query.Get("state"), *cred.CSRFState)
}

func TestInitiateLoginRequiresProviderConfig(t *testing.T) {
	svc := NewService(Params{Config: config.Config{}, Store: repository.NewMemoryStore(time.Hour), Log: zap.NewNop()})
	_, err := svc.InitiateLogin(context.Background(), "sid")
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestHandleCallbackStoresTokens(t *testing.T) {
	srv, calls := newTokenServer(t, http.StatusOK)
	store := repository.NewMemoryStore(time.Hour)
	svc := newTestService(t, srv.URL, store, time.Second)
	ctx := context.Background()

	authURL, err := svc.InitiateLogin(ctx, "sid")
	require.NoError(t, err)

	result, err := svc.HandleCallback(ctx, "sid", CallbackRequest{Code: "c", State: stateFrom(t, authURL), RealmID: "9"})
	require.NoError(t, err)
	assert.Equal(t, "9", result.RealmID)
	assert.EqualValues(t, 1, calls.Load())

	status, err := svc.Status(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, status.Authenticated)
	assert.Equal(t, "9", status.RealmID)

	cred, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "AT", cred.AccessToken)
	assert.Equal(t, "RT", cred.RefreshToken)
	assert.Nil(t, cred.CSRFState)
}

func TestHandleCallbackStateIsSingleUse(t *testing.T) {
	srv, calls := newTokenServer(t, http.StatusOK)
	store := repository.NewMemoryStore(time.Hour)
	svc := newTestService(t, srv.URL, store, time.Second)
	ctx := context.Background()

	authURL, err := svc.InitiateLogin(ctx, "sid")
	require.NoError(t, err)
	state := stateFrom(t, authURL)

	_, err = svc.HandleCallback(ctx, "sid", CallbackRequest{Code: "c", State: "forged", RealmID: "9"})
	assert.ErrorIs(t, err, ErrCSRFMismatch)

	// The forged attempt consumed the state, so the real one no longer matches.
	_, err = svc.HandleCallback(ctx, "sid", CallbackRequest{Code: "c", State: state, RealmID: "9"})
	assert.ErrorIs(t, err, ErrCSRFMismatch)
	assert.EqualValues(t, 0, calls.Load())

	status, err := svc.Status(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}

func TestHandleCallbackReplayIsRejected(t *testing.T) {
	srv, calls := newTokenServer(t, http.StatusOK)
	svc := newTestService(t, srv.URL, repository.NewMemoryStore(time.Hour), time.Second)
	ctx := context.Background()

	authURL, err := svc.InitiateLogin(ctx, "sid")
	require.NoError(t, err)
	req := CallbackRequest{Code: "c", State: stateFrom(t, authURL), RealmID: "9"}

	_, err = svc.HandleCallback(ctx, "sid", req)
	require.NoError(t, err)
	_, err = svc.HandleCallback(ctx, "sid", req)
	assert.ErrorIs(t, err, ErrCSRFMismatch)
	assert.EqualValues(t, 1, calls.Load())
}

func TestHandleCallbackMissingParameters(t *testing.T) {
	svc := newTestService(t, "http://unused", repository.NewMemoryStore(time.Hour), time.Second)

	_, err := svc.HandleCallback(context.Background(), "sid", CallbackRequest{State: "s", RealmID: "9"})
	assert.ErrorIs(t, err, ErrMissingParameters)
	_, err = svc.HandleCallback(context.Background(), "sid", CallbackRequest{Code: "c", State: "s"})
	assert.ErrorIs(t, err, ErrMissingParameters)
}

func TestHandleCallbackUnknownSession(t *testing.T) {
	svc := newTestService(t, "http://unused", repository.NewMemoryStore(time.Hour), time.Second)
	_, err := svc.HandleCallback(context.Background(), "never-seen", CallbackRequest{Code: "c", State: "s", RealmID: "9"})
	assert.ErrorIs(t, err, ErrCSRFMismatch)
}

func TestHandleCallbackExchangeFailure(t *testing.T) {
	srv, _ := newTokenServer(t, http.StatusBadRequest)
	store := repository.NewMemoryStore(time.Hour)
	svc := newTestService(t, srv.URL, store, time.Second)
	ctx := context.Background()

	authURL, err := svc.InitiateLogin(ctx, "sid")
	require.NoError(t, err)

	_, err = svc.HandleCallback(ctx, "sid", CallbackRequest{Code: "c", State: stateFrom(t, authURL), RealmID: "9"})
	var exchangeErr *TokenExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, http.StatusBadRequest, exchangeErr.Status)
	assert.Contains(t, exchangeErr.Body, "invalid_grant")

	status, err := svc.Status(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}

func TestHandleCallbackFailedExchangeBurnsState(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"AT","refresh_token":"RT","token_type":"bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)

	store := repository.NewMemoryStore(time.Hour)
	svc := newTestService(t, srv.URL, store, time.Second)
	ctx := context.Background()

	authURL, err := svc.InitiateLogin(ctx, "sid")
	require.NoError(t, err)
	req := CallbackRequest{Code: "c", State: stateFrom(t, authURL), RealmID: "9"}

	_, err = svc.HandleCallback(ctx, "sid", req)
	var exchangeErr *TokenExchangeError
	require.ErrorAs(t, err, &exchangeErr)

	stored, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Nil(t, stored.CSRFState)

	_, err = svc.HandleCallback(ctx, "sid", req)
	assert.ErrorIs(t, err, ErrCSRFMismatch)
	assert.EqualValues(t, 1, calls.Load())

	status, err := svc.Status(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}

func TestHandleCallbackWriteTimeoutStillSucceeds(t *testing.T) {
	srv, _ := newTokenServer(t, http.StatusOK)
	store := &slowStore{Store: repository.NewMemoryStore(time.Hour), delay: 200 * time.Millisecond}
	svc := newTestService(t, srv.URL, store, 20*time.Millisecond)
	ctx := context.Background()

	authURL, err := svc.InitiateLogin(ctx, "sid")
	require.NoError(t, err)

	store.slow.Store(true)
	started := time.Now()
	result, err := svc.HandleCallback(ctx, "sid", CallbackRequest{Code: "c", State: stateFrom(t, authURL), RealmID: "9"})
	assert.ErrorIs(t, err, ErrSessionWriteTimeout)
	require.NotNil(t, result)
	assert.Equal(t, "9", result.RealmID)
	assert.Less(t, time.Since(started), 150*time.Millisecond)

	// The abandoned write still lands.
	assert.Eventually(t, func() bool {
		status, err := svc.Status(ctx, "sid")
		return err == nil && status.Authenticated
	}, time.Second, 20*time.Millisecond)
}

func TestLogoutDeletesCredential(t *testing.T) {
	srv, _ := newTokenServer(t, http.StatusOK)
	svc := newTestService(t, srv.URL, repository.NewMemoryStore(time.Hour), time.Second)
	ctx := context.Background()

	authURL, err := svc.InitiateLogin(ctx, "sid")
	require.NoError(t, err)
	_, err = svc.HandleCallback(ctx, "sid", CallbackRequest{Code: "c", State: stateFrom(t, authURL), RealmID: "9"})
	require.NoError(t, err)

	realmID, err := svc.Logout(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "9", realmID)

	status, err := svc.Status(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, status.Authenticated)
}
