package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	"github.com/smallbiznis/invoicedesk/internal/config"
	credentialdomain "github.com/smallbiznis/invoicedesk/internal/credential/domain"
	"github.com/smallbiznis/invoicedesk/internal/observability/logger"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicedesk/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxResponseBytes bounds how much of an upstream body is read into memory.
const maxResponseBytes = 8 << 20

// Auth is the per-request credential pair every call requires.
type Auth struct {
	AccessToken string
	RealmID     string
}

func AuthFrom(cred *credentialdomain.Credential) Auth {
	if cred == nil {
		return Auth{}
	}
	return Auth{AccessToken: cred.AccessToken, RealmID: cred.RealmID}
}

func (a Auth) valid() bool {
	return strings.TrimSpace(a.AccessToken) != "" && strings.TrimSpace(a.RealmID) != ""
}

// Client is a thin pass-through to the accounting REST API. It never retries and never caches.
type Client interface {
	Query(ctx context.Context, auth Auth, query string) (json.RawMessage, error)
	Create(ctx context.Context, auth Auth, resource domain.Resource, payload any) (json.RawMessage, error)
	Read(ctx context.Context, auth Auth, resource domain.Resource, id string) (json.RawMessage, error)
	Update(ctx context.Context, auth Auth, resource domain.Resource, payload any) (json.RawMessage, error)
}

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

type httpClient struct {
	baseURL      string
	minorVersion string
	http         *http.Client
	log          *zap.Logger
	metrics      *metrics.Metrics
}

func NewClient(p Params) Client {
	timeout := p.Config.Accounting.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		baseURL:      strings.TrimRight(p.Config.Accounting.BaseURL, "/"),
		minorVersion: p.Config.Accounting.MinorVersion,
		http:         obstracing.WrapHTTPClient(&http.Client{Timeout: timeout}),
		log:          p.Log.Named("accounting"),
		metrics:      p.Metrics,
	}
}

func (c *httpClient) Query(ctx context.Context, auth Auth, query string) (json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidQuery
	}
	params := url.Values{}
	params.Set("query", query)
	return c.do(ctx, auth, "query", http.MethodGet, "query", params, nil)
}

func (c *httpClient) Create(ctx context.Context, auth Auth, resource domain.Resource, payload any) (json.RawMessage, error) {
	endpoint := resource.Endpoint()
	if endpoint == "" {
		return nil, domain.ErrInvalidResource
	}
	return c.do(ctx, auth, "create", http.MethodPost, endpoint, nil, payload)
}

func (c *httpClient) Read(ctx context.Context, auth Auth, resource domain.Resource, id string) (json.RawMessage, error) {
	endpoint := resource.Endpoint()
	if endpoint == "" || strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidResource
	}
	return c.do(ctx, auth, "read", http.MethodGet, endpoint+"/"+url.PathEscape(id), nil, nil)
}

// Update posts a sparse update; payload must carry Id, SyncToken and sparse=true.
func (c *httpClient) Update(ctx context.Context, auth Auth, resource domain.Resource, payload any) (json.RawMessage, error) {
	endpoint := resource.Endpoint()
	if endpoint == "" {
		return nil, domain.ErrInvalidResource
	}
	params := url.Values{}
	params.Set("operation", "update")
	return c.do(ctx, auth, "update", http.MethodPost, endpoint, params, payload)
}

func (c *httpClient) do(ctx context.Context, auth Auth, operation, method, path string, params url.Values, payload any) (json.RawMessage, error) {
	if !auth.valid() {
		return nil, domain.ErrNotAuthenticated
	}

	if params == nil {
		params = url.Values{}
	}
	if c.minorVersion != "" {
		params.Set("minorversion", c.minorVersion)
	}
	endpoint := fmt.Sprintf("%s/v3/company/%s/%s?%s", c.baseURL, url.PathEscape(auth.RealmID), path, params.Encode())

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+auth.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := logger.WithContext(ctx, c.log).With(zap.String("operation", operation), zap.String("path", path))
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordAccountingRequest(ctx, operation, 0)
		log.Warn("accounting request failed", zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.RecordAccountingRequest(ctx, operation, resp.StatusCode)
	if err != nil {
		return nil, err
	}

	log.Debug("accounting request",
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("accounting request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("authorization", logger.MaskAuthorization(req.Header.Get("Authorization"))),
		)
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}
	return json.RawMessage(raw), nil
}
