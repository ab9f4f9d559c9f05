package reference

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicedesk/internal/accounting"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testAuth = accounting.Auth{AccessToken: "token", RealmID: "realm-1"}

func TestCacheFetchLoadsOnce(t *testing.T) {
	var calls int32
	c := NewCache(func(ctx context.Context, auth accounting.Auth) ([]accountingdomain.Item, error) {
		atomic.AddInt32(&calls, 1)
		return []accountingdomain.Item{{ID: "1", Name: "Pine plank"}}, nil
	})

	state := c.Snapshot()
	assert.False(t, state.Fetched)
	assert.Empty(t, state.Data)

	items, err := c.Fetch(context.Background(), testAuth)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = c.Fetch(context.Background(), testAuth)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = c.Refetch(context.Background(), testAuth)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	state = c.Snapshot()
	assert.True(t, state.Fetched)
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)
}

func TestCacheFetchErrorKeepsPreviousData(t *testing.T) {
	fail := false
	c := NewCache(func(ctx context.Context, auth accounting.Auth) ([]accountingdomain.Term, error) {
		if fail {
			return nil, errors.New("upstream down")
		}
		return []accountingdomain.Term{{ID: "3", Name: "Net 30"}}, nil
	})

	_, err := c.Fetch(context.Background(), testAuth)
	require.NoError(t, err)

	fail = true
	_, err = c.Refetch(context.Background(), testAuth)
	require.Error(t, err)

	state := c.Snapshot()
	assert.EqualError(t, state.Err, "upstream down")
	require.Len(t, state.Data, 1)
	assert.Equal(t, "Net 30", state.Data[0].Name)
}

func TestCacheFetchErrorLeavesUnfetched(t *testing.T) {
	c := NewCache(func(ctx context.Context, auth accounting.Auth) ([]accountingdomain.Term, error) {
		return nil, errors.New("boom")
	})
	_, err := c.Fetch(context.Background(), testAuth)
	require.Error(t, err)
	assert.False(t, c.Snapshot().Fetched)
}

func TestCacheUpdateItemAndUpsert(t *testing.T) {
	c := NewCache(func(ctx context.Context, auth accounting.Auth) ([]accountingdomain.Customer, error) {
		return []accountingdomain.Customer{{ID: "1", DisplayName: "Acme"}}, nil
	})
	_, err := c.Fetch(context.Background(), testAuth)
	require.NoError(t, err)

	before := c.Snapshot().Data
	ok := c.UpdateItem("1", func(cust *accountingdomain.Customer) {
		cust.DisplayName = "Acme Timber"
	})
	require.True(t, ok)
	assert.Equal(t, "Acme", before[0].DisplayName)

	found, ok := c.Find("1")
	require.True(t, ok)
	assert.Equal(t, "Acme Timber", found.DisplayName)

	assert.False(t, c.UpdateItem("missing", func(*accountingdomain.Customer) {}))

	c.Upsert(accountingdomain.Customer{ID: "2", DisplayName: "Builders"})
	c.Upsert(accountingdomain.Customer{ID: "1", DisplayName: "Acme Ltd"})
	data := c.Snapshot().Data
	require.Len(t, data, 2)
	assert.Equal(t, "Acme Ltd", data[0].DisplayName)
	assert.Equal(t, "Builders", data[1].DisplayName)
}

type stubClient struct {
	accounting.Client
	queries []string
	bodies  map[string]string
}

func (s *stubClient) Query(ctx context.Context, auth accounting.Auth, query string) (json.RawMessage, error) {
	s.queries = append(s.queries, query)
	for resource, body := range s.bodies {
		if query == accountingdomain.Resource(resource).SelectAll() {
			return json.RawMessage(body), nil
		}
	}
	return json.RawMessage(`{"QueryResponse":{}}`), nil
}

func TestRegistryPerTenantAndTaxResolver(t *testing.T) {
	client := &stubClient{bodies: map[string]string{
		"TaxCode": `{"QueryResponse":{"TaxCode":[{"Id":"5","Name":"SA Standard","Active":true,"SalesTaxRateList":{"TaxRateDetail":[{"TaxRateRef":{"value":"9"}}]}}]}}`,
		"TaxRate": `{"QueryResponse":{"TaxRate":[{"Id":"9","Name":"VAT","Active":true,"RateValue":15}]}}`,
	}}
	registry := NewRegistry(Params{Client: client, Log: zap.NewNop()})

	tenant := registry.For(testAuth)
	assert.Same(t, tenant, registry.For(testAuth))
	assert.NotSame(t, tenant, registry.For(accounting.Auth{AccessToken: "t", RealmID: "realm-2"}))

	resolver, err := tenant.TaxResolver(context.Background(), testAuth)
	require.NoError(t, err)
	assert.True(t, resolver.Rate("5").Equal(decimal.RequireFromString("0.15")))

	snap, err := tenant.Load(context.Background(), testAuth, "customers", false)
	require.NoError(t, err)
	assert.True(t, snap.Fetched)

	_, err = tenant.Load(context.Background(), testAuth, "widgets", false)
	assert.ErrorIs(t, err, ErrUnknownResource)

	registry.Forget("realm-1")
	assert.NotSame(t, tenant, registry.For(testAuth))
}

func TestRegistryEvictsIdleTenants(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))
	registry := NewRegistry(Params{Client: &stubClient{}, Clock: clk, Log: zap.NewNop()})

	registry.For(accounting.Auth{AccessToken: "t", RealmID: "realm-2"})
	first := registry.For(testAuth)
	assert.Equal(t, 2, registry.Len())

	clk.Advance(20 * time.Minute)
	assert.Same(t, first, registry.For(testAuth))
	assert.Equal(t, 2, registry.Len())

	// realm-2 has now been idle past its TTL; realm-1 was touched 15 minutes ago.
	clk.Advance(15 * time.Minute)
	assert.Same(t, first, registry.For(testAuth))
	assert.Equal(t, 1, registry.Len())
}
