package reference

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/invoicedesk/internal/accounting"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	"github.com/smallbiznis/invoicedesk/internal/cache"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/tax"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// idleTTL evicts a tenant's caches after this long without access.
	idleTTL = 30 * time.Minute
	// purgeInterval bounds how often For sweeps out idle tenants.
	purgeInterval = time.Minute
)

var ErrUnknownResource = errors.New("unknown_reference_resource")

// Tenant groups every reference cache of one accounting tenant.
type Tenant struct {
	Customers      *Cache[accountingdomain.Customer]
	Items          *Cache[accountingdomain.Item]
	TaxCodes       *Cache[accountingdomain.TaxCode]
	TaxRates       *Cache[accountingdomain.TaxRate]
	Terms          *Cache[accountingdomain.Term]
	Accounts       *Cache[accountingdomain.Account]
	PaymentMethods *Cache[accountingdomain.PaymentMethod]
}

// Registry hands out per-tenant caches keyed by realm id.
type Registry struct {
	client  accounting.Client
	tenants *cache.TTLCache[string, *Tenant]
	clock   clock.Clock
	log     *zap.Logger

	mu        sync.Mutex
	lastPurge time.Time
}

type Params struct {
	fx.In

	Client accounting.Client
	Clock  clock.Clock `optional:"true"`
	Log    *zap.Logger
}

func NewRegistry(p Params) *Registry {
	clk := p.Clock
	if clk == nil {
		clk = clock.System(nil)
	}
	return &Registry{
		client:    p.Client,
		tenants:   cache.NewTTLCacheWithClock[string, *Tenant](clk.Now),
		clock:     clk,
		log:       p.Log.Named("reference"),
		lastPurge: clk.Now(),
	}
}

// For returns the caches of auth's tenant, creating them on first use and
// sliding the idle expiry on every call.
func (r *Registry) For(auth accounting.Auth) *Tenant {
	r.purgeIdle()
	key := cache.Key(auth.RealmID)
	tenant := r.tenants.GetOrSet(key, idleTTL, r.newTenant)
	r.tenants.Set(key, tenant, idleTTL)
	return tenant
}

// Forget drops a tenant's caches, used on logout.
func (r *Registry) Forget(realmID string) {
	r.tenants.Delete(cache.Key(realmID))
}

// Len reports how many tenants currently hold caches.
func (r *Registry) Len() int {
	return r.tenants.Len()
}

func (r *Registry) purgeIdle() {
	now := r.clock.Now()
	r.mu.Lock()
	if now.Sub(r.lastPurge) < purgeInterval {
		r.mu.Unlock()
		return
	}
	r.lastPurge = now
	r.mu.Unlock()

	if removed := r.tenants.Purge(); removed > 0 {
		r.log.Debug("evicted idle tenants", zap.Int("count", removed))
	}
}

func (r *Registry) newTenant() *Tenant {
	return &Tenant{
		Customers:      NewCache(queryLoader[accountingdomain.Customer](r.client, accountingdomain.ResourceCustomer)),
		Items:          NewCache(queryLoader[accountingdomain.Item](r.client, accountingdomain.ResourceItem)),
		TaxCodes:       NewCache(queryLoader[accountingdomain.TaxCode](r.client, accountingdomain.ResourceTaxCode)),
		TaxRates:       NewCache(queryLoader[accountingdomain.TaxRate](r.client, accountingdomain.ResourceTaxRate)),
		Terms:          NewCache(queryLoader[accountingdomain.Term](r.client, accountingdomain.ResourceTerm)),
		Accounts:       NewCache(queryLoader[accountingdomain.Account](r.client, accountingdomain.ResourceAccount)),
		PaymentMethods: NewCache(queryLoader[accountingdomain.PaymentMethod](r.client, accountingdomain.ResourcePaymentMethod)),
	}
}

func queryLoader[T Entity](client accounting.Client, resource accountingdomain.Resource) Loader[T] {
	return func(ctx context.Context, auth accounting.Auth) ([]T, error) {
		raw, err := client.Query(ctx, auth, resource.SelectAll())
		if err != nil {
			return nil, err
		}
		return accountingdomain.DecodeQuery[T](raw, resource)
	}
}

// TaxResolver loads tax codes and rates (if not cached) and indexes them.
func (t *Tenant) TaxResolver(ctx context.Context, auth accounting.Auth) (*tax.Resolver, error) {
	codes, err := t.TaxCodes.Fetch(ctx, auth)
	if err != nil {
		return nil, err
	}
	rates, err := t.TaxRates.Fetch(ctx, auth)
	if err != nil {
		return nil, err
	}
	return tax.NewResolver(codes, rates), nil
}

// Snapshot is a resource-agnostic view of one cache, as served to the UI.
type Snapshot struct {
	Data    any    `json:"data"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Fetched bool   `json:"fetched"`
}

func snapshotOf[T Entity](s State[T]) Snapshot {
	out := Snapshot{Data: s.Data, Loading: s.Loading, Fetched: s.Fetched}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return out
}

func load[T Entity](ctx context.Context, c *Cache[T], auth accounting.Auth, refresh bool) (Snapshot, error) {
	var err error
	if refresh {
		_, err = c.Refetch(ctx, auth)
	} else {
		_, err = c.Fetch(ctx, auth)
	}
	return snapshotOf(c.Snapshot()), err
}

// Load fetches (or with refresh, refetches) the named resource. Names are the
// URL forms used by the HTTP layer: customers, items, tax-codes, tax-rates,
// terms, accounts, payment-methods.
func (t *Tenant) Load(ctx context.Context, auth accounting.Auth, name string, refresh bool) (Snapshot, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "customers":
		return load(ctx, t.Customers, auth, refresh)
	case "items":
		return load(ctx, t.Items, auth, refresh)
	case "tax-codes", "taxcodes":
		return load(ctx, t.TaxCodes, auth, refresh)
	case "tax-rates", "taxrates":
		return load(ctx, t.TaxRates, auth, refresh)
	case "terms":
		return load(ctx, t.Terms, auth, refresh)
	case "accounts":
		return load(ctx, t.Accounts, auth, refresh)
	case "payment-methods", "paymentmethods":
		return load(ctx, t.PaymentMethods, auth, refresh)
	default:
		return Snapshot{}, ErrUnknownResource
	}
}
