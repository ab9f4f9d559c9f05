package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/smallbiznis/invoicedesk/internal/accounting"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	"github.com/smallbiznis/invoicedesk/internal/customer/domain"
	"github.com/smallbiznis/invoicedesk/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingClient struct {
	accounting.Client
	payloads []any
}

func (c *recordingClient) Create(ctx context.Context, auth accounting.Auth, resource accountingdomain.Resource, payload any) (json.RawMessage, error) {
	c.payloads = append(c.payloads, payload)
	return json.RawMessage(`{"Customer":{"Id":"77","DisplayName":"Acme Builders","Active":true}}`), nil
}

func TestBuildPayload(t *testing.T) {
	payload, err := BuildPayload(domain.CreateCustomerRequest{
		DisplayName: "  Acme Builders ",
		Email:       "accounts@acme.co.za",
		VATNumber:   "4123456789",
		Street1:     "1 Main Road",
		City:        "Cape Town",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Builders", payload.DisplayName)
	assert.Equal(t, "Acme Builders", payload.FullyQualifiedName)
	assert.Equal(t, "VAT NO. 4123456789", payload.PrimaryTaxIdentifier)
	require.NotNil(t, payload.PrimaryEmailAddr)
	require.NotNil(t, payload.BillAddr)
	assert.Equal(t, "Cape Town", payload.BillAddr.City)
	assert.Nil(t, payload.PrimaryPhone)

	payload, err = BuildPayload(domain.CreateCustomerRequest{GivenName: "Jan", FamilyName: "Botha", VATNumber: "vat no. 1"})
	require.NoError(t, err)
	assert.Equal(t, "Jan Botha", payload.DisplayName)
	assert.Equal(t, "vat no. 1", payload.PrimaryTaxIdentifier)
	assert.Nil(t, payload.BillAddr)

	_, err = BuildPayload(domain.CreateCustomerRequest{GivenName: "Jan"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCreateUpsertsIntoReferenceCache(t *testing.T) {
	client := &recordingClient{}
	registry := reference.NewRegistry(reference.Params{Client: client, Log: zap.NewNop()})
	svc := New(Params{Client: client, Registry: registry, Log: zap.NewNop()})
	auth := accounting.Auth{AccessToken: "AT", RealmID: "9"}

	created, err := svc.Create(context.Background(), auth, domain.CreateCustomerRequest{DisplayName: "Acme Builders"})
	require.NoError(t, err)
	assert.Equal(t, "77", created.ID)
	require.Len(t, client.payloads, 1)

	cached, ok := registry.For(auth).Customers.Find("77")
	require.True(t, ok)
	assert.Equal(t, "Acme Builders", cached.DisplayName)

	_, err = svc.Create(context.Background(), auth, domain.CreateCustomerRequest{DisplayName: "X", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	assert.Len(t, client.payloads, 1)
}
