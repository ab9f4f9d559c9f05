package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeQueryMissingKeyIsEmpty(t *testing.T) {
	items, err := DecodeQuery[Item](json.RawMessage(`{"QueryResponse":{}}`), ResourceItem)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDecodeEntityMissingKey(t *testing.T) {
	_, err := DecodeEntity[Customer](json.RawMessage(`{"Invoice":{}}`), ResourceCustomer)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvoiceTermsName(t *testing.T) {
	inv := Invoice{CustomField: []CustomField{{Name: "Sales Rep", StringValue: "Ann"}, {Name: "Payment Terms", StringValue: "Net 15"}}}
	assert.Equal(t, "Net 15", inv.TermsName("Net 30"))

	inv.SalesTermRef = &Ref{Value: "3", Name: "Due on receipt"}
	assert.Equal(t, "Due on receipt", inv.TermsName("Net 30"))

	assert.Equal(t, "Net 30", Invoice{}.TermsName("Net 30"))
}

func TestInvoicePaidAndSalesLines(t *testing.T) {
	var inv Invoice
	raw := `{"Id":"1","Balance":0,"TotalAmt":115,"Line":[
		{"Amount":100,"DetailType":"SalesItemLineDetail","SalesItemLineDetail":{"Qty":2,"UnitPrice":50}},
		{"Amount":100,"DetailType":"SubTotalLineDetail"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &inv))

	assert.True(t, inv.Paid())
	lines := inv.SalesLines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].SalesItemLineDetail.Qty.Equal(decimal.NewFromInt(2)))
}

func TestAddressLines(t *testing.T) {
	addr := &Address{Line1: "14 Lekkerwater Road", City: "Noordhoek", PostalCode: "7975", Country: "ZA"}
	assert.Equal(t, []string{"14 Lekkerwater Road", "Noordhoek 7975", "ZA"}, addr.Lines())

	var nilAddr *Address
	assert.Nil(t, nilAddr.Lines())
}

func TestLinePayloadSerialisesBareNumbers(t *testing.T) {
	line := LinePayload{
		DetailType: DetailTypeSalesItemLine,
		Amount:     json.Number("200.00"),
		SalesItemLineDetail: SalesItemLineDetailPayload{
			ItemRef:   Ref{Value: "1"},
			Qty:       json.Number("2"),
			UnitPrice: json.Number("100"),
		},
	}
	raw, err := json.Marshal(line)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"Amount":200.00`)
	assert.Contains(t, string(raw), `"Qty":2`)
}

func TestTaxCodeSelectable(t *testing.T) {
	assert.True(t, TaxCode{Active: true}.Selectable())
	assert.False(t, TaxCode{Active: true, Hidden: true}.Selectable())
	_, ok := TaxCode{}.FirstSalesRateID()
	assert.False(t, ok)
}
