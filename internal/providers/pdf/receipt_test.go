package pdf

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReceipt(t *testing.T) {
	input := render.ReceiptInput{
		Merchant:  config.DefaultMerchantProfile(),
		DocNumber: "1042",
		Date:      invoicedomain.NewDate(2024, 1, 10),
		DueDate:   invoicedomain.NewDate(2024, 2, 9),
		Terms:     "Net 30",
		BillTo: render.BillTo{
			Name:         "Acme Builders",
			AddressLines: []string{"1 Main Road", "Cape Town 8001"},
			TaxNumber:    "VAT NO. 4123456789",
		},
		Lines: []render.Line{{
			Description: []string{"Pine plank", "38x114 treated"},
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.NewFromInt(100),
			Amount:      decimal.NewFromInt(200),
		}},
		Subtotal:   decimal.NewFromInt(200),
		TaxRows:    []render.TaxRow{{Rate: decimal.RequireFromString("0.15"), Amount: decimal.NewFromInt(30)}},
		TaxTotal:   decimal.NewFromInt(30),
		Total:      decimal.NewFromInt(230),
		BalanceDue: decimal.NewFromInt(230),
	}

	reader, err := New().GenerateReceipt(context.Background(), input)
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NotEmpty(t, body)
	assert.Equal(t, "%PDF", string(body[:4]))
}
