package service

import (
	"encoding/json"
	"testing"

	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateForSubmit(t *testing.T) {
	customer := &accountingdomain.Ref{Value: "58", Name: "Acme"}
	line := invoicedomain.LineItem{ID: "a", Quantity: dec("1"), Rate: dec("10"), TaxCodeID: "15"}

	cases := []struct {
		name string
		form invoicedomain.Form
		want error
	}{
		{"missing customer", invoicedomain.Form{Lines: []invoicedomain.LineItem{line}}, invoicedomain.ErrMissingCustomer},
		{"blank customer", invoicedomain.Form{Customer: &accountingdomain.Ref{}, Lines: []invoicedomain.LineItem{line}}, invoicedomain.ErrMissingCustomer},
		{"no lines", invoicedomain.Form{Customer: customer}, invoicedomain.ErrEmptyInvoice},
		{"line without tax code", invoicedomain.Form{Customer: customer, Lines: []invoicedomain.LineItem{line, {ID: "b", Quantity: dec("1"), Rate: dec("1")}}}, invoicedomain.ErrMissingTaxSelection},
		{"sub-cent rate", invoicedomain.Form{Customer: customer, Lines: []invoicedomain.LineItem{line, {ID: "d", Quantity: dec("3"), Rate: dec("33.333"), TaxCodeID: "15"}}}, invoicedomain.ErrRatePrecision},
		{"negative rate", invoicedomain.Form{Customer: customer, Lines: []invoicedomain.LineItem{{ID: "c", Quantity: dec("1"), Rate: dec("-1"), TaxCodeID: "15"}}}, invoicedomain.ErrInvalidRate},
		{"valid", invoicedomain.Form{Customer: customer, Lines: []invoicedomain.LineItem{line}}, nil},
		{"cent rate with fractional quantity", invoicedomain.Form{Customer: customer, Lines: []invoicedomain.LineItem{{ID: "e", Quantity: dec("2.5"), Rate: dec("19.90"), TaxCodeID: "15"}}}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateForSubmit(&tc.form)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestBuildPayload(t *testing.T) {
	engine := testEngine(t)
	form := &invoicedomain.Form{
		Customer:        &accountingdomain.Ref{Value: "58", Name: "Acme"},
		DocNumber:       "1042",
		Terms:           "Net 30",
		TermID:          "3",
		InvoiceDate:     invoicedomain.NewDate(2024, 1, 10),
		DueDate:         invoicedomain.NewDate(2024, 2, 9),
		NoteToCustomer:  "Thanks",
		MemoOnStatement: "internal",
		Lines: []invoicedomain.LineItem{
			{ID: "a", ItemID: "7", ProductName: "Deck screws", Quantity: dec("3"), Rate: dec("33.33"), TaxCodeID: "15"},
			{ID: "b", ProductName: "Delivery", Description: "Noordhoek", Quantity: dec("1"), Rate: dec("150"), TaxCodeID: "0"},
		},
	}
	engine.Recompute(form)
	require.NoError(t, ValidateForSubmit(form))

	payload := BuildPayload(form)
	assert.Equal(t, "58", payload.CustomerRef.Value)
	assert.Equal(t, "2024-01-10", payload.TxnDate)
	assert.Equal(t, "2024-02-09", payload.DueDate)
	require.NotNil(t, payload.SalesTermRef)
	assert.Equal(t, "3", payload.SalesTermRef.Value)
	require.NotNil(t, payload.CustomerMemo)
	assert.Equal(t, "Thanks", payload.CustomerMemo.Value)
	assert.Equal(t, "internal", payload.PrivateNote)

	require.Len(t, payload.Line, 2)
	assert.Equal(t, json.Number("99.99"), payload.Line[0].Amount)
	assert.Equal(t, "7", payload.Line[0].SalesItemLineDetail.ItemRef.Value)
	assert.Equal(t, json.Number("33.33"), payload.Line[0].SalesItemLineDetail.UnitPrice)
	assert.Equal(t, json.Number("3"), payload.Line[0].SalesItemLineDetail.Qty)
	assert.Equal(t, fallbackItemID, payload.Line[1].SalesItemLineDetail.ItemRef.Value)
	assert.Equal(t, "0", payload.Line[1].SalesItemLineDetail.TaxCodeRef.Value)

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"Amount":150.00`)
	assert.Contains(t, string(body), `"DetailType":"SalesItemLineDetail"`)
	assert.NotContains(t, string(body), `"sparse"`)

	update := BuildUpdatePayload(form, accountingdomain.Invoice{ID: "130", SyncToken: "4"})
	assert.Equal(t, "130", update.ID)
	assert.Equal(t, "4", update.SyncToken)
	assert.True(t, update.Sparse)
}

func TestStatusAndSummary(t *testing.T) {
	today := invoicedomain.NewDate(2024, 3, 1)
	invoices := []accountingdomain.Invoice{
		{ID: "1", TotalAmt: dec("115"), Balance: dec("0"), DueDate: "2024-01-01"},
		{ID: "2", TotalAmt: dec("230"), Balance: dec("230"), DueDate: "2024-02-01"},
		{ID: "3", TotalAmt: dec("50"), Balance: dec("20"), Deposit: dec("30"), DueDate: "2024-04-01"},
		{ID: "4", TotalAmt: dec("10"), Balance: dec("10"), DueDate: ""},
	}

	assert.Equal(t, invoicedomain.StatusPaid, StatusOf(invoices[0], today))
	assert.Equal(t, invoicedomain.StatusOverdue, StatusOf(invoices[1], today))
	assert.Equal(t, invoicedomain.StatusUnpaid, StatusOf(invoices[2], today))
	assert.Equal(t, invoicedomain.StatusUnpaid, StatusOf(invoices[3], today))

	summary := Summarize(invoices, today)
	assert.True(t, summary.Paid.Equal(dec("115")))
	assert.True(t, summary.Overdue.Equal(dec("230")))
	assert.True(t, summary.NotDueYet.Equal(dec("30")))
	assert.True(t, summary.Deposited.Equal(dec("30")))
	assert.Equal(t, 4, summary.Count)

	overdue := FilterByStatus(Annotate(invoices, today), "overdue")
	require.Len(t, overdue, 1)
	assert.Equal(t, "2", overdue[0].ID)
	assert.Len(t, FilterByStatus(Annotate(invoices, today), "all"), 4)
}
