// Package render turns a computed invoice into an 80mm thermal receipt.
package render

import (
	"strings"

	"github.com/shopspring/decimal"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

const unknownCustomer = "Unknown Customer"

type BillTo struct {
	Name         string
	CompanyName  string
	AddressLines []string
	TaxNumber    string
}

type Line struct {
	Description []string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

type TaxRow struct {
	Rate   decimal.Decimal
	Amount decimal.Decimal
}

// ReceiptInput carries everything a receipt shows. It is built explicitly per
// render; nothing is looked up while rendering.
type ReceiptInput struct {
	Merchant   config.MerchantProfile
	DocNumber  string
	Date       invoicedomain.Date
	DueDate    invoicedomain.Date
	Terms      string
	BillTo     BillTo
	Lines      []Line
	Subtotal   decimal.Decimal
	TaxRows    []TaxRow
	TaxTotal   decimal.Decimal
	Total      decimal.Decimal
	BalanceDue decimal.Decimal
	AutoPrint  bool
}

// FromForm builds a receipt from a recomputed form. Tax rows come from the
// form's tax bands so the receipt shows exactly what the totals engine derived.
func FromForm(form *invoicedomain.Form, customer *accountingdomain.Customer, merchant config.MerchantProfile) ReceiptInput {
	input := ReceiptInput{
		Merchant:   merchant,
		DocNumber:  form.DocNumber,
		Date:       form.InvoiceDate,
		DueDate:    form.DueDate,
		Terms:      form.Terms,
		BillTo:     billTo(form, customer),
		Lines:      make([]Line, 0, len(form.Lines)),
		Subtotal:   form.Totals.Subtotal,
		TaxTotal:   form.Totals.TaxTotal,
		Total:      form.Totals.GrandTotal,
		BalanceDue: form.Totals.GrandTotal,
		AutoPrint:  true,
	}
	if input.Terms == "" {
		input.Terms = merchant.DefaultTerms
	}
	for _, line := range form.Lines {
		input.Lines = append(input.Lines, Line{
			Description: describe(line),
			Quantity:    line.Quantity,
			UnitPrice:   line.Rate,
			Amount:      line.Amount,
		})
	}
	input.TaxRows = taxRows(form.Totals.TaxBands)
	return input
}

// taxRows drops zero-rate bands; with nothing taxable a single 0% row remains.
func taxRows(bands []invoicedomain.TaxBand) []TaxRow {
	rows := make([]TaxRow, 0, len(bands))
	for _, band := range bands {
		if band.Rate.IsZero() {
			continue
		}
		rows = append(rows, TaxRow{Rate: band.Rate, Amount: band.TaxAmount})
	}
	if len(rows) == 0 {
		rows = append(rows, TaxRow{Rate: decimal.Zero, Amount: decimal.Zero})
	}
	return rows
}

func billTo(form *invoicedomain.Form, customer *accountingdomain.Customer) BillTo {
	if customer == nil {
		name := unknownCustomer
		if form.Customer != nil && strings.TrimSpace(form.Customer.Name) != "" {
			name = form.Customer.Name
		}
		return BillTo{Name: name}
	}
	name := strings.TrimSpace(customer.DisplayName)
	if name == "" {
		name = unknownCustomer
	}
	out := BillTo{
		Name:         name,
		AddressLines: customer.BillAddr.Lines(),
		TaxNumber:    strings.TrimSpace(customer.PrimaryTaxIdentifier),
	}
	if company := strings.TrimSpace(customer.CompanyName); company != "" && company != name {
		out.CompanyName = company
	}
	return out
}

func describe(line invoicedomain.LineItem) []string {
	var out []string
	name := strings.TrimSpace(line.ProductName)
	if name != "" {
		out = append(out, name)
	}
	for _, part := range strings.Split(line.Description, "\n") {
		part = strings.TrimSpace(part)
		if part == "" || part == name {
			continue
		}
		out = append(out, part)
	}
	return out
}
