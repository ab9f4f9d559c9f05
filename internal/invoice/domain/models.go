// Package domain holds the locally composed invoice form and its derived totals.
package domain

import (
	"github.com/shopspring/decimal"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
)

type TaxType string

const (
	TaxTypeExclusive TaxType = "exclusive"
	TaxTypeInclusive TaxType = "inclusive"
)

// LineItem is one editable invoice line. Amount, TaxRate and TaxAmount are
// derived by the totals engine and overwritten on every recompute.
type LineItem struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"item_id,omitempty" validate:"max=64"`
	ProductName string          `json:"product_name" validate:"max=255"`
	SKU         string          `json:"sku,omitempty" validate:"max=100"`
	Description string          `json:"description,omitempty" validate:"max=4000"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	TaxCodeID   string          `json:"tax_code_id,omitempty" validate:"max=64"`

	Amount    decimal.Decimal `json:"amount"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

// TaxBand groups lines sharing one resolved rate.
type TaxBand struct {
	Rate      decimal.Decimal `json:"rate"`
	Taxable   decimal.Decimal `json:"taxable"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
}

type Totals struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	TaxBands   []TaxBand       `json:"tax_bands"`
}

// Form is the in-progress invoice.
type Form struct {
	ID              string                `json:"id,omitempty"`
	Customer        *accountingdomain.Ref `json:"customer,omitempty"`
	DocNumber       string                `json:"doc_number,omitempty" validate:"max=21"`
	Terms           string                `json:"terms,omitempty" validate:"max=100"`
	TermID          string                `json:"term_id,omitempty"`
	InvoiceDate     Date                  `json:"invoice_date"`
	DueDate         Date                  `json:"due_date"`
	PONumber        string                `json:"po_number,omitempty" validate:"max=100"`
	SalesRep        string                `json:"sales_rep,omitempty" validate:"max=100"`
	Tags            []string              `json:"tags" validate:"dive,max=50"`
	TaxType         TaxType               `json:"tax_type" validate:"omitempty,oneof=exclusive inclusive"`
	Lines           []LineItem            `json:"lines" validate:"dive"`
	NoteToCustomer  string                `json:"note_to_customer,omitempty" validate:"max=1000"`
	MemoOnStatement string                `json:"memo_on_statement,omitempty" validate:"max=4000"`
	Totals          Totals                `json:"totals"`
}

func (f *Form) Line(id string) (*LineItem, bool) {
	for i := range f.Lines {
		if f.Lines[i].ID == id {
			return &f.Lines[i], true
		}
	}
	return nil, false
}

type Status string

const (
	StatusPaid    Status = "paid"
	StatusUnpaid  Status = "unpaid"
	StatusOverdue Status = "overdue"
)

// ListItem is a remote invoice annotated for the list view.
type ListItem struct {
	accountingdomain.Invoice
	Status Status `json:"status"`
}

// Summary aggregates the invoice list into the dashboard buckets.
type Summary struct {
	Overdue   decimal.Decimal `json:"overdue"`
	NotDueYet decimal.Decimal `json:"not_due_yet"`
	Paid      decimal.Decimal `json:"paid"`
	Deposited decimal.Decimal `json:"deposited"`
	Count     int             `json:"count"`
}
