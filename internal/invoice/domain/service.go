package domain

import (
	"context"
	"io"

	"github.com/smallbiznis/invoicedesk/internal/accounting"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
)

type ListInvoiceRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=all paid unpaid overdue"`
	Search string `form:"q" validate:"max=100"`
}

type ListInvoiceResponse struct {
	Invoices []ListItem `json:"invoices"`
	Summary  Summary    `json:"summary"`
}

type Service interface {
	List(ctx context.Context, auth accounting.Auth, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Get(ctx context.Context, auth accounting.Auth, id string) (accountingdomain.Invoice, error)
	Summary(ctx context.Context, auth accounting.Auth) (Summary, error)

	// NewForm returns a blank form prefilled with today's date, default terms,
	// a suggested document number and one line carrying the default tax code.
	NewForm(ctx context.Context, auth accounting.Auth) (*Form, error)
	// EditForm converts a remote invoice into an editable form. Paid invoices fail with ErrInvoicePaid.
	EditForm(ctx context.Context, auth accounting.Auth, id string) (*Form, error)
	// Totals recomputes every derived value of a posted form.
	Totals(ctx context.Context, auth accounting.Auth, form *Form) (*Form, error)

	Create(ctx context.Context, auth accounting.Auth, form *Form) (accountingdomain.Invoice, error)
	Update(ctx context.Context, auth accounting.Auth, id string, form *Form) (accountingdomain.Invoice, error)

	Preview(ctx context.Context, auth accounting.Auth, form *Form) (string, error)
	Receipt(ctx context.Context, auth accounting.Auth, id string) (string, error)
	ReceiptPDF(ctx context.Context, auth accounting.Auth, id string) (io.Reader, error)
}
