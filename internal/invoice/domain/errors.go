package domain

import "errors"

var (
	ErrMissingCustomer     = errors.New("missing_customer")
	ErrEmptyInvoice        = errors.New("empty_invoice")
	ErrMissingTaxSelection = errors.New("missing_tax_selection")
	ErrLineNotFound        = errors.New("line_not_found")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidRate         = errors.New("invalid_rate")
	ErrRatePrecision       = errors.New("invalid_rate_precision")
	ErrInvalidInvoiceID    = errors.New("invalid_invoice_id")
	ErrInvoicePaid         = errors.New("invoice_paid")
)

// ValidationMessage is the user-facing text of a local validation failure.
func ValidationMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCustomer):
		return "Customer is required"
	case errors.Is(err, ErrEmptyInvoice):
		return "At least one line item is required"
	case errors.Is(err, ErrMissingTaxSelection):
		return "All line items must have a tax rate selected"
	case errors.Is(err, ErrInvalidQuantity):
		return "Quantity must not be negative"
	case errors.Is(err, ErrInvalidRate):
		return "Rate must not be negative"
	case errors.Is(err, ErrRatePrecision):
		return "Rate must have at most 2 decimal places"
	case errors.Is(err, ErrInvoicePaid):
		return "Paid invoices cannot be edited"
	default:
		return err.Error()
	}
}
