package service

import (
	"strings"

	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

// ratePlaces is the unit price precision the accounting platform accepts
// while still matching Amount to Qty x UnitPrice.
const ratePlaces = 2

// ValidateForSubmit runs the local checks that must pass before anything is
// sent upstream.
func ValidateForSubmit(form *invoicedomain.Form) error {
	if form.Customer == nil || strings.TrimSpace(form.Customer.Value) == "" {
		return invoicedomain.ErrMissingCustomer
	}
	if len(form.Lines) == 0 {
		return invoicedomain.ErrEmptyInvoice
	}
	for _, line := range form.Lines {
		if strings.TrimSpace(line.TaxCodeID) == "" {
			return invoicedomain.ErrMissingTaxSelection
		}
	}
	return validateAmounts(form)
}

func validateAmounts(form *invoicedomain.Form) error {
	for _, line := range form.Lines {
		if line.Quantity.IsNegative() {
			return invoicedomain.ErrInvalidQuantity
		}
		if line.Rate.IsNegative() {
			return invoicedomain.ErrInvalidRate
		}
		if !line.Rate.Equal(line.Rate.Truncate(ratePlaces)) {
			return invoicedomain.ErrRatePrecision
		}
	}
	return nil
}
