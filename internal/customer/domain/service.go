package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/invoicedesk/internal/accounting"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
)

// CreateCustomerRequest is the add-customer form. Either DisplayName or
// FamilyName must be present.
type CreateCustomerRequest struct {
	DisplayName string `json:"display_name" validate:"max=500"`
	Title       string `json:"title" validate:"max=16"`
	GivenName   string `json:"given_name" validate:"max=100"`
	FamilyName  string `json:"family_name" validate:"max=100"`
	CompanyName string `json:"company_name" validate:"max=100"`
	Email       string `json:"email" validate:"omitempty,email,max=100"`
	Phone       string `json:"phone" validate:"max=30"`
	Mobile      string `json:"mobile" validate:"max=30"`
	VATNumber   string `json:"vat_number" validate:"max=30"`
	Street1     string `json:"street1" validate:"max=500"`
	Street2     string `json:"street2" validate:"max=500"`
	City        string `json:"city" validate:"max=255"`
	State       string `json:"state" validate:"max=255"`
	PostalCode  string `json:"postal_code" validate:"max=30"`
	Country     string `json:"country" validate:"max=255"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type Service interface {
	Create(ctx context.Context, auth accounting.Auth, req CreateCustomerRequest) (accountingdomain.Customer, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
)
