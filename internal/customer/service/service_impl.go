package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/smallbiznis/invoicedesk/internal/accounting"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	"github.com/smallbiznis/invoicedesk/internal/customer/domain"
	"github.com/smallbiznis/invoicedesk/internal/reference"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// taxIdentifierPrefix keeps the accounting platform from masking the number on read.
const taxIdentifierPrefix = "VAT NO. "

type Params struct {
	fx.In

	Client   accounting.Client
	Registry *reference.Registry
	Log      *zap.Logger
}

type Service struct {
	client   accounting.Client
	registry *reference.Registry
	log      *zap.Logger
	validate *validator.Validate
}

func New(p Params) domain.Service {
	return &Service{
		client:   p.Client,
		registry: p.Registry,
		log:      p.Log.Named("customer.service"),
		validate: validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, auth accounting.Auth, req domain.CreateCustomerRequest) (accountingdomain.Customer, error) {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Email" {
					return accountingdomain.Customer{}, domain.ErrInvalidEmail
				}
			}
		}
		return accountingdomain.Customer{}, err
	}

	payload, err := BuildPayload(req)
	if err != nil {
		return accountingdomain.Customer{}, err
	}

	raw, err := s.client.Create(ctx, auth, accountingdomain.ResourceCustomer, payload)
	if err != nil {
		return accountingdomain.Customer{}, err
	}
	created, err := accountingdomain.DecodeEntity[accountingdomain.Customer](raw, accountingdomain.ResourceCustomer)
	if err != nil {
		return accountingdomain.Customer{}, err
	}

	s.registry.For(auth).Customers.Upsert(*created)
	s.log.Info("customer created", zap.String("customer_id", created.ID))
	return *created, nil
}

// BuildPayload trims the form and maps it onto the accounting customer body.
// Blank optional blocks are omitted entirely.
func BuildPayload(req domain.CreateCustomerRequest) (accountingdomain.CustomerPayload, error) {
	given := strings.TrimSpace(req.GivenName)
	family := strings.TrimSpace(req.FamilyName)
	display := strings.TrimSpace(req.DisplayName)
	if display == "" && family == "" {
		return accountingdomain.CustomerPayload{}, domain.ErrInvalidName
	}
	if display == "" {
		display = strings.TrimSpace(given + " " + family)
	}

	payload := accountingdomain.CustomerPayload{
		DisplayName:        display,
		Title:              strings.TrimSpace(req.Title),
		GivenName:          given,
		FamilyName:         family,
		CompanyName:        strings.TrimSpace(req.CompanyName),
		FullyQualifiedName: display,
		Notes:              strings.TrimSpace(req.Notes),
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		payload.PrimaryEmailAddr = &accountingdomain.EmailAddress{Address: email}
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		payload.PrimaryPhone = &accountingdomain.PhoneNumber{FreeFormNumber: phone}
	}
	if mobile := strings.TrimSpace(req.Mobile); mobile != "" {
		payload.Mobile = &accountingdomain.PhoneNumber{FreeFormNumber: mobile}
	}
	if vat := strings.TrimSpace(req.VATNumber); vat != "" {
		if !strings.HasPrefix(strings.ToUpper(vat), strings.TrimSpace(taxIdentifierPrefix)) {
			vat = taxIdentifierPrefix + vat
		}
		payload.PrimaryTaxIdentifier = vat
	}

	street1 := strings.TrimSpace(req.Street1)
	city := strings.TrimSpace(req.City)
	postal := strings.TrimSpace(req.PostalCode)
	if street1 != "" || city != "" || postal != "" {
		payload.BillAddr = &accountingdomain.Address{
			Line1:                  street1,
			Line2:                  strings.TrimSpace(req.Street2),
			City:                   city,
			CountrySubDivisionCode: strings.TrimSpace(req.State),
			PostalCode:             postal,
			Country:                strings.TrimSpace(req.Country),
		}
	}
	return payload, nil
}
