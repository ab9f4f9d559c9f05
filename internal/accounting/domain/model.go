package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Ref is the accounting API's {value, name} entity reference.
type Ref struct {
	Value string `json:"value"`
	Name  string `json:"name,omitempty"`
}

type Address struct {
	ID                     string `json:"Id,omitempty"`
	Line1                  string `json:"Line1,omitempty"`
	Line2                  string `json:"Line2,omitempty"`
	Line3                  string `json:"Line3,omitempty"`
	City                   string `json:"City,omitempty"`
	CountrySubDivisionCode string `json:"CountrySubDivisionCode,omitempty"`
	PostalCode             string `json:"PostalCode,omitempty"`
	Country                string `json:"Country,omitempty"`
}

// Lines returns the non-empty printable address lines in display order.
func (a *Address) Lines() []string {
	if a == nil {
		return nil
	}
	var out []string
	for _, line := range []string{a.Line1, a.Line2, a.Line3} {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	locality := strings.TrimSpace(strings.Join(nonEmpty(a.City, a.CountrySubDivisionCode, a.PostalCode), " "))
	if locality != "" {
		out = append(out, locality)
	}
	if country := strings.TrimSpace(a.Country); country != "" {
		out = append(out, country)
	}
	return out
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

type EmailAddress struct {
	Address string `json:"Address"`
}

type PhoneNumber struct {
	FreeFormNumber string `json:"FreeFormNumber"`
}

type MetaData struct {
	CreateTime      string `json:"CreateTime,omitempty"`
	LastUpdatedTime string `json:"LastUpdatedTime,omitempty"`
}

type Customer struct {
	ID                   string          `json:"Id"`
	SyncToken            string          `json:"SyncToken,omitempty"`
	DisplayName          string          `json:"DisplayName"`
	Title                string          `json:"Title,omitempty"`
	GivenName            string          `json:"GivenName,omitempty"`
	FamilyName           string          `json:"FamilyName,omitempty"`
	CompanyName          string          `json:"CompanyName,omitempty"`
	FullyQualifiedName   string          `json:"FullyQualifiedName,omitempty"`
	PrintOnCheckName     string          `json:"PrintOnCheckName,omitempty"`
	Active               bool            `json:"Active"`
	PrimaryEmailAddr     *EmailAddress   `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone         *PhoneNumber    `json:"PrimaryPhone,omitempty"`
	Mobile               *PhoneNumber    `json:"Mobile,omitempty"`
	BillAddr             *Address        `json:"BillAddr,omitempty"`
	ShipAddr             *Address        `json:"ShipAddr,omitempty"`
	Balance              decimal.Decimal `json:"Balance"`
	CurrencyRef          *Ref            `json:"CurrencyRef,omitempty"`
	PrimaryTaxIdentifier string          `json:"PrimaryTaxIdentifier,omitempty"`
	Taxable              bool            `json:"Taxable"`
	MetaData             *MetaData       `json:"MetaData,omitempty"`
	Notes                string          `json:"Notes,omitempty"`
}

func (c Customer) EntityID() string { return c.ID }

type Item struct {
	ID                 string           `json:"Id"`
	SyncToken          string           `json:"SyncToken,omitempty"`
	Name               string           `json:"Name"`
	FullyQualifiedName string           `json:"FullyQualifiedName,omitempty"`
	Type               string           `json:"Type,omitempty"`
	Active             bool             `json:"Active"`
	Sku                string           `json:"Sku,omitempty"`
	Description        string           `json:"Description,omitempty"`
	UnitPrice          *decimal.Decimal `json:"UnitPrice,omitempty"`
	Taxable            bool             `json:"Taxable"`
	SalesTaxCodeRef    *Ref             `json:"SalesTaxCodeRef,omitempty"`
}

func (i Item) EntityID() string { return i.ID }

// TaxRateDetail points at one TaxRate; only the first detail of a list is used for pricing.
type TaxRateDetail struct {
	TaxRateRef        Ref    `json:"TaxRateRef"`
	TaxTypeApplicable string `json:"TaxTypeApplicable,omitempty"`
	TaxOrder          int    `json:"TaxOrder,omitempty"`
}

type TaxRateList struct {
	TaxRateDetail []TaxRateDetail `json:"TaxRateDetail"`
}

type TaxCode struct {
	ID                  string       `json:"Id"`
	Name                string       `json:"Name"`
	Description         string       `json:"Description,omitempty"`
	Active              bool         `json:"Active"`
	Hidden              bool         `json:"Hidden"`
	Taxable             bool         `json:"Taxable"`
	TaxGroup            bool         `json:"TaxGroup"`
	SalesTaxRateList    *TaxRateList `json:"SalesTaxRateList,omitempty"`
	PurchaseTaxRateList *TaxRateList `json:"PurchaseTaxRateList,omitempty"`
}

func (t TaxCode) EntityID() string { return t.ID }

// Selectable reports whether the code may be offered on an invoice line.
func (t TaxCode) Selectable() bool {
	return t.Active && !t.Hidden
}

// FirstSalesRateID returns the first referenced sales tax rate id, if any.
func (t TaxCode) FirstSalesRateID() (string, bool) {
	if t.SalesTaxRateList == nil || len(t.SalesTaxRateList.TaxRateDetail) == 0 {
		return "", false
	}
	id := strings.TrimSpace(t.SalesTaxRateList.TaxRateDetail[0].TaxRateRef.Value)
	return id, id != ""
}

// TaxRate.RateValue is a whole-number percentage (15 means 15%).
type TaxRate struct {
	ID          string          `json:"Id"`
	Name        string          `json:"Name"`
	Description string          `json:"Description,omitempty"`
	Active      bool            `json:"Active"`
	RateValue   decimal.Decimal `json:"RateValue"`
	AgencyRef   *Ref            `json:"AgencyRef,omitempty"`
	DisplayType string          `json:"DisplayType,omitempty"`
}

func (t TaxRate) EntityID() string { return t.ID }

// Term is a payment term. Exactly one of DueDays or DayOfMonthDue is normally set.
type Term struct {
	ID               string `json:"Id"`
	Name             string `json:"Name"`
	Active           bool   `json:"Active"`
	Type             string `json:"Type,omitempty"`
	DueDays          *int   `json:"DueDays,omitempty"`
	DayOfMonthDue    *int   `json:"DayOfMonthDue,omitempty"`
	DueNextMonthDays *int   `json:"DueNextMonthDays,omitempty"`
}

func (t Term) EntityID() string { return t.ID }

type Account struct {
	ID             string `json:"Id"`
	Name           string `json:"Name"`
	AccountType    string `json:"AccountType"`
	AccountSubType string `json:"AccountSubType,omitempty"`
	Active         bool   `json:"Active"`
}

func (a Account) EntityID() string { return a.ID }

type PaymentMethod struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Type   string `json:"Type,omitempty"`
	Active bool   `json:"Active"`
}

func (p PaymentMethod) EntityID() string { return p.ID }
