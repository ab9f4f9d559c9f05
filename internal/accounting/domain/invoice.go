package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

const DetailTypeSalesItemLine = "SalesItemLineDetail"

type SalesItemLineDetail struct {
	ItemRef    *Ref             `json:"ItemRef,omitempty"`
	Qty        *decimal.Decimal `json:"Qty,omitempty"`
	UnitPrice  *decimal.Decimal `json:"UnitPrice,omitempty"`
	TaxCodeRef *Ref             `json:"TaxCodeRef,omitempty"`
}

type Line struct {
	ID                  string               `json:"Id,omitempty"`
	LineNum             int                  `json:"LineNum,omitempty"`
	Description         string               `json:"Description,omitempty"`
	Amount              decimal.Decimal      `json:"Amount"`
	DetailType          string               `json:"DetailType"`
	SalesItemLineDetail *SalesItemLineDetail `json:"SalesItemLineDetail,omitempty"`
}

type TxnTaxDetail struct {
	TotalTax decimal.Decimal `json:"TotalTax"`
}

type CustomField struct {
	DefinitionID string `json:"DefinitionId,omitempty"`
	Name         string `json:"Name,omitempty"`
	Type         string `json:"Type,omitempty"`
	StringValue  string `json:"StringValue,omitempty"`
}

type MemoRef struct {
	Value string `json:"value"`
}

// Invoice is the remote, authoritative invoice record.
type Invoice struct {
	ID           string          `json:"Id"`
	SyncToken    string          `json:"SyncToken,omitempty"`
	DocNumber    string          `json:"DocNumber,omitempty"`
	TxnDate      string          `json:"TxnDate,omitempty"`
	DueDate      string          `json:"DueDate,omitempty"`
	TotalAmt     decimal.Decimal `json:"TotalAmt"`
	Balance      decimal.Decimal `json:"Balance"`
	Deposit      decimal.Decimal `json:"Deposit"`
	CustomerRef  Ref             `json:"CustomerRef"`
	SalesTermRef *Ref            `json:"SalesTermRef,omitempty"`
	Line         []Line          `json:"Line"`
	TxnTaxDetail *TxnTaxDetail   `json:"TxnTaxDetail,omitempty"`
	BillAddr     *Address        `json:"BillAddr,omitempty"`
	CustomerMemo *MemoRef        `json:"CustomerMemo,omitempty"`
	PrivateNote  string          `json:"PrivateNote,omitempty"`
	CustomField  []CustomField   `json:"CustomField,omitempty"`
	EmailStatus  string          `json:"EmailStatus,omitempty"`
	PrintStatus  string          `json:"PrintStatus,omitempty"`
	MetaData     *MetaData       `json:"MetaData,omitempty"`
}

func (i Invoice) EntityID() string { return i.ID }

// Paid reports a zero outstanding balance; paid invoices are not edited locally.
func (i Invoice) Paid() bool {
	return i.Balance.IsZero()
}

// SalesLines returns only item lines; subtotal and discount lines are skipped.
func (i Invoice) SalesLines() []Line {
	out := make([]Line, 0, len(i.Line))
	for _, line := range i.Line {
		if line.DetailType == DetailTypeSalesItemLine && line.SalesItemLineDetail != nil {
			out = append(out, line)
		}
	}
	return out
}

// TermsName returns the payment terms label: the sales term reference, then a
// custom field whose name mentions "term", then fallback.
func (i Invoice) TermsName(fallback string) string {
	if i.SalesTermRef != nil && strings.TrimSpace(i.SalesTermRef.Name) != "" {
		return i.SalesTermRef.Name
	}
	for _, field := range i.CustomField {
		if strings.Contains(strings.ToLower(field.Name), "term") && strings.TrimSpace(field.StringValue) != "" {
			return field.StringValue
		}
	}
	return fallback
}

// InvoicePayload is the create/update body. Amounts are json.Number so they
// serialise as bare JSON numbers with exact decimal text.
type InvoicePayload struct {
	ID           string        `json:"Id,omitempty"`
	SyncToken    string        `json:"SyncToken,omitempty"`
	Sparse       bool          `json:"sparse,omitempty"`
	CustomerRef  Ref           `json:"CustomerRef"`
	Line         []LinePayload `json:"Line"`
	TxnDate      string        `json:"TxnDate,omitempty"`
	DueDate      string        `json:"DueDate,omitempty"`
	DocNumber    string        `json:"DocNumber,omitempty"`
	SalesTermRef *Ref          `json:"SalesTermRef,omitempty"`
	CustomerMemo *MemoRef      `json:"CustomerMemo,omitempty"`
	PrivateNote  string        `json:"PrivateNote,omitempty"`
}

type LinePayload struct {
	DetailType          string                     `json:"DetailType"`
	Amount              json.Number                `json:"Amount"`
	Description         string                     `json:"Description,omitempty"`
	SalesItemLineDetail SalesItemLineDetailPayload `json:"SalesItemLineDetail"`
}

type SalesItemLineDetailPayload struct {
	ItemRef    Ref         `json:"ItemRef"`
	Qty        json.Number `json:"Qty"`
	UnitPrice  json.Number `json:"UnitPrice"`
	TaxCodeRef *Ref        `json:"TaxCodeRef,omitempty"`
}

// CustomerPayload is the create body for a customer.
type CustomerPayload struct {
	DisplayName          string        `json:"DisplayName"`
	Title                string        `json:"Title,omitempty"`
	GivenName            string        `json:"GivenName,omitempty"`
	FamilyName           string        `json:"FamilyName,omitempty"`
	CompanyName          string        `json:"CompanyName,omitempty"`
	FullyQualifiedName   string        `json:"FullyQualifiedName,omitempty"`
	PrintOnCheckName     string        `json:"PrintOnCheckName,omitempty"`
	PrimaryEmailAddr     *EmailAddress `json:"PrimaryEmailAddr,omitempty"`
	PrimaryPhone         *PhoneNumber  `json:"PrimaryPhone,omitempty"`
	Mobile               *PhoneNumber  `json:"Mobile,omitempty"`
	PrimaryTaxIdentifier string        `json:"PrimaryTaxIdentifier,omitempty"`
	BillAddr             *Address      `json:"BillAddr,omitempty"`
	Notes                string        `json:"Notes,omitempty"`
}
