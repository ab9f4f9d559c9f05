package service

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

// fallbackItemID is the catalog item used for free-text lines.
const fallbackItemID = "1"

// BuildPayload maps a validated, recomputed form onto the accounting invoice
// body. Line amounts are the pre-tax amounts in cents; the accounting platform
// applies tax from each line's tax code.
func BuildPayload(form *invoicedomain.Form) accountingdomain.InvoicePayload {
	payload := accountingdomain.InvoicePayload{
		Line:      make([]accountingdomain.LinePayload, 0, len(form.Lines)),
		TxnDate:   form.InvoiceDate.String(),
		DueDate:   form.DueDate.String(),
		DocNumber: strings.TrimSpace(form.DocNumber),
	}
	if form.Customer != nil {
		payload.CustomerRef = *form.Customer
	}
	if form.TermID != "" {
		payload.SalesTermRef = &accountingdomain.Ref{Value: form.TermID, Name: form.Terms}
	}
	if note := strings.TrimSpace(form.NoteToCustomer); note != "" {
		payload.CustomerMemo = &accountingdomain.MemoRef{Value: note}
	}
	payload.PrivateNote = strings.TrimSpace(form.MemoOnStatement)

	for _, line := range form.Lines {
		itemID := strings.TrimSpace(line.ItemID)
		if itemID == "" {
			itemID = fallbackItemID
		}
		detail := accountingdomain.SalesItemLineDetailPayload{
			ItemRef:   accountingdomain.Ref{Value: itemID, Name: line.ProductName},
			Qty:       number(line.Quantity),
			UnitPrice: number(line.Rate),
		}
		if line.TaxCodeID != "" {
			detail.TaxCodeRef = &accountingdomain.Ref{Value: line.TaxCodeID}
		}
		payload.Line = append(payload.Line, accountingdomain.LinePayload{
			DetailType:          accountingdomain.DetailTypeSalesItemLine,
			Amount:              json.Number(line.Amount.StringFixed(2)),
			Description:         strings.TrimSpace(line.Description),
			SalesItemLineDetail: detail,
		})
	}
	return payload
}

// BuildUpdatePayload is BuildPayload plus the identity fields of a sparse update.
func BuildUpdatePayload(form *invoicedomain.Form, remote accountingdomain.Invoice) accountingdomain.InvoicePayload {
	payload := BuildPayload(form)
	payload.ID = remote.ID
	payload.SyncToken = remote.SyncToken
	payload.Sparse = true
	return payload
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
