package domain

import "encoding/json"

// Resource names an accounting entity type as it appears in query results.
type Resource string

const (
	ResourceCustomer      Resource = "Customer"
	ResourceItem          Resource = "Item"
	ResourceTaxCode       Resource = "TaxCode"
	ResourceTaxRate       Resource = "TaxRate"
	ResourceTerm          Resource = "Term"
	ResourceAccount       Resource = "Account"
	ResourcePaymentMethod Resource = "PaymentMethod"
	ResourceInvoice       Resource = "Invoice"
)

// Endpoint is the lower-case path segment used by create and read calls.
func (r Resource) Endpoint() string {
	switch r {
	case ResourceCustomer:
		return "customer"
	case ResourceItem:
		return "item"
	case ResourceTaxCode:
		return "taxcode"
	case ResourceTaxRate:
		return "taxrate"
	case ResourceTerm:
		return "term"
	case ResourceAccount:
		return "account"
	case ResourcePaymentMethod:
		return "paymentmethod"
	case ResourceInvoice:
		return "invoice"
	default:
		return ""
	}
}

// SelectAll is the default list query for a resource.
func (r Resource) SelectAll() string {
	return "SELECT * FROM " + string(r) + " MAXRESULTS 1000"
}

// QueryResponse is the envelope of a query call: {"QueryResponse": {"<Resource>": [...]}}.
type QueryResponse struct {
	QueryResponse map[string]json.RawMessage `json:"QueryResponse"`
}

// DecodeQuery extracts the entity list for resource; a missing key is an empty list.
func DecodeQuery[T any](raw json.RawMessage, resource Resource) ([]T, error) {
	var envelope QueryResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	list, ok := envelope.QueryResponse[string(resource)]
	if !ok || len(list) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(list, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeEntity extracts the single entity returned by create or read calls: {"<Resource>": {...}}.
func DecodeEntity[T any](raw json.RawMessage, resource Resource) (*T, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	body, ok := envelope[string(resource)]
	if !ok {
		return nil, ErrNotFound
	}
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
