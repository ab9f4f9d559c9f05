// Package tax resolves the effective sales tax rate of an invoice line.
package tax

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
)

// DefaultRate applies whenever a line's tax code cannot be resolved to a rate.
// It is a pricing policy, not an error fallback: unresolvable lines are still taxed.
var DefaultRate = decimal.RequireFromString("0.15")

var hundred = decimal.NewFromInt(100)

// ResolveRate maps a tax code id to a fractional rate: the code's first sales
// rate reference, looked up in rates, divided by 100. Every miss yields DefaultRate.
func ResolveRate(taxCodeID string, codes []accountingdomain.TaxCode, rates []accountingdomain.TaxRate) decimal.Decimal {
	return NewResolver(codes, rates).Rate(taxCodeID)
}

// Resolver indexes a loaded tax code and tax rate set. It is immutable and safe
// for concurrent use; the totals engine and the receipt renderer share one instance.
type Resolver struct {
	codes     map[string]accountingdomain.TaxCode
	rates     map[string]accountingdomain.TaxRate
	available []accountingdomain.TaxCode
}

func NewResolver(codes []accountingdomain.TaxCode, rates []accountingdomain.TaxRate) *Resolver {
	return &Resolver{
		codes: lo.SliceToMap(codes, func(c accountingdomain.TaxCode) (string, accountingdomain.TaxCode) {
			return c.ID, c
		}),
		rates: lo.SliceToMap(rates, func(r accountingdomain.TaxRate) (string, accountingdomain.TaxRate) {
			return r.ID, r
		}),
		available: lo.Filter(codes, func(c accountingdomain.TaxCode, _ int) bool {
			return c.Selectable()
		}),
	}
}

// Rate returns the fractional rate for taxCodeID (0.15 for a 15% code).
func (r *Resolver) Rate(taxCodeID string) decimal.Decimal {
	if r == nil {
		return DefaultRate
	}
	taxCodeID = strings.TrimSpace(taxCodeID)
	if taxCodeID == "" {
		return DefaultRate
	}
	code, ok := r.codes[taxCodeID]
	if !ok {
		return DefaultRate
	}
	rateID, ok := code.FirstSalesRateID()
	if !ok {
		return DefaultRate
	}
	rate, ok := r.rates[rateID]
	if !ok {
		return DefaultRate
	}
	return rate.RateValue.Div(hundred)
}

// Available returns the codes a clerk may pick: active and not hidden.
func (r *Resolver) Available() []accountingdomain.TaxCode {
	if r == nil {
		return nil
	}
	return r.available
}

// DefaultCode picks the code preselected on a new line: the first available code
// that looks like South African standard VAT, otherwise the first available code.
func (r *Resolver) DefaultCode() (accountingdomain.TaxCode, bool) {
	available := r.Available()
	if len(available) == 0 {
		return accountingdomain.TaxCode{}, false
	}
	if code, ok := lo.Find(available, looksLikeStandardVAT); ok {
		return code, true
	}
	return available[0], true
}

func looksLikeStandardVAT(c accountingdomain.TaxCode) bool {
	name := strings.ToLower(c.Name)
	description := strings.ToLower(c.Description)
	return strings.Contains(name, "sa") || strings.Contains(name, "15") || strings.Contains(description, "south africa")
}

// Percent renders a fractional rate as a percentage label without trailing zeros: 0.15 -> "15", 0.075 -> "7.5".
func Percent(rate decimal.Decimal) string {
	return rate.Mul(hundred).String()
}
