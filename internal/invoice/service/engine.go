package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

// RateResolver maps a tax code id to a fractional rate; *tax.Resolver implements it.
type RateResolver interface {
	Rate(taxCodeID string) decimal.Decimal
}

// Engine owns every derived value of an invoice form. All edit operations end
// in a full Recompute; nothing updates totals incrementally.
type Engine struct {
	rates RateResolver
	ids   *snowflake.Node
}

func NewEngine(rates RateResolver, ids *snowflake.Node) *Engine {
	return &Engine{rates: rates, ids: ids}
}

// Recompute derives every line's amount and tax, then the invoice aggregates.
func (e *Engine) Recompute(form *invoicedomain.Form) {
	for i := range form.Lines {
		e.computeLine(&form.Lines[i])
	}
	form.Totals = ComputeTotals(form.Lines)
}

func (e *Engine) computeLine(line *invoicedomain.LineItem) {
	line.Amount = line.Quantity.Mul(line.Rate)
	line.TaxRate = e.rates.Rate(line.TaxCodeID)
	line.TaxAmount = line.Amount.Mul(line.TaxRate)
}

// ComputeTotals sums already-derived line values. Amounts stay exact; rounding
// happens only when formatting or building payloads.
func ComputeTotals(lines []invoicedomain.LineItem) invoicedomain.Totals {
	totals := invoicedomain.Totals{
		Subtotal: decimal.Zero,
		TaxTotal: decimal.Zero,
		TaxBands: []invoicedomain.TaxBand{},
	}
	bandIndex := make(map[string]int)
	for _, line := range lines {
		totals.Subtotal = totals.Subtotal.Add(line.Amount)
		totals.TaxTotal = totals.TaxTotal.Add(line.TaxAmount)

		key := line.TaxRate.String()
		idx, ok := bandIndex[key]
		if !ok {
			idx = len(totals.TaxBands)
			bandIndex[key] = idx
			totals.TaxBands = append(totals.TaxBands, invoicedomain.TaxBand{
				Rate:      line.TaxRate,
				Taxable:   decimal.Zero,
				TaxAmount: decimal.Zero,
			})
		}
		totals.TaxBands[idx].Taxable = totals.TaxBands[idx].Taxable.Add(line.Amount)
		totals.TaxBands[idx].TaxAmount = totals.TaxBands[idx].TaxAmount.Add(line.TaxAmount)
	}
	totals.GrandTotal = totals.Subtotal.Add(totals.TaxTotal)
	return totals
}

// AddLine appends an empty line (quantity 1, rate 0) preselecting taxCodeID.
func (e *Engine) AddLine(form *invoicedomain.Form, taxCodeID string) *invoicedomain.LineItem {
	form.Lines = append(form.Lines, invoicedomain.LineItem{
		ID:        e.newLineID(),
		Quantity:  decimal.NewFromInt(1),
		Rate:      decimal.Zero,
		TaxCodeID: taxCodeID,
	})
	e.Recompute(form)
	return &form.Lines[len(form.Lines)-1]
}

func (e *Engine) RemoveLine(form *invoicedomain.Form, id string) error {
	for i := range form.Lines {
		if form.Lines[i].ID != id {
			continue
		}
		form.Lines = append(form.Lines[:i:i], form.Lines[i+1:]...)
		e.Recompute(form)
		return nil
	}
	return invoicedomain.ErrLineNotFound
}

// LinePatch carries the user-editable fields of a line; nil means unchanged.
type LinePatch struct {
	ProductName *string          `json:"product_name"`
	SKU         *string          `json:"sku"`
	Description *string          `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Rate        *decimal.Decimal `json:"rate"`
	TaxCodeID   *string          `json:"tax_code_id"`
}

func (e *Engine) UpdateLine(form *invoicedomain.Form, id string, patch LinePatch) error {
	line, ok := form.Line(id)
	if !ok {
		return invoicedomain.ErrLineNotFound
	}
	if patch.Quantity != nil && patch.Quantity.IsNegative() {
		return invoicedomain.ErrInvalidQuantity
	}
	if patch.Rate != nil && patch.Rate.IsNegative() {
		return invoicedomain.ErrInvalidRate
	}
	if patch.ProductName != nil {
		line.ProductName = *patch.ProductName
	}
	if patch.SKU != nil {
		line.SKU = *patch.SKU
	}
	if patch.Description != nil {
		line.Description = *patch.Description
	}
	if patch.Quantity != nil {
		line.Quantity = *patch.Quantity
	}
	if patch.Rate != nil {
		line.Rate = *patch.Rate
	}
	if patch.TaxCodeID != nil {
		line.TaxCodeID = strings.TrimSpace(*patch.TaxCodeID)
	}
	e.Recompute(form)
	return nil
}

// SelectItem copies catalog data onto a line. The catalog price replaces the
// rate (0 when the item has none); the item's sales tax code is adopted only
// when the line has no selection yet.
func (e *Engine) SelectItem(form *invoicedomain.Form, id string, item accountingdomain.Item) error {
	line, ok := form.Line(id)
	if !ok {
		return invoicedomain.ErrLineNotFound
	}
	line.ItemID = item.ID
	line.ProductName = item.Name
	line.SKU = item.Sku
	line.Description = item.Description
	line.Rate = decimal.Zero
	if item.UnitPrice != nil {
		line.Rate = *item.UnitPrice
	}
	if line.TaxCodeID == "" && item.SalesTaxCodeRef != nil {
		line.TaxCodeID = item.SalesTaxCodeRef.Value
	}
	e.Recompute(form)
	return nil
}

// SetTerms records the payment term and re-derives the due date when the term
// yields one. A term without a usable rule keeps the current due date.
func (e *Engine) SetTerms(form *invoicedomain.Form, term *accountingdomain.Term, name string) {
	form.TermID = ""
	form.Terms = strings.TrimSpace(name)
	if term != nil {
		form.TermID = term.ID
		if form.Terms == "" {
			form.Terms = term.Name
		}
	}
	if due, ok := DueDate(form.InvoiceDate, term, form.Terms); ok {
		form.DueDate = due
	}
	e.Recompute(form)
}

func (e *Engine) SetInvoiceDate(form *invoicedomain.Form, date invoicedomain.Date, term *accountingdomain.Term) {
	form.InvoiceDate = date
	if due, ok := DueDate(date, term, form.Terms); ok {
		form.DueDate = due
	}
	e.Recompute(form)
}

// Normalize prepares a posted form: missing line ids are assigned, blank tax
// type defaults to exclusive, the due date is derived from terms when absent,
// and totals are recomputed from scratch.
func (e *Engine) Normalize(form *invoicedomain.Form, term *accountingdomain.Term) {
	for i := range form.Lines {
		if strings.TrimSpace(form.Lines[i].ID) == "" {
			form.Lines[i].ID = e.newLineID()
		}
	}
	if form.TaxType == "" {
		form.TaxType = invoicedomain.TaxTypeExclusive
	}
	if form.Tags == nil {
		form.Tags = []string{}
	}
	if term != nil {
		form.TermID = term.ID
		if strings.TrimSpace(form.Terms) == "" {
			form.Terms = term.Name
		}
	}
	if form.DueDate.IsZero() {
		if due, ok := DueDate(form.InvoiceDate, term, form.Terms); ok {
			form.DueDate = due
		}
	}
	e.Recompute(form)
}

func (e *Engine) newLineID() string {
	if e.ids == nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return e.ids.Generate().String()
}

var trailingDays = regexp.MustCompile(`(\d+)\s*$`)

// DueDate derives the due date from payment terms: a fixed day offset, else a
// fixed day of the following month (clamped to that month's length), else a
// trailing integer in the term name ("Net 30") taken as days.
func DueDate(invoiceDate invoicedomain.Date, term *accountingdomain.Term, termsName string) (invoicedomain.Date, bool) {
	if invoiceDate.IsZero() {
		return invoicedomain.Date{}, false
	}
	if term != nil && term.DueDays != nil {
		return invoiceDate.AddDays(*term.DueDays), true
	}
	if term != nil && term.DayOfMonthDue != nil && *term.DayOfMonthDue > 0 {
		return dayOfNextMonth(invoiceDate, *term.DayOfMonthDue), true
	}
	name := strings.TrimSpace(termsName)
	if name == "" && term != nil {
		name = term.Name
	}
	match := trailingDays.FindStringSubmatch(name)
	if match == nil {
		return invoicedomain.Date{}, false
	}
	days, err := strconv.Atoi(match[1])
	if err != nil {
		return invoicedomain.Date{}, false
	}
	return invoiceDate.AddDays(days), true
}

func dayOfNextMonth(from invoicedomain.Date, day int) invoicedomain.Date {
	first := time.Date(from.Year(), from.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return invoicedomain.NewDate(first.Year(), first.Month(), day)
}
