// Package format renders invoice values for display.
package format

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/tax"
)

const displayDateLayout = "02/01/2006"

// Money rounds to cents and groups thousands: Money(1234.5, "R") == "R1,234.50".
func Money(amount decimal.Decimal, symbol string) string {
	sign := ""
	if amount.Round(2).IsNegative() {
		sign = "-"
	}
	fixed := amount.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = humanize.Comma(n)
	}
	return sign + symbol + whole + "." + cents
}

// Date formats as dd/mm/yyyy; the zero date is empty.
func Date(d invoicedomain.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(displayDateLayout)
}

func Quantity(q decimal.Decimal) string {
	return q.String()
}

func Percent(rate decimal.Decimal) string {
	return tax.Percent(rate)
}

// NextDocNumber suggests the number for a new invoice: one more than the
// largest purely numeric existing number, or "1".
func NextDocNumber(existing []string) string {
	var max int64
	for _, value := range existing {
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil || n <= max {
			continue
		}
		max = n
	}
	return strconv.FormatInt(max+1, 10)
}
