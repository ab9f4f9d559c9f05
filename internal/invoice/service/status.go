package service

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

// StatusOf classifies a remote invoice: zero balance is paid, a due date before
// today is overdue, anything else unpaid. An unparsable due date is never overdue.
func StatusOf(inv accountingdomain.Invoice, today invoicedomain.Date) invoicedomain.Status {
	if inv.Paid() {
		return invoicedomain.StatusPaid
	}
	due, err := invoicedomain.ParseDate(inv.DueDate)
	if err == nil && !due.IsZero() && due.Before(today) {
		return invoicedomain.StatusOverdue
	}
	return invoicedomain.StatusUnpaid
}

func Annotate(invoices []accountingdomain.Invoice, today invoicedomain.Date) []invoicedomain.ListItem {
	return lo.Map(invoices, func(inv accountingdomain.Invoice, _ int) invoicedomain.ListItem {
		return invoicedomain.ListItem{Invoice: inv, Status: StatusOf(inv, today)}
	})
}

// Summarize buckets balances by status. Paid sums invoice totals, deposited
// sums deposits regardless of status.
func Summarize(invoices []accountingdomain.Invoice, today invoicedomain.Date) invoicedomain.Summary {
	summary := invoicedomain.Summary{
		Overdue:   decimal.Zero,
		NotDueYet: decimal.Zero,
		Paid:      decimal.Zero,
		Deposited: decimal.Zero,
		Count:     len(invoices),
	}
	for _, inv := range invoices {
		switch StatusOf(inv, today) {
		case invoicedomain.StatusOverdue:
			summary.Overdue = summary.Overdue.Add(inv.Balance)
		case invoicedomain.StatusUnpaid:
			summary.NotDueYet = summary.NotDueYet.Add(inv.Balance)
		case invoicedomain.StatusPaid:
			summary.Paid = summary.Paid.Add(inv.TotalAmt)
		}
		if inv.Deposit.IsPositive() {
			summary.Deposited = summary.Deposited.Add(inv.Deposit)
		}
	}
	return summary
}

// FilterByStatus keeps items with the given status; an empty or "all" status keeps everything.
func FilterByStatus(items []invoicedomain.ListItem, status string) []invoicedomain.ListItem {
	if status == "" || status == "all" {
		return items
	}
	return lo.Filter(items, func(item invoicedomain.ListItem, _ int) bool {
		return string(item.Status) == status
	})
}
