package pdf

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	"github.com/smallbiznis/invoicedesk/internal/invoice/render"
)

// Thermal roll: 80mm wide, 3mm margins. Height grows with the content up to one long page.
const (
	pageWidth  = 80
	pageHeight = 600
	margin     = 3
	rowHeight  = 4
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, input render.ReceiptInput) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithDimensions(pageWidth, pageHeight).
		WithLeftMargin(margin).
		WithRightMargin(margin).
		WithTopMargin(margin).
		Build()

	m := maroto.New(cfg)
	symbol := input.Merchant.CurrencySymbol
	label := input.Merchant.TaxLabel
	if label == "" {
		label = "VAT"
	}

	m.AddRow(9, centered(input.Merchant.Name, 14, fontstyle.Bold))
	for _, line := range input.Merchant.AddressLines {
		m.AddRow(rowHeight, centered(line, 7, fontstyle.Normal))
	}
	for _, line := range []string{input.Merchant.Phone, input.Merchant.Email} {
		if strings.TrimSpace(line) != "" {
			m.AddRow(rowHeight, centered(line, 7, fontstyle.Normal))
		}
	}
	if input.Merchant.TaxNumber != "" {
		m.AddRow(rowHeight, centered(label+" No. "+input.Merchant.TaxNumber, 7, fontstyle.Normal))
	}

	m.AddRow(8, centered("TAX INVOICE", 10, fontstyle.Bold))

	m.AddRow(5, text.NewCol(12, "BILL TO:", props.Text{Size: 8, Style: fontstyle.Bold, Top: 1}))
	m.AddRow(rowHeight, text.NewCol(12, input.BillTo.Name, props.Text{Size: 8}))
	if input.BillTo.CompanyName != "" {
		m.AddRow(rowHeight, text.NewCol(12, input.BillTo.CompanyName, props.Text{Size: 8}))
	}
	for _, line := range input.BillTo.AddressLines {
		m.AddRow(rowHeight, text.NewCol(12, line, props.Text{Size: 7}))
	}
	if input.BillTo.TaxNumber != "" {
		m.AddRow(rowHeight, text.NewCol(12, label+": "+input.BillTo.TaxNumber, props.Text{Size: 7}))
	}

	m.AddRow(2)
	m.AddRow(rowHeight, pair("Invoice No:", input.DocNumber, fontstyle.Normal)...)
	m.AddRow(rowHeight, pair("Date:", format.Date(input.Date), fontstyle.Normal)...)
	m.AddRow(rowHeight, pair("Due Date:", format.Date(input.DueDate), fontstyle.Normal)...)
	m.AddRow(rowHeight, pair("Terms:", input.Terms, fontstyle.Normal)...)

	m.AddRow(3)
	m.AddRow(5, pair("DESCRIPTION", "AMOUNT", fontstyle.Bold)...)
	for _, line := range input.Lines {
		description := strings.Join(line.Description, " - ")
		m.AddRow(rowHeight, pair(description, format.Money(line.Amount, symbol), fontstyle.Normal)...)
		m.AddRow(rowHeight, text.NewCol(12,
			format.Quantity(line.Quantity)+" x "+format.Money(line.UnitPrice, symbol),
			props.Text{Size: 6}))
	}

	m.AddRow(3)
	m.AddRow(rowHeight, pair("SUBTOTAL:", format.Money(input.Subtotal, symbol), fontstyle.Normal)...)
	for _, row := range input.TaxRows {
		m.AddRow(rowHeight, pair(label+" @ "+format.Percent(row.Rate)+"%:", format.Money(row.Amount, symbol), fontstyle.Normal)...)
	}
	m.AddRow(5, pair("TOTAL:", format.Money(input.Total, symbol), fontstyle.Bold)...)
	m.AddRow(7, pair("BALANCE DUE:", format.Money(input.BalanceDue, symbol), fontstyle.Bold)...)

	if len(input.Merchant.PaymentLines) > 0 {
		m.AddRow(5, centered("PAYMENT DETAILS", 8, fontstyle.Bold))
		for _, line := range input.Merchant.PaymentLines {
			m.AddRow(rowHeight, centered(line, 7, fontstyle.Normal))
		}
	}
	if input.Merchant.Footer != "" {
		m.AddRow(8, centered(input.Merchant.Footer, 7, fontstyle.Normal))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func centered(value string, size float64, style fontstyle.Type) core.Col {
	return text.NewCol(12, value, props.Text{Size: size, Style: style, Align: align.Center})
}

func pair(label, value string, style fontstyle.Type) []core.Col {
	return []core.Col{
		col.New(8).Add(text.New(label, props.Text{Size: 8, Style: style})),
		text.NewCol(4, value, props.Text{Size: 8, Style: style, Align: align.Right}),
	}
}
