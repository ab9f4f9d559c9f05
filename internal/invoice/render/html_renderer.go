package render

import (
	"bytes"
	"html/template"

	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
)

const receiptHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Invoice #{{.DocNumber}} - Thermal Print</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: 'Courier New', monospace;
      font-size: 12px;
      line-height: 1.4;
      color: #000;
      background: #f0f0f0;
      padding: 20px;
      font-weight: 600;
    }
    .receipt {
      width: 80mm;
      max-width: 80mm;
      margin: 0 auto;
      background: white;
      padding: 10mm;
    }
    .center { text-align: center; }
    .bold { font-weight: bold; }
    .large { font-size: 14px; }
    .small { font-size: 11px; }
    .company-name { font-size: 24px; font-weight: bold; margin-bottom: 8px; }
    .section { margin: 12px 0; padding: 8px 0; border-top: 1px dashed #000; }
    .row, .item-row, .total-row { display: flex; justify-content: space-between; margin: 4px 0; }
    .row-label { font-weight: 700; }
    .item-header {
      font-weight: bold;
      display: flex;
      justify-content: space-between;
      border-bottom: 1px solid #000;
      padding-bottom: 4px;
      margin-bottom: 8px;
    }
    .item-desc { flex: 1; line-height: 1.3; }
    .item-amount { text-align: right; white-space: nowrap; margin-left: 8px; }
    .totals { border-top: 1px solid #000; padding-top: 8px; margin-top: 12px; }
    .balance-due {
      border-top: 2px solid #000;
      border-bottom: 2px solid #000;
      padding: 8px 0;
      margin: 12px 0;
      font-size: 14px;
      font-weight: bold;
    }
    .bank-details { background: #f5f5f5; padding: 8px; margin: 12px 0; border: 1px solid #ddd; }
    @media print {
      body { background: white; padding: 0; margin: 0; }
      .receipt { margin: 0; padding: 0; }
      @page { size: 80mm auto; margin: 0; }
    }
  </style>
</head>
<body>
  <div class="receipt">
    <div class="center">
      <div class="company-name">{{.Merchant.Name}}</div>
      {{range .Merchant.AddressLines}}<div class="small">{{.}}</div>
      {{end}}{{with .Merchant.Phone}}<div class="small">{{.}}</div>{{end}}
      {{with .Merchant.Email}}<div class="small">{{.}}</div>{{end}}
      {{with .Merchant.TaxNumber}}<div class="small">{{$.Merchant.TaxLabel}} No. {{.}}</div>{{end}}
    </div>

    <div class="section center">
      <div class="large bold">TAX INVOICE</div>
    </div>

    <div class="section">
      <div class="bold">BILL TO:</div>
      <div>{{.BillTo.Name}}</div>
      {{with .BillTo.CompanyName}}<div>{{.}}</div>{{end}}
      {{range .BillTo.AddressLines}}<div class="small">{{.}}</div>
      {{end}}{{with .BillTo.TaxNumber}}<div class="small">{{$.Merchant.TaxLabel}}: {{.}}</div>{{end}}
    </div>

    <div class="section">
      <div class="row"><span class="row-label">Invoice No:</span><span>{{.DocNumber}}</span></div>
      <div class="row"><span class="row-label">Date:</span><span>{{date .Date}}</span></div>
      <div class="row"><span class="row-label">Due Date:</span><span>{{date .DueDate}}</span></div>
      <div class="row"><span class="row-label">Terms:</span><span>{{.Terms}}</span></div>
    </div>

    <div class="section">
      <div class="item-header"><span>DESCRIPTION</span><span>AMOUNT</span></div>
      {{range .Lines}}
      <div class="item-row">
        <div class="item-desc">
          {{range $i, $text := .Description}}{{if $i}}<br>{{end}}{{$text}}{{end}}
          <div class="small">{{quantity .Quantity}} x {{money .UnitPrice $.Merchant.CurrencySymbol}}</div>
        </div>
        <div class="item-amount">{{money .Amount $.Merchant.CurrencySymbol}}</div>
      </div>
      {{end}}
    </div>

    <div class="totals">
      <div class="total-row"><span>SUBTOTAL:</span><span>{{money .Subtotal .Merchant.CurrencySymbol}}</span></div>
      {{range .TaxRows}}
      <div class="total-row"><span>{{$.Merchant.TaxLabel}} @ {{percent .Rate}}%:</span><span>{{money .Amount $.Merchant.CurrencySymbol}}</span></div>
      {{end}}
      <div class="total-row bold large"><span>TOTAL:</span><span>{{money .Total .Merchant.CurrencySymbol}}</span></div>
    </div>

    <div class="balance-due center">
      <div class="row"><span>BALANCE DUE:</span><span>{{money .BalanceDue .Merchant.CurrencySymbol}}</span></div>
    </div>

    {{if .Merchant.PaymentLines}}
    <div class="bank-details center">
      <div class="bold">PAYMENT DETAILS</div>
      {{range .Merchant.PaymentLines}}<div class="small">{{.}}</div>
      {{end}}
    </div>
    {{end}}

    {{with .Merchant.Footer}}<div class="center small" style="margin-top: 16px;">{{.}}</div>{{end}}
  </div>
  {{if .AutoPrint}}<script>window.onload = function() { window.print(); };</script>{{end}}
</body>
</html>
`

type Renderer interface {
	RenderHTML(input ReceiptInput) (string, error)
}

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"money":    format.Money,
		"date":     format.Date,
		"quantity": format.Quantity,
		"percent":  format.Percent,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("receipt").Funcs(funcs).Parse(receiptHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input ReceiptInput) (string, error) {
	if input.Merchant.TaxLabel == "" {
		input.Merchant.TaxLabel = "VAT"
	}
	if input.BillTo.Name == "" {
		input.BillTo.Name = unknownCustomer
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}
