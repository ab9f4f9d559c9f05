package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicedesk/internal/accounting"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	"github.com/smallbiznis/invoicedesk/internal/clock"
	"github.com/smallbiznis/invoicedesk/internal/config"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/invoice/format"
	"github.com/smallbiznis/invoicedesk/internal/invoice/render"
	"github.com/smallbiznis/invoicedesk/internal/observability/metrics"
	"github.com/smallbiznis/invoicedesk/internal/providers/pdf"
	"github.com/smallbiznis/invoicedesk/internal/reference"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const listQuery = "SELECT * FROM Invoice ORDERBY TxnDate DESC MAXRESULTS 1000"

type ServiceParam struct {
	fx.In

	Client   accounting.Client
	Registry *reference.Registry
	Renderer render.Renderer
	PDF      pdf.Provider
	Merchant *config.MerchantProfileHolder
	GenID    *snowflake.Node
	Clock    clock.Clock `optional:"true"`
	Log      *zap.Logger
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	client   accounting.Client
	registry *reference.Registry
	renderer render.Renderer
	pdf      pdf.Provider
	merchant *config.MerchantProfileHolder
	genID    *snowflake.Node
	log      *zap.Logger
	metrics  *metrics.Metrics
	validate *validator.Validate
	clock    clock.Clock
}

func NewService(p ServiceParam) invoicedomain.Service {
	if p.Clock == nil {
		p.Clock = clock.System(nil)
	}
	return &Service{
		client:   p.Client,
		registry: p.Registry,
		renderer: p.Renderer,
		pdf:      p.PDF,
		merchant: p.Merchant,
		genID:    p.GenID,
		log:      p.Log.Named("invoice.service"),
		metrics:  p.Metrics,
		validate: validator.New(),
		clock:    p.Clock,
	}
}

func (s *Service) today() invoicedomain.Date {
	return invoicedomain.DateOf(s.clock.Now())
}

func (s *Service) List(ctx context.Context, auth accounting.Auth, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	invoices, err := s.fetchAll(ctx, auth)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	search := strings.ToLower(strings.TrimSpace(req.Search))
	if search != "" {
		invoices = lo.Filter(invoices, func(inv accountingdomain.Invoice, _ int) bool {
			return strings.Contains(strings.ToLower(inv.DocNumber), search) ||
				strings.Contains(strings.ToLower(inv.CustomerRef.Name), search)
		})
	}

	today := s.today()
	items := FilterByStatus(Annotate(invoices, today), req.Status)
	visible := lo.Map(items, func(item invoicedomain.ListItem, _ int) accountingdomain.Invoice {
		return item.Invoice
	})
	return invoicedomain.ListInvoiceResponse{
		Invoices: items,
		Summary:  Summarize(visible, today),
	}, nil
}

func (s *Service) Summary(ctx context.Context, auth accounting.Auth) (invoicedomain.Summary, error) {
	invoices, err := s.fetchAll(ctx, auth)
	if err != nil {
		return invoicedomain.Summary{}, err
	}
	return Summarize(invoices, s.today()), nil
}

func (s *Service) fetchAll(ctx context.Context, auth accounting.Auth) ([]accountingdomain.Invoice, error) {
	raw, err := s.client.Query(ctx, auth, listQuery)
	if err != nil {
		return nil, err
	}
	return accountingdomain.DecodeQuery[accountingdomain.Invoice](raw, accountingdomain.ResourceInvoice)
}

func (s *Service) Get(ctx context.Context, auth accounting.Auth, id string) (accountingdomain.Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accountingdomain.Invoice{}, invoicedomain.ErrInvalidInvoiceID
	}
	raw, err := s.client.Read(ctx, auth, accountingdomain.ResourceInvoice, id)
	if err != nil {
		return accountingdomain.Invoice{}, err
	}
	inv, err := accountingdomain.DecodeEntity[accountingdomain.Invoice](raw, accountingdomain.ResourceInvoice)
	if err != nil {
		return accountingdomain.Invoice{}, err
	}
	return *inv, nil
}

func (s *Service) NewForm(ctx context.Context, auth accounting.Auth) (*invoicedomain.Form, error) {
	tenant := s.registry.For(auth)
	resolver, err := tenant.TaxResolver(ctx, auth)
	if err != nil {
		return nil, err
	}
	invoices, err := s.fetchAll(ctx, auth)
	if err != nil {
		return nil, err
	}

	merchant := s.merchant.Get()
	form := &invoicedomain.Form{
		DocNumber: format.NextDocNumber(lo.Map(invoices, func(inv accountingdomain.Invoice, _ int) string {
			return inv.DocNumber
		})),
		InvoiceDate:    s.today(),
		Tags:           []string{},
		TaxType:        invoicedomain.TaxTypeExclusive,
		NoteToCustomer: merchant.DefaultNote,
	}

	engine := NewEngine(resolver, s.genID)
	term := s.findTerm(ctx, tenant, auth, "", merchant.DefaultTerms)
	engine.SetTerms(form, term, merchant.DefaultTerms)

	defaultCode := ""
	if code, ok := resolver.DefaultCode(); ok {
		defaultCode = code.ID
	}
	engine.AddLine(form, defaultCode)
	return form, nil
}

func (s *Service) EditForm(ctx context.Context, auth accounting.Auth, id string) (*invoicedomain.Form, error) {
	remote, err := s.Get(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	if remote.Paid() {
		return nil, invoicedomain.ErrInvoicePaid
	}
	resolver, err := s.registry.For(auth).TaxResolver(ctx, auth)
	if err != nil {
		return nil, err
	}
	form := FormFromRemote(remote, s.merchant.Get().DefaultTerms)
	NewEngine(resolver, s.genID).Recompute(form)
	return form, nil
}

func (s *Service) Totals(ctx context.Context, auth accounting.Auth, form *invoicedomain.Form) (*invoicedomain.Form, error) {
	if err := s.prepare(ctx, auth, form); err != nil {
		return nil, err
	}
	return form, nil
}

// prepare validates structure, then normalizes and recomputes the form against
// the tenant's tax data.
func (s *Service) prepare(ctx context.Context, auth accounting.Auth, form *invoicedomain.Form) error {
	if form == nil {
		return invoicedomain.ErrEmptyInvoice
	}
	if err := s.validate.Struct(form); err != nil {
		return err
	}
	if err := validateAmounts(form); err != nil {
		return err
	}
	tenant := s.registry.For(auth)
	resolver, err := tenant.TaxResolver(ctx, auth)
	if err != nil {
		return err
	}
	term := s.findTerm(ctx, tenant, auth, form.TermID, form.Terms)
	NewEngine(resolver, s.genID).Normalize(form, term)
	return nil
}

func (s *Service) Create(ctx context.Context, auth accounting.Auth, form *invoicedomain.Form) (accountingdomain.Invoice, error) {
	if err := ValidateForSubmit(form); err != nil {
		return accountingdomain.Invoice{}, err
	}
	if err := s.prepare(ctx, auth, form); err != nil {
		return accountingdomain.Invoice{}, err
	}

	raw, err := s.client.Create(ctx, auth, accountingdomain.ResourceInvoice, BuildPayload(form))
	if err != nil {
		return accountingdomain.Invoice{}, err
	}
	created, err := accountingdomain.DecodeEntity[accountingdomain.Invoice](raw, accountingdomain.ResourceInvoice)
	if err != nil {
		return accountingdomain.Invoice{}, err
	}
	s.log.Info("invoice created",
		zap.String("invoice_id", created.ID),
		zap.String("doc_number", created.DocNumber),
		zap.Int("lines", len(form.Lines)),
		zap.String("grand_total", form.Totals.GrandTotal.StringFixed(2)),
	)
	return *created, nil
}

func (s *Service) Update(ctx context.Context, auth accounting.Auth, id string, form *invoicedomain.Form) (accountingdomain.Invoice, error) {
	if err := ValidateForSubmit(form); err != nil {
		return accountingdomain.Invoice{}, err
	}
	remote, err := s.Get(ctx, auth, id)
	if err != nil {
		return accountingdomain.Invoice{}, err
	}
	if remote.Paid() {
		return accountingdomain.Invoice{}, invoicedomain.ErrInvoicePaid
	}
	if err := s.prepare(ctx, auth, form); err != nil {
		return accountingdomain.Invoice{}, err
	}

	raw, err := s.client.Update(ctx, auth, accountingdomain.ResourceInvoice, BuildUpdatePayload(form, remote))
	if err != nil {
		return accountingdomain.Invoice{}, err
	}
	updated, err := accountingdomain.DecodeEntity[accountingdomain.Invoice](raw, accountingdomain.ResourceInvoice)
	if err != nil {
		return accountingdomain.Invoice{}, err
	}
	s.log.Info("invoice updated",
		zap.String("invoice_id", updated.ID),
		zap.String("sync_token", updated.SyncToken),
	)
	return *updated, nil
}

func (s *Service) Preview(ctx context.Context, auth accounting.Auth, form *invoicedomain.Form) (string, error) {
	if err := s.prepare(ctx, auth, form); err != nil {
		return "", err
	}
	var customer *accountingdomain.Customer
	if form.Customer != nil {
		customer = s.findCustomer(ctx, auth, form.Customer.Value)
	}
	input := render.FromForm(form, customer, s.merchant.Get())
	return s.renderHTML(ctx, input)
}

func (s *Service) Receipt(ctx context.Context, auth accounting.Auth, id string) (string, error) {
	input, err := s.remoteReceipt(ctx, auth, id)
	if err != nil {
		return "", err
	}
	return s.renderHTML(ctx, input)
}

func (s *Service) ReceiptPDF(ctx context.Context, auth accounting.Auth, id string) (io.Reader, error) {
	input, err := s.remoteReceipt(ctx, auth, id)
	if err != nil {
		return nil, err
	}
	input.AutoPrint = false
	doc, err := s.pdf.GenerateReceipt(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	s.metrics.RecordReceiptRendered(ctx, "pdf")
	return doc, nil
}

func (s *Service) renderHTML(ctx context.Context, input render.ReceiptInput) (string, error) {
	html, err := s.renderer.RenderHTML(input)
	if err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	s.metrics.RecordReceiptRendered(ctx, "html")
	return html, nil
}

// remoteReceipt recomputes a stored invoice through the totals engine so the
// receipt's tax rows match what the form would have shown. The balance due is
// the remote balance, which reflects payments.
func (s *Service) remoteReceipt(ctx context.Context, auth accounting.Auth, id string) (render.ReceiptInput, error) {
	remote, err := s.Get(ctx, auth, id)
	if err != nil {
		return render.ReceiptInput{}, err
	}
	resolver, err := s.registry.For(auth).TaxResolver(ctx, auth)
	if err != nil {
		return render.ReceiptInput{}, err
	}
	merchant := s.merchant.Get()
	form := FormFromRemote(remote, merchant.DefaultTerms)
	NewEngine(resolver, s.genID).Recompute(form)

	customer := s.findCustomer(ctx, auth, remote.CustomerRef.Value)
	input := render.FromForm(form, customer, merchant)
	if customer != nil && customer.BillAddr == nil && remote.BillAddr != nil {
		input.BillTo.AddressLines = remote.BillAddr.Lines()
	}
	input.BalanceDue = remote.Balance
	return input, nil
}

// findCustomer resolves display data for the bill-to block. A lookup failure
// degrades to the name on the invoice reference.
func (s *Service) findCustomer(ctx context.Context, auth accounting.Auth, id string) *accountingdomain.Customer {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	customers := s.registry.For(auth).Customers
	if _, err := customers.Fetch(ctx, auth); err != nil {
		s.log.Warn("customer lookup failed", zap.String("customer_id", id), zap.Error(err))
		return nil
	}
	customer, ok := customers.Find(id)
	if !ok {
		return nil
	}
	return &customer
}

// findTerm matches by id, then by case-insensitive name. Failures to load terms
// leave the due date to the trailing-number rule.
func (s *Service) findTerm(ctx context.Context, tenant *reference.Tenant, auth accounting.Auth, id, name string) *accountingdomain.Term {
	terms, err := tenant.Terms.Fetch(ctx, auth)
	if err != nil {
		s.log.Warn("terms lookup failed", zap.Error(err))
		return nil
	}
	if id = strings.TrimSpace(id); id != "" {
		if term, ok := lo.Find(terms, func(t accountingdomain.Term) bool { return t.ID == id }); ok {
			return &term
		}
	}
	if name = strings.TrimSpace(name); name != "" {
		if term, ok := lo.Find(terms, func(t accountingdomain.Term) bool { return strings.EqualFold(t.Name, name) }); ok {
			return &term
		}
	}
	return nil
}

// FormFromRemote maps a stored invoice back onto the form model. Only sales
// item lines are carried over.
func FormFromRemote(remote accountingdomain.Invoice, defaultTerms string) *invoicedomain.Form {
	form := &invoicedomain.Form{
		ID:        remote.ID,
		Customer:  &accountingdomain.Ref{Value: remote.CustomerRef.Value, Name: remote.CustomerRef.Name},
		DocNumber: remote.DocNumber,
		Terms:     remote.TermsName(defaultTerms),
		Tags:      []string{},
		TaxType:   invoicedomain.TaxTypeExclusive,
		Lines:     make([]invoicedomain.LineItem, 0, len(remote.Line)),
	}
	form.InvoiceDate, _ = invoicedomain.ParseDate(remote.TxnDate)
	form.DueDate, _ = invoicedomain.ParseDate(remote.DueDate)
	if remote.SalesTermRef != nil {
		form.TermID = remote.SalesTermRef.Value
	}
	if remote.CustomerMemo != nil {
		form.NoteToCustomer = remote.CustomerMemo.Value
	}
	form.MemoOnStatement = remote.PrivateNote

	for _, line := range remote.SalesLines() {
		detail := line.SalesItemLineDetail
		item := invoicedomain.LineItem{
			ID:          line.ID,
			Description: line.Description,
			Quantity:    decimal.NewFromInt(1),
			Rate:        line.Amount,
		}
		if detail.ItemRef != nil {
			item.ItemID = detail.ItemRef.Value
			item.ProductName = detail.ItemRef.Name
		}
		if detail.Qty != nil {
			item.Quantity = *detail.Qty
		}
		if detail.UnitPrice != nil {
			item.Rate = *detail.UnitPrice
		}
		if detail.TaxCodeRef != nil {
			item.TaxCodeID = detail.TaxCodeRef.Value
		}
		form.Lines = append(form.Lines, item)
	}
	return form
}
