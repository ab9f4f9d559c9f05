package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
)

const htmlContentType = "text/html; charset=utf-8"

func (s *Server) ListInvoices(c *gin.Context) {
	var req invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Search = strings.TrimSpace(req.Search)

	resp, err := s.invoiceSvc.List(c.Request.Context(), authFrom(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "summary": resp.Summary})
}

func (s *Server) InvoiceSummary(c *gin.Context) {
	summary, err := s.invoiceSvc.Summary(c.Request.Context(), authFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	item, err := s.invoiceSvc.Get(c.Request.Context(), authFrom(c), invoiceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) NewInvoiceForm(c *gin.Context) {
	form, err := s.invoiceSvc.NewForm(c.Request.Context(), authFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": form})
}

func (s *Server) EditInvoiceForm(c *gin.Context) {
	form, err := s.invoiceSvc.EditForm(c.Request.Context(), authFrom(c), invoiceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": form})
}

func (s *Server) ComputeInvoiceTotals(c *gin.Context) {
	form, ok := bindForm(c)
	if !ok {
		return
	}
	out, err := s.invoiceSvc.Totals(c.Request.Context(), authFrom(c), form)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) CreateInvoice(c *gin.Context) {
	form, ok := bindForm(c)
	if !ok {
		return
	}
	created, err := s.invoiceSvc.Create(c.Request.Context(), authFrom(c), form)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	form, ok := bindForm(c)
	if !ok {
		return
	}
	updated, err := s.invoiceSvc.Update(c.Request.Context(), authFrom(c), invoiceID(c), form)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

func (s *Server) PreviewInvoice(c *gin.Context) {
	form, ok := bindForm(c)
	if !ok {
		return
	}
	html, err := s.invoiceSvc.Preview(c.Request.Context(), authFrom(c), form)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, []byte(html))
}

func (s *Server) InvoiceReceipt(c *gin.Context) {
	html, err := s.invoiceSvc.Receipt(c.Request.Context(), authFrom(c), invoiceID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, []byte(html))
}

func (s *Server) InvoiceReceiptPDF(c *gin.Context) {
	id := invoiceID(c)
	doc, err := s.invoiceSvc.ReceiptPDF(c.Request.Context(), authFrom(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.DataFromReader(http.StatusOK, -1, "application/pdf", doc, map[string]string{
		"Content-Disposition": `inline; filename="receipt-` + id + `.pdf"`,
	})
}

func invoiceID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

func bindForm(c *gin.Context) (*invoicedomain.Form, bool) {
	var form invoicedomain.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		AbortWithError(c, invalidRequestError())
		return nil, false
	}
	return &form, true
}
