package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	accountingdomain "github.com/smallbiznis/invoicedesk/internal/accounting/domain"
	"github.com/smallbiznis/invoicedesk/internal/auth/oauth"
	customerdomain "github.com/smallbiznis/invoicedesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/invoicedesk/internal/invoice/domain"
	"github.com/smallbiznis/invoicedesk/internal/reference"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type           string            `json:"type"`
	Message        string            `json:"message"`
	UpstreamStatus int               `json:"upstream_status,omitempty"`
	Errors         []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{{Field: field, Code: code, Message: message}},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := domainValidationCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: invoicedomain.ValidationMessage(err),
			Errors: []ValidationError{{
				Field:   validationErrorField(code),
				Code:    code,
				Message: invoicedomain.ValidationMessage(err),
			}},
		}
	}

	var upstream *accountingdomain.UpstreamError
	var exchange *oauth.TokenExchangeError

	switch {
	case errors.Is(err, oauth.ErrCSRFMismatch):
		return http.StatusForbidden, errorPayload{
			Type:    "csrf_mismatch",
			Message: "login request could not be verified, please log in again",
		}
	case errors.Is(err, oauth.ErrMissingParameters):
		return http.StatusBadRequest, errorPayload{
			Type:    "missing_parameters",
			Message: "missing code or realmId",
		}
	case errors.As(err, &exchange):
		return http.StatusInternalServerError, errorPayload{
			Type:           "token_exchange_failed",
			Message:        "token exchange failed",
			UpstreamStatus: exchange.Status,
		}
	case errors.Is(err, oauth.ErrProviderNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "oauth provider not configured",
		}
	case errors.As(err, &upstream) && upstream.Reauthenticate():
		return http.StatusUnauthorized, errorPayload{
			Type:    "reauthenticate",
			Message: "authorization expired, please log in again",
		}
	case errors.As(err, &upstream):
		return http.StatusBadGateway, errorPayload{
			Type:           "upstream_error",
			Message:        upstream.Body,
			UpstreamStatus: upstream.Status,
		}
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, accountingdomain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}
	case errors.Is(err, invoicedomain.ErrInvoicePaid):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: invoicedomain.ValidationMessage(err),
		}
	case errors.Is(err, ErrNotFound),
		errors.Is(err, reference.ErrUnknownResource),
		errors.Is(err, invoicedomain.ErrLineNotFound),
		errors.Is(err, accountingdomain.ErrNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := &ValidationErrors{Errors: make([]ValidationError, 0, len(fieldErrs))}
		for _, fe := range fieldErrs {
			out.Errors = append(out.Errors, ValidationError{
				Field:   strings.ToLower(fe.Field()),
				Code:    fe.Tag(),
				Message: "invalid value",
			})
		}
		return out
	}
	return nil
}

func domainValidationCode(err error) (string, bool) {
	for _, target := range []error{
		ErrInvalidRequest,
		invoicedomain.ErrMissingCustomer,
		invoicedomain.ErrEmptyInvoice,
		invoicedomain.ErrMissingTaxSelection,
		invoicedomain.ErrInvalidQuantity,
		invoicedomain.ErrInvalidRate,
		invoicedomain.ErrRatePrecision,
		invoicedomain.ErrInvalidInvoiceID,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidEmail,
		accountingdomain.ErrInvalidQuery,
		accountingdomain.ErrInvalidResource,
	} {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func validationErrorField(code string) string {
	switch code {
	case invoicedomain.ErrMissingCustomer.Error():
		return "customer"
	case invoicedomain.ErrEmptyInvoice.Error(), invoicedomain.ErrMissingTaxSelection.Error():
		return "lines"
	case invoicedomain.ErrInvalidInvoiceID.Error():
		return "id"
	case invoicedomain.ErrRatePrecision.Error():
		return "rate"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return "request"
}

// classifyErrorForLog returns the error_type and error_code fields of the request log line.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server", payload.Type
	default:
		return "client", payload.Type
	}
}
