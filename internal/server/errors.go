package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/clubos/internal/auth/domain"
	"github.com/smallbiznis/clubos/internal/authorization"
	bookingdomain "github.com/smallbiznis/clubos/internal/booking/domain"
	leaddomain "github.com/smallbiznis/clubos/internal/lead/domain"
	paymentdomain "github.com/smallbiznis/clubos/internal/payment/domain"
)

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrRateLimited    = errors.New("rate_limited")
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors is returned by handlers that check input before calling a service.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// errorClass is one row of the status table. The first matching row wins.
type errorClass struct {
	targets []error
	status  int
	typ     string
	message string
}

var errorClasses = []errorClass{
	{
		targets: []error{authorization.ErrGuardMisconfigured, authdomain.ErrVerifierMisconfigured, paymentdomain.ErrWebhookSecretMissing},
		status:  http.StatusInternalServerError,
		typ:     "misconfigured",
		message: "server is not configured for this request",
	},
	{
		targets: []error{authorization.ErrUnauthorized, authdomain.ErrInvalidCredential},
		status:  http.StatusUnauthorized,
		typ:     "unauthorized",
		message: "unauthorized",
	},
	{
		targets: []error{authorization.ErrForbidden},
		status:  http.StatusForbidden,
		typ:     "forbidden",
		message: "forbidden",
	},
	{
		targets: []error{authdomain.ErrDependencyUnavailable},
		status:  http.StatusInternalServerError,
		typ:     "dependency_unavailable",
		message: "a required service is unavailable",
	},
	{
		targets: []error{leaddomain.ErrDuplicate},
		status:  http.StatusConflict,
		typ:     "conflict",
		message: "lead already exists",
	},
	{
		targets: []error{ErrNotFound, bookingdomain.ErrNotFound, paymentdomain.ErrProviderNotFound},
		status:  http.StatusNotFound,
		typ:     "not_found",
		message: "not found",
	},
	{
		targets: []error{ErrRateLimited},
		status:  http.StatusTooManyRequests,
		typ:     "rate_limited",
		message: "too many requests",
	},
}

// Sentinel input errors and the field each one reports.
var inputErrors = []struct {
	err     error
	field   string
	code    string
	message string
}{
	{ErrInvalidRequest, "request", "invalid_request", "invalid request"},
	{paymentdomain.ErrInvalidSignature, "signature", "invalid_signature", "webhook signature verification failed"},
	{bookingdomain.ErrInvalidID, "booking_id", "invalid_id", "invalid value"},
	{leaddomain.ErrInvalidName, "name", "invalid_name", "invalid value"},
	{leaddomain.ErrInvalidEmail, "email", "invalid_email", "invalid value"},
	{leaddomain.ErrInvalidFacility, "facility_name", "invalid_facility_name", "invalid value"},
	{leaddomain.ErrInvalidPageToken, "page_token", "invalid_page_token", "invalid value"},
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		status, payload := mapError(last.Err)
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
	return &ValidationErrors{Errors: []ValidationError{{Field: field, Code: code, Message: message}}}
}

func mapError(err error) (int, errorPayload) {
	if fields := validationFields(err); len(fields) > 0 {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fields,
		}
	}

	if err != nil {
		for _, class := range errorClasses {
			if matchesAny(err, class.targets) {
				return class.status, errorPayload{Type: class.typ, Message: class.message}
			}
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// classifyErrorForLog reports the response type and status the request logger attaches.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	return payload.Type, http.StatusText(status)
}

func validationFields(err error) []ValidationError {
	if err == nil {
		return nil
	}

	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr.Errors
	}

	for _, input := range inputErrors {
		if errors.Is(err, input.err) {
			return []ValidationError{{Field: input.field, Code: input.code, Message: input.message}}
		}
	}
	return nil
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
