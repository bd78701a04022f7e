// Package errors is the checkout error taxonomy. Every error that crosses
// the HTTP or activity boundary is an *AppError carrying a stable code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodePaymentFailed      = "PAYMENT_FAILED"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[string]int{
	CodeValidationError:    http.StatusBadRequest,
	CodeBadRequest:         http.StatusBadRequest,
	CodePaymentFailed:      http.StatusPaymentRequired,
	CodeNotFound:           http.StatusNotFound,
	CodeServiceUnavailable: http.StatusServiceUnavailable,
	CodeInternalError:      http.StatusInternalServerError,
}

// AppError is a coded failure with the HTTP status it renders as
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(e.Code)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail sets one detail entry
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// Wrap records cause as the underlying error
func (e *AppError) Wrap(cause error) *AppError {
	e.Err = cause
	return e
}

// NewAppError builds an error with an explicit status
func NewAppError(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func coded(code, message, fallback string) *AppError {
	if message == "" {
		message = fallback
	}
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return NewAppError(code, message, status)
}

// ErrValidation is a caller-fixable input failure; never retried.
func ErrValidation(message string) *AppError {
	return coded(CodeValidationError, message, "invalid input")
}

// ErrValidationWithFields attaches per-field messages
func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	err := ErrValidation(message)
	for field, msg := range fields {
		err.WithDetail(field, msg)
	}
	return err
}

// ErrRequiredField reports a missing or blank field
func ErrRequiredField(field string) *AppError {
	return ErrValidation(field+" is required").WithDetail("field", field)
}

// ErrPaymentFailed is raised by, or on behalf of, the gateway
func ErrPaymentFailed(message string) *AppError {
	return coded(CodePaymentFailed, message, "payment could not be completed")
}

func ErrNotFound(resource string) *AppError {
	return coded(CodeNotFound, resource+" not found", "")
}

// ErrNotFoundWithID is ErrNotFound with the missing id in details
func ErrNotFoundWithID(resource, id string) *AppError {
	return ErrNotFound(resource).WithDetail("id", id)
}

func ErrInternal(message string) *AppError {
	return coded(CodeInternalError, message, "an internal error occurred")
}

func ErrBadRequest(message string) *AppError {
	return coded(CodeBadRequest, message, "bad request")
}

func ErrServiceUnavailable(service string) *AppError {
	return coded(CodeServiceUnavailable, fmt.Sprintf("%s is temporarily unavailable", service), "")
}

// AsAppError finds the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsValidation(err error) bool     { return hasCode(err, CodeValidationError) }
func IsPaymentFailure(err error) bool { return hasCode(err, CodePaymentFailed) }
func IsNotFound(err error) bool       { return hasCode(err, CodeNotFound) }

// messageRules classify plain errors by message fragment, first match wins
var messageRules = []struct {
	fragments []string
	build     func(error) *AppError
}{
	{[]string{"not found"}, func(error) *AppError { return ErrNotFound("resource") }},
	{[]string{"invalid", "required"}, func(err error) *AppError { return ErrValidation(err.Error()) }},
	{[]string{"circuit breaker is open", "too many requests"}, func(error) *AppError { return ErrServiceUnavailable("payment gateway") }},
}

// MapDomainError turns any error into an AppError. AppErrors pass through
// unchanged; anything unrecognised becomes INTERNAL_ERROR.
func MapDomainError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(msg, fragment) {
				return rule.build(err).Wrap(err)
			}
		}
	}
	return ErrInternal("").Wrap(err)
}
