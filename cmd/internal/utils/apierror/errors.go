package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

var (
	MalformedJSONError  = NewSimple(400, "Malformed JSON body")
	InternalServerError = NewSimple(500, "Internal server error")

	NotFoundError        = NewSimple(404, "Resource not found")
	InvalidIDError       = NewSimple(400, "The provided ID is invalid, IDs are usually int64 > 0")
	InvalidAuthError     = NewSimple(401, "Invalid or expired authentication token")
	CredentialsError     = NewSimple(401, "Login and password do not match")
	InactiveAccountError = NewSimple(403, "This account has been deactivated")
	InvalidPeriodError   = NewSimple(400, "Period must be in the YYYY-MM format with month 01-12")
)

/*
 * Validation (400): malformed input, recoverable by correcting the request.
 */

func NewValidationError(msg string, args ...any) *APIError {
	return NewSimple(http.StatusBadRequest, msg, args...)
}

/*
 * Not found (404): a referenced entity is absent.
 */

func NewNotFoundError(kind string, id int64) *APIError {
	return NewSimple(http.StatusNotFound, "%s %d not found", kind, id)
}

/*
 * Conflict (409): concurrent modification detected; retry with fresh state.
 */

func NewConflictError(msg string, args ...any) *APIError {
	return NewSimple(http.StatusConflict, msg, args...)
}

/*
 * Business rule (422): the request is well-formed but the domain forbids it.
 */

func NewBusinessRuleError(msg string, args ...any) *APIError {
	return NewSimple(http.StatusUnprocessableEntity, msg, args...)
}

func NewForbiddenError(msg string) *APIError {
	return NewSimple(http.StatusForbidden, msg)
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return NewSimple(http.StatusBadRequest, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	ok := errors.As(err, &ve)
	if !ok {
		return nil
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too short, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		case "oneof":
			problems[field] = append(problems[field], "Value must be one of: "+fe.Param())
		case "periodo":
			problems[field] = append(problems[field], "Value must be a period in the YYYY-MM format")
		case "nodupes":
			problems[field] = append(problems[field], "Values must not repeat")
		case "gt":
			problems[field] = append(problems[field], "Value must be greater than "+fe.Param())

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}
