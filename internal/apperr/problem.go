package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	typeBadRequest   = "https://tools.ietf.org/html/rfc7231#section-6.5.1"
	typeNotFound     = "https://tools.ietf.org/html/rfc7231#section-6.5.4"
	typeUnauthorized = "https://tools.ietf.org/html/rfc7235#section-3.1"
	typeForbidden    = "https://tools.ietf.org/html/rfc7231#section-6.5.3"
	typeInternal     = "https://tools.ietf.org/html/rfc7231#section-6.6.1"
)

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type     string              `json:"type"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

// BindError wraps a request body or query that could not be bound.
type BindError struct {
	Err error
}

func (e *BindError) Error() string { return e.Err.Error() }
func (e *BindError) Unwrap() error { return e.Err }

// Known reports whether err maps to a 4xx problem.
func Known(err error) bool {
	var bind *BindError
	return IsValidation(err) || IsNotFound(err) || IsUnauthorized(err) || IsForbidden(err) || errors.As(err, &bind)
}

// ProblemFor maps err to its problem details. Unknown errors never leak
// their message.
func ProblemFor(err error, instance string) Problem {
	var (
		validation   *ValidationError
		bind         *BindError
		notFound     *NotFoundError
		unauthorized *UnauthorizedError
		forbidden    *ForbiddenError
	)

	switch {
	case errors.As(err, &validation):
		return Problem{
			Type:     typeBadRequest,
			Title:    "Validation error occurred.",
			Status:   http.StatusBadRequest,
			Detail:   validation.Error(),
			Instance: instance,
			Errors:   validation.Errors,
		}
	case errors.As(err, &bind):
		return Problem{
			Type:     typeBadRequest,
			Title:    "Invalid model state.",
			Status:   http.StatusBadRequest,
			Detail:   defaultValidationMessage,
			Instance: instance,
			Errors:   bindErrors(bind.Err),
		}
	case errors.As(err, &notFound):
		return Problem{
			Type:     typeNotFound,
			Title:    "The specified resource was not found.",
			Status:   http.StatusNotFound,
			Detail:   notFound.Error(),
			Instance: instance,
		}
	case errors.As(err, &unauthorized):
		return Problem{
			Type:     typeUnauthorized,
			Title:    "Unauthorized",
			Status:   http.StatusUnauthorized,
			Detail:   unauthorized.Error(),
			Instance: instance,
		}
	case errors.As(err, &forbidden):
		return Problem{
			Type:     typeForbidden,
			Title:    "Forbidden",
			Status:   http.StatusForbidden,
			Detail:   forbidden.Error(),
			Instance: instance,
		}
	}

	return Problem{
		Type:     typeInternal,
		Title:    "An error occurred while processing your request.",
		Status:   http.StatusInternalServerError,
		Instance: instance,
	}
}

func bindErrors(err error) map[string][]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string][]string{"request": {err.Error()}}
	}

	out := make(map[string][]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = append(out[fe.Field()], fmt.Sprintf("The %s field failed the '%s' rule.", fe.Field(), fe.Tag()))
	}
	return out
}
