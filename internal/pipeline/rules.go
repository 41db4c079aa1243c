package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
)

// NewValidator returns a validator that compares decimal amounts by value, so
// numeric tags like gt=0 apply to them.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return v
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

// Rules runs the `validate` struct tags of a request. Each violated tag
// becomes a failure on the field it sits on.
func Rules[Req any](v *validator.Validate) Validator[Req] {
	if v == nil {
		v = NewValidator()
	}
	return ValidatorFunc[Req](func(_ context.Context, req Req) ([]apperr.Failure, error) {
		err := v.Struct(req)
		if err == nil {
			return nil, nil
		}

		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}

		failures := make([]apperr.Failure, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			failures = append(failures, apperr.Failure{Property: fe.Field(), Message: ruleMessage(fe)})
		}
		return failures, nil
	})
}

func ruleMessage(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters.", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s.", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s.", field, param)
	case "gtfield":
		return fmt.Sprintf("%s must be after %s.", field, param)
	case "email":
		return fmt.Sprintf("%s is not a valid email address.", field)
	}
	return fmt.Sprintf("%s failed the '%s' rule.", field, fe.Tag())
}
