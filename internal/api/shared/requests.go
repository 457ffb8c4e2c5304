package shared

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lexis-api/internal/domain"
)

// Global validator instance for reuse
var validate = validator.New()

// IntQueryParam reads an optional integer query parameter. It returns nil
// when the parameter is absent or empty, and domain.ErrInvalidQueryParams
// when it is not an integer.
func IntQueryParam(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", domain.ErrInvalidQueryParams, name, raw)
	}
	return &v, nil
}

// IntQueryParamOr is IntQueryParam with a default for a missing parameter.
func IntQueryParamOr(r *http.Request, name string, def int) (int, error) {
	v, err := IntQueryParam(r, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}

// ValidateRequest validates v with its `validate` struct tags. Failures are
// returned as *domain.ValidationError naming the first offending field.
func ValidateRequest(v interface{}) error {
	if custom, ok := v.(interface{ Validate() error }); ok {
		return custom.Validate()
	}

	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(jsonName(fe), validationTagMessage(fe.Tag(), fe.Param()), domain.ErrValidation)
	}
	return domain.NewValidationError("", "invalid request", domain.ErrValidation)
}

// jsonName prefers the query or JSON name recorded in the field's tags.
func jsonName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// validationTagMessage maps validation tags to user-friendly error messages
func validationTagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + param
	case "lte":
		return "must be at most " + param
	case "max":
		return "is too long"
	case "oneof":
		return "has an invalid value"
	default:
		return "is invalid"
	}
}
