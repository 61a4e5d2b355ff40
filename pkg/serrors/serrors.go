package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// BaseError is the structured error carried across service boundaries.
// Code is stable and machine-matchable; LocaleKey is resolved by the
// presentation layer.
type BaseError struct {
	Code         string
	Message      string
	LocaleKey    string
	TemplateData map[string]string
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BaseError) WithTemplateData(data map[string]string) *BaseError {
	e.TemplateData = data
	return e
}

// Is matches on Code so sentinel errors survive wrapping.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

type ValidationErrors map[string]*BaseError

func NewFieldRequiredError(field, localeKey string) *BaseError {
	return &BaseError{
		Code:      "FIELD_REQUIRED",
		Message:   fmt.Sprintf("field %q is required", field),
		LocaleKey: localeKey,
		TemplateData: map[string]string{
			"Field": field,
		},
	}
}

func NewInvalidFieldError(field, tag, localeKey string) *BaseError {
	return &BaseError{
		Code:      "FIELD_INVALID",
		Message:   fmt.Sprintf("field %q failed validation %q", field, tag),
		LocaleKey: localeKey,
		TemplateData: map[string]string{
			"Field": field,
			"Tag":   tag,
		},
	}
}

// ProcessValidatorErrors converts go-playground field errors into the
// structured form, keyed by struct field name.
func ProcessValidatorErrors(errs validator.ValidationErrors, localeKeyFor func(field string) string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		key := ""
		if localeKeyFor != nil {
			key = localeKeyFor(fe.Field())
		}
		if fe.Tag() == "required" {
			out[fe.Field()] = NewFieldRequiredError(fe.Field(), key)
			continue
		}
		out[fe.Field()] = NewInvalidFieldError(fe.Field(), fe.Tag(), key)
	}
	return out
}
