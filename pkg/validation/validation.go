// Package validation checks request DTOs against their `validate` tags and
// turns the first failing field into a validation_failed error.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "stewardship/pkg/domain-errors"
	platformstrings "stewardship/pkg/platform/strings"
)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}()

// messages maps a tag to its message; %[1]s is the field, %[2]s the tag
// parameter.
var messages = map[string]string{
	"required": "%[1]s is required",
	"uuid":     "%[1]s must contain valid uuids",
	"min":      "%[1]s must have at least %[2]s entries",
	"max":      "%[1]s must be at most %[2]s",
	"oneof":    "%[1]s must be one of [%[2]s]",
	"notblank": "%[1]s must not be blank",
}

func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

// ErrorMessage describes the first field error in err using the field's
// snake_case name.
func ErrorMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid request body"
	}
	fe := fieldErrs[0]
	field := fieldName(fe)

	if fe.ActualTag() == "gtfield" {
		return fmt.Sprintf("%s must be after %s", field, platformstrings.ToSnakeCase(fe.Param()))
	}
	if msg, ok := messages[fe.ActualTag()]; ok {
		return fmt.Sprintf(msg, field, fe.Param())
	}
	if field == "" {
		return "invalid request body"
	}
	return field + " is invalid"
}

// fieldName strips the index from dive errors such as "ActorIDs[2]".
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		name = fe.StructField()
	}
	name, _, _ = strings.Cut(platformstrings.ToSnakeCase(name), "[")
	return name
}
