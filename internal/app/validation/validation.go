// Package validation holds the shared validator instance used for forms and payloads.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

const notBlankTag = "notblank"

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(notBlankTag, notBlank)
}

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return !fl.Field().IsZero()
}

// FieldErrors maps field names to a readable message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e[name])
	}
	return strings.Join(parts, "; ")
}

// Struct validates v and converts validator errors into FieldErrors.
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		out[fe.Field()] = message(labelOf(fe.Field()), fe.Tag())
	}
	return out
}

// Required checks a single named value, the way modal forms validate their inputs.
func Required(fields FieldErrors, name, label, value string) {
	if err := Validate.Var(value, "required,"+notBlankTag); err != nil {
		fields[name] = message(label, "required")
	}
}

// labelOf turns a json field name into a sentence label: "first_name" -> "First name".
func labelOf(field string) string {
	label := strings.ReplaceAll(field, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func message(field, tag string) string {
	switch tag {
	case "required", notBlankTag:
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
