// Package validation collects field violations for forms.
package validation

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Violations maps a form field to the code of its first failed rule.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Has reports whether field failed a rule.
func (v Violations) Has(field string) bool {
	_, ok := v[field]
	return ok
}

// String lists the violations as "field: code", sorted by field.
func (v Violations) String() string {
	parts := make([]string, 0, len(v))
	for field, code := range v {
		parts = append(parts, field+": "+code)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Struct validates s against its `validate` tags. Codes are the failed tag
// names ("required", "alphanumunicode", "eqfield", ...).
func Struct(s any) Violations {
	v := Violations{}
	err := validate.Struct(s)
	if err == nil {
		return v
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		v["_"] = "invalid"
		return v
	}
	for _, fe := range errs {
		if _, exists := v[fe.Field()]; !exists {
			v[fe.Field()] = fe.Tag()
		}
	}
	return v
}
