package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/bindkit/errors"
)

// structValidator names fields after their configuration keys so messages
// read "resolution.policy: ..." rather than "Engine.Resolution.Policy".
var structValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(keyName)
	return v
})

func keyName(f reflect.StructField) string {
	for _, tag := range []string{"mapstructure", "yaml"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return "-"
		}
		if name != "" {
			return name
		}
	}
	return toSnakeCase(f.Name)
}

// messages maps validator tags to a message; "%" is replaced by the tag
// parameter.
var messages = map[string]string{
	"required":      "is required",
	"min":           "must be at least %",
	"max":           "must be at most %",
	"gte":           "must be greater than or equal to %",
	"lte":           "must be less than or equal to %",
	"oneof":         "must be one of: %",
	"url":           "must be a valid endpoint",
	"hostname_port": "must be a valid endpoint",
}

// Validate checks the `validate` tags of s and returns an INVALID_CONFIG
// error listing every violation, or nil.
func Validate(s any) error {
	err := structValidator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.InvalidConfig("validation failed").WithCause(err)
	}
	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{Field: keyPath(fe.Namespace()), Message: message(fe)}
	}
	return invalid(fields)
}

// keyPath drops the root type from a validator namespace.
func keyPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return rest
}

func message(fe validator.FieldError) string {
	tmpl, ok := messages[fe.Tag()]
	if !ok {
		return "is invalid"
	}
	return strings.ReplaceAll(tmpl, "%", fe.Param())
}

// toSnakeCase turns MaxDepth into max_depth.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
