package validation

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/bindkit/errors"
)

// DetailFields is the AppError detail key holding the []FieldError of an
// INVALID_CONFIG error built by this package.
const DetailFields = "fields"

// FieldError is one violation, keyed by configuration path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Validator accumulates violations so a caller can report all of them at
// once. The zero value is ready to use.
type Validator struct {
	errs []FieldError
}

// New returns an empty Validator.
func New() *Validator { return &Validator{} }

// AddError records a violation.
func (v *Validator) AddError(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

// Merge records the violations of err. Errors produced by this package keep
// their fields; any other error is recorded without one.
func (v *Validator) Merge(err error) *Validator {
	if err == nil {
		return v
	}
	if fields := Fields(err); fields != nil {
		v.errs = append(v.errs, fields...)
	} else {
		v.AddError("", err.Error())
	}
	return v
}

// Custom records message for field unless ok holds.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.errs) > 0 }

// Errors returns the recorded violations in order.
func (v *Validator) Errors() []FieldError { return v.errs }

// Validate returns nil when nothing was recorded, otherwise an
// INVALID_CONFIG error listing every violation.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	return invalid(slices.Clone(v.errs))
}

// Range records a violation unless lo <= value <= hi.
func Range[T cmp.Ordered](v *Validator, field string, value, lo, hi T) *Validator {
	if value < lo || value > hi {
		v.AddError(field, fmt.Sprintf("must be between %v and %v", lo, hi))
	}
	return v
}

// OneOf records a violation unless value is allowed. The zero value is
// always accepted so optional settings can stay unset.
func OneOf[T comparable](v *Validator, field string, value T, allowed ...T) *Validator {
	var zero T
	if value == zero || slices.Contains(allowed, value) {
		return v
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = fmt.Sprint(a)
	}
	v.AddError(field, "must be one of: "+strings.Join(names, ", "))
	return v
}

// Fields returns the violations carried by err, or nil when err was not
// built by this package.
func Fields(err error) []FieldError {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return nil
	}
	fields, _ := appErr.Details[DetailFields].([]FieldError)
	return fields
}

func invalid(fields []FieldError) *errors.AppError {
	msgs := make([]string, len(fields))
	for i, f := range fields {
		msgs[i] = f.String()
	}
	return errors.InvalidConfig(strings.Join(msgs, "; ")).WithDetail(DetailFields, fields)
}
