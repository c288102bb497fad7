package validation

import (
	"strings"

	"github.com/kbukum/mediagraph/errors"
)

// FieldError is one entry of Details["fields"].
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator collects failures of checks that span several fields.
type Validator struct {
	fields []FieldError
}

func New() *Validator { return &Validator{} }

func (v *Validator) AddError(field, message string) *Validator {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
	return v
}

// Custom records message for field unless ok holds.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// URI accepts an empty value; use a required check for mandatory URIs.
func (v *Validator) URI(field, value string) *Validator {
	return v.Custom(value == "" || IsMediaURI(value), field, "must be an absolute media URI")
}

func (v *Validator) Fields() []FieldError { return v.fields }

// Err returns nil when every check passed.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	parts := make([]string, len(v.fields))
	for i, f := range v.fields {
		parts[i] = f.Message
		if f.Field != "" {
			parts[i] = f.Field + ": " + f.Message
		}
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", v.fields)
}
