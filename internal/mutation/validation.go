package mutation

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Field is one form input subject to local validation.
type Field struct {
	Name     string
	Value    string
	Required bool
	Validate func(value string) error
}

// Email validates an e-mail address.
func Email(value string) error {
	if _, err := mail.ParseAddress(value); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidationError lists every field that failed local validation. It is
// produced before any request is made.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string {
	return e.errs.Error()
}

func (e *ValidationError) Unwrap() []error {
	return e.errs.WrappedErrors()
}

// Problems returns one message per failed field.
func (e *ValidationError) Problems() []string {
	out := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		out = append(out, err.Error())
	}
	return out
}

// ValidateFields checks every field and returns a *ValidationError
// aggregating all failures, or nil.
func ValidateFields(fields []Field) error {
	var result *multierror.Error
	for _, f := range fields {
		value := strings.TrimSpace(f.Value)
		if value == "" {
			if f.Required {
				result = multierror.Append(result, fmt.Errorf("%s is required", f.Name))
			}
			continue
		}
		if f.Validate != nil {
			if err := f.Validate(value); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", f.Name, err))
			}
		}
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return strings.Join(msgs, "; ")
	}
	return &ValidationError{errs: result}
}
