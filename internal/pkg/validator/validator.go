package validator

import "errors"

// Validator checks a struct against its `validate` tags.
type Validator interface {
	Validate(data any) error
}

// Fields returns the per-field messages carried by err, if it is (or wraps)
// a validation failure produced by this package.
func Fields(err error) (map[string]string, bool) {
	var v V10ValidationError
	if errors.As(err, &v) {
		return v.Values(), true
	}

	return nil, false
}
