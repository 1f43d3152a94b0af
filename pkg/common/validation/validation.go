package validation

import (
	"net/url"
	"reflect"
	"time"

	gferrors "github.com/vnykmshr/docgate/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return gferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is positive (> 0).
func ValidatePositiveDuration(module, field string, value time.Duration) error {
	if value <= 0 {
		return gferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("use a duration such as 1s or 500ms")
	}
	return nil
}

// ValidateNonNegativeDuration validates that a duration is zero or positive.
// Zero conventionally means "no limit".
func ValidateNonNegativeDuration(module, field string, value time.Duration) error {
	if value < 0 {
		return gferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 to disable the limit")
	}
	return nil
}

// ValidateNotNil validates that value is neither nil nor a nil pointer,
// map, slice, channel or func stored in an interface.
// Returns a ValidationError if it is.
func ValidateNotNil(module, field string, value interface{}) error {
	if isNil(value) {
		return gferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return gferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateURL validates that value is an absolute http or https URL.
func ValidateURL(module, field string, value string) error {
	if err := ValidateNotEmpty(module, field, value); err != nil {
		return err
	}
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return gferrors.NewValidationError(module, field, value, "must be an absolute http(s) URL").
			WithHint("for example https://ismp.crpt.ru/api/v3/lk/documents/create")
	}
	return nil
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
