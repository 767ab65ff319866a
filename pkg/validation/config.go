package validation

import (
	"errors"
	"fmt"
	"time"
)

// ConfigValidator checks one configuration section and keeps going after a
// failure so that Validate can report every bad field together. Errors are
// prefixed "section.field".
type ConfigValidator struct {
	section string
	errs    []error
}

func NewConfigValidator(section string) *ConfigValidator {
	return &ConfigValidator{section: section}
}

func (cv *ConfigValidator) addf(field, format string, args ...any) *ConfigValidator {
	cv.errs = append(cv.errs, fmt.Errorf("%s.%s: %s", cv.section, field, fmt.Sprintf(format, args...)))
	return cv
}

func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if value != "" {
		return cv
	}
	return cv.addf(field, "required field is empty")
}

func (cv *ConfigValidator) RangeInt(field string, value, lo, hi int) *ConfigValidator {
	if value >= lo && value <= hi {
		return cv
	}
	return cv.addf(field, "value %d is outside range [%d, %d]", value, lo, hi)
}

func (cv *ConfigValidator) Positive(field string, value int64) *ConfigValidator {
	if value > 0 {
		return cv
	}
	return cv.addf(field, "value %d must be positive", value)
}

func (cv *ConfigValidator) PositiveFloat(field string, value float64) *ConfigValidator {
	if value > 0 {
		return cv
	}
	return cv.addf(field, "value %g must be positive", value)
}

func (cv *ConfigValidator) RangeDuration(field string, value, lo, hi time.Duration) *ConfigValidator {
	if value >= lo && value <= hi {
		return cv
	}
	return cv.addf(field, "duration %v is outside range [%v, %v]", value, lo, hi)
}

func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	return cv.addf(field, "value %q must be one of %v", value, allowed)
}

// Custom records fn's error against field, wrapped so errors.Is still sees it.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		cv.errs = append(cv.errs, fmt.Errorf("%s.%s: %w", cv.section, field, err))
	}
	return cv
}

// When runs the nested checks only if cond holds.
func (cv *ConfigValidator) When(cond bool, checks func(*ConfigValidator)) *ConfigValidator {
	if cond {
		checks(cv)
	}
	return cv
}

func (cv *ConfigValidator) Errors() []error { return cv.errs }

// Validate joins every recorded error, or returns nil.
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.errs...)
}
