package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"
)

// ClockLayout is the wall-clock format of session start and end times.
const ClockLayout = "15:04"

var emailRegex = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

// go-playground/validator suggests using a single instance of the validator.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validateNotBlank)
	_ = v.RegisterValidation("clock", validateClock)
	_ = v.RegisterValidation("strictemail", validateEmail)
	_ = v.RegisterValidation("role", validateRole)
	v.RegisterStructValidation(validateEventDates, EventInput{}, EventUpdate{})
	v.RegisterStructValidation(validateSessionTimes, SessionInput{})
	return v
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateClock(fl validator.FieldLevel) bool {
	_, err := ParseClock(fl.Field().String())
	return err == nil
}

func validateEmail(fl validator.FieldLevel) bool {
	return IsValidEmail(fl.Field().String())
}

func validateRole(fl validator.FieldLevel) bool {
	return NormalizeRole(fl.Field().String()) != ""
}

// validateEventDates compares calendar days, so a one-day event may end at an
// earlier time of day than it starts.
func validateEventDates(sl validator.StructLevel) {
	var start, end time.Time
	switch e := sl.Current().Interface().(type) {
	case EventInput:
		start, end = e.StartDate, e.EndDate
	case EventUpdate:
		start, end = e.StartDate, e.EndDate
	}
	if start.IsZero() || end.IsZero() {
		return
	}
	if TruncateToDate(end).Before(TruncateToDate(start)) {
		sl.ReportError(end, "EndDate", "EndDate", "gtefield", "StartDate")
	}
}

func validateSessionTimes(sl validator.StructLevel) {
	s, ok := sl.Current().Interface().(SessionInput)
	if !ok {
		return
	}
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return
	}
	// Canonical HH:mm strings order the same way as the times they name.
	if end < start {
		sl.ReportError(s.EndTime, "EndTime", "EndTime", "gtefield", "StartTime")
	}
}

// IsValidEmail reports whether s looks like an e-mail address.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

var clockRegex = regexp.MustCompile(`^\d{2}:\d{2}$`)

// ParseClock parses a two-digit HH:mm wall-clock time.
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !clockRegex.MatchString(s) {
		return "", fmt.Errorf("invalid time %q, expected HH:mm", s)
	}
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:mm", s)
	}
	return t.Format(ClockLayout), nil
}

// Validate runs the struct's validate tags and flattens the first failure into
// a readable message naming the field.
func Validate(input interface{}) error {
	return describeValidationErrors(validate.Struct(input))
}

// ValidateVar validates a single value against a tag string.
func ValidateVar(field string, value interface{}, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if errors.As(err, &vErrors) && len(vErrors) > 0 {
		return errors.New(describeFieldError(field, vErrors[0]))
	}
	return err
}

func describeValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}
	return errors.New(describeFieldError(vErrors[0].Field(), vErrors[0]))
}

func describeFieldError(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt", "gte":
		return field + " is below the minimum value"
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, fe.Param())
	case "clock":
		return field + " must be a time in HH:mm format"
	case "strictemail":
		return field + " must be a valid e-mail address"
	case "role":
		return field + " must be organizer or attendee"
	default:
		return field + " is invalid"
	}
}
