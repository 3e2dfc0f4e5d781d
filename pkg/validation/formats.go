package validation

import (
	"net/url"
	"regexp"
	"strings"
)

// FormatValidator is a function that validates a string against a format
type FormatValidator func(value string) bool

// PhoneLength is the exact length of an accepted phone number, '+' included.
const PhoneLength = 13

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,4}$`)
	phonePattern = regexp.MustCompile(`^\+[0-9]+$`)
)

// formatValidators maps format names to their validation functions.
// Phone has its own ordered checks in checkPhone.
var formatValidators = map[string]FormatValidator{
	"email": validateEmail,
	"uri":   validateURI,
}

// ValidateFormat checks if a value matches the specified format
func ValidateFormat(format, value string) bool {
	validator, ok := formatValidators[strings.ToLower(format)]
	if !ok {
		// Unknown format - pass validation (don't fail on unknown formats)
		return true
	}
	return validator(value)
}

func validateEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// validateURI accepts absolute URIs with a host.
func validateURI(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
