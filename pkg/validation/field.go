package validation

import (
	"fmt"
	"strings"

	"github.com/userdesk/userdesk/pkg/user"
)

var labels = map[string]string{
	user.FieldName:     "Name",
	user.FieldLastName: "Last name",
	user.FieldAvatar:   "Avatar",
	user.FieldSchool:   "School",
	user.FieldPhone:    "Phone",
	user.FieldEmail:    "Email",
	user.FieldRole:     "Role",
}

// Label returns the display label for a field key.
func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

// ValidateUser runs every field rule against f in form order.
// Each field contributes at most one error.
func ValidateUser(f user.Fields) *Result {
	return validateFields(f, LocationForm)
}

func validateFields(f user.Fields, location string) *Result {
	result := &Result{Valid: true}
	for _, key := range user.FieldKeys() {
		value, _ := f.Get(key)
		if err := validateField(key, location, value); err != nil {
			result.AddError(err)
		}
	}
	return result
}

// ValidateField checks a single form value. It returns nil when the value is acceptable.
func ValidateField(field, value string) *FieldError {
	return validateField(field, LocationForm, value)
}

func validateField(field, location, value string) *FieldError {
	if _, known := labels[field]; !known {
		return &FieldError{
			Field:    field,
			Location: location,
			Code:     ErrCodeUnknown,
			Message:  fmt.Sprintf("unknown field %q", field),
		}
	}
	if value == "" {
		return NewRequiredError(field, location)
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return NewBlankError(field, location, value)
	}

	switch field {
	case user.FieldPhone:
		return checkPhone(location, trimmed)
	case user.FieldAvatar:
		if !ValidateFormat("uri", trimmed) {
			return NewFormatError(field, location, "uri", value)
		}
	case user.FieldEmail:
		if !ValidateFormat("email", trimmed) {
			return NewFormatError(field, location, "email", value)
		}
	case user.FieldRole:
		if !user.Role(trimmed).Valid() {
			allowed := make([]string, 0, 3)
			for _, r := range user.Roles() {
				allowed = append(allowed, string(r))
			}
			return NewEnumError(field, location, allowed, value)
		}
	}
	return nil
}

// checkPhone reports the first broken phone rule. A second '+' is reported
// before the character pattern, so "+99455666666+6" gets the '+' message.
func checkPhone(location, phone string) *FieldError {
	if strings.Count(phone, "+") > 1 {
		return NewPatternError(user.FieldPhone, location, "only one '+' is allowed", phone)
	}
	if !strings.HasPrefix(phone, "+") {
		return NewPatternError(user.FieldPhone, location, "'+' must be the first character", phone)
	}
	if !phonePattern.MatchString(phone) {
		return NewPatternError(user.FieldPhone, location, "phone may contain only '+' and digits", phone)
	}
	if len(phone) != PhoneLength {
		return &FieldError{
			Field:    user.FieldPhone,
			Location: location,
			Code:     ErrCodeLength,
			Message:  fmt.Sprintf("phone must be exactly %d characters", PhoneLength),
			Received: len(phone),
			Hint:     "Example: +994556666666",
		}
	}
	return nil
}

// Func adapts the rule for field into the func(string) error shape used by
// interactive form inputs.
func Func(field string) func(string) error {
	return func(value string) error {
		if err := ValidateField(field, value); err != nil {
			return err
		}
		return nil
	}
}
