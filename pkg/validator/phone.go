package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits, spaces, dashes, dots, parentheses and a leading +")

	// ErrInvalidLength indicates the number has too few or too many digits
	ErrInvalidLength = errors.New("phone number must have between 8 and 15 digits including the country code")

	// ErrMissingCountryCode indicates a number that is neither local nor international
	ErrMissingCountryCode = errors.New("phone number must start with + and a country code, or 0 for a local number")
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// PhoneValidator normalizes customer phone numbers to E.164 ("+27821234567").
// Local numbers with a leading 0 get the default country code.
type PhoneValidator struct {
	countryCode string
}

// NewPhoneValidator creates a validator that treats local numbers as belonging
// to countryCode (digits only, e.g. "27")
func NewPhoneValidator(countryCode string) *PhoneValidator {
	return &PhoneValidator{countryCode: strings.TrimPrefix(countryCode, "+")}
}

// Validate checks a phone number and returns it in E.164 form.
// Accepts "+27 82 123 4567", "0027821234567", "082-123-4567", "(082) 123 4567".
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)
	international := strings.HasPrefix(sanitized, "+")
	digits := strings.TrimPrefix(sanitized, "+")

	if !digitsOnly.MatchString(digits) {
		return "", ErrInvalidFormat
	}

	switch {
	case international:
	case strings.HasPrefix(digits, "00"):
		digits = digits[2:]
	case strings.HasPrefix(digits, "0") && v.countryCode != "":
		digits = v.countryCode + digits[1:]
	default:
		return "", ErrMissingCountryCode
	}

	if len(digits) < 8 || len(digits) > 15 || digits[0] == '0' {
		return "", ErrInvalidLength
	}

	return "+" + digits, nil
}

// Sanitize removes common separators, keeping a leading +
func (v *PhoneValidator) Sanitize(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
