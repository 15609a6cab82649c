package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidLength indicates phone number length is not 10 digits
	ErrInvalidLength = errors.New("phone number must be exactly 10 digits")

	// ErrInvalidPrefix indicates phone number doesn't start with a valid Vietnamese mobile prefix
	ErrInvalidPrefix = errors.New("phone number must start with 03, 05, 07, 08, or 09")
)

// validPrefixes contains the Vietnamese mobile operator prefixes
var validPrefixes = []string{
	"03", // Viettel
	"05", // Vietnamobile
	"07", // Mobifone
	"08", // Vinaphone
	"09", // Viettel / Mobifone / Vinaphone legacy ranges
}

// nonDigits matches everything that is not a digit
var nonDigits = regexp.MustCompile(`\D`)

// PhoneValidator normalizes and validates Vietnamese phone numbers
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Normalize converts a phone number to the canonical local form:
// non-digits are stripped, a leading country code "84" becomes a
// leading "0", and any other number without a leading "0" gets one.
//
//	"84912345678"  -> "0912345678"
//	"0912345678"   -> "0912345678"
//	"912345678"    -> "0912345678"
func (v *PhoneValidator) Normalize(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "84") && len(digits) == 11 {
		return "0" + digits[2:]
	}
	if !strings.HasPrefix(digits, "0") {
		return "0" + digits
	}
	return digits
}

// Validate normalizes a phone number and checks it is a plausible
// Vietnamese mobile number. Returns the normalized number on success.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if phone == "" {
		return "", ErrEmptyPhone
	}

	normalized := v.Normalize(phone)
	if normalized == "" {
		return "", ErrEmptyPhone
	}

	if len(normalized) != 10 {
		return "", ErrInvalidLength
	}

	if !v.IsValidPrefix(normalized) {
		return "", ErrInvalidPrefix
	}

	return normalized, nil
}

// IsValidPrefix checks if the number starts with a valid Vietnamese mobile prefix
func (v *PhoneValidator) IsValidPrefix(phone string) bool {
	if len(phone) < 2 {
		return false
	}

	prefix := phone[:2]
	for _, validPrefix := range validPrefixes {
		if prefix == validPrefix {
			return true
		}
	}

	return false
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}

// Format formats a phone number in the standard display format: 0XXX XXX XXX
func (v *PhoneValidator) Format(phone string) (string, error) {
	normalized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %s %s",
		normalized[0:4],
		normalized[4:7],
		normalized[7:10],
	), nil
}
