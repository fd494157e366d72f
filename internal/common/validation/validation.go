package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// Maximum lengths for free-form attestation fields
	MaxIdentifierLength   = 256
	MaxActivityNameLength = 200
	MaxReasonLength       = 500

	MinReasonLength = 1
)

// ValidateIdentifier checks an event, activity or proof identifier before it
// is canonicalised.
func ValidateIdentifier(value, fieldName string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if utf8.RuneCountInString(value) > MaxIdentifierLength {
		return fmt.Errorf("%s cannot exceed %d characters", fieldName, MaxIdentifierLength)
	}

	return nil
}

// ValidateActivityName checks the optional display name stored with a completion.
func ValidateActivityName(name string) error {
	if utf8.RuneCountInString(name) > MaxActivityNameLength {
		return fmt.Errorf("activity name cannot exceed %d characters", MaxActivityNameLength)
	}
	return nil
}

// ValidateReason checks a revocation reason
func ValidateReason(reason string) error {
	reason = strings.TrimSpace(reason)
	if len(reason) < MinReasonLength {
		return fmt.Errorf("reason cannot be empty")
	}

	if utf8.RuneCountInString(reason) > MaxReasonLength {
		return fmt.Errorf("reason cannot exceed %d characters", MaxReasonLength)
	}

	return nil
}

func IsValidIdentifier(value string) bool {
	return ValidateIdentifier(value, "identifier") == nil
}
